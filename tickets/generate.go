package tickets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"

	"eventgo/apperr"
	"eventgo/db"
	"eventgo/filemgr"
	"eventgo/globals"
	"eventgo/models"
	"eventgo/utils"
)

const defaultQRSize = 70.0

// GenerateInput asks for a batch of printable tickets of one type.
type GenerateInput struct {
	TicketTypeID string  `json:"ticketTypeId" validate:"required"`
	Quantity     int     `json:"quantity" validate:"min=1,max=500"`
	QRSize       float64 `json:"qrSize" validate:"omitempty,gte=20,lte=180"`
	// Background is an optional JPEG or PNG data URL printed full page.
	Background string `json:"background"`
}

// Batch is a set of tickets issued for printing.
type Batch struct {
	Receipt    *Receipt
	Event      *models.Event
	TypeName   string
	QRSize     float64
	Background []byte
}

// Generate issues quantity tickets held by actor, who must be an admin or
// the event's creator, and prepares them for printing.
func (s *Service) Generate(ctx context.Context, actor models.Identity, eventID string, in GenerateInput) (*Batch, error) {
	if actor.ID == "" {
		return nil, apperr.Authentication("Authentication required.")
	}
	if err := utils.Validate(in); err != nil {
		return nil, err
	}

	event, err := s.Store.EventByID(ctx, eventID)
	if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrInvalidID) {
		return nil, apperr.NotFound("Event not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if !event.IsCreator(actor.ID) && actor.Role != globals.RoleAdmin {
		return nil, apperr.Authorization("You are not authorized to generate tickets for this event.")
	}

	batch := &Batch{Event: event, TypeName: "Ticket", QRSize: in.QRSize}
	if batch.QRSize == 0 {
		batch.QRSize = defaultQRSize
	}
	if tt, ok := event.TicketType(in.TicketTypeID); ok {
		batch.TypeName = tt.Name
	}
	if in.Background != "" {
		jpeg, err := filemgr.NormalizeImage(in.Background, filemgr.PicPoster)
		if err == nil {
			batch.Background, _, err = filemgr.DecodeDataURL(jpeg, filemgr.PicPoster)
		}
		if err != nil {
			return nil, apperr.ValidationFields("Invalid background image.", map[string][]string{
				"background": {err.Error()},
			})
		}
	}

	batch.Receipt, err = s.Purchase(ctx, actor.ID, event.ID, []models.Selection{
		{TicketTypeID: in.TicketTypeID, Quantity: in.Quantity},
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// RenderBatchPDF prints one ticket per A4 page: the background, the event
// name near the top, a centred QR code and the ticket id near the bottom.
func RenderBatchPDF(b *Batch) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(false, 0)
	pageW, pageH := pdf.GetPageSize()

	bgOpts := gofpdf.ImageOptions{ImageType: "JPG"}
	if len(b.Background) > 0 {
		pdf.RegisterImageOptionsReader("background", bgOpts, bytes.NewReader(b.Background))
	}

	qrOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	for _, t := range b.Receipt.Tickets {
		qrPNG, err := QRPNG(t.QRData)
		if err != nil {
			return nil, fmt.Errorf("render QR for ticket %s: %w", t.ID, err)
		}

		pdf.AddPage()
		if len(b.Background) > 0 {
			pdf.ImageOptions("background", 0, 0, pageW, pageH, false, bgOpts, 0, "")
		}

		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Arial", "B", 24)
		pdf.SetXY(0, pageH*0.15)
		pdf.CellFormat(pageW, 12, tr(b.Event.Name), "", 0, "C", false, 0, "")

		name := "qr-" + t.ID
		pdf.RegisterImageOptionsReader(name, qrOpts, bytes.NewReader(qrPNG))
		pdf.ImageOptions(name, (pageW-b.QRSize)/2, (pageH-b.QRSize)/2, b.QRSize, b.QRSize, false, qrOpts, 0, "")

		pdf.SetFont("Arial", "", 14)
		pdf.SetXY(0, pageH*0.85)
		pdf.CellFormat(pageW, 8, tr(fmt.Sprintf("%s ID: %s", b.TypeName, t.ID)), "", 0, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateHandler handles POST /api/events/:eventid/tickets/generate
func (s *Service) GenerateHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in GenerateInput
	if err := utils.DecodeJSON(w, r, &in, filemgr.MaxImageBytes*2); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	actor, _ := utils.GetIdentityFromRequest(r)
	batch, err := s.Generate(r.Context(), actor, ps.ByName("eventid"), in)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	pdf, err := RenderBatchPDF(batch)
	if err != nil {
		utils.RespondWithErr(w, r, fmt.Errorf("render batch for order %s: %w", batch.Receipt.Order.ID, err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=tickets-%s-%d.pdf", batch.Event.ID, len(batch.Receipt.Tickets)))
	w.Header().Set("X-Order-ID", batch.Receipt.Order.ID)
	if _, err := w.Write(pdf); err != nil {
		log.Printf("Failed to write ticket batch for order %s: %v", batch.Receipt.Order.ID, err)
	}
}
