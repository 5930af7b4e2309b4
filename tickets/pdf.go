package tickets

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"eventgo/models"
)

// TicketSheet is everything printed on a ticket.
type TicketSheet struct {
	Ticket *models.Ticket
	Event  *models.Event
	Holder string
}

// RenderPDF lays out a single A4 ticket with its QR code on the right.
func RenderPDF(sheet TicketSheet) ([]byte, error) {
	qrPNG, err := QRPNG(sheet.Ticket.QRData)
	if err != nil {
		return nil, fmt.Errorf("render QR: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 15, "Event Go Ticket", "", 1, "C", false, 0, "")
	pdf.Ln(5)

	eventName, when, where, typeName := "Unknown event", "", "", sheet.Ticket.TicketTypeID
	if e := sheet.Event; e != nil {
		eventName = e.Name
		when = e.Date.Format("Mon 02 Jan 2006 15:04 MST")
		where = e.Location.Name
		if tt, ok := e.TicketType(sheet.Ticket.TicketTypeID); ok {
			typeName = fmt.Sprintf("%s ($%.2f)", tt.Name, tt.Price)
		}
	}

	pdf.SetFont("Arial", "B", 16)
	pdf.MultiCell(120, 10, tr(eventName), "", "L", false)
	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(120, 8, tr(fmt.Sprintf(
		"Date: %s\nVenue: %s\nTicket: %s\nHolder: %s\nTicket ID: %s\nStatus: %s",
		when, where, typeName, sheet.Holder, sheet.Ticket.ID, sheet.Ticket.Status,
	)), "", "L", false)

	imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imgOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 145, 45, 45, 45, false, imgOpts, 0, "")

	pdf.SetY(-30)
	pdf.SetFont("Arial", "I", 10)
	pdf.CellFormat(0, 10, "Show this ticket at entry. Each ticket admits one person once.", "T", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
