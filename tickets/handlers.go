package tickets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"eventgo/apperr"
	"eventgo/db"
	"eventgo/globals"
	"eventgo/models"
	"eventgo/utils"
)

const maxTicketBody = 64 << 10

// PurchaseHandler handles POST /api/events/:eventid/purchase
func (s *Service) PurchaseHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in struct {
		Selections []models.Selection `json:"selections"`
	}
	if err := utils.DecodeJSON(w, r, &in, maxTicketBody); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	p, err := s.Purchase(r.Context(), utils.GetUserIDFromRequest(r), ps.ByName("eventid"), in.Selections)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.SendResponse(w, http.StatusCreated, p, "Purchase successful")
}

// MyOrders handles GET /api/me/orders
func (s *Service) MyOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	orders, err := s.Store.OrdersByUser(r.Context(), utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, orders, "")
}

// MyOrder handles GET /api/me/orders/:orderid
func (s *Service) MyOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	order, err := s.Store.OrderByID(r.Context(), ps.ByName("orderid"))
	if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrInvalidID) {
		utils.RespondWithErr(w, r, apperr.NotFound("Order not found."))
		return
	}
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	if order.UserID != utils.GetUserIDFromRequest(r) {
		utils.RespondWithErr(w, r, apperr.Authorization("You are not authorized to view this order."))
		return
	}
	utils.SendResponse(w, http.StatusOK, order, "")
}

// TicketGroup is one event's entry on the tickets page.
type TicketGroup struct {
	EventID string          `json:"eventId"`
	Event   *models.Event   `json:"event,omitempty"`
	Tickets []models.Ticket `json:"tickets"`
}

// GroupByEvent keeps the order in which each event first appears.
func (s *Service) GroupByEvent(ctx context.Context, tickets []models.Ticket) ([]TicketGroup, error) {
	groups := []TicketGroup{}
	index := map[string]int{}
	for _, t := range tickets {
		i, ok := index[t.EventID]
		if !ok {
			e, err := s.Store.EventByID(ctx, t.EventID)
			if err != nil && !errors.Is(err, db.ErrNotFound) && !errors.Is(err, db.ErrInvalidID) {
				return nil, err
			}
			i = len(groups)
			index[t.EventID] = i
			groups = append(groups, TicketGroup{EventID: t.EventID, Event: e})
		}
		groups[i].Tickets = append(groups[i].Tickets, t)
	}
	return groups, nil
}

// MyTickets handles GET /api/me/tickets
func (s *Service) MyTickets(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tickets, err := s.Store.TicketsByUser(r.Context(), utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	groups, err := s.GroupByEvent(r.Context(), tickets)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, groups, "")
}

// viewableTicket loads a ticket the caller owns, or any ticket for admins.
func (s *Service) viewableTicket(r *http.Request, id string) (*models.Ticket, error) {
	t, err := s.Store.TicketByID(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrInvalidID) {
		return nil, apperr.NotFound("Ticket not found.")
	}
	if err != nil {
		return nil, err
	}
	identity, _ := utils.GetIdentityFromRequest(r)
	if t.UserID != identity.ID && identity.Role != globals.RoleAdmin {
		return nil, apperr.Authorization("You are not authorized to view this ticket.")
	}
	return t, nil
}

// TicketQR handles GET /api/tickets/:ticketid/qr.png
func (s *Service) TicketQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	t, err := s.viewableTicket(r, ps.ByName("ticketid"))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	png, err := QRPNG(t.QRData)
	if err != nil {
		utils.RespondWithErr(w, r, fmt.Errorf("render QR for ticket %s: %w", t.ID, err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(png); err != nil {
		log.Printf("Failed to write QR for ticket %s: %v", t.ID, err)
	}
}

// TicketPDF handles GET /api/tickets/:ticketid/pdf
func (s *Service) TicketPDF(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	t, err := s.viewableTicket(r, ps.ByName("ticketid"))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	sheet := TicketSheet{Ticket: t}
	if e, err := s.Store.EventByID(r.Context(), t.EventID); err == nil {
		sheet.Event = e
	}
	if u, err := s.Store.UserByID(r.Context(), t.UserID); err == nil {
		sheet.Holder = u.Name
	}

	pdf, err := RenderPDF(sheet)
	if err != nil {
		utils.RespondWithErr(w, r, fmt.Errorf("render PDF for ticket %s: %w", t.ID, err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=ticket-"+t.ID+".pdf")
	if _, err := w.Write(pdf); err != nil {
		log.Printf("Failed to write PDF for ticket %s: %v", t.ID, err)
	}
}

// ValidateQRHandler handles POST /api/scan
func (s *Service) ValidateQRHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in struct {
		QRData string `json:"qrData"`
	}
	if err := utils.DecodeJSON(w, r, &in, maxTicketBody); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	res, err := s.ValidateQR(r.Context(), in.QRData)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// ValidateByID handles POST /api/tickets/:ticketid/validate
func (s *Service) ValidateByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	res, err := s.Validate(r.Context(), ps.ByName("ticketid"))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}
