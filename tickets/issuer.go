package tickets

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"eventgo/apperr"
	"eventgo/db"
	"eventgo/metrics"
	"eventgo/models"
	"eventgo/mq"
)

// placeholderQR is stored until the ticket has an id to sign.
const placeholderQR = "pending"

type Receipt struct {
	Order   *models.Order    `json:"order"`
	Tickets []*models.Ticket `json:"tickets"`
}

func checkSelections(selections []models.Selection) error {
	if len(selections) == 0 {
		return apperr.Validation("Select at least one ticket.")
	}
	for _, sel := range selections {
		if sel.Quantity < 1 {
			return apperr.Validation("Quantity must be at least 1.")
		}
	}
	return nil
}

func capacityError(remaining int64) error {
	return apperr.Capacity(fmt.Sprintf("Insufficient capacity: %d tickets left.", remaining))
}

// mergeSelections sums repeated ticket types and keeps first-seen order.
// The running total never exceeds remaining, so oversized quantities fail
// before they can overflow.
func mergeSelections(selections []models.Selection, remaining int64) ([]models.Selection, int, error) {
	index := map[string]int{}
	var (
		out   []models.Selection
		total int64
	)
	for _, sel := range selections {
		if int64(sel.Quantity) > remaining-total {
			return nil, 0, capacityError(remaining)
		}
		total += int64(sel.Quantity)
		if i, ok := index[sel.TicketTypeID]; ok {
			out[i].Quantity += sel.Quantity
			continue
		}
		index[sel.TicketTypeID] = len(out)
		out = append(out, sel)
	}
	return out, int(total), nil
}

// Total prices selections against the event's current ticket types.
func Total(e *models.Event, selections []models.Selection) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, sel := range selections {
		tt, ok := e.TicketType(sel.TicketTypeID)
		if !ok {
			return decimal.Zero, apperr.NotFound(fmt.Sprintf("Ticket type %s not found.", sel.TicketTypeID))
		}
		total = total.Add(decimal.NewFromFloat(tt.Price).Mul(decimal.NewFromInt(int64(sel.Quantity))))
	}
	return total.Round(2), nil
}

func failureReason(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return "validation"
	case apperr.KindAuthentication:
		return "unauthenticated"
	case apperr.KindNotFound:
		return "not_found"
	case apperr.KindCapacity:
		return "capacity"
	}
	return "internal"
}

// Purchase issues one order and one ticket per requested seat. The
// capacity check and the ticket insert are separate writes, so two
// concurrent purchases can both pass the check.
func (s *Service) Purchase(ctx context.Context, userID, eventID string, selections []models.Selection) (*Receipt, error) {
	p, err := s.purchase(ctx, userID, eventID, selections)
	if err != nil {
		metrics.PurchaseFailed(failureReason(err))
		return nil, err
	}
	metrics.OrderCreated(len(p.Tickets))
	s.emit(ctx, mq.Event{
		Name:     mq.TicketsIssued,
		EventID:  eventID,
		OrderID:  p.Order.ID,
		UserID:   userID,
		Quantity: len(p.Tickets),
	})
	return p, nil
}

func (s *Service) purchase(ctx context.Context, userID, eventID string, selections []models.Selection) (*Receipt, error) {
	if userID == "" {
		return nil, apperr.Authentication("Authentication required.")
	}
	if err := checkSelections(selections); err != nil {
		return nil, err
	}

	event, err := s.Store.EventByID(ctx, eventID)
	if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrInvalidID) {
		return nil, apperr.NotFound("Event not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	for _, sel := range selections {
		if _, ok := event.TicketType(sel.TicketTypeID); !ok {
			return nil, apperr.NotFound(fmt.Sprintf("Ticket type %s not found.", sel.TicketTypeID))
		}
	}

	issued, err := s.Store.CountTickets(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("count tickets: %w", err)
	}
	remaining := int64(event.Capacity) - issued
	if remaining < 0 {
		remaining = 0
	}
	merged, quantity, err := mergeSelections(selections, remaining)
	if err != nil {
		return nil, err
	}
	total, err := Total(event, merged)
	if err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	tickets := make([]*models.Ticket, 0, quantity)
	for _, sel := range merged {
		for i := 0; i < sel.Quantity; i++ {
			tickets = append(tickets, &models.Ticket{
				EventID:      event.ID,
				UserID:       userID,
				TicketTypeID: sel.TicketTypeID,
				QRData:       placeholderQR,
				Status:       models.TicketValid,
				CreatedAt:    now,
			})
		}
	}
	if err := s.Store.InsertTickets(ctx, tickets); err != nil {
		return nil, fmt.Errorf("insert tickets: %w", err)
	}

	ids := make([]string, len(tickets))
	for i, t := range tickets {
		ids[i] = t.ID
	}
	amount, _ := total.Float64()
	order := &models.Order{
		UserID:      userID,
		EventID:     event.ID,
		Tickets:     ids,
		TotalAmount: amount,
		CreatedAt:   now,
	}
	if err := s.Store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	fin := make([]models.TicketFinalization, len(tickets))
	for i, t := range tickets {
		t.OrderID = order.ID
		t.QRData = s.Codec.Encode(t.ID, event.ID, userID)
		fin[i] = models.TicketFinalization{TicketID: t.ID, OrderID: order.ID, QRData: t.QRData}
	}
	if err := s.Store.FinalizeTickets(ctx, fin); err != nil {
		return nil, fmt.Errorf("finalize tickets for order %s: %w", order.ID, err)
	}

	return &Receipt{Order: order, Tickets: tickets}, nil
}
