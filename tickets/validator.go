package tickets

import (
	"context"
	"errors"
	"fmt"
	"log"

	"eventgo/apperr"
	"eventgo/db"
	"eventgo/metrics"
	"eventgo/models"
	"eventgo/mq"
)

const (
	msgBadID       = "Invalid Ticket ID format."
	msgNotFound    = "Invalid Ticket: Not found."
	msgAlreadyUsed = "Ticket Already Used."
	msgValidated   = "Ticket Validated Successfully."
)

// Validation outcomes as reported to metrics and the bus.
const (
	OutcomeValidated   = "validated"
	OutcomeAlreadyUsed = "already_used"
	OutcomeNotFound    = "not_found"
	OutcomeInvalidID   = "invalid_id"
	OutcomeInvalidQR   = "invalid_qr"
)

// Result is what a scanner is shown. A failed validation is a Result,
// not an error.
type Result struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Ticket  *models.Ticket `json:"ticket,omitempty"`
	Event   *models.Event  `json:"event,omitempty"`
}

// Validate admits the holder of ticketID once.
func (s *Service) Validate(ctx context.Context, ticketID string) (*Result, error) {
	res, outcome, err := s.validate(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	metrics.TicketValidated(outcome)
	if res.Ticket != nil {
		s.emit(ctx, mq.Event{
			Name:     mq.TicketsValidated,
			EventID:  res.Ticket.EventID,
			TicketID: res.Ticket.ID,
			UserID:   res.Ticket.UserID,
			Outcome:  outcome,
		})
	}
	return res, nil
}

func (s *Service) validate(ctx context.Context, ticketID string) (*Result, string, error) {
	if db.CheckID(ticketID) != nil {
		return &Result{Message: msgBadID}, OutcomeInvalidID, nil
	}

	ticket, err := s.Store.TicketByID(ctx, ticketID)
	if errors.Is(err, db.ErrNotFound) {
		return &Result{Message: msgNotFound}, OutcomeNotFound, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("load ticket: %w", err)
	}

	event, err := s.Store.EventByID(ctx, ticket.EventID)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) && !errors.Is(err, db.ErrInvalidID) {
			return nil, "", fmt.Errorf("load event: %w", err)
		}
		event = nil
	}

	if ticket.Status == models.TicketUsed {
		return &Result{Message: msgAlreadyUsed, Ticket: ticket, Event: event}, OutcomeAlreadyUsed, nil
	}

	used, err := s.Store.MarkTicketUsed(ctx, ticket.ID, s.Now().UTC())
	if errors.Is(err, db.ErrConflict) {
		// Another scanner won the race.
		if latest, lerr := s.Store.TicketByID(ctx, ticket.ID); lerr == nil {
			ticket = latest
		} else {
			log.Printf("Reload of ticket %s after conflicting scan failed: %v", ticket.ID, lerr)
		}
		return &Result{Message: msgAlreadyUsed, Ticket: ticket, Event: event}, OutcomeAlreadyUsed, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("mark ticket used: %w", err)
	}
	return &Result{Success: true, Message: msgValidated, Ticket: used, Event: event}, OutcomeValidated, nil
}

// ValidateQR verifies a scanned payload and validates the ticket it names.
func (s *Service) ValidateQR(ctx context.Context, data string) (*Result, error) {
	p, err := s.Codec.Decode(data)
	if err != nil {
		metrics.TicketValidated(OutcomeInvalidQR)
		return &Result{Message: apperr.Message(err)}, nil
	}
	return s.Validate(ctx, p.TicketID)
}
