package livefeed

import (
	"context"
	"log"

	"eventgo/models"
	"eventgo/mq"
)

type AvailabilitySource interface {
	Availability(ctx context.Context, eventID string) (*models.Availability, error)
}

// Forward turns bus events into hub messages. Issuance pushes the fresh
// availability of the event and validation pushes the scan outcome.
func Forward(hub *Hub, src AvailabilitySource) mq.Handler {
	return func(ctx context.Context, ev mq.Event) {
		switch ev.Name {
		case mq.TicketsIssued:
			if hub.Watchers(ev.EventID) == 0 {
				return
			}
			av, err := src.Availability(ctx, ev.EventID)
			if err != nil {
				log.Printf("[livefeed] availability for %s: %v", ev.EventID, err)
				return
			}
			remaining := av.Remaining
			hub.Publish(Message{
				Type:      "availability",
				EventID:   ev.EventID,
				Capacity:  av.Capacity,
				Issued:    av.Issued,
				Remaining: &remaining,
				At:        ev.At,
			})
		case mq.TicketsValidated:
			hub.Publish(Message{
				Type:     "validation",
				EventID:  ev.EventID,
				TicketID: ev.TicketID,
				Outcome:  ev.Outcome,
				At:       ev.At,
			})
		}
	}
}
