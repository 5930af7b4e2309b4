package tickets

import (
	"context"
	"time"

	"eventgo/db"
	"eventgo/models"
	"eventgo/mq"
)

// Store is what issuing and validating tickets needs from persistence.
type Store interface {
	EventByID(ctx context.Context, id string) (*models.Event, error)
	UserByID(ctx context.Context, id string) (*models.User, error)
	db.TicketStore
	db.OrderStore
}

type Service struct {
	Store Store
	Codec *QRCodec
	Bus   mq.Bus
	Now   func() time.Time
}

func NewService(store Store, codec *QRCodec, bus mq.Bus) *Service {
	return &Service{Store: store, Codec: codec, Bus: bus, Now: time.Now}
}

func (s *Service) emit(ctx context.Context, ev mq.Event) {
	if s.Bus == nil {
		return
	}
	ev.At = s.Now().UTC()
	s.Bus.Emit(ctx, ev)
}
