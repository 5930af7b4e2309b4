package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"eventgo/models"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrInvalidID = errors.New("invalid document id")
	ErrDuplicate = errors.New("duplicate key")
	// ErrConflict means a conditional write matched nothing because the
	// document no longer satisfies the condition.
	ErrConflict = errors.New("document changed concurrently")
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
}

type EventStore interface {
	CreateEvent(ctx context.Context, e *models.Event) error
	EventByID(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context, f models.EventFilter) ([]models.Event, error)
	ReplaceEvent(ctx context.Context, e *models.Event) error
	UpdateEventImages(ctx context.Context, id string, images []string) error
	DeleteEvent(ctx context.Context, id string) error
}

type TicketStore interface {
	CountTickets(ctx context.Context, eventID string) (int64, error)
	// InsertTickets assigns an id to every ticket it stores.
	InsertTickets(ctx context.Context, tickets []*models.Ticket) error
	FinalizeTickets(ctx context.Context, fin []models.TicketFinalization) error
	TicketByID(ctx context.Context, id string) (*models.Ticket, error)
	TicketsByUser(ctx context.Context, userID string) ([]models.Ticket, error)
	// MarkTicketUsed flips a valid ticket to used and returns ErrConflict if
	// the ticket was not valid at write time.
	MarkTicketUsed(ctx context.Context, id string, at time.Time) (*models.Ticket, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	OrderByID(ctx context.Context, id string) (*models.Order, error)
	OrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
}

// Store is everything the service needs from persistence.
type Store interface {
	UserStore
	EventStore
	TicketStore
	OrderStore
	Close(ctx context.Context) error
}

// NewID returns a store identifier. Both stores use ObjectID hex strings so
// malformed ids are rejected the same way.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

func CheckID(id string) error {
	if !primitive.IsValidObjectID(id) {
		return ErrInvalidID
	}
	return nil
}
