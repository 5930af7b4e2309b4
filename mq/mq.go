package mq

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	TicketsIssued    = "tickets.issued"
	TicketsValidated = "tickets.validated"

	// Channel is the Redis pub/sub channel every instance publishes to.
	Channel = "eventgo-events"
)

// Event is a domain event about tickets of one event.
type Event struct {
	Name     string    `json:"name"`
	EventID  string    `json:"eventId"`
	OrderID  string    `json:"orderId,omitempty"`
	TicketID string    `json:"ticketId,omitempty"`
	UserID   string    `json:"userId,omitempty"`
	Quantity int       `json:"quantity,omitempty"`
	Outcome  string    `json:"outcome,omitempty"`
	At       time.Time `json:"at"`
}

type Handler func(ctx context.Context, ev Event)

// Bus delivers events to every subscribed handler. Emit never blocks the
// caller on delivery and never fails the operation that produced the event.
type Bus interface {
	Emit(ctx context.Context, ev Event)
	Subscribe(h Handler)
	Run(ctx context.Context)
}

type handlers struct {
	mu   sync.RWMutex
	list []Handler
}

func (hs *handlers) Subscribe(h Handler) {
	hs.mu.Lock()
	hs.list = append(hs.list, h)
	hs.mu.Unlock()
}

func (hs *handlers) dispatch(ctx context.Context, ev Event) {
	hs.mu.RLock()
	list := hs.list
	hs.mu.RUnlock()
	for _, h := range list {
		h(ctx, ev)
	}
}

// LocalBus is an in-process bus for single instance deployments.
type LocalBus struct {
	handlers
	queue chan Event
}

func NewLocalBus(buffer int) *LocalBus {
	return &LocalBus{queue: make(chan Event, buffer)}
}

func (b *LocalBus) Emit(_ context.Context, ev Event) {
	select {
	case b.queue <- ev:
	default:
		log.Printf("[Emit] queue full, dropping %s for event %s", ev.Name, ev.EventID)
	}
}

func (b *LocalBus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.queue:
			b.dispatch(ctx, ev)
		}
	}
}

// RedisBus fans events out to every instance subscribed to Channel.
type RedisBus struct {
	handlers
	conn *redis.Client
}

func NewRedisBus(conn *redis.Client) *RedisBus {
	return &RedisBus{conn: conn}
}

func (b *RedisBus) Emit(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[Emit] Failed to marshal %s: %v", ev.Name, err)
		return
	}
	if err := b.conn.Publish(ctx, Channel, data).Err(); err != nil {
		log.Printf("[Emit] Failed to publish %s to Redis: %v", ev.Name, err)
	}
}

// Run listens on Channel until ctx is cancelled.
func (b *RedisBus) Run(ctx context.Context) {
	sub := b.conn.Subscribe(ctx, Channel)
	defer sub.Close()

	log.Printf("[EventWorker] Listening on %s", Channel)
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("[EventWorker] Failed to parse event: %v", err)
				continue
			}
			b.dispatch(ctx, ev)
		}
	}
}
