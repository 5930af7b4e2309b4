package mq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBusDeliversToEverySubscriber(t *testing.T) {
	bus := NewLocalBus(8)
	got := make(chan string, 4)
	bus.Subscribe(func(_ context.Context, ev Event) { got <- "a:" + ev.Name })
	bus.Subscribe(func(_ context.Context, ev Event) { got <- "b:" + ev.Name })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx)

	bus.Emit(ctx, Event{Name: TicketsIssued, EventID: "e1", Quantity: 2})

	var seen []string
	for i := 0; i < 2; i++ {
		select {
		case s := <-got:
			seen = append(seen, s)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
	assert.ElementsMatch(t, []string{"a:tickets.issued", "b:tickets.issued"}, seen)
}

func TestLocalBusDropsWhenFull(t *testing.T) {
	bus := NewLocalBus(1)
	bus.Emit(context.Background(), Event{Name: TicketsIssued})
	bus.Emit(context.Background(), Event{Name: TicketsValidated})

	assert.Len(t, bus.queue, 1)
}

func TestRedisBusPublishesJSON(t *testing.T) {
	conn, mock := redismock.NewClientMock()
	bus := NewRedisBus(conn)

	ev := Event{
		Name:     TicketsValidated,
		EventID:  "e1",
		TicketID: "t1",
		Outcome:  "success",
		At:       time.Date(2026, 3, 1, 19, 30, 0, 0, time.UTC),
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	mock.ExpectPublish(Channel, data).SetVal(1)

	bus.Emit(context.Background(), ev)
	assert.NoError(t, mock.ExpectationsWereMet())
}
