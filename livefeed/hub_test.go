package livefeed

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventgo/models"
	"eventgo/mq"
)

func recv(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "client channel closed")
		var m Message
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
	return Message{}
}

func waitWatchers(t *testing.T, hub *Hub, eventID string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Watchers(eventID) == n }, time.Second, 5*time.Millisecond)
}

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	gala := &Client{Send: make(chan []byte, 10), EventID: "gala", Staff: true}
	other := &Client{Send: make(chan []byte, 10), EventID: "summit"}
	hub.register <- gala
	hub.register <- other
	waitWatchers(t, hub, "gala", 1)

	hub.Publish(Message{Type: "validation", EventID: "gala", TicketID: "t1", Outcome: "success"})

	got := recv(t, gala)
	assert.Equal(t, "validation", got.Type)
	assert.Equal(t, "t1", got.TicketID)
	assert.Empty(t, other.Send)

	hub.unregister <- gala
	waitWatchers(t, hub, "gala", 0)
	_, ok := <-gala.Send
	assert.False(t, ok)
}

func TestValidationReachesStaffOnly(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	staff := &Client{Send: make(chan []byte, 10), EventID: "gala", Staff: true}
	public := &Client{Send: make(chan []byte, 10), EventID: "gala"}
	require.True(t, hub.join(staff))
	require.True(t, hub.join(public))
	waitWatchers(t, hub, "gala", 2)

	hub.Publish(Message{Type: "validation", EventID: "gala", TicketID: "t1", Outcome: "validated"})
	remaining := int64(3)
	hub.Publish(Message{Type: "availability", EventID: "gala", Capacity: 5, Issued: 2, Remaining: &remaining})

	assert.Equal(t, "validation", recv(t, staff).Type)
	assert.Equal(t, "availability", recv(t, staff).Type)

	got := recv(t, public)
	assert.Equal(t, "availability", got.Type)
	assert.Empty(t, got.TicketID)
	assert.Empty(t, public.Send)
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := &Client{Send: make(chan []byte, 1), EventID: "gala"}
	require.True(t, hub.join(c))
	hub.Stop()

	select {
	case _, ok := <-c.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("client not closed on stop")
	}
	assert.False(t, hub.join(&Client{Send: make(chan []byte, 1), EventID: "gala"}))
}

type fixedAvailability struct {
	av  models.Availability
	err error
}

func (f fixedAvailability) Availability(context.Context, string) (*models.Availability, error) {
	return &f.av, f.err
}

func TestForwardPushesAvailabilityAfterIssue(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := &Client{Send: make(chan []byte, 10), EventID: "e1"}
	require.True(t, hub.join(c))
	waitWatchers(t, hub, "e1", 1)

	forward := Forward(hub, fixedAvailability{av: models.Availability{EventID: "e1", Capacity: 150, Issued: 150, Remaining: 0}})
	forward(context.Background(), mq.Event{Name: mq.TicketsIssued, EventID: "e1", Quantity: 2})

	got := recv(t, c)
	assert.Equal(t, "availability", got.Type)
	assert.Equal(t, 150, got.Capacity)
	require.NotNil(t, got.Remaining)
	assert.Equal(t, int64(0), *got.Remaining)
}

func TestForwardSkipsLookupWithoutWatchers(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	forward := Forward(hub, fixedAvailability{err: errors.New("must not be called")})
	forward(context.Background(), mq.Event{Name: mq.TicketsIssued, EventID: "nobody-watching"})
}
