package db

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventgo/models"
)

func TestMemoryListEventsOrderAndFilters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Now().UTC()

	for i, days := range []int{10, -3, 2, 30} {
		creator := "alice"
		if i%2 == 1 {
			creator = "bob"
		}
		require.NoError(t, m.CreateEvent(ctx, &models.Event{
			Name:      "event",
			Date:      now.AddDate(0, 0, days),
			CreatedBy: creator,
		}))
	}

	all, err := m.ListEvents(ctx, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].Date.Before(all[i-1].Date), "events must be sorted by date")
	}

	upcoming, err := m.ListEvents(ctx, models.EventFilter{FromDate: &now})
	require.NoError(t, err)
	assert.Len(t, upcoming, 3)

	mine, err := m.ListEvents(ctx, models.EventFilter{CreatedBy: "bob"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	page, err := m.ListEvents(ctx, models.EventFilter{Skip: 3, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	past, err := m.ListEvents(ctx, models.EventFilter{Skip: 9})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	e := &models.Event{Name: "Gala", TicketTypes: []models.TicketType{{ID: "tt-1", Name: "Standard", Price: 75}}}
	require.NoError(t, m.CreateEvent(ctx, e))

	got, err := m.EventByID(ctx, e.ID)
	require.NoError(t, err)
	got.TicketTypes[0].Price = 1

	again, err := m.EventByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 75.0, again.TicketTypes[0].Price)
}

func TestMemoryCopiesTypeConfig(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	e := &models.Event{
		Name: "Summit",
		TypeConfig: &models.EventTypeConfig{Shape: &models.Sessions{
			Sessions: []models.Session{{ID: "s1", Date: "2026-11-02", Name: "Keynote"}},
		}},
	}
	require.NoError(t, m.CreateEvent(ctx, e))

	// The caller's config must not alias the stored one.
	e.TypeConfig.Shape.(*models.Sessions).Sessions[0].Name = "Changed by caller"

	got, err := m.EventByID(ctx, e.ID)
	require.NoError(t, err)
	got.TypeConfig.Shape.(*models.Sessions).Sessions[0].Name = "Changed by reader"

	again, err := m.EventByID(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, again.TypeConfig)
	assert.Equal(t, models.KindSessions, again.TypeConfig.Kind())
	assert.Equal(t, "Keynote", again.TypeConfig.Shape.(*models.Sessions).Sessions[0].Name)
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	u := &models.User{Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, m.CreateUser(ctx, u))
	assert.ErrorIs(t, m.CreateUser(ctx, &models.User{Email: "alice@example.com"}), ErrDuplicate)

	name := "Alice B."
	updated, err := m.UpdateUser(ctx, u.ID, models.UserUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", updated.Name)
	assert.Equal(t, "alice@example.com", updated.Email)

	_, err = m.UserByID(ctx, "usr-1")
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = m.UserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTicketLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	eventID := NewID()

	tickets := []*models.Ticket{
		{EventID: eventID, UserID: "u1", Status: models.TicketValid},
		{EventID: eventID, UserID: "u1", Status: models.TicketValid},
	}
	require.NoError(t, m.InsertTickets(ctx, tickets))
	assert.NotEqual(t, tickets[0].ID, tickets[1].ID)

	n, err := m.CountTickets(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	orderID := NewID()
	require.NoError(t, m.FinalizeTickets(ctx, []models.TicketFinalization{
		{TicketID: tickets[0].ID, OrderID: orderID, QRData: "qr-0"},
		{TicketID: tickets[1].ID, OrderID: orderID, QRData: "qr-1"},
	}))
	got, err := m.TicketByID(ctx, tickets[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "qr-1", got.QRData)
	assert.Equal(t, orderID, got.OrderID)

	assert.ErrorIs(t, m.FinalizeTickets(ctx, []models.TicketFinalization{{TicketID: NewID()}}), ErrNotFound)
}

func TestMemoryMarkUsedSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	tk := &models.Ticket{EventID: NewID(), Status: models.TicketValid}
	require.NoError(t, m.InsertTickets(ctx, []*models.Ticket{tk}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.MarkTicketUsed(ctx, tk.ID, time.Now()); err == nil {
				wins.Add(1)
			} else {
				assert.ErrorIs(t, err, ErrConflict)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())

	got, err := m.TicketByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketUsed, got.Status)
	assert.NotNil(t, got.UsedAt)
}

func TestSeedDemoData(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	data, err := LoadSeed("")
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, Seed(ctx, m, data, now))

	admin, err := m.UserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Admin", admin.Role)
	assert.NotEqual(t, "password", admin.PasswordHash)

	events, err := m.ListEvents(ctx, models.EventFilter{FromDate: &now})
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, "Indie-Rock & Folk Night", events[0].Name)
	assert.Equal(t, 150, events[0].Capacity)
	assert.Equal(t, admin.ID, events[0].CreatedBy)

	vip, ok := events[0].TicketType("tt-1-2")
	require.True(t, ok)
	assert.Equal(t, 50.0, vip.Price)
}

func TestSeedRejectsUnknownCreator(t *testing.T) {
	err := Seed(context.Background(), NewMemory(), []byte(`
events:
  - name: Orphan
    createdBy: nobody
`), time.Now())
	assert.ErrorContains(t, err, `unknown creator "nobody"`)
}
