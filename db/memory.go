package db

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"eventgo/models"
)

// Memory is a process-local Store used for demo mode and tests. Values are
// copied on the way in and out so callers never share state with the store.
type Memory struct {
	mu      sync.RWMutex
	users   map[string]models.User
	events  map[string]models.Event
	tickets map[string]models.Ticket
	orders  map[string]models.Order
}

func NewMemory() *Memory {
	return &Memory{
		users:   map[string]models.User{},
		events:  map[string]models.Event{},
		tickets: map[string]models.Ticket{},
		orders:  map[string]models.Order{},
	}
}

func (m *Memory) Close(context.Context) error { return nil }

func copyEvent(e models.Event) models.Event {
	e.Images = slices.Clone(e.Images)
	e.TicketTypes = slices.Clone(e.TicketTypes)
	e.TypeConfig = e.TypeConfig.Clone()
	return e
}

func copyTicket(t models.Ticket) models.Ticket {
	if t.UsedAt != nil {
		at := *t.UsedAt
		t.UsedAt = &at
	}
	return t
}

func copyOrder(o models.Order) models.Order {
	o.Tickets = slices.Clone(o.Tickets)
	return o
}

// --- users ---

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	u.ID = NewID()
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) UserByID(_ context.Context, id string) (*models.User, error) {
	if err := CheckID(id); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateUser(_ context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	if err := CheckID(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Image != nil {
		u.Image = *upd.Image
	}
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return &u, nil
}

// --- events ---

func (m *Memory) CreateEvent(_ context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = NewID()
	m.events[e.ID] = copyEvent(*e)
	return nil
}

func (m *Memory) EventByID(_ context.Context, id string) (*models.Event, error) {
	if err := CheckID(id); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	e = copyEvent(e)
	return &e, nil
}

func (m *Memory) ListEvents(_ context.Context, f models.EventFilter) ([]models.Event, error) {
	m.mu.RLock()
	out := []models.Event{}
	for _, e := range m.events {
		if f.FromDate != nil && e.Date.Before(*f.FromDate) {
			continue
		}
		if f.CreatedBy != "" && e.CreatedBy != f.CreatedBy {
			continue
		}
		out = append(out, copyEvent(e))
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.Before(out[j].Date)
	})

	if f.Skip > 0 {
		if f.Skip >= int64(len(out)) {
			return []models.Event{}, nil
		}
		out = out[f.Skip:]
	}
	if f.Limit > 0 && f.Limit < int64(len(out)) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) ReplaceEvent(_ context.Context, e *models.Event) error {
	if err := CheckID(e.ID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[e.ID]; !ok {
		return ErrNotFound
	}
	m.events[e.ID] = copyEvent(*e)
	return nil
}

func (m *Memory) UpdateEventImages(_ context.Context, id string, images []string) error {
	if err := CheckID(id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return ErrNotFound
	}
	e.Images = slices.Clone(images)
	e.UpdatedAt = time.Now().UTC()
	m.events[id] = e
	return nil
}

func (m *Memory) DeleteEvent(_ context.Context, id string) error {
	if err := CheckID(id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	return nil
}

// --- tickets ---

func (m *Memory) CountTickets(_ context.Context, eventID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, t := range m.tickets {
		if t.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) InsertTickets(_ context.Context, tickets []*models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tickets {
		t.ID = NewID()
		m.tickets[t.ID] = copyTicket(*t)
	}
	return nil
}

func (m *Memory) FinalizeTickets(_ context.Context, fin []models.TicketFinalization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range fin {
		if _, ok := m.tickets[f.TicketID]; !ok {
			return ErrNotFound
		}
	}
	for _, f := range fin {
		t := m.tickets[f.TicketID]
		t.OrderID = f.OrderID
		t.QRData = f.QRData
		m.tickets[f.TicketID] = t
	}
	return nil
}

func (m *Memory) TicketByID(_ context.Context, id string) (*models.Ticket, error) {
	if err := CheckID(id); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	t = copyTicket(t)
	return &t, nil
}

func (m *Memory) TicketsByUser(_ context.Context, userID string) ([]models.Ticket, error) {
	m.mu.RLock()
	out := []models.Ticket{}
	for _, t := range m.tickets {
		if t.UserID == userID {
			out = append(out, copyTicket(t))
		}
	}
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) MarkTicketUsed(_ context.Context, id string, at time.Time) (*models.Ticket, error) {
	if err := CheckID(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok || t.Status != models.TicketValid {
		return nil, ErrConflict
	}
	t.Status = models.TicketUsed
	t.UsedAt = &at
	m.tickets[id] = t
	t = copyTicket(t)
	return &t, nil
}

// --- orders ---

func (m *Memory) CreateOrder(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = NewID()
	m.orders[o.ID] = copyOrder(*o)
	return nil
}

func (m *Memory) OrderByID(_ context.Context, id string) (*models.Order, error) {
	if err := CheckID(id); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o = copyOrder(o)
	return &o, nil
}

func (m *Memory) OrdersByUser(_ context.Context, userID string) ([]models.Order, error) {
	m.mu.RLock()
	out := []models.Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, copyOrder(o))
		}
	}
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Mongo)(nil)
)
