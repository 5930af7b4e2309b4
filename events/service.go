package events

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"eventgo/apperr"
	"eventgo/db"
	"eventgo/filemgr"
	"eventgo/models"
	"eventgo/rdx"
	"eventgo/utils"
)

// Store is what the event repository needs from persistence.
type Store interface {
	db.EventStore
	CountTickets(ctx context.Context, eventID string) (int64, error)
}

type Service struct {
	Store    Store
	Cache    *rdx.Client
	CacheTTL time.Duration
	Now      func() time.Time
}

func NewService(store Store, cache *rdx.Client, ttl time.Duration) *Service {
	return &Service{Store: store, Cache: cache, CacheTTL: ttl, Now: time.Now}
}

type LocationInput struct {
	Name string  `json:"name" validate:"min=3"`
	Lat  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng  float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type TicketTypeInput struct {
	ID    string  `json:"id"`
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

// EventInput is the payload for create and update.
type EventInput struct {
	Name        string                  `json:"name" validate:"min=3"`
	Description string                  `json:"description" validate:"min=10"`
	Date        string                  `json:"date" validate:"required"`
	Location    LocationInput           `json:"location"`
	Capacity    int                     `json:"capacity" validate:"min=1"`
	Image       string                  `json:"image" validate:"required"`
	Images      []string                `json:"images" validate:"max=10"`
	TicketTypes []TicketTypeInput       `json:"ticketTypes" validate:"min=1,dive"`
	TypeConfig  *models.EventTypeConfig `json:"typeConfig"`
}

type ListOptions struct {
	IncludePast bool
	CreatedBy   string
	Skip, Limit int64
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func cacheKey(id string) string { return "event:" + id }

func fieldError(field, msg string) error {
	return apperr.ValidationFields("Invalid data.", map[string][]string{field: {msg}})
}

// build validates in and returns the event fields it describes.
func build(in EventInput) (*models.Event, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Location.Name = strings.TrimSpace(in.Location.Name)
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	date, ok := parseDate(in.Date)
	if !ok {
		return nil, fieldError("date", "Invalid date.")
	}

	image, err := filemgr.NormalizeImage(in.Image, filemgr.PicPoster)
	if err != nil {
		return nil, fieldError("image", err.Error())
	}
	images, err := filemgr.NormalizeGallery(in.Images)
	if err != nil {
		return nil, fieldError("images", err.Error())
	}

	types := make([]models.TicketType, 0, len(in.TicketTypes))
	seen := map[string]bool{}
	for _, tt := range in.TicketTypes {
		id := strings.TrimSpace(tt.ID)
		if id == "" {
			id = utils.GenerateID("tt")
		}
		if seen[id] {
			return nil, fieldError("ticketTypes", fmt.Sprintf("Duplicate ticket type id %q.", id))
		}
		seen[id] = true
		types = append(types, models.TicketType{ID: id, Name: strings.TrimSpace(tt.Name), Price: tt.Price})
	}

	return &models.Event{
		Name:        in.Name,
		Description: in.Description,
		Date:        date,
		Location:    models.Location{Name: in.Location.Name, Lat: in.Location.Lat, Lng: in.Location.Lng},
		Capacity:    in.Capacity,
		Image:       image,
		Images:      images,
		TicketTypes: types,
		TypeConfig:  in.TypeConfig,
	}, nil
}

func notFound(err error) error {
	if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrInvalidID) {
		return apperr.NotFound("Event not found.")
	}
	return err
}

func (s *Service) Create(ctx context.Context, creator models.Identity, in EventInput) (*models.Event, error) {
	if creator.ID == "" {
		return nil, apperr.Authentication("You must be signed in to create an event.")
	}
	e, err := build(in)
	if err != nil {
		return nil, err
	}
	now := s.Now().UTC()
	e.CreatedBy = creator.ID
	e.CreatedAt = now
	e.UpdatedAt = now
	if err := s.Store.CreateEvent(ctx, e); err != nil {
		return nil, err
	}
	log.Printf("Event %s created by %s", e.ID, creator.ID)
	return e, nil
}

// Get reads through the Redis cache.
func (s *Service) Get(ctx context.Context, id string) (*models.Event, error) {
	var cached models.Event
	if hit, err := s.Cache.RdxGetJSON(ctx, cacheKey(id), &cached); err != nil {
		log.Printf("Cache read failed for event %s: %v", id, err)
	} else if hit {
		return &cached, nil
	}

	e, err := s.Store.EventByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.Cache.RdxSetJSON(ctx, cacheKey(id), e, s.CacheTTL); err != nil {
		log.Printf("Cache write failed for event %s: %v", id, err)
	}
	return e, nil
}

// List returns events sorted by date. Past events are left out unless
// IncludePast is set.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]models.Event, error) {
	f := models.EventFilter{CreatedBy: opts.CreatedBy, Skip: opts.Skip, Limit: opts.Limit}
	if !opts.IncludePast {
		now := s.Now().UTC()
		f.FromDate = &now
	}
	return s.Store.ListEvents(ctx, f)
}

// owned loads an event and checks that actor created it.
func (s *Service) owned(ctx context.Context, actor models.Identity, id, action string) (*models.Event, error) {
	e, err := s.Store.EventByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !e.IsCreator(actor.ID) {
		return nil, apperr.Authorization(fmt.Sprintf("You are not authorized to %s this event.", action))
	}
	return e, nil
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if err := s.Cache.RdxDel(ctx, cacheKey(id)); err != nil {
		log.Printf("Cache deletion failed for event %s: %v", id, err)
	}
}

func (s *Service) Update(ctx context.Context, actor models.Identity, id string, in EventInput) (*models.Event, error) {
	current, err := s.owned(ctx, actor, id, "edit")
	if err != nil {
		return nil, err
	}
	next, err := build(in)
	if err != nil {
		return nil, err
	}

	issued, err := s.Store.CountTickets(ctx, id)
	if err != nil {
		return nil, err
	}
	if int64(next.Capacity) < issued {
		return nil, fieldError("capacity", fmt.Sprintf("Capacity cannot be lower than the %d tickets already issued.", issued))
	}

	next.ID = current.ID
	next.CreatedBy = current.CreatedBy
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.Now().UTC()
	if err := s.Store.ReplaceEvent(ctx, next); err != nil {
		return nil, notFound(err)
	}
	s.invalidate(ctx, id)
	return next, nil
}

// UpdateGallery replaces only the image list.
func (s *Service) UpdateGallery(ctx context.Context, actor models.Identity, id string, images []string) (*models.Event, error) {
	if len(images) > 10 {
		return nil, fieldError("images", "Must be at most 10.")
	}
	if _, err := s.owned(ctx, actor, id, "edit"); err != nil {
		return nil, err
	}
	normalized, err := filemgr.NormalizeGallery(images)
	if err != nil {
		return nil, fieldError("images", err.Error())
	}
	if err := s.Store.UpdateEventImages(ctx, id, normalized); err != nil {
		return nil, notFound(err)
	}
	s.invalidate(ctx, id)
	e, err := s.Store.EventByID(ctx, id)
	return e, notFound(err)
}

func (s *Service) Delete(ctx context.Context, actor models.Identity, id string) error {
	if _, err := s.owned(ctx, actor, id, "delete"); err != nil {
		return err
	}
	if err := s.Store.DeleteEvent(ctx, id); err != nil {
		return notFound(err)
	}
	s.invalidate(ctx, id)
	log.Printf("Event %s deleted by %s", id, actor.ID)
	return nil
}

func (s *Service) Availability(ctx context.Context, id string) (*models.Availability, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	issued, err := s.Store.CountTickets(ctx, id)
	if err != nil {
		return nil, err
	}
	remaining := int64(e.Capacity) - issued
	if remaining < 0 {
		remaining = 0
	}
	return &models.Availability{EventID: e.ID, Capacity: e.Capacity, Issued: issued, Remaining: remaining}, nil
}
