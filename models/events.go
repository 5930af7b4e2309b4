package models

import "time"

type Event struct {
	ID          string           `json:"id" bson:"_id,omitempty"`
	Name        string           `json:"name" bson:"name"`
	Description string           `json:"description" bson:"description"`
	Date        time.Time        `json:"date" bson:"date"`
	Location    Location         `json:"location" bson:"location"`
	Capacity    int              `json:"capacity" bson:"capacity"`
	Image       string           `json:"image" bson:"image"`
	Images      []string         `json:"images" bson:"images"`
	TicketTypes []TicketType     `json:"ticketTypes" bson:"ticketTypes"`
	CreatedBy   string           `json:"createdBy" bson:"createdBy"`
	TypeConfig  *EventTypeConfig `json:"typeConfig,omitempty" bson:"typeConfig,omitempty"`
	CreatedAt   time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" bson:"updated_at"`
}

type Location struct {
	Name string  `json:"name" bson:"name"`
	Lat  float64 `json:"lat" bson:"lat"`
	Lng  float64 `json:"lng" bson:"lng"`
}

// TicketType is embedded in its event and has no lifecycle of its own.
type TicketType struct {
	ID    string  `json:"id" bson:"id"`
	Name  string  `json:"name" bson:"name"`
	Price float64 `json:"price" bson:"price"`
}

// TicketType returns the embedded ticket type with the given id.
func (e *Event) TicketType(id string) (TicketType, bool) {
	for _, tt := range e.TicketTypes {
		if tt.ID == id {
			return tt, true
		}
	}
	return TicketType{}, false
}

// IsCreator reports whether userID created the event.
func (e *Event) IsCreator(userID string) bool {
	return userID != "" && e.CreatedBy == userID
}

// EventFilter narrows ListEvents. Zero value lists every event.
type EventFilter struct {
	FromDate  *time.Time
	CreatedBy string
	Skip      int64
	Limit     int64
}

// Availability is the live capacity picture of one event.
type Availability struct {
	EventID   string `json:"eventId"`
	Capacity  int    `json:"capacity"`
	Issued    int64  `json:"issued"`
	Remaining int64  `json:"remaining"`
}
