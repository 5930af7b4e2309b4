package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// EventKind names a variant of the event-type configuration.
type EventKind string

const (
	KindFixedDuration    EventKind = "fixed-duration"
	KindMultiDay         EventKind = "multi-day"
	KindSessions         EventKind = "sessions"
	KindNumberedSeats    EventKind = "numbered-seats"
	KindGeneralAdmission EventKind = "general-admission"
	KindDayAccess        EventKind = "day-access"
	KindFullAccess       EventKind = "full-access"
)

// EventShape is one variant of the event-type configuration. The variants
// are descriptive metadata only; nothing gates issuance or validation on them.
type EventShape interface {
	Kind() EventKind
	isEventShape()
}

type FixedDuration struct {
	StartDate string `json:"startDate" bson:"startDate"`
	EndDate   string `json:"endDate" bson:"endDate"`
}

type MultiDay struct {
	StartDate string   `json:"startDate" bson:"startDate"`
	EndDate   string   `json:"endDate" bson:"endDate"`
	Days      []string `json:"days" bson:"days"`
}

type Session struct {
	ID   string `json:"id" bson:"id"`
	Date string `json:"date" bson:"date"`
	Name string `json:"name" bson:"name"`
}

type Sessions struct {
	Sessions []Session `json:"sessions" bson:"sessions"`
}

type NumberedSeats struct {
	Rows        int        `json:"rows" bson:"rows"`
	SeatsPerRow int        `json:"seatsPerRow" bson:"seatsPerRow"`
	SeatMap     [][]string `json:"seatMap" bson:"seatMap"`
}

type GeneralAdmission struct {
	Capacity int `json:"capacity" bson:"capacity"`
}

type AccessDay struct {
	Date     string `json:"date" bson:"date"`
	Name     string `json:"name" bson:"name"`
	Capacity *int   `json:"capacity,omitempty" bson:"capacity,omitempty"`
}

type DayAccess struct {
	Days []AccessDay `json:"days" bson:"days"`
}

type FullAccess struct {
	StartDate string `json:"startDate" bson:"startDate"`
	EndDate   string `json:"endDate" bson:"endDate"`
}

func (*FixedDuration) Kind() EventKind    { return KindFixedDuration }
func (*MultiDay) Kind() EventKind         { return KindMultiDay }
func (*Sessions) Kind() EventKind         { return KindSessions }
func (*NumberedSeats) Kind() EventKind    { return KindNumberedSeats }
func (*GeneralAdmission) Kind() EventKind { return KindGeneralAdmission }
func (*DayAccess) Kind() EventKind        { return KindDayAccess }
func (*FullAccess) Kind() EventKind       { return KindFullAccess }

func (*FixedDuration) isEventShape()    {}
func (*MultiDay) isEventShape()         {}
func (*Sessions) isEventShape()         {}
func (*NumberedSeats) isEventShape()    {}
func (*GeneralAdmission) isEventShape() {}
func (*DayAccess) isEventShape()        {}
func (*FullAccess) isEventShape()       {}

var errNoShape = errors.New("event type config has no variant")

func newShape(kind EventKind) (EventShape, error) {
	switch kind {
	case KindFixedDuration:
		return &FixedDuration{}, nil
	case KindMultiDay:
		return &MultiDay{}, nil
	case KindSessions:
		return &Sessions{}, nil
	case KindNumberedSeats:
		return &NumberedSeats{}, nil
	case KindGeneralAdmission:
		return &GeneralAdmission{}, nil
	case KindDayAccess:
		return &DayAccess{}, nil
	case KindFullAccess:
		return &FullAccess{}, nil
	}
	return nil, fmt.Errorf("unknown event type %q", kind)
}

// EventTypeConfig serialises its variant with a "type" discriminator, both
// as JSON for the API and as BSON for the store.
type EventTypeConfig struct {
	Shape EventShape
}

func (c EventTypeConfig) Kind() EventKind {
	if c.Shape == nil {
		return ""
	}
	return c.Shape.Kind()
}

// Clone deep-copies the config through its JSON codec. The variants are
// plain data, so the copy only falls back to sharing the shape if the codec
// itself is broken.
func (c *EventTypeConfig) Clone() *EventTypeConfig {
	if c == nil {
		return nil
	}
	out := &EventTypeConfig{}
	if c.Shape == nil {
		return out
	}
	data, err := json.Marshal(c)
	if err == nil {
		err = json.Unmarshal(data, out)
	}
	if err != nil {
		return &EventTypeConfig{Shape: c.Shape}
	}
	return out
}

func (c EventTypeConfig) MarshalJSON() ([]byte, error) {
	if c.Shape == nil {
		return []byte("null"), nil
	}
	body, err := json.Marshal(c.Shape)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	kind, _ := json.Marshal(c.Shape.Kind())
	fields["type"] = kind
	return json.Marshal(fields)
}

func (c *EventTypeConfig) UnmarshalJSON(data []byte) error {
	var head struct {
		Type EventKind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	shape, err := newShape(head.Type)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, shape); err != nil {
		return err
	}
	c.Shape = shape
	return nil
}

func (c EventTypeConfig) MarshalBSON() ([]byte, error) {
	if c.Shape == nil {
		return nil, errNoShape
	}
	body, err := bson.Marshal(c.Shape)
	if err != nil {
		return nil, err
	}
	var doc bson.D
	if err := bson.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return bson.Marshal(append(bson.D{{Key: "type", Value: string(c.Shape.Kind())}}, doc...))
}

func (c *EventTypeConfig) UnmarshalBSON(data []byte) error {
	val, err := bson.Raw(data).LookupErr("type")
	if err != nil {
		return fmt.Errorf("event type config: %w", err)
	}
	kind, ok := val.StringValueOK()
	if !ok {
		return errors.New("event type config: type is not a string")
	}
	shape, err := newShape(EventKind(kind))
	if err != nil {
		return err
	}
	if err := bson.Unmarshal(data, shape); err != nil {
		return err
	}
	c.Shape = shape
	return nil
}
