package models

import "time"

type TicketStatus string

const (
	TicketValid TicketStatus = "valid"
	TicketUsed  TicketStatus = "used"
)

type Ticket struct {
	ID           string       `json:"id" bson:"_id,omitempty"`
	OrderID      string       `json:"orderId" bson:"orderId"`
	EventID      string       `json:"eventId" bson:"eventId"`
	UserID       string       `json:"userId" bson:"userId"`
	TicketTypeID string       `json:"ticketTypeId" bson:"ticketTypeId"`
	QRData       string       `json:"qrData" bson:"qrData"`
	Status       TicketStatus `json:"status" bson:"status"`
	CreatedAt    time.Time    `json:"created_at" bson:"created_at"`
	UsedAt       *time.Time   `json:"used_at,omitempty" bson:"used_at,omitempty"`
}

// Order is written once together with its tickets and never changed after.
type Order struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	UserID      string    `json:"userId" bson:"userId"`
	EventID     string    `json:"eventId" bson:"eventId"`
	Tickets     []string  `json:"tickets" bson:"tickets"`
	TotalAmount float64   `json:"totalAmount" bson:"totalAmount"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

// TicketFinalization is the second write each issued ticket receives.
type TicketFinalization struct {
	TicketID string
	OrderID  string
	QRData   string
}

// QRPayload is what a ticket's QR code encodes.
type QRPayload struct {
	TicketID  string `json:"ticketId"`
	EventID   string `json:"eventId"`
	UserID    string `json:"userId"`
	Signature string `json:"sig"`
}

// Selection asks for quantity tickets of one ticket type.
type Selection struct {
	TicketTypeID string `json:"ticketTypeId"`
	Quantity     int    `json:"quantity"`
}
