package tickets

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"github.com/skip2/go-qrcode"
	"github.com/tidwall/gjson"

	"eventgo/apperr"
	"eventgo/models"
)

var (
	ErrQRMissing = apperr.Validation("QR data is missing.")
	ErrQRFormat  = apperr.Validation("Invalid QR data format.")
	ErrQRInvalid = apperr.Validation("Invalid QR code. Please scan a valid Event Go ticket.")
)

// QRCodec signs and verifies the payload printed on every ticket.
type QRCodec struct {
	secret []byte
}

func NewQRCodec(secret []byte) *QRCodec {
	return &QRCodec{secret: secret}
}

func (c *QRCodec) sign(ticketID, eventID, userID string) string {
	h := hmac.New(sha256.New, c.secret)
	h.Write([]byte(ticketID + "|" + eventID + "|" + userID))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// Encode returns the JSON payload for a ticket that already has its id.
func (c *QRCodec) Encode(ticketID, eventID, userID string) string {
	b, _ := json.Marshal(models.QRPayload{
		TicketID:  ticketID,
		EventID:   eventID,
		UserID:    userID,
		Signature: c.sign(ticketID, eventID, userID),
	})
	return string(b)
}

// Decode verifies data and returns the payload it carries.
func (c *QRCodec) Decode(data string) (models.QRPayload, error) {
	if data == "" {
		return models.QRPayload{}, ErrQRMissing
	}
	if !gjson.Valid(data) {
		return models.QRPayload{}, ErrQRInvalid
	}

	fields := gjson.GetMany(data, "ticketId", "eventId", "userId", "sig")
	if !gjson.Parse(data).IsObject() || fields[0].Type != gjson.String || fields[0].Str == "" {
		return models.QRPayload{}, ErrQRFormat
	}
	for _, f := range fields[1:] {
		if f.Exists() && f.Type != gjson.String {
			return models.QRPayload{}, ErrQRFormat
		}
	}
	p := models.QRPayload{
		TicketID:  fields[0].Str,
		EventID:   fields[1].Str,
		UserID:    fields[2].Str,
		Signature: fields[3].Str,
	}
	if p.Signature == "" {
		return models.QRPayload{}, ErrQRInvalid
	}

	want := c.sign(p.TicketID, p.EventID, p.UserID)
	if !hmac.Equal([]byte(want), []byte(p.Signature)) {
		return models.QRPayload{}, ErrQRInvalid
	}
	return p, nil
}

// QRPNG renders a payload as a 256px PNG.
func QRPNG(payload string) ([]byte, error) {
	return qrcode.Encode(payload, qrcode.Medium, 256)
}
