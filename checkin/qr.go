package checkin

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"sticket-backend/models"
)

// QRType is the type tag every check-in QR code carries.
const QRType = "STICKET_CHECKIN"

var ErrInvalidTicketID = errors.New("invalid ticket id")

// looseString accepts a JSON string or number. Issuers have written ticketId both ways.
// A numeric zero reads as absent; the string "0" does not.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = looseString(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	if f, err := num.Float64(); err == nil && f == 0 {
		*s = ""
		return nil
	}
	*s = looseString(num.String())
	return nil
}

type qrDocument struct {
	Type            string      `json:"type"`
	TicketID        looseString `json:"ticketId"`
	TokenID         looseString `json:"tokenId"`
	ContractAddress string      `json:"contractAddress"`
	EventName       string      `json:"eventName"`
	EventDate       string      `json:"eventDate"`
	OwnerAddress    string      `json:"ownerAddress"`
	Timestamp       looseString `json:"timestamp"`
}

// ParseQRCode decodes a scanned check-in payload for the event at eventAddress.
// It returns nil for anything that is not a well-formed payload for that event.
func ParseQRCode(raw, eventAddress string) *models.QRPayload {
	var doc qrDocument
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &doc); err != nil {
		return nil
	}
	if doc.Type != QRType || doc.TicketID == "" || doc.ContractAddress == "" {
		return nil
	}
	if eventAddress == "" || !strings.EqualFold(doc.ContractAddress, eventAddress) {
		return nil
	}

	// The timestamp is informational.
	timestamp, _ := strconv.ParseInt(string(doc.Timestamp), 10, 64)

	return &models.QRPayload{
		Type:            doc.Type,
		TicketID:        string(doc.TicketID),
		TokenID:         string(doc.TokenID),
		ContractAddress: doc.ContractAddress,
		EventName:       doc.EventName,
		EventDate:       doc.EventDate,
		OwnerAddress:    doc.OwnerAddress,
		Timestamp:       timestamp,
	}
}

// TicketNumber extracts the numeric ticket id from a token id such as "TICKET-42".
func TicketNumber(tokenID string) (uint32, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, tokenID)
	if digits == "" {
		return 0, fmt.Errorf("%w: %q has no digits", ErrInvalidTicketID, tokenID)
	}

	id, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTicketID, tokenID)
	}
	return uint32(id), nil
}

// EncodeQRCode renders the payload printed on a ticket at issuance.
func EncodeQRCode(payload models.QRPayload) (string, error) {
	if payload.Type == "" {
		payload.Type = QRType
	}
	if payload.TokenID == "" && payload.TicketID != "" {
		payload.TokenID = "TICKET-" + payload.TicketID
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR payload: %w", err)
	}
	return string(data), nil
}
