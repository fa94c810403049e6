package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckInResult is the outcome of one check-in attempt.
type CheckInResult struct {
	Success    bool          `json:"success"`
	TicketID   uint32        `json:"ticket_id"`
	Message    string        `json:"message"`
	TicketData *TicketRecord `json:"ticket_data,omitempty"`
	TxHash     string        `json:"tx_hash,omitempty"`
}

type CheckInHistoryEntry struct {
	ID        uuid.UUID `json:"id"`
	TicketID  uint32    `json:"ticket_id"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
}

// CheckInAttempt is a durable audit row for one check-in attempt.
type CheckInAttempt struct {
	ID           uuid.UUID `json:"id" db:"id"`
	EventAddress string    `json:"event_address" db:"event_address"`
	TicketID     uint32    `json:"ticket_id" db:"ticket_id"`
	Success      bool      `json:"success" db:"success"`
	Message      string    `json:"message" db:"message"`
	TxHash       *string   `json:"tx_hash,omitempty" db:"tx_hash"`
	Operator     string    `json:"operator" db:"operator"`
	AttemptedAt  time.Time `json:"attempted_at" db:"attempted_at"`
}

// QRPayload is the JSON document encoded in a ticket's check-in QR code.
// The field names are part of the issuance format and stay camelCase.
type QRPayload struct {
	Type            string `json:"type"`
	TicketID        string `json:"ticketId"`
	TokenID         string `json:"tokenId"`
	ContractAddress string `json:"contractAddress"`
	EventName       string `json:"eventName"`
	EventDate       string `json:"eventDate"`
	OwnerAddress    string `json:"ownerAddress"`
	Timestamp       int64  `json:"timestamp"`
}

type CheckInRequest struct {
	TicketID *int64 `json:"ticket_id" binding:"required"`
}

type QRCheckInRequest struct {
	QRData string `json:"qr_data" binding:"required"`
}

type CheckInStats struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failure int `json:"failure"`
}
