package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"sticket-backend/models"
)

const DefaultLogLimit = 100

var schema = []string{
	`CREATE TABLE IF NOT EXISTS checkin_attempts (
		id            UUID PRIMARY KEY,
		event_address TEXT NOT NULL,
		ticket_id     BIGINT NOT NULL,
		success       BOOLEAN NOT NULL,
		message       TEXT NOT NULL,
		tx_hash       TEXT,
		operator      TEXT NOT NULL DEFAULT '',
		attempted_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_checkin_attempts_event
		ON checkin_attempts (event_address, attempted_at DESC)`,
}

// CheckinLog is the durable audit trail of check-in attempts. The ledger stays
// the source of truth for whether a ticket is used.
type CheckinLog struct {
	db *sql.DB
}

func NewCheckinLog(db *sql.DB) *CheckinLog {
	return &CheckinLog{db: db}
}

// NewCheckinLogFromPool opens a database/sql handle with the pool's connection config.
func NewCheckinLogFromPool(pool *pgxpool.Pool) *CheckinLog {
	return NewCheckinLog(stdlib.OpenDB(*pool.Config().ConnConfig))
}

func (l *CheckinLog) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func (l *CheckinLog) RecordAttempt(ctx context.Context, attempt models.CheckInAttempt) error {
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO checkin_attempts (id, event_address, ticket_id, success, message, tx_hash, operator, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		attempt.ID,
		strings.ToLower(attempt.EventAddress),
		int64(attempt.TicketID),
		attempt.Success,
		attempt.Message,
		attempt.TxHash,
		attempt.Operator,
		attempt.AttemptedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert check-in attempt: %w", err)
	}
	return nil
}

// List returns the most recent attempts for an event, newest first.
func (l *CheckinLog) List(ctx context.Context, eventAddress string, limit int) ([]models.CheckInAttempt, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, event_address, ticket_id, success, message, tx_hash, operator, attempted_at
		FROM checkin_attempts
		WHERE event_address = $1
		ORDER BY attempted_at DESC
		LIMIT $2`,
		strings.ToLower(eventAddress), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query check-in attempts: %w", err)
	}
	defer rows.Close()

	attempts := []models.CheckInAttempt{}
	for rows.Next() {
		var (
			attempt  models.CheckInAttempt
			ticketID int64
			txHash   sql.NullString
		)
		if err := rows.Scan(
			&attempt.ID,
			&attempt.EventAddress,
			&ticketID,
			&attempt.Success,
			&attempt.Message,
			&txHash,
			&attempt.Operator,
			&attempt.AttemptedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan check-in attempt: %w", err)
		}
		attempt.TicketID = uint32(ticketID)
		if txHash.Valid {
			attempt.TxHash = &txHash.String
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read check-in attempts: %w", err)
	}
	return attempts, nil
}

func (l *CheckinLog) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

func (l *CheckinLog) Close() error {
	return l.db.Close()
}
