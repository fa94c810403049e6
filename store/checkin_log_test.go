package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sticket-backend/models"
)

const testEvent = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

var attemptColumns = []string{
	"id", "event_address", "ticket_id", "success", "message", "tx_hash", "operator", "attempted_at",
}

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func TestCheckinLog_EnsureSchema(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS checkin_attempts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_checkin_attempts_event").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewCheckinLog(db).EnsureSchema(context.Background()))
}

func TestCheckinLog_EnsureSchema_Error(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS checkin_attempts").WillReturnError(errors.New("permission denied"))

	err := NewCheckinLog(db).EnsureSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestCheckinLog_RecordAttempt(t *testing.T) {
	db, mock := newMockDB(t)
	txHash := "0xabc"
	attempt := models.CheckInAttempt{
		ID:           uuid.New(),
		EventAddress: testEvent,
		TicketID:     42,
		Success:      true,
		Message:      "Check-in successful!",
		TxHash:       &txHash,
		Operator:     "0x71C7656EC7ab88b098defB751B7401B5f6d8976F",
		AttemptedAt:  time.Now(),
	}

	mock.ExpectExec("INSERT INTO checkin_attempts").
		WithArgs(attempt.ID.String(), "0x5fbdb2315678afecb367f032d93f642f64180aa3", int64(42), true,
			"Check-in successful!", "0xabc", attempt.Operator, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewCheckinLog(db).RecordAttempt(context.Background(), attempt))
}

func TestCheckinLog_RecordAttempt_FailureWithoutTx(t *testing.T) {
	db, mock := newMockDB(t)
	attempt := models.CheckInAttempt{
		EventAddress: testEvent,
		TicketID:     7,
		Message:      "Ticket not found",
		AttemptedAt:  time.Now(),
	}

	mock.ExpectExec("INSERT INTO checkin_attempts").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), int64(7), false, "Ticket not found", nil, "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewCheckinLog(db).RecordAttempt(context.Background(), attempt))
}

func TestCheckinLog_RecordAttempt_Error(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO checkin_attempts").WillReturnError(sql.ErrConnDone)

	err := NewCheckinLog(db).RecordAttempt(context.Background(), models.CheckInAttempt{EventAddress: testEvent})
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestCheckinLog_List(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	first, second := uuid.New(), uuid.New()

	rows := sqlmock.NewRows(attemptColumns).
		AddRow(first.String(), "0x5fbdb2315678afecb367f032d93f642f64180aa3", int64(2), true, "Check-in successful!", "0xdef", "0xop", now).
		AddRow(second.String(), "0x5fbdb2315678afecb367f032d93f642f64180aa3", int64(1), false, "Ticket already used", nil, "0xop", now.Add(-time.Minute))
	mock.ExpectQuery("SELECT .+ FROM checkin_attempts WHERE event_address = \\$1").
		WithArgs("0x5fbdb2315678afecb367f032d93f642f64180aa3", int64(DefaultLogLimit)).
		WillReturnRows(rows)

	attempts, err := NewCheckinLog(db).List(context.Background(), testEvent, 0)
	require.NoError(t, err)
	require.Len(t, attempts, 2)

	assert.Equal(t, first, attempts[0].ID)
	assert.Equal(t, uint32(2), attempts[0].TicketID)
	require.NotNil(t, attempts[0].TxHash)
	assert.Equal(t, "0xdef", *attempts[0].TxHash)

	assert.False(t, attempts[1].Success)
	assert.Nil(t, attempts[1].TxHash)
}

func TestCheckinLog_List_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM checkin_attempts").
		WithArgs(sqlmock.AnyArg(), int64(10)).
		WillReturnRows(sqlmock.NewRows(attemptColumns))

	attempts, err := NewCheckinLog(db).List(context.Background(), testEvent, 10)
	require.NoError(t, err)
	assert.NotNil(t, attempts)
	assert.Empty(t, attempts)
}
