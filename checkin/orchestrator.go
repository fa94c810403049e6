package checkin

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"sticket-backend/contracts"
	"sticket-backend/models"
)

// Result messages shown to the door operator.
const (
	MsgWalletNotConnected = "Wallet not connected"
	MsgNoEventAddress     = "Event contract address not provided"
	MsgTicketNotFound     = "Ticket not found"
	MsgTicketAlreadyUsed  = "Ticket already used"
	MsgCheckInSuccessful  = "Check-in successful!"
	MsgNotEventCreator    = "Only the event creator can check in tickets"
	MsgTicketUsedOnChain  = "This ticket has already been used"
	MsgInvalidQRCode      = "Invalid QR code or wrong event"
	MsgInvalidQRTicketID  = "Invalid ticket ID in QR code"
	MsgCheckInInProgress  = "Check-in already in progress"
	msgCheckInFailed      = "Check-in failed"
)

var ErrNoEventAddress = errors.New("event contract address not provided")

// TicketContract is the part of the ticket collection client the orchestrator uses.
type TicketContract interface {
	GetTicket(ctx context.Context, ticketID uint32) (*models.TicketRecord, error)
	MarkTicketUsed(ctx context.Context, creator string, ticketID uint32) (string, error)
}

// Dialer hands out ticket contract clients bound to an event address.
type Dialer interface {
	ReadOnly(address string) (TicketContract, error)
	Signing(address string) (TicketContract, error)
}

type Wallet interface {
	Snapshot() models.WalletSession
}

// Sink receives every recorded attempt, e.g. an audit log or a message broker.
// Sink errors are logged and never change the result.
type Sink interface {
	RecordAttempt(ctx context.Context, attempt models.CheckInAttempt) error
}

type Metrics interface {
	TrackCheckIn(result models.CheckInResult, duration time.Duration)
	TrackVerification(found bool)
}

type nopMetrics struct{}

func (nopMetrics) TrackCheckIn(models.CheckInResult, time.Duration) {}
func (nopMetrics) TrackVerification(bool)                           {}

// DefaultSubmitTimeout bounds verification, submission and receipt wait of one check-in.
const DefaultSubmitTimeout = 2 * time.Minute

type Options struct {
	HistoryLimit  int
	SubmitTimeout time.Duration
	Sinks         []Sink
	Metrics       Metrics
}

// Orchestrator runs check-ins for a single event. At most one submission is in
// flight per orchestrator; the ledger decides between orchestrators.
type Orchestrator struct {
	eventAddress  string
	wallet        Wallet
	dialer        Dialer
	history       *History
	sinks         []Sink
	metrics       Metrics
	submitTimeout time.Duration

	mu         sync.Mutex
	processing bool
	lastResult *models.CheckInResult
	lastError  string
}

func NewOrchestrator(eventAddress string, wallet Wallet, dialer Dialer, opts Options) *Orchestrator {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	submitTimeout := opts.SubmitTimeout
	if submitTimeout <= 0 {
		submitTimeout = DefaultSubmitTimeout
	}
	return &Orchestrator{
		eventAddress:  eventAddress,
		wallet:        wallet,
		dialer:        dialer,
		history:       NewHistory(opts.HistoryLimit),
		sinks:         opts.Sinks,
		metrics:       metrics,
		submitTimeout: submitTimeout,
	}
}

func (o *Orchestrator) EventAddress() string {
	return o.eventAddress
}

// VerifyTicket reads the ticket without signing. A failed read or a missing
// ticket both yield a nil record and no error.
func (o *Orchestrator) VerifyTicket(ctx context.Context, ticketID uint32) (*models.TicketRecord, error) {
	if o.eventAddress == "" {
		return nil, ErrNoEventAddress
	}

	client, err := o.dialer.ReadOnly(o.eventAddress)
	if err != nil {
		log.Printf("Failed to verify ticket %d: %v", ticketID, err)
		o.metrics.TrackVerification(false)
		return nil, nil
	}
	ticket, err := client.GetTicket(ctx, ticketID)
	if err != nil {
		log.Printf("Failed to verify ticket %d: %v", ticketID, err)
		o.metrics.TrackVerification(false)
		return nil, nil
	}

	o.metrics.TrackVerification(ticket != nil)
	return ticket, nil
}

// MarkTicketUsed admits ticketID: verify first, then submit markTicketUsed signed by
// the session wallet. Failures come back as unsuccessful results, never as errors.
func (o *Orchestrator) MarkTicketUsed(ctx context.Context, ticketID uint32) models.CheckInResult {
	start := time.Now()
	session := o.wallet.Snapshot()

	if !session.Connected || session.Address == "" {
		return o.record(ctx, start, session.Address, failure(ticketID, MsgWalletNotConnected, nil))
	}
	if o.eventAddress == "" {
		return o.record(ctx, start, session.Address, failure(ticketID, MsgNoEventAddress, nil))
	}
	if !o.begin() {
		return o.record(ctx, start, session.Address, failure(ticketID, MsgCheckInInProgress, nil))
	}
	defer o.end()

	// A started check-in outlives its caller; the recorded result follows the ledger.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.submitTimeout)
	defer cancel()

	ticket, err := o.VerifyTicket(ctx, ticketID)
	if err != nil {
		return o.record(ctx, start, session.Address, failure(ticketID, err.Error(), nil))
	}
	if ticket == nil {
		return o.record(ctx, start, session.Address, failure(ticketID, MsgTicketNotFound, nil))
	}
	if ticket.IsUsed {
		return o.record(ctx, start, session.Address, failure(ticketID, MsgTicketAlreadyUsed, ticket))
	}

	client, err := o.dialer.Signing(o.eventAddress)
	if err != nil {
		return o.submitFailed(ctx, start, session.Address, ticketID, err)
	}
	txHash, err := client.MarkTicketUsed(ctx, session.Address, ticketID)
	if err != nil {
		return o.submitFailed(ctx, start, session.Address, ticketID, err)
	}

	updated := *ticket
	updated.IsUsed = true
	log.Printf("Ticket %d checked in for event %s (tx %s)", ticketID, o.eventAddress, txHash)

	return o.record(ctx, start, session.Address, models.CheckInResult{
		Success:    true,
		TicketID:   ticketID,
		Message:    MsgCheckInSuccessful,
		TicketData: &updated,
		TxHash:     txHash,
	})
}

func (o *Orchestrator) submitFailed(ctx context.Context, start time.Time, operator string, ticketID uint32, err error) models.CheckInResult {
	log.Printf("Check-in error for ticket %d: %v", ticketID, err)
	message := classifySubmitError(err)

	o.mu.Lock()
	o.lastError = message
	o.mu.Unlock()

	return o.record(ctx, start, operator, failure(ticketID, message, nil))
}

// classifySubmitError turns a submission failure into an operator-facing message.
// Typed contract errors are matched first; text matching covers node errors that
// reach us undecoded.
func classifySubmitError(err error) string {
	switch {
	case errors.Is(err, contracts.ErrNotEventCreator):
		return MsgNotEventCreator
	case errors.Is(err, contracts.ErrTicketAlreadyUsed):
		return MsgTicketUsedOnChain
	}

	message := err.Error()
	switch {
	case message == "":
		return msgCheckInFailed
	case strings.Contains(message, "not the event creator"):
		return MsgNotEventCreator
	case strings.Contains(message, "already used"):
		return MsgTicketUsedOnChain
	}
	return message
}

// ProcessQRCode parses a scanned payload and checks in the ticket it names.
func (o *Orchestrator) ProcessQRCode(ctx context.Context, raw string) models.CheckInResult {
	start := time.Now()

	payload := o.ParseQRCode(raw)
	if payload == nil {
		return o.record(ctx, start, o.wallet.Snapshot().Address, failure(0, MsgInvalidQRCode, nil))
	}
	ticketID, err := TicketNumber(payload.TokenID)
	if err != nil {
		return o.record(ctx, start, o.wallet.Snapshot().Address, failure(0, MsgInvalidQRTicketID, nil))
	}

	return o.MarkTicketUsed(ctx, ticketID)
}

func (o *Orchestrator) ParseQRCode(raw string) *models.QRPayload {
	return ParseQRCode(raw, o.eventAddress)
}

// record makes result the last result, adds it to the history and hands it to the sinks.
func (o *Orchestrator) record(ctx context.Context, start time.Time, operator string, result models.CheckInResult) models.CheckInResult {
	last := result
	o.mu.Lock()
	o.lastResult = &last
	o.mu.Unlock()

	entry := o.history.Add(result)
	o.metrics.TrackCheckIn(result, time.Since(start))

	attempt := models.CheckInAttempt{
		ID:           entry.ID,
		EventAddress: o.eventAddress,
		TicketID:     result.TicketID,
		Success:      result.Success,
		Message:      result.Message,
		Operator:     operator,
		AttemptedAt:  entry.Timestamp,
	}
	if result.TxHash != "" {
		txHash := result.TxHash
		attempt.TxHash = &txHash
	}
	for _, sink := range o.sinks {
		if err := sink.RecordAttempt(ctx, attempt); err != nil {
			log.Printf("Warning: failed to record check-in attempt %s: %v", attempt.ID, err)
		}
	}

	return result
}

func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.processing {
		return false
	}
	o.processing = true
	o.lastError = ""
	return true
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	o.processing = false
	o.mu.Unlock()
}

// Reset clears the last result and error. The history is kept.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastResult = nil
	o.lastError = ""
}

func (o *Orchestrator) IsProcessing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.processing
}

func (o *Orchestrator) LastResult() *models.CheckInResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastResult == nil {
		return nil
	}
	result := *o.lastResult
	return &result
}

func (o *Orchestrator) Error() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastError
}

func (o *Orchestrator) History() []models.CheckInHistoryEntry {
	return o.history.Entries()
}

func (o *Orchestrator) Stats() models.CheckInStats {
	return o.history.Stats()
}

func failure(ticketID uint32, message string, ticket *models.TicketRecord) models.CheckInResult {
	return models.CheckInResult{
		Success:    false,
		TicketID:   ticketID,
		Message:    message,
		TicketData: ticket,
	}
}
