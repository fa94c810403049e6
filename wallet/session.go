package wallet

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"sticket-backend/models"
)

const (
	DefaultPollInterval   = 2 * time.Second
	DefaultConnectTimeout = 5 * time.Second
)

// Observer receives connection-check outcomes, e.g. for metrics.
type Observer interface {
	TrackConnectionCheck(status string)
	SetWalletConnected(connected bool)
}

type nopObserver struct{}

func (nopObserver) TrackConnectionCheck(string) {}
func (nopObserver) SetWalletConnected(bool)     {}

type Options struct {
	PollInterval   time.Duration
	ConnectTimeout time.Duration
	Observer       Observer
}

// Session tracks the operator's wallet connection and exposes its signing calls.
//
// State changes are committed whole: a check either publishes a fully populated
// connected session or clears it. Each Connect/Disconnect bumps a generation so a
// check that started before it cannot overwrite the newer state.
type Session struct {
	ext            Extension
	flags          FlagStore
	pollInterval   time.Duration
	connectTimeout time.Duration
	observer       Observer

	mu                   sync.RWMutex
	state                models.WalletSession
	lastError            string
	loading              bool
	manuallyDisconnected bool
	generation           uint64
}

func NewSession(ext Extension, flags FlagStore, opts Options) *Session {
	if flags == nil {
		flags = NewMemoryFlagStore()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}

	return &Session{
		ext:            ext,
		flags:          flags,
		pollInterval:   opts.PollInterval,
		connectTimeout: opts.ConnectTimeout,
		observer:       opts.Observer,
	}
}

// Run checks the connection once, then on every poll interval until ctx is done.
func (s *Session) Run(ctx context.Context) {
	s.CheckConnection(ctx)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckConnection(ctx)
		}
	}
}

func (s *Session) isManuallyDisconnected(ctx context.Context) bool {
	s.mu.RLock()
	flagged := s.manuallyDisconnected
	s.mu.RUnlock()
	if flagged {
		return true
	}

	persisted, err := s.flags.ManuallyDisconnected(ctx)
	if err != nil {
		log.Printf("Warning: could not read wallet disconnect flag: %v", err)
		return false
	}
	if persisted {
		s.mu.Lock()
		s.manuallyDisconnected = true
		s.mu.Unlock()
	}
	return persisted
}

// CheckConnection reconciles the session with the extension. It is a no-op while the
// operator is manually disconnected, and fails closed on any required lookup error.
func (s *Session) CheckConnection(ctx context.Context) {
	if s.isManuallyDisconnected(ctx) {
		s.observer.TrackConnectionCheck("skipped")
		return
	}
	gen := s.currentGeneration()

	connected, err := s.ext.IsConnected(ctx)
	if err != nil {
		s.failClosed(gen, errorMessage(err, "failed to check wallet connection"))
		return
	}
	if !connected {
		s.commit(gen, models.WalletSession{}, "")
		s.observer.TrackConnectionCheck("disconnected")
		return
	}

	address, err := s.ext.GetAddress(ctx)
	if err != nil || address == "" {
		s.failClosed(gen, errorMessage(err, "failed to get public key"))
		return
	}
	network, err := s.ext.GetNetwork(ctx)
	if err != nil {
		s.failClosed(gen, errorMessage(err, "failed to get network information"))
		return
	}

	next := models.WalletSession{
		Connected:         true,
		Address:           address,
		Network:           network.Network,
		NetworkPassphrase: network.NetworkPassphrase,
	}
	// Details are optional.
	if details, err := s.ext.GetNetworkDetails(ctx); err == nil {
		next.NetworkDetails = &details
	}

	s.commit(gen, next, "")
	s.observer.TrackConnectionCheck("connected")
}

func (s *Session) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *Session) commit(gen uint64, next models.WalletSession, errMsg string) bool {
	s.mu.Lock()
	if s.generation != gen || s.manuallyDisconnected {
		s.mu.Unlock()
		return false
	}
	s.state = next
	s.lastError = errMsg
	s.mu.Unlock()

	s.observer.SetWalletConnected(next.Connected)
	return true
}

func (s *Session) failClosed(gen uint64, errMsg string) {
	if s.commit(gen, models.WalletSession{}, errMsg) {
		log.Printf("Wallet connection check failed: %s", errMsg)
	}
	s.observer.TrackConnectionCheck("error")
}

// Connect clears the manual-disconnect flag and requests access from the extension,
// bounded by the connect timeout.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.lastError = ""
	s.manuallyDisconnected = false
	s.generation++
	s.mu.Unlock()
	defer s.setLoading(false)

	if err := s.flags.SetManuallyDisconnected(ctx, false); err != nil {
		// The persisted flag still holds, so the session stays disconnected.
		s.mu.Lock()
		s.manuallyDisconnected = true
		s.mu.Unlock()
		err = fmt.Errorf("failed to clear wallet disconnect flag: %w", err)
		s.setError(err.Error())
		return err
	}

	accessCtx, cancel := context.WithTimeout(ctx, s.connectTimeout)
	defer cancel()

	if _, err := s.requestAccess(accessCtx); err != nil {
		if isWalletUnavailable(err) {
			s.setError(ErrWalletNotFound.Error())
			return ErrWalletNotFound
		}
		s.setError(errorMessage(err, "failed to connect to wallet"))
		return err
	}

	s.CheckConnection(ctx)
	snap := s.Snapshot()
	if !snap.Connected {
		if msg := s.Error(); msg != "" {
			return fmt.Errorf("%w: %s", ErrConnectionNotEstablished, msg)
		}
		s.setError(ErrConnectionNotEstablished.Error())
		return ErrConnectionNotEstablished
	}
	log.Printf("Wallet connected: %s", snap.Address)
	return nil
}

func (s *Session) requestAccess(ctx context.Context) (string, error) {
	type accessResult struct {
		address string
		err     error
	}

	done := make(chan accessResult, 1)
	go func() {
		address, err := s.ext.RequestAccess(ctx)
		done <- accessResult{address: address, err: err}
	}()

	select {
	case res := <-done:
		return res.address, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Disconnect persists the manual-disconnect flag and clears the local session.
// Extension-side permissions are left as they are.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	s.manuallyDisconnected = true
	s.generation++
	s.state = models.WalletSession{}
	s.lastError = ""
	s.mu.Unlock()
	s.observer.SetWalletConnected(false)

	if err := s.flags.SetManuallyDisconnected(ctx, true); err != nil {
		s.setError(err.Error())
		return err
	}
	log.Println("Wallet disconnected by operator")
	return nil
}

func (s *Session) SignTransaction(ctx context.Context, txHex string, opts models.SignOptions) (models.SignedTransaction, error) {
	result, err := s.ext.SignTransaction(ctx, txHex, opts)
	if err != nil {
		s.setError(errorMessage(err, "failed to sign transaction"))
		return models.SignedTransaction{}, err
	}
	return result, nil
}

func (s *Session) SignAuthEntry(ctx context.Context, entryHex string, opts models.SignOptions) (models.SignedAuthEntry, error) {
	result, err := s.ext.SignAuthEntry(ctx, entryHex, opts)
	if err != nil {
		s.setError(errorMessage(err, "failed to sign auth entry"))
		return models.SignedAuthEntry{}, err
	}
	return result, nil
}

// GetNetwork asks the extension for its network and refreshes the session copy when connected.
func (s *Session) GetNetwork(ctx context.Context) (models.Network, error) {
	network, err := s.ext.GetNetwork(ctx)
	if err != nil {
		s.setError(errorMessage(err, "failed to get network information"))
		return models.Network{}, err
	}

	s.mu.Lock()
	if s.state.Connected {
		s.state.Network = network.Network
		s.state.NetworkPassphrase = network.NetworkPassphrase
	}
	s.mu.Unlock()
	return network, nil
}

func (s *Session) GetNetworkDetails(ctx context.Context) (models.NetworkDetails, error) {
	details, err := s.ext.GetNetworkDetails(ctx)
	if err != nil {
		s.setError(errorMessage(err, "failed to get network details"))
		return models.NetworkDetails{}, err
	}

	s.mu.Lock()
	if s.state.Connected {
		copied := details
		s.state.NetworkDetails = &copied
	}
	s.mu.Unlock()
	return details, nil
}

// Snapshot returns a copy of the current session.
func (s *Session) Snapshot() models.WalletSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state
	if s.state.NetworkDetails != nil {
		details := *s.state.NetworkDetails
		snapshot.NetworkDetails = &details
	}
	return snapshot
}

func (s *Session) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

func (s *Session) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Session) ManuallyDisconnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manuallyDisconnected
}

func (s *Session) setError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

func (s *Session) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}
