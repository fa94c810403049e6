package checkin

import (
	"strings"
	"sync"

	"sticket-backend/contracts"
)

// ContractDialer adapts the contract client factory to the Dialer interface.
type ContractDialer struct {
	factory *contracts.ClientFactory
}

func NewContractDialer(factory *contracts.ClientFactory) *ContractDialer {
	return &ContractDialer{factory: factory}
}

func (d *ContractDialer) ReadOnly(address string) (TicketContract, error) {
	client, err := d.factory.ReadOnly(address)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (d *ContractDialer) Signing(address string) (TicketContract, error) {
	client, err := d.factory.Signing(address)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Manager keeps one orchestrator per event so each event has its own
// processing flag and history.
type Manager struct {
	wallet Wallet
	dialer Dialer
	opts   Options

	mu            sync.Mutex
	orchestrators map[string]*Orchestrator
}

func NewManager(wallet Wallet, dialer Dialer, opts Options) *Manager {
	return &Manager{
		wallet:        wallet,
		dialer:        dialer,
		opts:          opts,
		orchestrators: make(map[string]*Orchestrator),
	}
}

// For returns the orchestrator for eventAddress, creating it on first use.
func (m *Manager) For(eventAddress string) *Orchestrator {
	key := strings.ToLower(eventAddress)

	m.mu.Lock()
	defer m.mu.Unlock()

	if o, ok := m.orchestrators[key]; ok {
		return o
	}
	o := NewOrchestrator(eventAddress, m.wallet, m.dialer, m.opts)
	m.orchestrators[key] = o
	return o
}

func (m *Manager) Lookup(eventAddress string) (*Orchestrator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orchestrators[strings.ToLower(eventAddress)]
	return o, ok
}

func (m *Manager) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make([]string, 0, len(m.orchestrators))
	for _, o := range m.orchestrators {
		events = append(events, o.EventAddress())
	}
	return events
}
