package models

// TicketRecord is a snapshot of a ticket as read from the ledger.
type TicketRecord struct {
	TicketID uint32 `json:"ticket_id"`
	IsUsed   bool   `json:"is_used"`
	Owner    string `json:"owner"`
}

// EventInfo mirrors getEventInfo() on the ticket collection contract.
// PrimaryPrice is in token base units.
type EventInfo struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	EventCreator  string `json:"event_creator"`
	EventMetadata string `json:"event_metadata"`
	PaymentToken  string `json:"payment_token"`
	PrimaryPrice  string `json:"primary_price"`
	CreatorFeeBps uint32 `json:"creator_fee_bps"`
	TotalSupply   uint32 `json:"total_supply"`
}

type SecondaryListing struct {
	TicketID uint32 `json:"ticket_id"`
	Seller   string `json:"seller"`
	Price    string `json:"price"`
}

// EventRecord is one entry of the factory's per-creator event index.
type EventRecord struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	EventContract string `json:"event_contract"`
	EventCreator  string `json:"event_creator"`
	CreatedAt     uint64 `json:"created_at"`
}
