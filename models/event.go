package models

import "github.com/shopspring/decimal"

// EventMetadata is the off-chain JSON document referenced by EventInfo.EventMetadata.
type EventMetadata struct {
	Description        *string  `json:"description,omitempty"`
	DateTime           *string  `json:"dateTime,omitempty"`
	LocationAddress    *string  `json:"locationAddress,omitempty"`
	Category           *string  `json:"category,omitempty"`
	Image              *string  `json:"image,omitempty"`
	Contact            *string  `json:"contact,omitempty"`
	SecondaryMarketFee *float64 `json:"secondaryMarketFee,omitempty"`
}

type SecondaryListingDetail struct {
	TicketID   uint32          `json:"ticket_id"`
	Seller     string          `json:"seller"`
	Price      decimal.Decimal `json:"price"`
	PriceUnits string          `json:"price_units"`
}

// EventDetails combines on-chain event info, supply, listings and metadata.
type EventDetails struct {
	ContractID    string `json:"contract_id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	EventCreator  string `json:"event_creator"`
	EventMetadata string `json:"event_metadata"`
	PaymentToken  string `json:"payment_token"`

	EventImage    string `json:"event_image"`
	EventDate     string `json:"event_date"`
	EventTime     string `json:"event_time"`
	EventLocation string `json:"event_location"`
	EventCategory string `json:"event_category"`
	EventContact  string `json:"event_contact"`

	PrimaryPrice      decimal.Decimal `json:"primary_price"`
	PrimaryPriceUnits string          `json:"primary_price_units"`
	CreatorFeeBps     uint32          `json:"creator_fee_bps"`
	CreatorFeePercent decimal.Decimal `json:"creator_fee_percent"`

	TotalSupply      uint32 `json:"total_supply"`
	TicketsAvailable uint32 `json:"tickets_available"`
	TicketsMinted    uint32 `json:"tickets_minted"`

	SecondaryListings []SecondaryListingDetail `json:"secondary_listings"`
	Metadata          *EventMetadata           `json:"metadata,omitempty"`
}

// CreatorEvent is one row of the creator dashboard.
type CreatorEvent struct {
	ID                int             `json:"id"`
	Name              string          `json:"name"`
	Symbol            string          `json:"symbol"`
	EventContract     string          `json:"event_contract"`
	EventCreator      string          `json:"event_creator"`
	CreatedAt         uint64          `json:"created_at"`
	TotalSupply       uint32          `json:"total_supply"`
	TicketsAvailable  uint32          `json:"tickets_available"`
	TicketsMinted     uint32          `json:"tickets_minted"`
	PrimaryPrice      decimal.Decimal `json:"primary_price"`
	PrimaryPriceUnits string          `json:"primary_price_units"`
	CreatorFeeBps     uint32          `json:"creator_fee_bps"`
	EventMetadata     string          `json:"event_metadata"`
	PaymentToken      string          `json:"payment_token"`
	EventImage        string          `json:"event_image"`
	Metadata          *EventMetadata  `json:"metadata,omitempty"`
}

type CreatorEventsResponse struct {
	Events           []CreatorEvent  `json:"events"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalTicketsSold uint64          `json:"total_tickets_sold"`
}
