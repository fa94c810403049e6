package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"sticket-backend/contracts"
	"sticket-backend/metadata"
	"sticket-backend/models"
)

const creatorEventsConcurrency = 8

var ErrWalletNotConnected = errors.New("wallet not connected")

// EventReader is the read side of a ticket collection contract.
type EventReader interface {
	GetEventInfo(ctx context.Context) (*models.EventInfo, error)
	GetTicketsAvailable(ctx context.Context) (uint32, error)
	GetTicketsMinted(ctx context.Context) (uint32, error)
	GetAllSecondaryListings(ctx context.Context) ([]models.SecondaryListing, error)
}

type ListingWriter interface {
	CancelSecondaryListing(ctx context.Context, seller string, ticketID uint32) (string, error)
}

type CreatorIndex interface {
	GetCreatorEvents(ctx context.Context, creator string) ([]models.EventRecord, error)
}

type Dialer interface {
	Event(address string) (EventReader, error)
	Listings(address string) (ListingWriter, error)
	Creators() (CreatorIndex, error)
}

// Cache stores assembled event details. Get returns nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context, address string) (*models.EventDetails, error)
	Set(ctx context.Context, address string, details *models.EventDetails) error
	Delete(ctx context.Context, address string) error
}

type Wallet interface {
	Snapshot() models.WalletSession
}

type EventService struct {
	dialer        Dialer
	fetcher       *metadata.Fetcher
	cache         Cache
	wallet        Wallet
	tokenDecimals int32
}

// NewEventService wires the event read path. cache may be nil.
func NewEventService(dialer Dialer, fetcher *metadata.Fetcher, cache Cache, wallet Wallet, tokenDecimals int32) *EventService {
	return &EventService{
		dialer:        dialer,
		fetcher:       fetcher,
		cache:         cache,
		wallet:        wallet,
		tokenDecimals: tokenDecimals,
	}
}

// GetEventDetails reads event info, supply and listings in parallel and joins them
// with the off-chain metadata.
func (s *EventService) GetEventDetails(ctx context.Context, address string) (*models.EventDetails, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, address)
		if err != nil {
			log.Printf("Event cache read failed for %s: %v", address, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	reader, err := s.dialer.Event(address)
	if err != nil {
		return nil, err
	}

	var (
		info      *models.EventInfo
		available uint32
		minted    uint32
		listings  []models.SecondaryListing
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = reader.GetEventInfo(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		available, err = reader.GetTicketsAvailable(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		minted, err = reader.GetTicketsMinted(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		listings, err = reader.GetAllSecondaryListings(gctx)
		if err != nil {
			// The secondary market is optional on older collections.
			log.Printf("Failed to load secondary listings for %s: %v", address, err)
			listings = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load event %s: %w", address, err)
	}

	details, err := s.buildDetails(ctx, address, info, available, minted, listings)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, address, details); err != nil {
			log.Printf("Event cache write failed for %s: %v", address, err)
		}
	}
	return details, nil
}

func (s *EventService) buildDetails(ctx context.Context, address string, info *models.EventInfo, available, minted uint32, listings []models.SecondaryListing) (*models.EventDetails, error) {
	price, err := ToTokenAmount(info.PrimaryPrice, s.tokenDecimals)
	if err != nil {
		return nil, err
	}

	meta := s.fetcher.Fetch(ctx, info.EventMetadata)
	details := &models.EventDetails{
		ContractID:        address,
		Name:              info.Name,
		Symbol:            info.Symbol,
		EventCreator:      info.EventCreator,
		EventMetadata:     info.EventMetadata,
		PaymentToken:      info.PaymentToken,
		EventImage:        s.fetcher.EventImage(meta, address),
		PrimaryPrice:      price,
		PrimaryPriceUnits: info.PrimaryPrice,
		CreatorFeeBps:     info.CreatorFeeBps,
		CreatorFeePercent: FeePercent(info.CreatorFeeBps),
		TotalSupply:       info.TotalSupply,
		TicketsAvailable:  available,
		TicketsMinted:     minted,
		SecondaryListings: make([]models.SecondaryListingDetail, 0, len(listings)),
		Metadata:          meta,
	}

	if meta != nil {
		details.EventDate, details.EventTime = splitDateTime(deref(meta.DateTime))
		details.EventLocation = deref(meta.LocationAddress)
		details.EventCategory = deref(meta.Category)
		details.EventContact = deref(meta.Contact)
	}

	for _, listing := range listings {
		listingPrice, err := ToTokenAmount(listing.Price, s.tokenDecimals)
		if err != nil {
			log.Printf("Skipping listing %d on %s: %v", listing.TicketID, address, err)
			continue
		}
		details.SecondaryListings = append(details.SecondaryListings, models.SecondaryListingDetail{
			TicketID:   listing.TicketID,
			Seller:     listing.Seller,
			Price:      listingPrice,
			PriceUnits: listing.Price,
		})
	}

	return details, nil
}

// GetCreatorEvents lists the creator's events with their details. A failed detail
// read leaves that event with zero values instead of failing the whole list.
func (s *EventService) GetCreatorEvents(ctx context.Context, creator string) (*models.CreatorEventsResponse, error) {
	index, err := s.dialer.Creators()
	if err != nil {
		return nil, err
	}
	records, err := index.GetCreatorEvents(ctx, creator)
	if err != nil {
		return nil, fmt.Errorf("failed to load events for creator %s: %w", creator, err)
	}

	events := make([]models.CreatorEvent, len(records))
	var g errgroup.Group
	g.SetLimit(creatorEventsConcurrency)
	for i, record := range records {
		i, record := i, record
		g.Go(func() error {
			event := models.CreatorEvent{
				ID:            i + 1,
				Name:          record.Name,
				Symbol:        record.Symbol,
				EventContract: record.EventContract,
				EventCreator:  record.EventCreator,
				CreatedAt:     record.CreatedAt,
				EventImage:    metadata.PlaceholderImage(record.EventContract),
			}

			details, err := s.GetEventDetails(ctx, record.EventContract)
			if err != nil {
				log.Printf("Failed to load details for event %s: %v", record.EventContract, err)
			} else {
				event.TotalSupply = details.TotalSupply
				event.TicketsAvailable = details.TicketsAvailable
				event.TicketsMinted = details.TicketsMinted
				event.PrimaryPrice = details.PrimaryPrice
				event.PrimaryPriceUnits = details.PrimaryPriceUnits
				event.CreatorFeeBps = details.CreatorFeeBps
				event.EventMetadata = details.EventMetadata
				event.PaymentToken = details.PaymentToken
				event.EventImage = details.EventImage
				event.Metadata = details.Metadata
			}

			events[i] = event
			return nil
		})
	}
	g.Wait()

	return &models.CreatorEventsResponse{
		Events:           events,
		TotalRevenue:     CalculateRevenue(events),
		TotalTicketsSold: CalculateTotalTicketsSold(events),
	}, nil
}

// CancelListing withdraws a secondary listing owned by the session wallet.
func (s *EventService) CancelListing(ctx context.Context, address string, ticketID uint32) (string, error) {
	session := s.wallet.Snapshot()
	if !session.Connected || session.Address == "" {
		return "", ErrWalletNotConnected
	}

	writer, err := s.dialer.Listings(address)
	if err != nil {
		return "", err
	}
	txHash, err := writer.CancelSecondaryListing(ctx, session.Address, ticketID)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, address); err != nil {
			log.Printf("Event cache invalidation failed for %s: %v", address, err)
		}
	}
	log.Printf("Cancelled listing for ticket %d on %s (tx %s)", ticketID, address, txHash)
	return txHash, nil
}

// CalculateRevenue sums minted × primary price over the events.
func CalculateRevenue(events []models.CreatorEvent) decimal.Decimal {
	total := decimal.Zero
	for _, event := range events {
		total = total.Add(event.PrimaryPrice.Mul(decimal.NewFromInt(int64(event.TicketsMinted))))
	}
	return total
}

func CalculateTotalTicketsSold(events []models.CreatorEvent) uint64 {
	var total uint64
	for _, event := range events {
		total += uint64(event.TicketsMinted)
	}
	return total
}

// ToTokenAmount converts an integer amount in token base units to whole tokens.
func ToTokenAmount(units string, decimals int32) (decimal.Decimal, error) {
	if units == "" {
		return decimal.Zero, nil
	}
	value, ok := new(big.Int).SetString(units, 10)
	if !ok {
		return decimal.Zero, fmt.Errorf("invalid token amount: %q", units)
	}
	return decimal.NewFromBigInt(value, -decimals), nil
}

// FeePercent converts basis points to a percentage.
func FeePercent(bps uint32) decimal.Decimal {
	return decimal.New(int64(bps), -2)
}

func splitDateTime(value string) (string, string) {
	if value == "" {
		return "", ""
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02"), t.Format("15:04")
		}
	}
	if date, clock, ok := strings.Cut(value, "T"); ok {
		return date, clock
	}
	return value, ""
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// ContractDialer serves EventService from the contract client factory.
type ContractDialer struct {
	factory *contracts.ClientFactory
}

func NewContractDialer(factory *contracts.ClientFactory) *ContractDialer {
	return &ContractDialer{factory: factory}
}

func (d *ContractDialer) Event(address string) (EventReader, error) {
	client, err := d.factory.ReadOnly(address)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (d *ContractDialer) Listings(address string) (ListingWriter, error) {
	client, err := d.factory.Signing(address)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (d *ContractDialer) Creators() (CreatorIndex, error) {
	index, err := d.factory.Factory()
	if err != nil {
		return nil, err
	}
	return index, nil
}
