package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// TicketCollectionABI covers the subset of the ticket collection contract this service calls.
const TicketCollectionABI = `[
{"inputs":[{"internalType":"uint32","name":"ticketId","type":"uint32"}],"name":"getTicket","outputs":[{"internalType":"uint32","name":"ticketId","type":"uint32"},{"internalType":"address","name":"owner","type":"address"},{"internalType":"bool","name":"isUsed","type":"bool"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"address","name":"creator","type":"address"},{"internalType":"uint32","name":"ticketId","type":"uint32"}],"name":"markTicketUsed","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[],"name":"getEventInfo","outputs":[{"internalType":"string","name":"name","type":"string"},{"internalType":"string","name":"symbol","type":"string"},{"internalType":"address","name":"eventCreator","type":"address"},{"internalType":"string","name":"eventMetadata","type":"string"},{"internalType":"address","name":"paymentToken","type":"address"},{"internalType":"uint256","name":"primaryPrice","type":"uint256"},{"internalType":"uint32","name":"creatorFeeBps","type":"uint32"},{"internalType":"uint32","name":"totalSupply","type":"uint32"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"getTicketsAvailable","outputs":[{"internalType":"uint32","name":"","type":"uint32"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"getTicketsMinted","outputs":[{"internalType":"uint32","name":"","type":"uint32"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"getAllSecondaryListings","outputs":[{"components":[{"internalType":"uint32","name":"ticketId","type":"uint32"},{"internalType":"address","name":"seller","type":"address"},{"internalType":"uint256","name":"price","type":"uint256"}],"internalType":"struct SecondaryListing[]","name":"","type":"tuple[]"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"address","name":"seller","type":"address"},{"internalType":"uint32","name":"ticketId","type":"uint32"}],"name":"cancelSecondaryListing","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// EventFactoryABI covers the factory's per-creator event index.
const EventFactoryABI = `[
{"inputs":[{"internalType":"address","name":"creator","type":"address"}],"name":"getCreatorEvents","outputs":[{"components":[{"internalType":"string","name":"name","type":"string"},{"internalType":"string","name":"symbol","type":"string"},{"internalType":"address","name":"eventContract","type":"address"},{"internalType":"address","name":"eventCreator","type":"address"},{"internalType":"uint64","name":"createdAt","type":"uint64"}],"internalType":"struct EventRecord[]","name":"","type":"tuple[]"}],"stateMutability":"view","type":"function"}
]`

var (
	ticketCollectionABI = mustParseABI(TicketCollectionABI)
	eventFactoryABI     = mustParseABI(EventFactoryABI)
)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic("failed to parse contract ABI: " + err.Error())
	}
	return parsed
}
