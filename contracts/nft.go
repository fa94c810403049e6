package contracts

import (
	"context"
	"fmt"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"sticket-backend/models"
)

// Signer carries the wallet callbacks a write-capable client signs with.
type Signer struct {
	Address         common.Address
	SignTransaction func(ctx context.Context, txHex string) (string, error)
	SignAuthEntry   func(ctx context.Context, entryHex string) (string, error)
}

// NFTContract wraps the ticket collection contract of one event.
// Without a Signer only the read (simulated) methods work.
type NFTContract struct {
	backend Backend
	address common.Address
	abi     abi.ABI
	signer  *Signer
}

// NewNFTContract creates a read-only client bound to address.
func NewNFTContract(backend Backend, address string) (*NFTContract, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return &NFTContract{
		backend: backend,
		address: common.HexToAddress(address),
		abi:     ticketCollectionABI,
	}, nil
}

// WithSigner returns a copy of the client that signs writes with signer.
func (c *NFTContract) WithSigner(signer *Signer) *NFTContract {
	clone := *c
	clone.signer = signer
	return &clone
}

func (c *NFTContract) Address() string {
	return c.address.Hex()
}

func (c *NFTContract) call(ctx context.Context, out interface{}, method string, args ...interface{}) error {
	callData, err := c.abi.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("failed to pack %s call data: %w", method, err)
	}

	msg := ethereum.CallMsg{To: &c.address, Data: callData}
	if c.signer != nil {
		msg.From = c.signer.Address
	}
	result, err := c.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, decodeRevert(err))
	}
	if len(result) == 0 {
		return fmt.Errorf("empty result from %s", method)
	}

	if err := c.abi.UnpackIntoInterface(out, method, result); err != nil {
		return fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return nil
}

// GetTicket simulates getTicket(ticketId). A zero owner means the ticket does not exist.
func (c *NFTContract) GetTicket(ctx context.Context, ticketID uint32) (*models.TicketRecord, error) {
	var out struct {
		TicketId uint32
		Owner    common.Address
		IsUsed   bool
	}
	if err := c.call(ctx, &out, "getTicket", ticketID); err != nil {
		return nil, err
	}
	if out.Owner == (common.Address{}) {
		return nil, fmt.Errorf("%w: %d", ErrTicketNotFound, ticketID)
	}

	return &models.TicketRecord{
		TicketID: out.TicketId,
		IsUsed:   out.IsUsed,
		Owner:    out.Owner.Hex(),
	}, nil
}

func (c *NFTContract) GetEventInfo(ctx context.Context) (*models.EventInfo, error) {
	var out struct {
		Name          string
		Symbol        string
		EventCreator  common.Address
		EventMetadata string
		PaymentToken  common.Address
		PrimaryPrice  *big.Int
		CreatorFeeBps uint32
		TotalSupply   uint32
	}
	if err := c.call(ctx, &out, "getEventInfo"); err != nil {
		return nil, err
	}

	price := "0"
	if out.PrimaryPrice != nil {
		price = out.PrimaryPrice.String()
	}
	return &models.EventInfo{
		Name:          out.Name,
		Symbol:        out.Symbol,
		EventCreator:  out.EventCreator.Hex(),
		EventMetadata: out.EventMetadata,
		PaymentToken:  out.PaymentToken.Hex(),
		PrimaryPrice:  price,
		CreatorFeeBps: out.CreatorFeeBps,
		TotalSupply:   out.TotalSupply,
	}, nil
}

func (c *NFTContract) GetTicketsAvailable(ctx context.Context) (uint32, error) {
	var available uint32
	if err := c.call(ctx, &available, "getTicketsAvailable"); err != nil {
		return 0, err
	}
	return available, nil
}

func (c *NFTContract) GetTicketsMinted(ctx context.Context) (uint32, error) {
	var minted uint32
	if err := c.call(ctx, &minted, "getTicketsMinted"); err != nil {
		return 0, err
	}
	return minted, nil
}

func (c *NFTContract) GetAllSecondaryListings(ctx context.Context) ([]models.SecondaryListing, error) {
	var out []struct {
		TicketId uint32
		Seller   common.Address
		Price    *big.Int
	}
	if err := c.call(ctx, &out, "getAllSecondaryListings"); err != nil {
		return nil, err
	}

	listings := make([]models.SecondaryListing, 0, len(out))
	for _, listing := range out {
		price := "0"
		if listing.Price != nil {
			price = listing.Price.String()
		}
		listings = append(listings, models.SecondaryListing{
			TicketID: listing.TicketId,
			Seller:   listing.Seller.Hex(),
			Price:    price,
		})
	}
	return listings, nil
}

// MarkTicketUsed submits markTicketUsed(creator, ticketId) and waits for the receipt.
func (c *NFTContract) MarkTicketUsed(ctx context.Context, creator string, ticketID uint32) (string, error) {
	if !common.IsHexAddress(creator) {
		return "", fmt.Errorf("invalid creator address: %s", creator)
	}
	return c.transact(ctx, "markTicketUsed", common.HexToAddress(creator), ticketID)
}

func (c *NFTContract) CancelSecondaryListing(ctx context.Context, seller string, ticketID uint32) (string, error) {
	if !common.IsHexAddress(seller) {
		return "", fmt.Errorf("invalid seller address: %s", seller)
	}
	return c.transact(ctx, "cancelSecondaryListing", common.HexToAddress(seller), ticketID)
}

// SignAuthEntry asks the bound wallet to authorize an entry on behalf of this contract's caller.
func (c *NFTContract) SignAuthEntry(ctx context.Context, entryHex string) (string, error) {
	if c.signer == nil || c.signer.SignAuthEntry == nil {
		return "", ErrNoSigner
	}
	return c.signer.SignAuthEntry(ctx, entryHex)
}

// transact simulates, builds, signs through the wallet, submits and awaits the transaction.
// It returns the transaction hash, also on a reverted receipt.
func (c *NFTContract) transact(ctx context.Context, method string, args ...interface{}) (string, error) {
	if c.signer == nil || c.signer.SignTransaction == nil {
		return "", ErrNoSigner
	}

	callData, err := c.abi.Pack(method, args...)
	if err != nil {
		return "", fmt.Errorf("failed to pack %s call data: %w", method, err)
	}

	from := c.signer.Address
	msg := ethereum.CallMsg{From: from, To: &c.address, Data: callData}
	if _, err := c.backend.CallContract(ctx, msg, nil); err != nil {
		return "", fmt.Errorf("failed to simulate %s: %w", method, decodeRevert(err))
	}

	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to suggest gas price: %w", err)
	}
	gasLimit, err := c.backend.EstimateGas(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("failed to estimate gas for %s: %w", method, decodeRevert(err))
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &c.address,
		Data:     callData,
	})
	rawTx, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to encode transaction: %w", err)
	}

	signedHex, err := c.signer.SignTransaction(ctx, hexutil.Encode(rawTx))
	if err != nil {
		return "", err
	}
	signedRaw, err := hexutil.Decode(signedHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode signed transaction: %w", err)
	}
	signedTx := new(types.Transaction)
	if err := signedTx.UnmarshalBinary(signedRaw); err != nil {
		return "", fmt.Errorf("failed to decode signed transaction: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send %s transaction: %w", method, decodeRevert(err))
	}
	txHash := signedTx.Hash().Hex()
	log.Printf("Submitted %s transaction %s to %s", method, txHash, c.address.Hex())

	receipt, err := bind.WaitMined(ctx, c.backend, signedTx)
	if err != nil {
		return txHash, fmt.Errorf("failed waiting for %s transaction: %w", method, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return txHash, fmt.Errorf("%w: %s reverted in %s", ErrTransactionFailed, method, txHash)
	}
	return txHash, nil
}
