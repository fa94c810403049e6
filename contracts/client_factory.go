package contracts

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"sticket-backend/models"
)

var errAuthEntryNotSigned = errors.New("failed to sign auth entry")

// WalletSigner is the wallet session as seen by the client factory.
type WalletSigner interface {
	Snapshot() models.WalletSession
	SignTransaction(ctx context.Context, txHex string, opts models.SignOptions) (models.SignedTransaction, error)
	SignAuthEntry(ctx context.Context, entryHex string, opts models.SignOptions) (models.SignedAuthEntry, error)
}

// ClientFactory builds contract clients whose signing callbacks go through the wallet session.
// It does not check that the wallet is connected; callers do.
type ClientFactory struct {
	backend        Backend
	wallet         WalletSigner
	factoryAddress string
}

func NewClientFactory(backend Backend, wallet WalletSigner, factoryAddress string) *ClientFactory {
	return &ClientFactory{
		backend:        backend,
		wallet:         wallet,
		factoryAddress: factoryAddress,
	}
}

func (f *ClientFactory) ReadOnly(address string) (*NFTContract, error) {
	return NewNFTContract(f.backend, address)
}

// Signing binds a client to the wallet's current address and network passphrase.
func (f *ClientFactory) Signing(address string) (*NFTContract, error) {
	client, err := NewNFTContract(f.backend, address)
	if err != nil {
		return nil, err
	}
	return client.WithSigner(f.signer()), nil
}

func (f *ClientFactory) Factory() (*FactoryContract, error) {
	return NewFactoryContract(f.backend, f.factoryAddress)
}

func (f *ClientFactory) signer() *Signer {
	session := f.wallet.Snapshot()
	opts := models.SignOptions{
		NetworkPassphrase: session.NetworkPassphrase,
		Address:           session.Address,
	}

	return &Signer{
		Address: common.HexToAddress(session.Address),
		SignTransaction: func(ctx context.Context, txHex string) (string, error) {
			result, err := f.wallet.SignTransaction(ctx, txHex, opts)
			if err != nil {
				return "", err
			}
			return result.SignedTx, nil
		},
		SignAuthEntry: func(ctx context.Context, entryHex string) (string, error) {
			result, err := f.wallet.SignAuthEntry(ctx, entryHex, opts)
			if err != nil {
				return "", err
			}
			if result.SignedAuthEntry == "" {
				return "", errAuthEntryNotSigned
			}
			return result.SignedAuthEntry, nil
		},
	}
}
