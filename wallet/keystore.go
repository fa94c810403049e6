package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"sticket-backend/models"
)

type KeystoreConfig struct {
	// Address selects the account; the first keystore account is used when empty.
	Address    string
	Passphrase string
	ChainID    *big.Int
	Network    models.NetworkDetails
}

// KeystoreExtension is an Extension backed by an encrypted go-ethereum keystore.
// Access is granted by unlocking the configured account.
type KeystoreExtension struct {
	ks  *keystore.KeyStore
	cfg KeystoreConfig

	mu       sync.RWMutex
	account  accounts.Account
	unlocked bool
}

func NewKeystoreExtension(ks *keystore.KeyStore, cfg KeystoreConfig) *KeystoreExtension {
	return &KeystoreExtension{ks: ks, cfg: cfg}
}

func (e *KeystoreExtension) findAccount() (accounts.Account, error) {
	all := e.ks.Accounts()
	if len(all) == 0 {
		return accounts.Account{}, &ExtensionError{Code: CodeNotInstalled, Name: "NotInstalled", Message: "no wallet found in keystore"}
	}
	if e.cfg.Address == "" {
		return all[0], nil
	}

	want := common.HexToAddress(e.cfg.Address)
	for _, account := range all {
		if account.Address == want {
			return account, nil
		}
	}
	return accounts.Account{}, &ExtensionError{Code: CodeNotInstalled, Name: "NotInstalled", Message: fmt.Sprintf("account %s not found in keystore", e.cfg.Address)}
}

func (e *KeystoreExtension) IsConnected(ctx context.Context) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.unlocked, nil
}

func (e *KeystoreExtension) RequestAccess(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	account, err := e.findAccount()
	if err != nil {
		return "", err
	}
	if err := e.ks.Unlock(account, e.cfg.Passphrase); err != nil {
		return "", &ExtensionError{Code: CodeUserRejected, Name: "AccessDenied", Message: "could not unlock account: " + err.Error()}
	}

	e.mu.Lock()
	e.account = account
	e.unlocked = true
	e.mu.Unlock()

	return account.Address.Hex(), nil
}

// Lock drops the unlocked key, after which the extension reports itself disconnected.
func (e *KeystoreExtension) Lock() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.unlocked {
		return nil
	}
	e.unlocked = false
	return e.ks.Lock(e.account.Address)
}

func (e *KeystoreExtension) unlockedAccount() (accounts.Account, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.unlocked {
		return accounts.Account{}, &ExtensionError{Code: CodeLocked, Name: "Locked", Message: "account is locked"}
	}
	return e.account, nil
}

func (e *KeystoreExtension) GetAddress(ctx context.Context) (string, error) {
	account, err := e.unlockedAccount()
	if err != nil {
		return "", err
	}
	return account.Address.Hex(), nil
}

func (e *KeystoreExtension) GetNetwork(ctx context.Context) (models.Network, error) {
	return models.Network{
		Network:           e.cfg.Network.Network,
		NetworkPassphrase: e.cfg.Network.NetworkPassphrase,
	}, nil
}

func (e *KeystoreExtension) GetNetworkDetails(ctx context.Context) (models.NetworkDetails, error) {
	return e.cfg.Network, nil
}

func (e *KeystoreExtension) checkOptions(account accounts.Account, opts models.SignOptions) error {
	if opts.NetworkPassphrase != "" && opts.NetworkPassphrase != e.cfg.Network.NetworkPassphrase {
		return &ExtensionError{Code: CodeBadRequest, Name: "NetworkMismatch", Message: "network passphrase does not match the active network"}
	}
	if opts.Address != "" && !strings.EqualFold(opts.Address, account.Address.Hex()) {
		return &ExtensionError{Code: CodeBadRequest, Name: "AddressMismatch", Message: "requested signer is not the active account"}
	}
	return nil
}

func (e *KeystoreExtension) SignTransaction(ctx context.Context, txHex string, opts models.SignOptions) (models.SignedTransaction, error) {
	account, err := e.unlockedAccount()
	if err != nil {
		return models.SignedTransaction{}, err
	}
	if err := e.checkOptions(account, opts); err != nil {
		return models.SignedTransaction{}, err
	}

	raw, err := hexutil.Decode(txHex)
	if err != nil {
		return models.SignedTransaction{}, &ExtensionError{Code: CodeBadRequest, Name: "BadTransaction", Message: "transaction is not valid hex"}
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return models.SignedTransaction{}, &ExtensionError{Code: CodeBadRequest, Name: "BadTransaction", Message: "could not decode transaction: " + err.Error()}
	}

	signed, err := e.ks.SignTx(account, tx, e.cfg.ChainID)
	if err != nil {
		return models.SignedTransaction{}, &ExtensionError{Code: CodeInternal, Name: "SignFailed", Message: "failed to sign transaction: " + err.Error()}
	}
	out, err := signed.MarshalBinary()
	if err != nil {
		return models.SignedTransaction{}, fmt.Errorf("failed to encode signed transaction: %w", err)
	}

	return models.SignedTransaction{
		SignedTx:      hexutil.Encode(out),
		SignerAddress: account.Address.Hex(),
	}, nil
}

func (e *KeystoreExtension) SignAuthEntry(ctx context.Context, entryHex string, opts models.SignOptions) (models.SignedAuthEntry, error) {
	account, err := e.unlockedAccount()
	if err != nil {
		return models.SignedAuthEntry{}, err
	}
	if err := e.checkOptions(account, opts); err != nil {
		return models.SignedAuthEntry{}, err
	}

	entry, err := hexutil.Decode(entryHex)
	if err != nil {
		return models.SignedAuthEntry{}, &ExtensionError{Code: CodeBadRequest, Name: "BadAuthEntry", Message: "auth entry is not valid hex"}
	}
	signature, err := e.ks.SignHash(account, accounts.TextHash(entry))
	if err != nil {
		return models.SignedAuthEntry{}, &ExtensionError{Code: CodeInternal, Name: "SignFailed", Message: "failed to sign auth entry: " + err.Error()}
	}

	return models.SignedAuthEntry{
		SignedAuthEntry: hexutil.Encode(signature),
		SignerAddress:   account.Address.Hex(),
	}, nil
}
