package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sticket-backend/models"
)

const testPassphrase = "door-operator"

var testChainID = big.NewInt(84532)

func newTestKeystore(t *testing.T) (*keystore.KeyStore, accounts.Account) {
	t.Helper()
	ks := keystore.NewKeyStore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
	account, err := ks.NewAccount(testPassphrase)
	require.NoError(t, err)
	return ks, account
}

func newTestKeystoreExtension(t *testing.T) (*KeystoreExtension, accounts.Account) {
	t.Helper()
	ks, account := newTestKeystore(t)
	ext := NewKeystoreExtension(ks, KeystoreConfig{
		Passphrase: testPassphrase,
		ChainID:    testChainID,
		Network: models.NetworkDetails{
			Network:           "TESTNET",
			NetworkURL:        "https://sepolia.base.org",
			NetworkPassphrase: "Test SDF Network ; September 2015",
			RPCURL:            "https://sepolia.base.org",
		},
	})
	return ext, account
}

func TestKeystoreExtension_RequestAccess(t *testing.T) {
	ext, account := newTestKeystoreExtension(t)
	ctx := context.Background()

	connected, err := ext.IsConnected(ctx)
	require.NoError(t, err)
	assert.False(t, connected)

	_, err = ext.GetAddress(ctx)
	var extErr *ExtensionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, CodeLocked, extErr.Code)

	address, err := ext.RequestAccess(ctx)
	require.NoError(t, err)
	assert.Equal(t, account.Address.Hex(), address)

	connected, err = ext.IsConnected(ctx)
	require.NoError(t, err)
	assert.True(t, connected)

	require.NoError(t, ext.Lock())
	connected, _ = ext.IsConnected(ctx)
	assert.False(t, connected)
}

func TestKeystoreExtension_RequestAccess_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty keystore", func(t *testing.T) {
		ks := keystore.NewKeyStore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
		ext := NewKeystoreExtension(ks, KeystoreConfig{Passphrase: testPassphrase})

		_, err := ext.RequestAccess(ctx)
		require.Error(t, err)
		assert.True(t, isWalletUnavailable(err))
	})

	t.Run("unknown address", func(t *testing.T) {
		ks, _ := newTestKeystore(t)
		ext := NewKeystoreExtension(ks, KeystoreConfig{
			Address:    "0x0000000000000000000000000000000000000001",
			Passphrase: testPassphrase,
		})

		_, err := ext.RequestAccess(ctx)
		require.Error(t, err)
		assert.True(t, isWalletUnavailable(err))
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		ks, _ := newTestKeystore(t)
		ext := NewKeystoreExtension(ks, KeystoreConfig{Passphrase: "wrong"})

		_, err := ext.RequestAccess(ctx)
		var extErr *ExtensionError
		require.True(t, errors.As(err, &extErr))
		assert.Equal(t, CodeUserRejected, extErr.Code)
		assert.False(t, isWalletUnavailable(err))
	})
}

func TestKeystoreExtension_SignTransaction(t *testing.T) {
	ext, account := newTestKeystoreExtension(t)
	ctx := context.Background()
	_, err := ext.RequestAccess(ctx)
	require.NoError(t, err)

	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    3,
		GasPrice: big.NewInt(1_000_000_000),
		Gas:      60_000,
		To:       &to,
		Data:     []byte{0x01, 0x02},
	})
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	signed, err := ext.SignTransaction(ctx, hexutil.Encode(raw), models.SignOptions{
		NetworkPassphrase: "Test SDF Network ; September 2015",
		Address:           account.Address.Hex(),
	})
	require.NoError(t, err)
	assert.Equal(t, account.Address.Hex(), signed.SignerAddress)

	signedRaw, err := hexutil.Decode(signed.SignedTx)
	require.NoError(t, err)
	signedTx := new(types.Transaction)
	require.NoError(t, signedTx.UnmarshalBinary(signedRaw))

	sender, err := types.Sender(types.LatestSignerForChainID(testChainID), signedTx)
	require.NoError(t, err)
	assert.Equal(t, account.Address, sender)
	assert.Equal(t, uint64(3), signedTx.Nonce())
}

func TestKeystoreExtension_SignTransaction_RejectsMismatch(t *testing.T) {
	ext, _ := newTestKeystoreExtension(t)
	ctx := context.Background()
	_, err := ext.RequestAccess(ctx)
	require.NoError(t, err)

	_, err = ext.SignTransaction(ctx, "0x00", models.SignOptions{NetworkPassphrase: "Public Global Stellar Network ; September 2015"})
	var extErr *ExtensionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, CodeBadRequest, extErr.Code)

	_, err = ext.SignTransaction(ctx, "0x00", models.SignOptions{Address: "0x0000000000000000000000000000000000000001"})
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "AddressMismatch", extErr.Name)

	_, err = ext.SignTransaction(ctx, "not-hex", models.SignOptions{})
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "BadTransaction", extErr.Name)
}

func TestKeystoreExtension_SignAuthEntry(t *testing.T) {
	ext, account := newTestKeystoreExtension(t)
	ctx := context.Background()
	_, err := ext.RequestAccess(ctx)
	require.NoError(t, err)

	entry := []byte("sticket auth entry")
	signed, err := ext.SignAuthEntry(ctx, hexutil.Encode(entry), models.SignOptions{})
	require.NoError(t, err)

	signature, err := hexutil.Decode(signed.SignedAuthEntry)
	require.NoError(t, err)
	pub, err := crypto.SigToPub(accounts.TextHash(entry), signature)
	require.NoError(t, err)
	assert.Equal(t, account.Address, crypto.PubkeyToAddress(*pub))
}

func TestKeystoreExtension_WithSession(t *testing.T) {
	ext, account := newTestKeystoreExtension(t)
	s := NewSession(ext, nil, Options{})
	ctx := context.Background()

	s.CheckConnection(ctx)
	assert.False(t, s.Snapshot().Connected)

	require.NoError(t, s.Connect(ctx))
	snap := s.Snapshot()
	assert.True(t, snap.Connected)
	assert.Equal(t, account.Address.Hex(), snap.Address)
	assert.Equal(t, "Test SDF Network ; September 2015", snap.NetworkPassphrase)
}
