package contracts

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"sticket-backend/models"
)

const (
	testEventAddress   = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	testFactoryAddress = "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
	testHolder         = "0x90F79bf6EB2c4f870365E785982E1f101E93b906"
	testPassphrase     = "Test SDF Network ; September 2015"
)

var testChainID = big.NewInt(84532)

type callHandler func(args []interface{}) ([]byte, error)

// fakeBackend answers eth_call by method selector and records submitted transactions.
type fakeBackend struct {
	t   *testing.T
	abi abi.ABI

	mu       sync.Mutex
	handlers map[string]callHandler
	calls    []ethereum.CallMsg
	sent     []*types.Transaction
	status   uint64
	sendErr  error
	gasErr   error
	nonce    uint64
	gasPrice *big.Int
	gasLimit uint64
}

func newFakeBackend(t *testing.T, contractABI abi.ABI) *fakeBackend {
	return &fakeBackend{
		t:        t,
		abi:      contractABI,
		handlers: make(map[string]callHandler),
		status:   types.ReceiptStatusSuccessful,
		nonce:    7,
		gasPrice: big.NewInt(1_000_000_000),
		gasLimit: 90_000,
	}
}

func (b *fakeBackend) handle(method string, handler callHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[method] = handler
}

// returns packs outputs for method the way a node would return them.
func (b *fakeBackend) returns(method string, values ...interface{}) {
	b.t.Helper()
	out, err := b.abi.Methods[method].Outputs.Pack(values...)
	require.NoError(b.t, err)
	b.handle(method, func([]interface{}) ([]byte, error) { return out, nil })
}

func (b *fakeBackend) reverts(method string, reason string) {
	b.handle(method, func([]interface{}) ([]byte, error) { return nil, newRevertError(b.t, reason) })
}

func (b *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	b.mu.Unlock()

	method, err := b.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	handler, ok := b.handlers[method.Name]
	b.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return handler(args)
}

func (b *fakeBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return b.nonce, nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return b.gasPrice, nil
}

func (b *fakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	if b.gasErr != nil {
		return 0, b.gasErr
	}
	return b.gasLimit, nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if b.sendErr != nil {
		return b.sendErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, tx := range b.sent {
		if tx.Hash() == txHash {
			return &types.Receipt{Status: b.status, TxHash: txHash}, nil
		}
	}
	return nil, ethereum.NotFound
}

// revertError mimics the JSON-RPC error a node returns for a reverted eth_call.
type revertError struct {
	data string
}

func (e *revertError) Error() string          { return "execution reverted" }
func (e *revertError) ErrorCode() int         { return 3 }
func (e *revertError) ErrorData() interface{} { return e.data }

func newRevertError(t *testing.T, reason string) error {
	t.Helper()
	stringType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	require.NoError(t, err)

	selector := crypto.Keccak256([]byte("Error(string)"))[:4]
	return &revertError{data: hexutil.Encode(append(selector, packed...))}
}

// keyWallet is a WalletSigner that signs with an in-memory key.
type keyWallet struct {
	key     *ecdsa.PrivateKey
	session models.WalletSession

	mu        sync.Mutex
	txOpts    []models.SignOptions
	entryOpts []models.SignOptions
	entryOut  string
	signErr   error
}

func newKeyWallet(t *testing.T) *keyWallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &keyWallet{
		key: key,
		session: models.WalletSession{
			Connected:         true,
			Address:           crypto.PubkeyToAddress(key.PublicKey).Hex(),
			Network:           "TESTNET",
			NetworkPassphrase: testPassphrase,
		},
	}
}

func (w *keyWallet) address() common.Address {
	return crypto.PubkeyToAddress(w.key.PublicKey)
}

func (w *keyWallet) Snapshot() models.WalletSession {
	return w.session
}

func (w *keyWallet) SignTransaction(ctx context.Context, txHex string, opts models.SignOptions) (models.SignedTransaction, error) {
	w.mu.Lock()
	w.txOpts = append(w.txOpts, opts)
	w.mu.Unlock()
	if w.signErr != nil {
		return models.SignedTransaction{}, w.signErr
	}

	raw, err := hexutil.Decode(txHex)
	if err != nil {
		return models.SignedTransaction{}, err
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return models.SignedTransaction{}, err
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(testChainID), w.key)
	if err != nil {
		return models.SignedTransaction{}, err
	}
	out, err := signed.MarshalBinary()
	if err != nil {
		return models.SignedTransaction{}, err
	}
	return models.SignedTransaction{SignedTx: hexutil.Encode(out), SignerAddress: w.session.Address}, nil
}

func (w *keyWallet) SignAuthEntry(ctx context.Context, entryHex string, opts models.SignOptions) (models.SignedAuthEntry, error) {
	w.mu.Lock()
	w.entryOpts = append(w.entryOpts, opts)
	w.mu.Unlock()
	if w.signErr != nil {
		return models.SignedAuthEntry{}, w.signErr
	}
	return models.SignedAuthEntry{SignedAuthEntry: w.entryOut, SignerAddress: w.session.Address}, nil
}

// sender recovers the signer of a submitted transaction.
func sender(t *testing.T, tx *types.Transaction) common.Address {
	t.Helper()
	from, err := types.Sender(types.LatestSignerForChainID(testChainID), tx)
	require.NoError(t, err)
	return from
}

func errorf(format string, args ...interface{}) callHandler {
	return func([]interface{}) ([]byte, error) { return nil, fmt.Errorf(format, args...) }
}

var errTransport = errors.New("dial tcp 127.0.0.1:8545: connect: connection refused")
