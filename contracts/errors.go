package contracts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	ErrNotEventCreator   = errors.New("caller is not the event creator")
	ErrTicketAlreadyUsed = errors.New("ticket already used")
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrExecutionReverted = errors.New("execution reverted")
	ErrTransactionFailed = errors.New("transaction failed")
	ErrNoSigner          = errors.New("contract client has no signer")
	ErrInvalidAddress    = errors.New("invalid contract address")
)

// revertReason extracts the Error(string) reason carried by a node error, if any.
func revertReason(err error) (string, bool) {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if hexData, ok := dataErr.ErrorData().(string); ok {
			if data, decodeErr := hexutil.Decode(hexData); decodeErr == nil {
				if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					return reason, true
				}
			}
		}
	}
	msg := err.Error()
	if idx := strings.Index(msg, "execution reverted"); idx >= 0 {
		reason := strings.TrimPrefix(msg[idx+len("execution reverted"):], ":")
		return strings.TrimSpace(reason), true
	}
	return "", false
}

// decodeRevert maps contract reverts to typed errors. Transport errors pass through untouched.
func decodeRevert(err error) error {
	if err == nil {
		return nil
	}
	reason, reverted := revertReason(err)
	if !reverted {
		return err
	}

	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "not the event creator"):
		return fmt.Errorf("%w: %s", ErrNotEventCreator, reason)
	case strings.Contains(lower, "already used"):
		return fmt.Errorf("%w: %s", ErrTicketAlreadyUsed, reason)
	case strings.Contains(lower, "not found"), strings.Contains(lower, "nonexistent"):
		return fmt.Errorf("%w: %s", ErrTicketNotFound, reason)
	case reason == "":
		return ErrExecutionReverted
	}
	return fmt.Errorf("%w: %s", ErrExecutionReverted, reason)
}
