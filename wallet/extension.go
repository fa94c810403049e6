package wallet

import (
	"context"
	"fmt"

	"sticket-backend/models"
)

// Extension is the wallet extension API. Implementations normalize the extension's
// {result} | {error} responses into plain values and *ExtensionError.
type Extension interface {
	IsConnected(ctx context.Context) (bool, error)
	RequestAccess(ctx context.Context) (string, error)
	GetAddress(ctx context.Context) (string, error)
	GetNetwork(ctx context.Context) (models.Network, error)
	GetNetworkDetails(ctx context.Context) (models.NetworkDetails, error)
	SignTransaction(ctx context.Context, txHex string, opts models.SignOptions) (models.SignedTransaction, error)
	SignAuthEntry(ctx context.Context, entryHex string, opts models.SignOptions) (models.SignedAuthEntry, error)
}

// Extension error codes.
const (
	CodeInternal     = -1
	CodeNotInstalled = -2
	CodeUserRejected = -4
	CodeLocked       = -5
	CodeBadRequest   = -6
)

// ExtensionError is the error shape returned by the wallet extension.
type ExtensionError struct {
	Code    int
	Name    string
	Message string
}

func (e *ExtensionError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Name != "":
		return e.Name
	}
	return fmt.Sprintf("wallet extension error %d", e.Code)
}
