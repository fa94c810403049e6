package wallet

import (
	"context"
	"errors"
	"strings"
)

// ErrWalletNotFound is what callers see when the extension is missing or unreachable.
var ErrWalletNotFound = errors.New("wallet not found, please install the wallet extension")

// ErrConnectionNotEstablished is returned by Connect when access was granted but the
// follow-up connection check left the session disconnected.
var ErrConnectionNotEstablished = errors.New("wallet access granted but no connection was established")

var notInstalledPatterns = []string{
	"not found",
	"not installed",
	"extension",
	"freighter",
	"wallet",
	"unavailable",
	"timeout",
}

// isWalletUnavailable classifies connect failures. Typed codes are checked first;
// the substring match only covers third-party error text.
func isWalletUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrWalletNotFound) {
		return true
	}

	var extErr *ExtensionError
	if errors.As(err, &extErr) {
		switch extErr.Code {
		case CodeNotInstalled:
			return true
		case CodeUserRejected, CodeLocked, CodeBadRequest:
			return false
		}
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range notInstalledPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func errorMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
