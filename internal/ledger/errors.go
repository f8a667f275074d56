package ledger

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/punchamoorthee/hederaops/internal/domain"
)

// Transient wraps err as a retryable remote failure.
func Transient(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrTransientRemote, op, err)
}

// Rejected wraps err as a semantic rejection by the ledger.
func Rejected(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrRemoteRejection, op, err)
}

// RejectedStatus builds a rejection from a non-success receipt status.
func RejectedStatus(op, status string) error {
	return fmt.Errorf("%w: %s: status %s", domain.ErrRemoteRejection, op, status)
}

// classifyGeneric handles failures that do not come from the ledger SDK:
// timeouts, cancellation and network errors are transient, anything else is a rejection.
func classifyGeneric(op string, err error) error {
	if errors.Is(err, domain.ErrTransientRemote) || errors.Is(err, domain.ErrRemoteRejection) || errors.Is(err, domain.ErrValidation) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Transient(op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Transient(op, err)
	}
	return Rejected(op, err)
}
