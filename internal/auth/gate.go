// Package auth holds the access control gate and the credential and
// identity collaborators around it.
package auth

import (
	"fmt"

	"github.com/punchamoorthee/hederaops/internal/domain"
)

// Authorize allows admins to read any account and everyone else only their
// own. It performs no I/O.
func Authorize(requestedAccountID string, caller domain.Caller) error {
	if caller.IsAdmin() {
		return nil
	}
	if caller.ID != "" && caller.ID == requestedAccountID {
		return nil
	}
	return fmt.Errorf("%w: account %s does not belong to caller", domain.ErrForbidden, requestedAccountID)
}
