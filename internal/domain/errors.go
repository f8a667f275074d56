package domain

import "errors"

var (
	// ErrValidation is returned for missing or malformed input, before any network call.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when no local record exists for an identifier.
	ErrNotFound = errors.New("not found")

	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when a unique local field is already taken.
	ErrConflict = errors.New("already exists")

	// ErrTransientRemote covers network and availability failures of the ledger.
	ErrTransientRemote = errors.New("ledger temporarily unavailable")

	// ErrRemoteRejection covers semantic failures reported by the ledger.
	ErrRemoteRejection = errors.New("ledger rejected the operation")

	// ErrLocalPersistence means the ledger accepted the operation but the
	// local mirror could not be written. The remote side is not rolled back.
	ErrLocalPersistence = errors.New("local persistence failed")
)

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientRemote)
}
