package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for handlers to map to HTTP status.
var (
	// ErrConnection means the event store or database could not be reached. Callers may retry.
	ErrConnection = errors.New("connecting to the server failed")
	// ErrConflict means an optimistic concurrency precondition failed. Re-read and retry.
	ErrConflict = errors.New("another client wrote to the same aggregate at the same time")
	// ErrNotFound matches any *NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrUnexpected covers everything not otherwise classified.
	ErrUnexpected = errors.New("unexpected error")

	ErrAccountAlreadyAdded = errors.New("account already added")
	ErrAccountNotLinked    = errors.New("account not linked")
	ErrAlreadyCreated      = errors.New("organization already created")
)

// NotFoundError reports a missing aggregate or log.
type NotFoundError struct {
	ID uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("organization %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AccountAlreadyAddedError is returned when linking an account id that is already linked.
type AccountAlreadyAddedError struct {
	AccountID      uint64
	OrganizationID uint64
}

func (e *AccountAlreadyAddedError) Error() string {
	return fmt.Sprintf("account %d is already added to organization %d", e.AccountID, e.OrganizationID)
}

func (e *AccountAlreadyAddedError) Is(target error) bool { return target == ErrAccountAlreadyAdded }

// AccountNotLinkedError is returned when removing an account id that is not linked.
type AccountNotLinkedError struct {
	AccountID      uint64
	OrganizationID uint64
}

func (e *AccountNotLinkedError) Error() string {
	return fmt.Sprintf("account %d is not linked to organization %d", e.AccountID, e.OrganizationID)
}

func (e *AccountNotLinkedError) Is(target error) bool { return target == ErrAccountNotLinked }

// Connection wraps cause so that errors.Is(err, ErrConnection) holds. The cause is kept for logs only.
func Connection(cause error) error {
	return fmt.Errorf("%w: %w", ErrConnection, cause)
}

// Conflict wraps cause so that errors.Is(err, ErrConflict) holds.
func Conflict(cause error) error {
	return fmt.Errorf("%w: %w", ErrConflict, cause)
}

// Unexpected wraps cause so that errors.Is(err, ErrUnexpected) holds.
func Unexpected(cause error) error {
	return fmt.Errorf("%w: %w", ErrUnexpected, cause)
}
