package projection

import "errors"

// Error is the outcome of a failed projection: retry it later or park it.
type Error struct {
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		if e.Retryable {
			return "retryable projection error"
		}
		return "terminal projection error"
	}
	return e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// Retry marks err as transient; the event should be redelivered.
func Retry(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Retryable: true, Cause: err}
}

// Park marks err as terminal; the event should be parked and never retried automatically.
func Park(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Retryable: false, Cause: err}
}

// IsRetryable reports whether err asks for redelivery. Errors not marked by Retry or Park are retryable.
func IsRetryable(err error) bool {
	var target *Error
	if errors.As(err, &target) {
		return target.Retryable
	}
	return true
}
