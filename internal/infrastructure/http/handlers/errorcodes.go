package handlers

// API error codes returned in JSON { "error": "...", "code": "..." } for stable client handling.
const (
	ErrCodeInvalidRequest      = "invalid_request"
	ErrCodeUnauthorized        = "unauthorized"
	ErrCodeNotFound            = "not_found"
	ErrCodeConflict            = "conflict"
	ErrCodeAccountAlreadyAdded = "account_already_added"
	ErrCodeAccountNotLinked    = "account_not_linked"
	ErrCodeUnavailable         = "unavailable"
	ErrCodeRateLimited         = "rate_limited"
	ErrCodeInternal            = "internal_error"
)
