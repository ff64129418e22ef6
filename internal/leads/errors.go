package leads

import "errors"

// Validation sentinels carry the user-facing message for the first failing
// field.
var (
	ErrInvalidName           = errors.New("a valid name is required")
	ErrInvalidEmail          = errors.New("a valid email address is required")
	ErrInvalidPhone          = errors.New("a valid phone number is required")
	ErrInvalidMessage        = errors.New("please tell us a bit more in your message")
	ErrMissingChallengeToken = errors.New("anti-spam verification is required")

	// ErrInvalidStatus is returned when a status update names an unknown state
	ErrInvalidStatus = errors.New("invalid lead status")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")
)
