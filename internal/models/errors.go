package models

import "errors"

// Sentinel errors used across repository, service and handler layers.
// Callers should use errors.Is to match these values.
var (
	// Validation errors. Always checked before any I/O.
	ErrPasswordTooShort = errors.New("password too short")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidAmount    = errors.New("invalid amount")

	// Auth errors. Rejected with no side effect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingToken       = errors.New("missing token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInsufficientRole   = errors.New("insufficient role")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrNotWhitelisted     = errors.New("not on whitelist")
	ErrInvalidSecret      = errors.New("invalid secret")

	// Not-found errors.
	ErrUnknownAsset     = errors.New("unknown asset")
	ErrUnknownPortfolio = errors.New("unknown portfolio")

	// Conflict errors (unique-key collisions).
	ErrEmailTaken = errors.New("email already registered")
	ErrNameTaken  = errors.New("name already taken")

	// Trade errors. Computed from a pre-mutation snapshot; the trade is
	// rejected atomically with no partial mutation.
	ErrInsufficientFunds    = errors.New("not enough money")
	ErrInsufficientHoldings = errors.New("not enough holdings")
)
