package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrNotFound          = errors.New("not found")
	ErrVariantNotFound   = errors.New("variant not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
	ErrEmailExists       = errors.New("email already registered")

	// ErrInvalidCredential covers missing, malformed, expired and wrongly signed tokens.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrIdentityNotFound means the token was valid but its subject no longer resolves to an active user.
	ErrIdentityNotFound = errors.New("identity not found")
	ErrBadCredentials   = errors.New("invalid email or password")
	ErrForbidden        = errors.New("forbidden")
)

// InsufficientStockError names the variant that could not be fulfilled.
type InsufficientStockError struct {
	VariantID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %s (requested %d, available %d)", e.VariantID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// VariantNotFoundError names the variant id a request referred to.
type VariantNotFoundError struct{ VariantID string }

func (e *VariantNotFoundError) Error() string { return "variant not found: " + e.VariantID }

func (e *VariantNotFoundError) Is(target error) bool {
	return target == ErrVariantNotFound || target == ErrNotFound
}

// Invalid wraps ErrInvalidRequest with a caller-facing reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
