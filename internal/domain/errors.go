package domain

import (
	"errors"
	"fmt"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

var (
	ErrMalformedToken          = errors.New("malformed token")
	ErrInvalidClaims           = errors.New("invalid token claims")
	ErrUntrustedChannel        = errors.New("token channel is not trusted for unsigned claim extraction")
	ErrNotAuthorized           = errors.New("caller is not the property owner")
	ErrNotYetListed            = errors.New("property is not yet listed on chain")
	ErrDelisted                = errors.New("property has been delisted")
	ErrLedger                  = errors.New("ledger transaction failed")
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	ErrInvalidInput            = errors.New("invalid input")
)

// AuthError is a token rejection. Reason is either ErrMalformedToken or
// ErrInvalidClaims.
type AuthError struct {
	Reason error
	Detail string
}

func (e *AuthError) Error() string {
	if e.Detail == "" {
		return e.Reason.Error()
	}
	return e.Reason.Error() + ": " + e.Detail
}

func (e *AuthError) Unwrap() error {
	return e.Reason
}

func Malformed(format string, args ...any) error {
	return &AuthError{Reason: ErrMalformedToken, Detail: fmt.Sprintf(format, args...)}
}

func InvalidClaims(format string, args ...any) error {
	return &AuthError{Reason: ErrInvalidClaims, Detail: fmt.Sprintf(format, args...)}
}

// RejectionReason returns a short label for a token rejection, suitable for
// metrics and logs.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrMalformedToken):
		return "malformed_token"
	case errors.Is(err, ErrInvalidClaims):
		return "invalid_claims"
	default:
		return "unknown"
	}
}
