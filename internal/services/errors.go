package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCredentials indicates that login credentials are incorrect.
	// It covers both an unknown email and a wrong password so callers
	// cannot tell registered accounts apart from unregistered ones.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenExpired indicates a token whose expiry has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates a token with a bad signature or structure.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrMalformedHash indicates a stored password hash that cannot be
	// parsed. It signals storage corruption, not a user mistake.
	ErrMalformedHash = errors.New("malformed password hash")
)

// InvalidFieldError reports a malformed registration field. Reason holds
// the user-facing message for that field.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return e.Reason
}

// WeakPasswordError lists every password-policy rule the candidate
// failed, in the order the rules are checked.
type WeakPasswordError struct {
	Unmet []string
}

func (e *WeakPasswordError) Error() string {
	return strings.Join(e.Unmet, "; ")
}

// DuplicateAccountError reports a registration collision on a unique
// identity field. Field is empty when the violated constraint could not
// be attributed to a single column.
type DuplicateAccountError struct {
	Field string
}

func (e *DuplicateAccountError) Error() string {
	if e.Field == "" {
		return "account already exists"
	}
	return fmt.Sprintf("account already exists: %s is taken", e.Field)
}
