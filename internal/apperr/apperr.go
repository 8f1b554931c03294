// Package apperr defines the stable, machine-readable error codes the
// auth and accommodation flows return to clients. Infrastructure
// failures (storage down, hashing failure) are deliberately NOT part of
// this taxonomy; they propagate as plain errors and surface as HTTP 500
// so that an attacker cannot read infrastructure state out of an auth
// error code.
package apperr

import "errors"

// Error couples a stable code with a human-readable message. The code
// never changes between releases; clients switch on it.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

var (
	// ErrDuplicateEmail: registration conflict, the email is already
	// taken (comparison is case-insensitive).
	ErrDuplicateEmail = &Error{Code: "BE1001", Message: "email already registered"}

	// ErrInvalidInput: request body failed validation.
	ErrInvalidInput = &Error{Code: "BE1002", Message: "invalid input"}

	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password. The two cases share one code and one message so the
	// response never reveals whether the email exists.
	ErrInvalidCredentials = &Error{Code: "BE1003", Message: "sign-in failed, check email or password"}

	// ErrPrincipalNotFound: a structurally valid token whose owner row
	// no longer exists.
	ErrPrincipalNotFound = &Error{Code: "BE1004", Message: "principal not found"}

	// ErrInvalidToken: bad signature, expired, malformed, or a refresh
	// token that was already rotated away.
	ErrInvalidToken = &Error{Code: "BE1005", Message: "invalid token"}

	// ErrDuplicateAccommodation: another accommodation already exists
	// within the proximity bounding box.
	ErrDuplicateAccommodation = &Error{Code: "BE2001", Message: "an accommodation is already registered nearby"}
)

// As extracts an *Error from err, following wrap chains.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
