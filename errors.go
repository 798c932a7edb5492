package movieverse

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials = "invalid_credentials"
	TextCodeTokenExpired       = "token_expired"
	TextCodeTokenMalformed     = "token_malformed"
	TextCodeIdentityRevoked    = "identity_revoked"
	TextCodeIdentityNotFound   = "identity_not_found"
	TextCodeMovieNotFound      = "movie_not_found"
	TextCodeUsernameTaken      = "username_taken"
	TextCodeOwnershipRequired  = "ownership_required"
	TextCodeTooManyAttempts    = "too_many_login_attempts"
)

// ErrInvalidCredentials covers both unknown username and wrong password;
// the two cases are deliberately indistinguishable to callers.
var ErrInvalidCredentials = errors.New("invalid username or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned when a bearer token is past its expiry.
var ErrTokenExpired = errors.New("token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail parsing or signature checks.
var ErrTokenMalformed = errors.New("invalid authentication token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityRevoked is returned when a well-formed, unexpired token
// references an account that no longer exists. Deregistration makes
// outstanding tokens die here; there is no denylist.
var ErrIdentityRevoked = errors.New("token subject no longer exists", errors.CategoryAuth).
	WithTextCode(TextCodeIdentityRevoked).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found accounts
var ErrIdentityNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrMovieNotFound is returned when a favorites mutation references a
// catalog record that does not exist.
var ErrMovieNotFound = errors.New("movie not found", errors.CategoryNotFound).
	WithTextCode(TextCodeMovieNotFound).
	WithCode(errors.CodeNotFound)

// ErrUsernameTaken is returned on duplicate username at registration.
// The API contract pins this to a 400, not a 409.
var ErrUsernameTaken = errors.New("username already exists", errors.CategoryConflict).
	WithTextCode(TextCodeUsernameTaken).
	WithCode(errors.CodeBadRequest)

// ErrOwnershipRequired is returned when an authenticated account targets
// a resource it does not own. Distinct from an authentication failure.
var ErrOwnershipRequired = errors.New("you may only modify your own account", errors.CategoryAuthz).
	WithTextCode(TextCodeOwnershipRequired).
	WithCode(errors.CodeForbidden)

// ErrTooManyLoginAttempts is returned when an account is cooling down.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrNoEmptyString rejects empty plaintext passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the internal mismatch sentinel; it is
// collapsed into ErrInvalidCredentials before leaving the verifier.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToFindSession is returned when a protected handler runs
// without the middleware having stashed validated claims.
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired") ||
		strings.Contains(err.Error(), "token expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
