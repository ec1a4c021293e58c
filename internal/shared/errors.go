package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness violation.
	ErrConflict = errors.New("already exists")
	// ErrInvalidCredentials indicates login failure without revealing whether
	// the account exists.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountInactive indicates a deactivated account presented with
	// otherwise valid credentials.
	ErrAccountInactive = errors.New("user account is deactivated")
	// ErrValidation indicates a malformed or incomplete request.
	ErrValidation = errors.New("validation failed")
	// ErrWeakPassword indicates the password failed a strength rule.
	ErrWeakPassword = errors.New("weak password")
	// ErrInvalidToken indicates a malformed, tampered or unknown token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenRevoked indicates the refresh token was already revoked.
	ErrTokenRevoked = errors.New("refresh token has been revoked")
	// ErrTokenExpired indicates the token is past its expiry.
	ErrTokenExpired = errors.New("token has expired")
	// ErrWrongTokenType indicates a token of the wrong class was presented.
	ErrWrongTokenType = errors.New("invalid token type")
	// ErrUserGone indicates the token owner no longer exists or is inactive.
	ErrUserGone = errors.New("user no longer exists or is inactive")
	// ErrInvalidClient indicates client credentials mismatch.
	ErrInvalidClient = errors.New("invalid client credentials")
	// ErrUnauthenticated indicates a request with no authenticated identity.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrForbidden indicates insufficient roles or permissions.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrStoreUnavailable is the catch-all for backing store failures.
	ErrStoreUnavailable = errors.New("store unavailable")
)
