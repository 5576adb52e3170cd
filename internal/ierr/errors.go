package ierr

import "errors"

var (
	ErrValidation     = errors.New("validation failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrUpdateFailed   = errors.New("resource update failed")
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource conflict")
	ErrInternalServer = errors.New("internal server error")

	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenParsingFailed = errors.New("failed to parse token")

	ErrOrgNotFound        = errors.New("organization not found")
	ErrOrgInactive        = errors.New("organization is not active")
	ErrSubdomainDisabled  = errors.New("subdomain access is disabled")
	ErrAPIKeyMissing      = errors.New("api key required")
	ErrAPIKeyInvalid      = errors.New("invalid api key")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrAPIKeyUpdateFailed = errors.New("api key update failed")
)
