package domain

import "errors"

// Authentication errors
var (
	ErrUserNotFound             = errors.New("user not found")
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrDuplicateEmail           = errors.New("email already exists")
	ErrIncorrectCurrentPassword = errors.New("current password is incorrect")
	ErrTooManyLoginAttempts     = errors.New("too many failed login attempts")
)

// Refresh token errors
var (
	ErrMissingToken          = errors.New("refresh token required")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired refresh token")
	ErrNoActiveTokens        = errors.New("no active tokens found")
	ErrRefreshTokenNotFound  = errors.New("refresh token not found")
)

// Access token errors
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("malformed token")
)

// Authorization errors
var (
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("insufficient role permissions")
)
