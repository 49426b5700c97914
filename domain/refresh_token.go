package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// TokenState is the lifecycle state of a refresh token
type TokenState string

const (
	TokenActive  TokenState = "active"
	TokenRotated TokenState = "rotated"
	TokenRevoked TokenState = "revoked"
	TokenExpired TokenState = "expired"
)

// RevokeReason records why a refresh token became terminal
type RevokeReason string

const (
	RevokeReasonRotated        RevokeReason = "rotated"
	RevokeReasonLogout         RevokeReason = "logout"
	RevokeReasonRevokeAll      RevokeReason = "revoke_all"
	RevokeReasonPasswordChange RevokeReason = "password_change"
	RevokeReasonReuseDetected  RevokeReason = "reuse_detected"
)

// RefreshToken is one link in a login session's rotation lineage.
// Only the SHA-256 of the opaque token value is kept; the raw value is handed
// to the client once and never stored.
type RefreshToken struct {
	TokenHash      string
	UserID         string
	CreatedByIP    string
	CreatedAt      time.Time
	ExpiresAt      time.Time
	Revoked        bool
	RevokedAt      *time.Time
	RevokedByIP    string
	RevokeReason   RevokeReason
	ReplacedByHash string
}

// IsExpiredAt reports whether the token is past its expiry at t
func (t *RefreshToken) IsExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsActiveAt reports whether the token can still be exchanged at t
func (t *RefreshToken) IsActiveAt(now time.Time) bool {
	return !t.Revoked && !t.IsExpiredAt(now)
}

// State derives the lifecycle state at t. Revocation wins over expiry so a
// rotated token stays recognisable as rotated after it would have expired.
func (t *RefreshToken) State(now time.Time) TokenState {
	switch {
	case t.Revoked && t.ReplacedByHash != "":
		return TokenRotated
	case t.Revoked:
		return TokenRevoked
	case t.IsExpiredAt(now):
		return TokenExpired
	default:
		return TokenActive
	}
}

// HashToken computes the lookup key stored for an opaque refresh token value
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
