package domain

import (
	"context"
	"time"
)

// UserRepository defines user data access operations
type UserRepository interface {
	// Create inserts a new user. Returns ErrDuplicateEmail when the email is taken.
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	// UpdateProfile writes the non-nil fields of update and nothing else
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRole(ctx context.Context, id string, role Role) error
	List(ctx context.Context) ([]*User, error)
}

// RefreshTokenStore persists refresh tokens and their rotation lineage.
// Token arguments are raw opaque values; implementations look them up by HashToken.
type RefreshTokenStore interface {
	Save(ctx context.Context, token *RefreshToken) error
	// FindActive returns ErrRefreshTokenNotFound unless the token exists, is not revoked and is not expired
	FindActive(ctx context.Context, token string) (*RefreshToken, error)
	// FindByToken returns the record in whatever state it is in
	FindByToken(ctx context.Context, token string) (*RefreshToken, error)
	// Revoke reports false when no active token matched
	Revoke(ctx context.Context, token, revokedByIP string, reason RevokeReason) (bool, error)
	RevokeAllForUser(ctx context.Context, userID, revokedByIP string, reason RevokeReason) (int64, error)
	// Rotate atomically retires oldToken in favour of next. Returns ErrRefreshTokenNotFound
	// if oldToken was no longer active, in which case next is not stored.
	Rotate(ctx context.Context, oldToken string, next *RefreshToken) error
	// RevokeLineage revokes every active successor of token
	RevokeLineage(ctx context.Context, token, revokedByIP string) (int64, error)
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// Transactor runs fn in one database transaction. Repository calls made with
// the context handed to fn take part in it; fn's error rolls everything back.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// LoginThrottle counts login attempts per key within a fixed window
type LoginThrottle interface {
	// Attempt counts one attempt and reports whether it is within the limit
	Attempt(ctx context.Context, key string) (bool, error)
	// Reset clears the count after a successful login
	Reset(ctx context.Context, key string) error
}

// AuthService defines authentication business logic
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest, ipAddress string) (*AuthResult, error)
	Login(ctx context.Context, email, password, ipAddress string) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken, ipAddress string) (*AuthResult, error)
	RevokeToken(ctx context.Context, refreshToken, ipAddress string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID, ipAddress string) (int64, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword, ipAddress string) error
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*User, error)
	GetUserByID(ctx context.Context, userID string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// TokenService issues and verifies credentials
type TokenService interface {
	IssueAccessToken(user *User) (string, time.Time, error)
	// IssueRefreshToken returns the raw opaque value and an active record holding its hash
	IssueRefreshToken(user *User, ipAddress string) (string, *RefreshToken, error)
	ValidateAccessToken(token string) (*AccessClaims, error)
}

// PolicyService is the authorization gate
type PolicyService interface {
	// Authorize returns ErrForbidden when role may not perform op
	Authorize(role Role, op Operation) error
	Policies() ([][]string, error)
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
}
