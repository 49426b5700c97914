package domain

import (
	"strings"
	"time"
)

// Role is the authorization role carried by a user and its access tokens
type Role string

const (
	RoleCustomer Role = "Customer"
	RoleAdmin    Role = "Admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// User represents a user in the system
type User struct {
	ID           string
	Email        string
	Name         string
	Gender       string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail lower-cases and trims an email so uniqueness is case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterRequest carries the fields accepted at registration
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Gender   string
}

// ProfileUpdate lists the profile fields a user may change. Nil fields are left untouched.
// Email and role are deliberately absent.
type ProfileUpdate struct {
	Name   *string
	Gender *string
}

// AuthResult represents authentication outcome
type AuthResult struct {
	User                  *User
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// ExpiresIn returns the access token lifetime in seconds, measured from now
func (r *AuthResult) ExpiresIn() int64 {
	secs := int64(time.Until(r.AccessTokenExpiresAt).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}

// AccessClaims is the decoded form of a verified access token
type AccessClaims struct {
	Subject   string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}
