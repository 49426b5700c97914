package domain

import (
	"context"
	"time"
)

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Account events
	UserRegistrationEvent   AuditEventType = "USER_REGISTERED"
	PasswordChangeEvent     AuditEventType = "PASSWORD_CHANGED"
	PasswordChangeFailEvent AuditEventType = "PASSWORD_CHANGE_FAILED"
	ProfileUpdateEvent      AuditEventType = "PROFILE_UPDATED"

	// Authentication events
	UserLoginEvent          AuditEventType = "USER_LOGIN"
	UserLoginFailureEvent   AuditEventType = "USER_LOGIN_FAILED"
	UserLoginThrottledEvent AuditEventType = "USER_LOGIN_THROTTLED"
	UserLogoutEvent         AuditEventType = "USER_LOGOUT"

	// Session events
	TokenRefreshEvent       AuditEventType = "TOKEN_REFRESHED"
	TokenRefreshFailedEvent AuditEventType = "TOKEN_REFRESH_FAILED"
	TokenReuseEvent         AuditEventType = "TOKEN_REUSE_DETECTED"
	TokensRevokedAllEvent   AuditEventType = "TOKENS_REVOKED_ALL"
)

// AuditEvent represents a business event that occurred in the system
type AuditEvent struct {
	EventType AuditEventType         `json:"event_type"`
	UserID    string                 `json:"user_id,omitempty"`
	Email     string                 `json:"email,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	ErrorMsg  string                 `json:"error_msg,omitempty"`
	Success   bool                   `json:"success"`
}

// AuditLogger records audit events. Implementations must never receive secrets.
type AuditLogger interface {
	LogEvent(ctx context.Context, event *AuditEvent) error
}

// NewAuditEvent creates a new audit event with common fields populated
func NewAuditEvent(eventType AuditEventType, userID string) *AuditEvent {
	return &AuditEvent{
		EventType: eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]interface{}),
		Success:   true,
	}
}

// WithError marks the event as failed
func (e *AuditEvent) WithError(err error) *AuditEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithEmail sets the email field
func (e *AuditEvent) WithEmail(email string) *AuditEvent {
	e.Email = email
	return e
}

// WithIP sets the client address
func (e *AuditEvent) WithIP(ip string) *AuditEvent {
	e.IPAddress = ip
	return e
}

// WithMetadata adds metadata to the event
func (e *AuditEvent) WithMetadata(key string, value interface{}) *AuditEvent {
	e.Metadata[key] = value
	return e
}
