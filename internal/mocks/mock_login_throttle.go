package mocks

import (
	"context"

	"github.com/you/otams/domain"
)

// MockLoginThrottle implements domain.LoginThrottle interface for testing
type MockLoginThrottle struct {
	AttemptFunc func(ctx context.Context, key string) (bool, error)
	ResetFunc   func(ctx context.Context, key string) error

	Attempts map[string]int
	Resets   map[string]int
}

// NewMockLoginThrottle creates a throttle that always allows and counts calls
func NewMockLoginThrottle() *MockLoginThrottle {
	return &MockLoginThrottle{Attempts: map[string]int{}, Resets: map[string]int{}}
}

// Attempt counts the call and reports whether it is permitted
func (m *MockLoginThrottle) Attempt(ctx context.Context, key string) (bool, error) {
	m.Attempts[key]++
	if m.AttemptFunc != nil {
		return m.AttemptFunc(ctx, key)
	}
	return true, nil
}

// Reset clears the counter
func (m *MockLoginThrottle) Reset(ctx context.Context, key string) error {
	m.Resets[key]++
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, key)
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.LoginThrottle = (*MockLoginThrottle)(nil)
