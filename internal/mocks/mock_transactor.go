package mocks

import (
	"context"

	"github.com/you/otams/domain"
)

// MockTransactor implements domain.Transactor interface for testing.
// By default fn runs directly with the caller's context.
type MockTransactor struct {
	InTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error

	Calls int
}

// InTransaction runs fn
func (m *MockTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	if m.InTransactionFunc != nil {
		return m.InTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// Compile-time interface compliance verification
var _ domain.Transactor = (*MockTransactor)(nil)
