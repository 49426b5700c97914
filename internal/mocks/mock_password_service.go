package mocks

import (
	"strings"
	"sync/atomic"

	"github.com/you/otams/domain"
)

// MockPasswordService implements domain.PasswordService interface for testing.
// Hashes are "hashed_<password>"; call counters let tests assert the
// unknown-email path still performs a comparison.
type MockPasswordService struct {
	HashFunc   func(password string) (string, error)
	VerifyFunc func(hashedPassword, password string) bool

	HashCalls   atomic.Int64
	VerifyCalls atomic.Int64
}

// NewMockPasswordService creates a new MockPasswordService with default behaviors
func NewMockPasswordService() *MockPasswordService {
	return &MockPasswordService{}
}

// Hash generates a hash for the given password
func (m *MockPasswordService) Hash(password string) (string, error) {
	m.HashCalls.Add(1)
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}
	return "hashed_" + password, nil
}

// Verify verifies a password against its hash
func (m *MockPasswordService) Verify(hashedPassword, password string) bool {
	m.VerifyCalls.Add(1)
	if m.VerifyFunc != nil {
		return m.VerifyFunc(hashedPassword, password)
	}
	return strings.HasPrefix(hashedPassword, "hashed_") && hashedPassword == "hashed_"+password
}

// Compile-time interface compliance verification
var _ domain.PasswordService = (*MockPasswordService)(nil)
