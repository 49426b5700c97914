package mocks

import "github.com/you/otams/domain"

// MockPolicyService implements domain.PolicyService interface for testing
type MockPolicyService struct {
	AuthorizeFunc func(role domain.Role, op domain.Operation) error
	PoliciesFunc  func() ([][]string, error)
}

// NewMockPolicyService creates a new MockPolicyService with default behaviors
func NewMockPolicyService() *MockPolicyService {
	return &MockPolicyService{}
}

// Authorize checks the role against the operation table
func (m *MockPolicyService) Authorize(role domain.Role, op domain.Operation) error {
	if m.AuthorizeFunc != nil {
		return m.AuthorizeFunc(role, op)
	}
	// Default behavior: consult domain.OperationRoles directly
	for _, allowed := range domain.OperationRoles[op] {
		if allowed == role {
			return nil
		}
	}
	return domain.ErrForbidden
}

// Policies returns the seeded policy lines
func (m *MockPolicyService) Policies() ([][]string, error) {
	if m.PoliciesFunc != nil {
		return m.PoliciesFunc()
	}
	return [][]string{}, nil
}

// Compile-time interface compliance verification
var _ domain.PolicyService = (*MockPolicyService)(nil)
