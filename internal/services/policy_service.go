package services

import (
	"fmt"
	"sort"

	"github.com/casbin/casbin/v2"
	"github.com/you/otams/domain"
)

// CasbinEnforcerWrapper wraps the real Casbin enforcer to implement our interface
type CasbinEnforcerWrapper struct {
	enforcer *casbin.Enforcer
}

// NewCasbinEnforcerWrapper creates a wrapper for the real Casbin enforcer
func NewCasbinEnforcerWrapper(enforcer *casbin.Enforcer) domain.CasbinEnforcer {
	return &CasbinEnforcerWrapper{enforcer: enforcer}
}

func (w *CasbinEnforcerWrapper) AddPolicy(params ...interface{}) (bool, error) {
	return w.enforcer.AddPolicy(params...)
}

func (w *CasbinEnforcerWrapper) Enforce(rvals ...interface{}) (bool, error) {
	return w.enforcer.Enforce(rvals...)
}

func (w *CasbinEnforcerWrapper) GetPolicy() ([][]string, error) {
	return w.enforcer.GetPolicy()
}

// PolicyServiceImpl implements domain.PolicyService using Casbin. The
// enforcer holds one (role, operation) line per entry of domain.OperationRoles.
type PolicyServiceImpl struct {
	enforcer domain.CasbinEnforcer
}

// NewPolicyService creates a policy service over a real enforcer and seeds it
func NewPolicyService(enforcer *casbin.Enforcer) (domain.PolicyService, error) {
	return NewPolicyServiceWithEnforcer(NewCasbinEnforcerWrapper(enforcer))
}

// NewPolicyServiceWithEnforcer creates a policy service with a CasbinEnforcer interface (for testing)
func NewPolicyServiceWithEnforcer(enforcer domain.CasbinEnforcer) (domain.PolicyService, error) {
	p := &PolicyServiceImpl{enforcer: enforcer}
	if err := p.seed(); err != nil {
		return nil, err
	}
	return p, nil
}

// seed adds any missing table entry; existing lines are left alone
func (p *PolicyServiceImpl) seed() error {
	ops := make([]string, 0, len(domain.OperationRoles))
	for op := range domain.OperationRoles {
		ops = append(ops, string(op))
	}
	sort.Strings(ops)

	for _, op := range ops {
		for _, role := range domain.OperationRoles[domain.Operation(op)] {
			if _, err := p.enforcer.AddPolicy(string(role), op); err != nil {
				return fmt.Errorf("failed to seed policy %s -> %s: %w", role, op, err)
			}
		}
	}
	return nil
}

// Authorize implements domain.PolicyService
func (p *PolicyServiceImpl) Authorize(role domain.Role, op domain.Operation) error {
	if _, known := domain.OperationRoles[op]; !known {
		return domain.ErrForbidden
	}
	allowed, err := p.enforcer.Enforce(string(role), string(op))
	if err != nil {
		return fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if !allowed {
		return domain.ErrForbidden
	}
	return nil
}

// Policies implements domain.PolicyService
func (p *PolicyServiceImpl) Policies() ([][]string, error) {
	policies, err := p.enforcer.GetPolicy()
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	return policies, nil
}
