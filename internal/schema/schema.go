// Package schema declares the data model and its authorization rules, and evaluates those
// rules for a calling identity.
package schema

import (
	"kointos-backend/pkg/errs"
)

// Operation is an action a caller performs on a record.
type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// AllOperations is the operation set granted by an unrestricted rule.
var AllOperations = []Operation{OpCreate, OpRead, OpUpdate, OpDelete}

// Provider names the class of identity a rule applies to.
type Provider string

const (
	// ProviderOwner matches the identity that created the record.
	ProviderOwner Provider = "owner"
	// ProviderAuthenticated matches any signed-in identity.
	ProviderAuthenticated Provider = "authenticated"
)

// Rule grants Operations to identities matched by Provider.
type Rule struct {
	Provider   Provider    `json:"allow"`
	Operations []Operation `json:"operations"`
}

// AllowOwner grants every operation to the record's owner.
func AllowOwner() Rule {
	return Rule{Provider: ProviderOwner, Operations: AllOperations}
}

// AllowAuthenticated grants ops to any signed-in identity. With no ops it grants all of them.
func AllowAuthenticated(ops ...Operation) Rule {
	if len(ops) == 0 {
		ops = AllOperations
	}
	return Rule{Provider: ProviderAuthenticated, Operations: ops}
}

func (r Rule) allows(op Operation) bool {
	for _, o := range r.Operations {
		if o == op {
			return true
		}
	}
	return false
}

// Identity is the authenticated caller as asserted by the identity service.
type Identity struct {
	Subject string   `json:"sub"`
	Email   string   `json:"email"`
	Groups  []string `json:"groups,omitempty"`
}

// Model is one declared entity: its name, its API path, its rules and its fields.
type Model struct {
	Name   string  `json:"name"`
	Path   string  `json:"path"`
	Rules  []Rule  `json:"authorization"`
	Fields []Field `json:"fields"`
}

// Authorize reports whether id may perform op on a record owned by recordOwner.
// For OpCreate recordOwner is ignored.
func (m *Model) Authorize(id *Identity, op Operation, recordOwner string) error {
	if id == nil || id.Subject == "" {
		return errs.ErrUnauthenticated
	}
	for _, r := range m.Rules {
		if !r.allows(op) {
			continue
		}
		switch r.Provider {
		case ProviderAuthenticated:
			return nil
		case ProviderOwner:
			if op == OpCreate || (recordOwner != "" && recordOwner == id.Subject) {
				return nil
			}
		}
	}
	return errs.ErrForbidden
}

// ListScope returns the owner a list query must be restricted to. An empty owner means
// every record is readable by id.
func (m *Model) ListScope(id *Identity) (string, error) {
	if id == nil || id.Subject == "" {
		return "", errs.ErrUnauthenticated
	}
	ownerRead := false
	for _, r := range m.Rules {
		if !r.allows(OpRead) {
			continue
		}
		if r.Provider == ProviderAuthenticated {
			return "", nil
		}
		if r.Provider == ProviderOwner {
			ownerRead = true
		}
	}
	if ownerRead {
		return id.Subject, nil
	}
	return "", errs.ErrForbidden
}

// OwnerScoped reports whether records of m carry an owner.
func (m *Model) OwnerScoped() bool {
	for _, r := range m.Rules {
		if r.Provider == ProviderOwner {
			return true
		}
	}
	return false
}
