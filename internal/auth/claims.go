package auth

import (
	"slices"
	"strings"
)

// Scope is a capability granted by an API secret.
type Scope string

// Scopes. Admin implies read; export is independent of both.
const (
	ScopeRead   Scope = "read"
	ScopeExport Scope = "export"
	ScopeAdmin  Scope = "admin"
)

// Scopes is the set of capabilities a credential resolved to.
type Scopes struct {
	read, export, admin bool
}

// Has reports whether s grants scope.
func (s Scopes) Has(scope Scope) bool {
	switch scope {
	case ScopeRead:
		return s.read
	case ScopeExport:
		return s.export
	case ScopeAdmin:
		return s.admin
	default:
		return false
	}
}

// Empty reports whether no scope was granted.
func (s Scopes) Empty() bool {
	return !s.read && !s.export && !s.admin
}

// List returns the granted scopes in a stable order.
func (s Scopes) List() []Scope {
	out := make([]Scope, 0, 3)
	for _, sc := range []Scope{ScopeRead, ScopeExport, ScopeAdmin} {
		if s.Has(sc) {
			out = append(out, sc)
		}
	}
	return out
}

func (s Scopes) String() string {
	names := make([]string, 0, 3)
	for _, sc := range s.List() {
		names = append(names, string(sc))
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Equal reports whether both sets grant the same scopes.
func (s Scopes) Equal(other Scopes) bool {
	return slices.Equal(s.List(), other.List())
}
