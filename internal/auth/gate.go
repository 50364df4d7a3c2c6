package auth

import (
	"fmt"

	"github.com/notekeep/notekeep-server/internal/errors"
)

// Authorize resolves token and checks it grants scope. A missing token is
// unauthenticated; a token lacking the scope is forbidden and the error names
// the scope that was required. On success the full scope set is returned so
// callers can make finer decisions (such as admin-only filters).
func (k *Keyring) Authorize(token string, scope Scope) (Scopes, error) {
	if token == "" {
		return Scopes{}, errors.Unauthorized("Unauthorized")
	}
	scopes := k.Resolve(token)
	if !scopes.Has(scope) {
		return scopes, errors.MissingScope(string(scope),
			fmt.Sprintf("This operation requires %s key. Check your Authorization: Bearer <token>.", scope))
	}
	return scopes, nil
}
