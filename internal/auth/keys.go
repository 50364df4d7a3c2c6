// Package auth resolves bearer secrets into capability scopes.
//
// Secrets are hashed once when the Keyring is built. Each candidate token is
// hashed and compared against every configured digest in constant time, so
// neither the comparison nor the order of checks depends on secret content.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
	"unicode"

	"github.com/notekeep/notekeep-server/internal/config"
)

type digest = [sha256.Size]byte

// Keyring holds the hashed API secrets. It is immutable after construction
// and safe for concurrent use.
type Keyring struct {
	read, export, admin, legacy *digest
}

// NewKeyring hashes the configured secrets. Empty secrets are left unset and
// never match.
func NewKeyring(cfg config.AuthConfig) *Keyring {
	return &Keyring{
		read:   hashSecret(cfg.ReadKey),
		export: hashSecret(cfg.ExportKey),
		admin:  hashSecret(cfg.AdminKey),
		legacy: hashSecret(cfg.LegacyAPIKey),
	}
}

func hashSecret(s string) *digest {
	if s == "" {
		return nil
	}
	d := sha256.Sum256([]byte(s))
	return &d
}

func matches(want *digest, candidate *digest) bool {
	if want == nil {
		return false
	}
	return subtle.ConstantTimeCompare(want[:], candidate[:]) == 1
}

// Resolve returns the scopes granted by token. An empty token grants nothing.
//
//	read   = read secret OR admin secret
//	export = export secret
//	admin  = admin secret OR legacy secret
func (k *Keyring) Resolve(token string) Scopes {
	if token == "" {
		return Scopes{}
	}
	cand := sha256.Sum256([]byte(token))

	// Evaluate every comparison so timing does not reveal which secret matched.
	isRead := matches(k.read, &cand)
	isExport := matches(k.export, &cand)
	isAdmin := matches(k.admin, &cand)
	isLegacy := matches(k.legacy, &cand)

	admin := isAdmin || isLegacy
	return Scopes{
		read:   isRead || admin,
		export: isExport,
		admin:  admin,
	}
}

// HasLegacyKey reports whether the pre-scope API_KEY is configured.
func (k *Keyring) HasLegacyKey() bool {
	return k.legacy != nil
}

// BearerToken extracts the token from an Authorization header value.
// The scheme is case-insensitive and may be followed by any run of
// whitespace; anything else yields "".
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	i := strings.IndexFunc(header, unicode.IsSpace)
	if i < 0 || !strings.EqualFold(header[:i], "Bearer") {
		return ""
	}
	return strings.TrimSpace(header[i:])
}

// FromRequest returns the bearer token of r, or "".
func FromRequest(r *http.Request) string {
	return BearerToken(r.Header.Get("Authorization"))
}
