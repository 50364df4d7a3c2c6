package providers

import (
	"github.com/samber/do/v2"

	"github.com/notekeep/notekeep-server/internal/auth"
	"github.com/notekeep/notekeep-server/internal/config"
	"github.com/notekeep/notekeep-server/internal/logger"
)

// ProvideKeyring hashes the configured API secrets.
func ProvideKeyring(i do.Injector) (*auth.Keyring, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	keys := auth.NewKeyring(cfg.Auth)

	if missing := cfg.Auth.MissingKeys(); len(missing) > 0 {
		log.Warn("API secrets not configured; their scopes cannot be granted", "missing", missing)
	}
	if keys.HasLegacyKey() {
		log.Warn("Legacy API_KEY is set; it grants the admin scope only")
	}

	return keys, nil
}
