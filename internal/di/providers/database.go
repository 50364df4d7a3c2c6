package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/notekeep/notekeep-server/internal/config"
	"github.com/notekeep/notekeep-server/internal/logger"
	"github.com/notekeep/notekeep-server/internal/store/postgres"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*postgres.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideStore connects to PostgreSQL and provides the notes store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.Database, log.Logger)
	if err != nil {
		return nil, err
	}

	if cfg.Database.ApplySchema {
		if err := postgres.ApplySchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("Database schema ensured")
	}

	log.Info("Database initialized",
		"max_conns", cfg.Database.MaxConns,
		"min_conns", cfg.Database.MinConns,
	)

	return &StoreHandle{Store: postgres.New(pool, log.Logger)}, nil
}
