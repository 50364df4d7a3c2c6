// Package di provides dependency injection configuration for the notes server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/notekeep/notekeep-server/internal/auth"
	"github.com/notekeep/notekeep-server/internal/config"
	"github.com/notekeep/notekeep-server/internal/di/providers"
	"github.com/notekeep/notekeep-server/internal/logger"
	"github.com/notekeep/notekeep-server/internal/service"
	"github.com/notekeep/notekeep-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideKeyring)

	// Data layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideCountCache)

	// Business services
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideNoteService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*auth.Keyring](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.CountCacheHandle](injector)

	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*service.NoteService](injector)

	// Server
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	return nil
}
