package providers

import (
	"github.com/samber/do/v2"

	"github.com/notekeep/notekeep-server/internal/logger"
	"github.com/notekeep/notekeep-server/internal/service"
	"github.com/notekeep/notekeep-server/internal/validation"
)

// ProvideValidator provides the note payload validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideNoteService provides the note service.
func ProvideNoteService(i do.Injector) (*service.NoteService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cacheHandle := do.MustInvoke[*CountCacheHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNoteService(storeHandle.Store, cacheHandle.CountCache, validator, log.Logger), nil
}
