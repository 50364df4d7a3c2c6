// Package validation checks note write payloads using the validator/v10 library.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/notekeep/notekeep-server/internal/domain"
	domainerrors "github.com/notekeep/notekeep-server/internal/errors"
	"github.com/notekeep/notekeep-server/internal/normalize"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

//nolint:gochecknoglobals // Rule strings derived from domain limits
var (
	contentRules = fmt.Sprintf("required,max=%d", domain.MaxContentLength)
	tagsRules    = fmt.Sprintf("min=1,max=%d,dive,max=%d", domain.MaxTags, domain.MaxTagLength)
)

// New creates a validator configured for notes.
func New() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Content trims raw and checks it is non-empty and within the length limit.
// Length is counted in characters, not bytes.
func (v *Validator) Content(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if err := v.v.Var(content, contentRules); err != nil {
		return "", contentError(err)
	}
	return content, nil
}

// Tags normalizes raw and checks the count and per-tag length limits.
func (v *Validator) Tags(raw []string) ([]string, error) {
	tags := normalize.Tags(raw)
	if err := v.v.Var(tags, tagsRules); err != nil {
		return nil, tagsError(err)
	}
	return tags, nil
}

func firstFieldError(err error) (validator.FieldError, bool) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return nil, false
	}
	return validationErrs[0], true
}

func contentError(err error) error {
	fe, ok := firstFieldError(err)
	if ok && fe.Tag() == "max" {
		return domainerrors.InvalidField("content", fmt.Sprintf("content is too long (max %d chars)", domain.MaxContentLength))
	}
	return domainerrors.InvalidField("content", "content is required (non-empty string)")
}

func tagsError(err error) error {
	fe, ok := firstFieldError(err)
	if !ok {
		return domainerrors.InvalidField("tags", "tags are invalid")
	}
	switch {
	case fe.Tag() == "max" && fe.Kind() == reflect.String:
		tag, _ := fe.Value().(string)
		return domainerrors.InvalidField("tags", fmt.Sprintf("tag '%s' is too long (max %d)", truncate(tag, 40), domain.MaxTagLength))
	case fe.Tag() == "max":
		return domainerrors.InvalidField("tags", fmt.Sprintf("too many tags (max %d)", domain.MaxTags))
	default:
		return domainerrors.InvalidField("tags", "tags must be a non-empty array of non-empty strings")
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
