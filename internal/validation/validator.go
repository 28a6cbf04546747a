// Package validation checks storefront request bodies with validator/v10 and
// reports failures as VALIDATION domain errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/elephoto/elephoto-server/internal/domain"
	domainerrors "github.com/elephoto/elephoto-server/internal/errors"
	"github.com/elephoto/elephoto-server/internal/id"
)

// Validator wraps go-playground/validator with the storefront's own tags:
//
//	accesscode  a valid album access code once trimmed and uppercased
//	photoid     an id minted for a photo
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the storefront tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	//nolint:errcheck // registration only fails for an empty tag
	_ = v.RegisterValidation("accesscode", func(fl validator.FieldLevel) bool {
		return domain.ValidCode(domain.NormalizeCode(fl.Field().String()))
	})
	//nolint:errcheck // registration only fails for an empty tag
	_ = v.RegisterValidation("photoid", func(fl validator.FieldLevel) bool {
		rest, ok := strings.CutPrefix(fl.Field().String(), id.PrefixPhoto+"-")
		return ok && rest != ""
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a VALIDATION error listing every
// failing field.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = message(fe)
	}
	return domainerrors.ValidationWithDetails("validation failed", details)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "accesscode":
		return fmt.Sprintf("must contain only letters A-Z and digits, at most %d characters", domain.MaxCodeLength)
	case "photoid":
		return "is not a photo id"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
