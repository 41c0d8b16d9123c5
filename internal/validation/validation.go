// Package validation wraps go-playground/validator with JSON field names and
// short human messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Skotchmaster/storefront/internal/apperr"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Error lists the offending fields by their JSON names.
type Error struct {
	Details map[string]string
}

func (e *Error) Error() string { return "validation: " + Summary(e.Details) }

func (e *Error) Unwrap() error { return apperr.ErrValidation }

// Struct returns nil, or an error matching apperr.ErrValidation.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	details := ToDetails(err)
	if len(details) == 0 {
		return fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}
	return &Error{Details: details}
}

// Describe returns text fit for the shopper.
func Describe(err error) string {
	var ve *Error
	if errors.As(err, &ve) {
		return Summary(ve.Details)
	}
	return "invalid input"
}

func ToDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = formatFieldError(fe)
	}
	return out
}

// Summary renders details in a stable order: "email must be a valid email; zip is required".
func Summary(details map[string]string) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+details[k])
	}
	return strings.Join(parts, "; ")
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "startswith":
		return "must start with " + fe.Param()
	}
	return "is invalid"
}
