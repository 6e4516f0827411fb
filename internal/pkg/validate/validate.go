package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/go-registration-api/internal/domain"
)

// v is the package-level singleton validator. It is initialised once at
// package load time. Any custom type registrations must be made during init()
// before the first call to Struct.
var v = validator.New()

func init() {
	// Report fields under their wire names, not the Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Struct validates the given struct using its validate tags. Failures wrap
// domain.ErrValidation so the HTTP layer can render a problem detail naming
// the offending field.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var msgs []string
	for _, fe := range ve {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fieldName(fe), fe.Tag()))
	}
	return &FieldError{
		Field:  fieldName(ve[0]),
		Reason: strings.Join(msgs, "; "),
	}
}

// FieldError reports the first offending field of a failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return e.Reason }

func (e *FieldError) Unwrap() error { return domain.ErrValidation }

func fieldName(fe validator.FieldError) string {
	return strings.ToLower(fe.Field())
}
