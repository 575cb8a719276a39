package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/gstengine/internal/gstin"
	"github.com/smallbiznis/gstengine/pkg/apperror"
)

var ErrInvalidInput = apperror.New(apperror.DomainValidation, 1901, "invalid_input", "input failed validation")

// Validator wraps a validator instance with the tax-domain tags registered.
// Build it once and share it.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	mustRegister(v, "gstin", func(fl validator.FieldLevel) bool {
		return gstin.Validate(fl.Field().String()) == nil
	})
	mustRegister(v, "hsn", func(fl validator.FieldLevel) bool {
		return IsClassificationCode(fl.Field().String())
	})
	mustRegister(v, "statecode", func(fl validator.FieldLevel) bool {
		return gstin.IsJurisdiction(fl.Field().String())
	})
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// IsClassificationCode reports whether code is a 4, 6 or 8 digit HSN/SAC code.
func IsClassificationCode(code string) bool {
	switch len(code) {
	case 4, 6, 8:
	default:
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// Struct validates s and returns the first failure as a field-scoped
// validation error.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return ErrInvalidInput.Wrap(err)
	}
	fe := fieldErrs[0]
	return ErrInvalidInput.
		WithField(fieldPath(fe.Namespace())).
		WithMessage("%s %s", fieldPath(fe.Namespace()), message(fe))
}

func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gstin":
		return "must be a valid GSTIN"
	case "hsn":
		return "must be a 4, 6 or 8 digit classification code"
	case "statecode":
		return "must be a valid state code"
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}
