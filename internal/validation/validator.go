// Package validation validates service request structs with go-playground/validator.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	domainerrors "github.com/libraryhub/library-server/internal/errors"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var (
	// Ten digit mobile numbers starting with 6-9.
	phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	// ISBN-10 may end in X; ISBN-13 is all digits. Hyphens are stripped first.
	isbnPattern = regexp.MustCompile(`^(\d{9}[\dX]|\d{13})$`)
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// New creates a validator with the library's custom tags registered:
// notblank, phone, isbn and pastdate.
func New() *Validator {
	return NewWithClock(time.Now)
}

// NewWithClock is like New but evaluates pastdate against now.
func NewWithClock(now func() time.Time) *Validator {
	val := &Validator{v: validator.New(), now: now}

	// Report JSON field names.
	val.v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	mustRegister(val.v, "notblank", validators.NotBlank)
	mustRegister(val.v, "phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(val.v, "isbn", func(fl validator.FieldLevel) bool {
		return isbnPattern.MatchString(NormalizeISBN(fl.Field().String()))
	})
	mustRegister(val.v, "pastdate", val.pastDate)

	return val
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// pastDate accepts a YYYY-MM-DD string that is not after today.
func (v *Validator) pastDate(fl validator.FieldLevel) bool {
	d, err := time.Parse(DateLayout, fl.Field().String())
	if err != nil {
		return false
	}
	now := v.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !d.After(today)
}

// NormalizeISBN removes hyphens and spaces and upper-cases a trailing x.
func NormalizeISBN(isbn string) string {
	r := strings.NewReplacer("-", "", " ", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(isbn)))
}

// Validate validates a struct and returns a domain validation error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[fieldPath(e)] = friendlyMessage(e)
	}

	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

// fieldPath drops the top-level struct name from the namespace so bulk
// requests report "books[1].isbn" rather than "BulkRequest.books[1].isbn".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return e.Field()
}

//nolint:gocyclo // One case per supported tag.
func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be a 10 digit number starting with 6-9"
	case "isbn":
		return "must be a valid ISBN-10 or ISBN-13"
	case "pastdate":
		return "must be a date (YYYY-MM-DD) that is not in the future"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
		return "must not exceed " + e.Param()
	case "len":
		return fmt.Sprintf("must be exactly %s characters", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "lt":
		return "must be less than " + e.Param()
	case "dive":
		return "contains an invalid entry"
	default:
		return "is invalid"
	}
}
