// Package inputval validates request payloads declared with struct tags.
//
// Fields carry a `validate` tag (go-playground rules) and an optional
// `label` tag used in user-facing messages:
//
//	type createInput struct {
//	    Category string `validate:"required" label:"Category"`
//	    Topics   []string `validate:"required,min=1,max=3" label:"Talk topics"`
//	}
package inputval

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report field names from the label tag (fall back to the Go name).
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})
	return v
}

// Result holds zero or more validation error messages in field order.
type Result struct {
	Errors []string
}

// HasErrors reports whether any rule failed.
func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first failure message, or "".
func (r Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0]
}

// Validate checks the struct's tagged rules and returns human-readable
// messages. Infrastructure errors (non-struct input) surface as a single
// generic message rather than a panic.
func Validate(input any) Result {
	err := validate.Struct(input)
	if err == nil {
		return Result{}
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Result{Errors: []string{"Invalid input."}}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, message(fe))
	}
	return Result{Errors: msgs}
}

func message(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", name)
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s entries.", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters.", name, fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s entries.", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters.", name, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address.", name)
	case "gte":
		return fmt.Sprintf("%s must be at least %s.", name, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s.", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid.", name)
	}
}
