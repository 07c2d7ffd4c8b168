package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"bunkhouse/internal/services"

	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the process-wide validator. Field names in messages use
// the json tag so they match the request body.
func Validator() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(jsonName)
	})
	return instance
}

// Struct validates request and wraps any failure in services.ErrValidation.
func Struct(request any) error {
	err := Validator().Struct(request)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("%w: %w", services.ErrValidation, err)
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, message(fe))
	}
	return fmt.Errorf("%w: %s", services.ErrValidation, strings.Join(messages, "; "))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without", "excluded_with":
		return fmt.Sprintf("%s is %s", fe.Field(), strings.ReplaceAll(fe.Tag(), "_", " "))
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted %s", fe.Field(), fe.Param())
	case "min", "max", "gte", "lte":
		return fmt.Sprintf("%s fails %s=%s", fe.Field(), fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}

func jsonName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// Date parses an optional calendar date. The struct tag has already checked
// the format, so a parse failure here is still reported as a validation error.
func Date(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", services.ErrValidation, value)
	}
	return &parsed, nil
}
