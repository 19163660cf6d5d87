package domain

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ValidationErrors maps a lower-case attribute name to its error messages.
type ValidationErrors map[string][]string

func (e ValidationErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		for _, msg := range e[field] {
			parts = append(parts, fmt.Sprintf("%s %s", field, msg))
		}
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Add records msg against field.
func (e ValidationErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// On returns the messages recorded for field.
func (e ValidationErrors) On(field string) []string {
	return e[field]
}

// FullMessages returns "Title can't be blank" style messages ordered by field.
func (e ValidationErrors) FullMessages() []string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var out []string
	for _, field := range fields {
		for _, msg := range e[field] {
			out = append(out, humanize(field)+" "+msg)
		}
	}
	return out
}

func humanize(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + strings.ReplaceAll(field[1:], "_", " ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.ToLower(f.Name)
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("domain: register notblank: %v", err))
	}
	return v
}

// Validate checks the task invariants. It returns nil or ValidationErrors.
func (t *Task) Validate() error {
	err := validate.Struct(t)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate task: %w", err)
	}

	errs := ValidationErrors{}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), messageFor(fe.Tag()))
	}
	return errs
}

func messageFor(tag string) string {
	switch tag {
	case "notblank", "required":
		return "can't be blank"
	default:
		return "is invalid"
	}
}
