package appointment

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports every field that failed its rules.
type ValidationError struct {
	Fields map[string]string
	err    error
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, e.Fields[name])
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

func validationError(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

const (
	tagStart     = "appointment_start"
	tagValidHour = "valid_hour"
)

const (
	ruleName  = "required"
	ruleEmail = "required,email"
	ruleStart = "required," + tagStart + "," + tagValidHour
)

type rules struct {
	validate *validator.Validate
	loc      *time.Location
}

func newRules(validHours []string, loc *time.Location) *rules {
	hours := make(map[string]struct{}, len(validHours))
	for _, h := range validHours {
		hours[h] = struct{}{}
	}

	v := validator.New()
	_ = v.RegisterValidation(tagStart, func(fl validator.FieldLevel) bool {
		_, err := time.ParseInLocation(DateTimeLayout, fl.Field().String(), loc)
		return err == nil
	})
	_ = v.RegisterValidation(tagValidHour, func(fl validator.FieldLevel) bool {
		t, err := time.ParseInLocation(DateTimeLayout, fl.Field().String(), loc)
		if err != nil {
			return false
		}
		_, ok := hours[t.Format(HourLayout)]
		return ok
	})

	return &rules{validate: v, loc: loc}
}

type check struct {
	field string
	value string
	rule  string
}

// run evaluates every check and aggregates failures; each field stops at its first failing rule.
func (r *rules) run(checks ...check) error {
	failed := map[string]string{}
	for _, c := range checks {
		err := r.validate.Var(c.value, c.rule)
		if err == nil {
			continue
		}
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			failed[c.field] = fmt.Sprintf("%s is invalid", c.field)
			continue
		}
		failed[c.field] = message(c.field, fieldErrs[0].Tag())
	}

	if len(failed) > 0 {
		return &ValidationError{Fields: failed}
	}
	return nil
}

// parseStart is only called on values that passed ruleStart.
func (r *rules) parseStart(value string) time.Time {
	t, _ := time.ParseInLocation(DateTimeLayout, value, r.loc)
	return t
}

func message(field, tag string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case tagStart:
		return fmt.Sprintf("%s must be formatted as YYYY-MM-DD HH:MM:SS", field)
	case tagValidHour:
		return fmt.Sprintf("%s must be one of the valid hours", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
