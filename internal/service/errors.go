package service

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidCar rejects malformed car input before any lookup happens.
	ErrInvalidCar = errors.New("invalid car")
	// ErrValidationFailed means the vehicle lookup confirmed the make/model does not exist.
	ErrValidationFailed = errors.New("make and model do not match any known vehicle")
	// ErrValidatorUnavailable means the vehicle lookup could not confirm the make/model.
	ErrValidatorUnavailable = errors.New("vehicle lookup unavailable")
	// ErrDuplicateCar means a car with the same make and model is already stored.
	ErrDuplicateCar = errors.New("car already exists")
	// ErrCarNotFound means no car has the requested identifier.
	ErrCarNotFound = errors.New("car not found")
	// ErrInvalidRating rejects a rating with a bad value or car reference.
	ErrInvalidRating = errors.New("invalid rating")
)

// InputError carries per-field messages for rejected input. It unwraps to the
// sentinel describing the rejected operation.
type InputError struct {
	Kind   error
	Fields map[string]string
}

func (e *InputError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%v: %s", e.Kind, strings.Join(parts, "; "))
}

func (e *InputError) Unwrap() error {
	return e.Kind
}

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("label"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

func checkInput(v *validator.Validate, kind error, input interface{}) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", kind, err)
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &InputError{Kind: kind, Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "uuid":
		return "must reference an existing car"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
