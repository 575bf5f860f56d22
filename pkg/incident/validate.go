package incident

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	FieldName        = "name"
	FieldDescription = "description"

	NameMaxLength        = 50
	DescriptionMaxLength = 200

	minLength = 1
)

var (
	ErrEmpty      = errors.New("value is empty")
	ErrOutOfRange = errors.New("value length out of range")
)

var validate = validator.New()

// FieldError reports which field failed validation and why. It unwraps to
// ErrEmpty or ErrOutOfRange.
type FieldError struct {
	Field string
	Max   int
	Err   error
}

func (e *FieldError) Error() string {
	if errors.Is(e.Err, ErrEmpty) {
		return fmt.Sprintf("%s must not be empty", e.Field)
	}
	return fmt.Sprintf("%s must be between %d and %d characters", e.Field, minLength, e.Max)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ValidateName checks that the trimmed name is between 1 and 50 characters
func ValidateName(v string) error {
	return validateLength(FieldName, v, NameMaxLength)
}

// ValidateDescription checks that the trimmed description is between 1 and 200 characters
func ValidateDescription(v string) error {
	return validateLength(FieldDescription, v, DescriptionMaxLength)
}

// ValidateFields runs both field checks and returns each result
func ValidateFields(name, description string) (nameErr, descriptionErr error) {
	return ValidateName(name), ValidateDescription(description)
}

func validateLength(field, v string, max int) error {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return &FieldError{Field: field, Max: max, Err: ErrEmpty}
	}

	// The lower bound repeats the empty check above; both stay
	if err := validate.Var(trimmed, fmt.Sprintf("min=%d,max=%d", minLength, max)); err != nil {
		return &FieldError{Field: field, Max: max, Err: ErrOutOfRange}
	}

	return nil
}
