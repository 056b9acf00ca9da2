package user

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("user not found")
	ErrLoginExists          = errors.New("login already exists")
	ErrEmailExists          = errors.New("email already exists")
	ErrSamePassword         = errors.New("new password matches the old one")
	ErrMissingIdentifier    = errors.New("either id or login must be provided")
	ErrNoUpdatableFields    = errors.New("no fields to update")
	ErrLoginOrEmailRequired = errors.New("either login or email must be provided")

	// ErrValidation служит общим маркером для errors.Is; конкретное
	// нарушение описывает ValidationError.
	ErrValidation = errors.New("validation failed")
)

// Rule идентифицирует нарушенное правило валидации поля.
type Rule string

const (
	RuleTooShort        Rule = "too_short"
	RuleTooLong         Rule = "too_long"
	RuleForbiddenSymbol Rule = "forbidden_symbol"
	RuleMissingSymbol   Rule = "missing_special_symbol"
	RuleMissingDigit    Rule = "missing_digit"
	RuleMissingUpper    Rule = "missing_uppercase"
	RuleMissingLower    Rule = "missing_lowercase"
)

// ValidationError несёт имя поля и нарушенное правило.
type ValidationError struct {
	Field string
	Rule  Rule
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: field %q violates rule %q", e.Field, e.Rule)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(field string, rule Rule) error {
	return &ValidationError{Field: field, Rule: rule}
}
