package domain

import (
	"errors"
	"fmt"
)

// Ошибки доменной модели.
var (
	// ErrValidation возвращается для некорректных входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition возвращается при недопустимой смене состояния run.
	ErrInvalidTransition = errors.New("invalid run state transition")
)

// ValidationError описывает некорректное поле.
// errors.Is(err, ErrValidation) == true.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
