package service

import (
	"errors"
	"fmt"

	"github.com/shaiso/Lineage/internal/domain"
)

// Ошибки сервисного слоя.
var (
	// ErrRunNotFound: в запросе указан несуществующий run.
	// Это ошибка клиента, повторять запрос бессмысленно.
	ErrRunNotFound = errors.New("run not found")

	// ErrDatasetValidation: в метаданных dataset нет обязательных полей.
	ErrDatasetValidation = domain.ErrValidation

	// ErrLegacyWritesDisabled: устаревший путь записи отключён конфигурацией.
	ErrLegacyWritesDisabled = errors.New("legacy dataset writes are disabled")
)

// ObserverDispatchError описывает сбой одного наблюдателя.
// Шина логирует такие ошибки и не возвращает их вызывающему.
type ObserverDispatchError struct {
	Observer string
	Event    string
	Err      error
}

func (e *ObserverDispatchError) Error() string {
	return fmt.Sprintf("observer %s failed on %s: %v", e.Observer, e.Event, e.Err)
}

func (e *ObserverDispatchError) Unwrap() error {
	return e.Err
}
