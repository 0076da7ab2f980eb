package domain

import (
	"fmt"
	"strings"
)

// RunState описывает состояние выполнения run.
//
// Жизненный цикл:
//
//	NEW → RUNNING → COMPLETED
//	            ↘ FAILED
//	  (или) → ABORTED (из NEW или RUNNING)
//
// Из NEW можно сразу перейти в любое финальное состояние:
// клиенты, которые не отмечают старт, так делают постоянно.
type RunState string

const (
	// RunStateNew означает, что run создан, но ещё не запущен.
	RunStateNew RunState = "NEW"

	// RunStateRunning означает, что run выполняется.
	RunStateRunning RunState = "RUNNING"

	// RunStateCompleted означает успешное завершение.
	RunStateCompleted RunState = "COMPLETED"

	// RunStateFailed означает завершение с ошибкой.
	RunStateFailed RunState = "FAILED"

	// RunStateAborted означает, что run прерван.
	RunStateAborted RunState = "ABORTED"
)

// IsTerminal возвращает true, если состояние финальное.
func (s RunState) IsTerminal() bool {
	switch s {
	case RunStateCompleted, RunStateFailed, RunStateAborted:
		return true
	default:
		return false
	}
}

// IsValid проверяет, что значение входит в перечисление.
func (s RunState) IsValid() bool {
	switch s {
	case RunStateNew, RunStateRunning, RunStateCompleted, RunStateFailed, RunStateAborted:
		return true
	default:
		return false
	}
}

// CanTransitionTo проверяет допустимость перехода s → next.
func (s RunState) CanTransitionTo(next RunState) bool {
	if !next.IsValid() || next == RunStateNew {
		return false
	}
	switch s {
	case RunStateNew:
		return true
	case RunStateRunning:
		return next.IsTerminal()
	default:
		return false
	}
}

// ParseRunState парсит строку в RunState без учёта регистра.
func ParseRunState(s string) (RunState, error) {
	state := RunState(strings.ToUpper(strings.TrimSpace(s)))
	if !state.IsValid() {
		return "", fmt.Errorf("unknown run state %q", s)
	}
	return state, nil
}

// DatasetType определяет вид набора данных.
type DatasetType string

const (
	// DatasetTypeDBTable соответствует таблице в БД.
	DatasetTypeDBTable DatasetType = "DB_TABLE"

	// DatasetTypeStream соответствует потоку (топик, очередь).
	DatasetTypeStream DatasetType = "STREAM"
)

// String возвращает строковое представление DatasetType.
func (t DatasetType) String() string {
	return string(t)
}

// IsValid проверяет, что значение входит в перечисление.
func (t DatasetType) IsValid() bool {
	return t == DatasetTypeDBTable || t == DatasetTypeStream
}

// ParseDatasetType парсит строку в DatasetType без учёта регистра.
func ParseDatasetType(s string) (DatasetType, error) {
	t := DatasetType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown dataset type %q", s)
	}
	return t, nil
}
