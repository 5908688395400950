package model

import "fmt"

// ValidationError ошибка валидации входных данных.
// Вина вызывающей стороны, исправима до повтора, никогда не ретраится автоматически.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NewValidationError создаёт ошибку валидации для конкретного поля
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// SchemaError удалённое хранилище не приняло имя поля.
// Разрешён ровно один автоматический ретрай с альтернативным именем, после чего ошибка всплывает.
type SchemaError struct {
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: remote rejected field %q: %v", e.Field, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// TransportError хранилище недоступно или ответ не получен вовремя.
// Не ретраится молча; вызывающая сторона может явно включить демо-режим.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StateError попытка перехода для записи не в pending_approval.
// Ошибка использования, всегда всплывает и логируется.
type StateError struct {
	ID     string
	Status SessionStatus
	Op     string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state: cannot %s request %s in status %q", e.Op, e.ID, e.Status)
}
