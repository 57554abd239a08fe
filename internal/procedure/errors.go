package procedure

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Ошибки Transition API.
var (
	// ErrNotStartable — шаг нельзя начать (зависимости, роль, статус, неактивная процедура).
	ErrNotStartable = errors.New("step not startable")

	// ErrInvalidTransition — запрошенный переход недопустим из текущего статуса.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotFound — процедура, шаг или пользователь не найдены.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable — хранилище недоступно или вернуло ошибку.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Операции Transition API.
const (
	OpStart    = "start"
	OpComplete = "complete"
)

// TransitionError — отказ в переходе с причиной.
type TransitionError struct {
	Op     string    // start или complete
	UserID uuid.UUID // пользователь
	StepID uuid.UUID // шаг
	Reason string    // причина отказа

	// WaitingFor — незавершённые зависимости (для отказа по зависимостям).
	WaitingFor []uuid.UUID

	Err error // ErrNotStartable или ErrInvalidTransition
}

// Error реализует интерфейс error.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s step %s: %s", e.Err, e.Op, e.StepID, e.Reason)
}

// Unwrap возвращает категорию ошибки.
func (e *TransitionError) Unwrap() error {
	return e.Err
}

func notStartable(op string, actor Actor, stepID uuid.UUID, reason string) *TransitionError {
	return &TransitionError{Op: op, UserID: actor.UserID, StepID: stepID, Reason: reason, Err: ErrNotStartable}
}

func invalidTransition(op string, actor Actor, stepID uuid.UUID, reason string) *TransitionError {
	return &TransitionError{Op: op, UserID: actor.UserID, StepID: stepID, Reason: reason, Err: ErrInvalidTransition}
}

func notFound(what string, id uuid.UUID) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
