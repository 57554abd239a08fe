package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/domain"
)

// ErrConfiguration — общая категория ошибок конфигурации процедуры.
// Любой *ConfigurationError удовлетворяет errors.Is(err, ErrConfiguration).
var ErrConfiguration = errors.New("flow configuration error")

// Ошибки валидации графа шагов.
var (
	// ErrEmptyStepID — шаг без ID.
	ErrEmptyStepID = errors.New("step has empty ID")

	// ErrDuplicateStepID — несколько шагов с одинаковым ID.
	ErrDuplicateStepID = errors.New("duplicate step ID")

	// ErrForeignStep — шаг принадлежит другой процедуре.
	ErrForeignStep = errors.New("step belongs to another flow")

	// ErrMissingDependency — шаг зависит от шага, которого нет в процедуре.
	ErrMissingDependency = errors.New("step depends on unknown step")

	// ErrSelfDependency — шаг зависит от самого себя.
	ErrSelfDependency = errors.New("step depends on itself")

	// ErrCyclicDependency — обнаружен цикл в зависимостях.
	ErrCyclicDependency = errors.New("cyclic dependency detected")
)

// ConfigurationError — ошибка конфигурации процедуры с контекстом.
//
// Процедура с такой ошибкой не должна обслуживаться: движок не пытается
// "частично" разрешить статусы.
type ConfigurationError struct {
	FlowID  uuid.UUID   // процедура
	StepID  uuid.UUID   // шаг, где обнаружена ошибка (может быть uuid.Nil)
	Field   string      // поле, вызвавшее ошибку
	Cycle   []uuid.UUID // шаги цикла (для ErrCyclicDependency), первый повторён в конце
	Message string      // описание ошибки
	Err     error       // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("flow ")
	b.WriteString(e.FlowID.String())
	if e.StepID != uuid.Nil {
		b.WriteString(": step ")
		b.WriteString(e.StepID.String())
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Unwrap возвращает базовую ошибку.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is относит ошибку к категории ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError создаёт новую ошибку конфигурации.
func NewConfigurationError(flowID, stepID uuid.UUID, field, message string, err error) *ConfigurationError {
	return &ConfigurationError{
		FlowID:  flowID,
		StepID:  stepID,
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// newCycleError создаёт ошибку цикла с перечислением шагов.
func newCycleError(g *Graph, cycle []uuid.UUID) *ConfigurationError {
	names := make([]string, len(cycle))
	for i, id := range cycle {
		names[i] = g.label(id)
	}
	return &ConfigurationError{
		FlowID:  g.FlowID,
		StepID:  cycle[0],
		Field:   "depends_on_step_ids",
		Cycle:   cycle,
		Message: fmt.Sprintf("cyclic dependency: %s", strings.Join(names, " -> ")),
		Err:     ErrCyclicDependency,
	}
}

// IsConfigurationError проверяет, является ли ошибка ошибкой конфигурации,
// включая некорректные списки зависимостей, отловленные при чтении из БД.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, domain.ErrMalformedStepIDs)
}

// AsConfigurationError возвращает *ConfigurationError из цепочки или nil.
func AsConfigurationError(err error) *ConfigurationError {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return cfgErr
	}
	return nil
}
