package progress

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/domain"
)

// Ошибки хранилища прогресса.
var (
	// ErrNotFound — записи прогресса нет.
	ErrNotFound = errors.New("progress not found")

	// ErrConflict — хранимый статус не совпал с ожидаемым (запись изменена
	// конкурентно). Прежнее состояние не тронуто.
	ErrConflict = errors.New("progress status conflict")

	// ErrInvalidStatus — попытка сохранить недопустимый статус (BLOCKED).
	ErrInvalidStatus = errors.New("status cannot be persisted")
)

// Store — хранилище прогресса.
type Store interface {
	// Get возвращает запись (userID, stepID) или ErrNotFound.
	Get(ctx context.Context, userID, stepID uuid.UUID) (*domain.Progress, error)

	// ListForFlow возвращает записи пользователя по шагам процедуры.
	// Отсутствие записи означает NOT_STARTED.
	ListForFlow(ctx context.Context, userID, flowID uuid.UUID) (map[uuid.UUID]domain.Progress, error)

	// ListForUser возвращает все записи пользователя.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Progress, error)

	// Upsert записывает p, если текущий статус равен expected.
	// expected = NOT_STARTED совпадает и с отсутствием записи.
	Upsert(ctx context.Context, p *domain.Progress, expected domain.StepStatus) error
}

// CheckWritable проверяет запись перед сохранением.
func CheckWritable(p *domain.Progress) error {
	if !p.Status.IsPersistable() {
		return ErrInvalidStatus
	}
	if p.UserID == uuid.Nil || p.StepID == uuid.Nil {
		return errors.New("progress requires user_id and step_id")
	}
	return nil
}
