package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/domain"
)

// ErrNotFound — процедура или шаг отсутствует в каталоге.
var ErrNotFound = errors.New("catalog entry not found")

// Source — read-only доступ к процедурам и шагам.
type Source interface {
	GetFlow(ctx context.Context, id uuid.UUID) (*domain.Flow, error)
	ListFlows(ctx context.Context, filter domain.FlowFilter) ([]domain.Flow, error)
	GetStep(ctx context.Context, id uuid.UUID) (*domain.Step, error)
	ListSteps(ctx context.Context, flowID uuid.UUID) ([]domain.Step, error)
}
