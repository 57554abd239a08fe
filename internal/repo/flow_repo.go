package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Procedura/internal/domain"
)

// FlowRepo — репозиторий для работы с procedure_flows и procedure_steps.
//
// Процедуры и шаги редактируются административно; движок только читает их.
// Import используется для загрузки каталога из файла.
type FlowRepo struct {
	pool *pgxpool.Pool
}

// NewFlowRepo создаёт новый FlowRepo.
func NewFlowRepo(pool *pgxpool.Pool) *FlowRepo {
	return &FlowRepo{pool: pool}
}

const flowColumns = `id, university_id, name, description, flow_type, is_active, created_at`

const stepColumns = `id, flow_id, name, description, step_order, depends_on_step_ids,
		       required_role, is_required`

// --- Flows ---

// GetFlow возвращает процедуру по ID.
func (r *FlowRepo) GetFlow(ctx context.Context, id uuid.UUID) (*domain.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM procedure_flows WHERE id = $1`
	return scanFlow(r.pool.QueryRow(ctx, query, id))
}

// ListFlows возвращает процедуры по фильтру.
func (r *FlowRepo) ListFlows(ctx context.Context, filter domain.FlowFilter) ([]domain.Flow, error) {
	query := `
		SELECT ` + flowColumns + `
		FROM procedure_flows
		WHERE ($1::uuid IS NULL OR university_id = $1)
		  AND ($2::text IS NULL OR flow_type = $2)
		  AND ($3::boolean IS NULL OR is_active = $3)
		ORDER BY name ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query,
		nullUUID(filter.UniversityID),
		nullString(filter.FlowType),
		filter.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}
	defer rows.Close()

	var flows []domain.Flow
	for rows.Next() {
		flow, err := scanFlow(rows)
		if err != nil {
			return nil, err
		}
		flows = append(flows, *flow)
	}
	return flows, rows.Err()
}

// --- Steps ---

// GetStep возвращает шаг по ID.
func (r *FlowRepo) GetStep(ctx context.Context, id uuid.UUID) (*domain.Step, error) {
	query := `SELECT ` + stepColumns + ` FROM procedure_steps WHERE id = $1`
	return scanStep(r.pool.QueryRow(ctx, query, id))
}

// ListSteps возвращает шаги процедуры в порядке step_order.
func (r *FlowRepo) ListSteps(ctx context.Context, flowID uuid.UUID) ([]domain.Step, error) {
	query := `
		SELECT ` + stepColumns + `
		FROM procedure_steps
		WHERE flow_id = $1
		ORDER BY step_order ASC, name ASC
	`
	rows, err := r.pool.Query(ctx, query, flowID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.Step
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, *step)
	}
	return steps, rows.Err()
}

// Import записывает процедуру и её шаги одной транзакцией.
// Существующие записи с теми же ID перезаписываются, прогресс не трогается.
func (r *FlowRepo) Import(ctx context.Context, flow *domain.Flow, steps []domain.Step) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO procedure_flows (`+flowColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE
			SET university_id = EXCLUDED.university_id, name = EXCLUDED.name,
			    description = EXCLUDED.description, flow_type = EXCLUDED.flow_type,
			    is_active = EXCLUDED.is_active
		`,
			flow.ID,
			flow.UniversityID,
			flow.Name,
			nullString(flow.Description),
			flow.FlowType,
			flow.IsActive,
			flow.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert flow: %w", err)
		}

		for _, step := range steps {
			_, err := tx.Exec(ctx, `
				INSERT INTO procedure_steps (`+stepColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (id) DO UPDATE
				SET flow_id = EXCLUDED.flow_id, name = EXCLUDED.name,
				    description = EXCLUDED.description, step_order = EXCLUDED.step_order,
				    depends_on_step_ids = EXCLUDED.depends_on_step_ids,
				    required_role = EXCLUDED.required_role, is_required = EXCLUDED.is_required
			`,
				step.ID,
				flow.ID,
				step.Name,
				nullString(step.Description),
				step.StepOrder,
				nullString(domain.FormatStepIDs(step.DependsOn)),
				nullString(step.RequiredRole),
				step.IsRequired,
			)
			if err != nil {
				return fmt.Errorf("upsert step %s: %w", step.ID, err)
			}
		}
		return nil
	})
}

// --- Helpers ---

func scanFlow(row pgx.Row) (*domain.Flow, error) {
	var flow domain.Flow
	var description *string

	err := row.Scan(
		&flow.ID,
		&flow.UniversityID,
		&flow.Name,
		&description,
		&flow.FlowType,
		&flow.IsActive,
		&flow.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan flow: %w", err)
	}
	flow.Description = derefString(description)
	return &flow, nil
}

// scanStep сканирует шаг и разбирает depends_on_step_ids.
// Некорректный список возвращается как ошибка с domain.ErrMalformedStepIDs.
func scanStep(row pgx.Row) (*domain.Step, error) {
	var step domain.Step
	var description, dependsOn, requiredRole *string

	err := row.Scan(
		&step.ID,
		&step.FlowID,
		&step.Name,
		&description,
		&step.StepOrder,
		&dependsOn,
		&requiredRole,
		&step.IsRequired,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan step: %w", err)
	}

	step.Description = derefString(description)
	step.RequiredRole = derefString(requiredRole)

	step.DependsOn, err = domain.ParseStepIDs(derefString(dependsOn))
	if err != nil {
		return nil, fmt.Errorf("step %s depends_on_step_ids: %w", step.ID, err)
	}
	return &step, nil
}

// nullUUID возвращает nil для пустого UUID.
func nullUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}
