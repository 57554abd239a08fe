package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Procedura/internal/domain"
	"github.com/shaiso/Procedura/internal/progress"
)

// ProgressRepo — progress.Store поверх таблицы procedure_progress.
//
// flow_id в таблице не хранится и восстанавливается join'ом с procedure_steps.
type ProgressRepo struct {
	pool *pgxpool.Pool
}

// NewProgressRepo создаёт новый ProgressRepo.
func NewProgressRepo(pool *pgxpool.Pool) *ProgressRepo {
	return &ProgressRepo{pool: pool}
}

var _ progress.Store = (*ProgressRepo)(nil)

const progressSelect = `
		SELECT p.user_id, p.step_id, s.flow_id, p.status, p.started_at, p.completed_at,
		       p.notes, p.updated_at
		FROM procedure_progress p
		JOIN procedure_steps s ON s.id = p.step_id
`

// Get возвращает запись (userID, stepID) или progress.ErrNotFound.
func (r *ProgressRepo) Get(ctx context.Context, userID, stepID uuid.UUID) (*domain.Progress, error) {
	query := progressSelect + ` WHERE p.user_id = $1 AND p.step_id = $2`

	p, err := scanProgress(r.pool.QueryRow(ctx, query, userID, stepID))
	if errors.Is(err, ErrNotFound) {
		return nil, progress.ErrNotFound
	}
	return p, err
}

// ListForFlow возвращает записи пользователя по шагам процедуры.
func (r *ProgressRepo) ListForFlow(ctx context.Context, userID, flowID uuid.UUID) (map[uuid.UUID]domain.Progress, error) {
	query := progressSelect + ` WHERE p.user_id = $1 AND s.flow_id = $2`

	rows, err := r.pool.Query(ctx, query, userID, flowID)
	if err != nil {
		return nil, fmt.Errorf("list progress for flow: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]domain.Progress)
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out[p.StepID] = *p
	}
	return out, rows.Err()
}

// ListForUser возвращает все записи пользователя, последние изменения первыми.
func (r *ProgressRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Progress, error) {
	query := progressSelect + ` WHERE p.user_id = $1 ORDER BY p.updated_at DESC, p.step_id ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress for user: %w", err)
	}
	defer rows.Close()

	var out []domain.Progress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Upsert записывает p, если хранимый статус равен expected.
//
// Для expected = NOT_STARTED запись вставляется либо обновляется, если
// существующая строка тоже NOT_STARTED. Для остальных статусов строка
// обязана существовать. Проверка и запись выполняются одним запросом.
func (r *ProgressRepo) Upsert(ctx context.Context, p *domain.Progress, expected domain.StepStatus) error {
	if err := progress.CheckWritable(p); err != nil {
		return err
	}

	var query string
	if expected == domain.StepStatusNotStarted {
		query = `
			INSERT INTO procedure_progress
			    (user_id, step_id, status, started_at, completed_at, notes, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (user_id, step_id) DO UPDATE
			SET status = EXCLUDED.status, started_at = EXCLUDED.started_at,
			    completed_at = EXCLUDED.completed_at, notes = EXCLUDED.notes,
			    updated_at = EXCLUDED.updated_at
			WHERE procedure_progress.status = $8
		`
	} else {
		query = `
			UPDATE procedure_progress
			SET status = $3, started_at = $4, completed_at = $5, notes = $6, updated_at = $7
			WHERE user_id = $1 AND step_id = $2 AND status = $8
		`
	}

	result, err := r.pool.Exec(ctx, query,
		p.UserID,
		p.StepID,
		string(p.Status),
		p.StartedAt,
		p.CompletedAt,
		nullString(p.Notes),
		p.UpdatedAt,
		string(expected),
	)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func scanProgress(row pgx.Row) (*domain.Progress, error) {
	var p domain.Progress
	var status string
	var notes *string

	err := row.Scan(
		&p.UserID,
		&p.StepID,
		&p.FlowID,
		&status,
		&p.StartedAt,
		&p.CompletedAt,
		&notes,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan progress: %w", err)
	}

	p.Status = domain.ParseStepStatus(status)
	p.Notes = derefString(notes)
	return &p, nil
}
