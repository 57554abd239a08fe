package progress

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/domain"
)

type key struct {
	userID uuid.UUID
	stepID uuid.UUID
}

// MemStore — Store в памяти процесса.
type MemStore struct {
	mu      sync.Mutex
	records map[key]domain.Progress
}

// NewMemStore создаёт пустой MemStore.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[key]domain.Progress)}
}

// Get возвращает копию записи.
func (s *MemStore) Get(ctx context.Context, userID, stepID uuid.UUID) (*domain.Progress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.records[key{userID, stepID}]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// ListForFlow возвращает записи пользователя по процедуре flowID.
func (s *MemStore) ListForFlow(ctx context.Context, userID, flowID uuid.UUID) (map[uuid.UUID]domain.Progress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[uuid.UUID]domain.Progress)
	for k, p := range s.records {
		if k.userID == userID && p.FlowID == flowID {
			out[k.stepID] = p
		}
	}
	return out, nil
}

// ListForUser возвращает записи пользователя, последние изменения первыми.
func (s *MemStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Progress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	var out []domain.Progress
	for k, p := range s.records {
		if k.userID == userID {
			out = append(out, p)
		}
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b domain.Progress) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.StepID[:], b.StepID[:])
	})
	return out, nil
}

// Upsert — compare-and-swap по статусу.
func (s *MemStore) Upsert(ctx context.Context, p *domain.Progress, expected domain.StepStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := CheckWritable(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{p.UserID, p.StepID}
	current, ok := s.records[k]
	switch {
	case !ok && expected != domain.StepStatusNotStarted:
		return ErrConflict
	case ok && current.Status != expected:
		return ErrConflict
	}

	s.records[k] = *p
	return nil
}

// Len возвращает число хранимых записей.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
