package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/domain"
)

// MemCatalog — Source в памяти процесса.
type MemCatalog struct {
	mu     sync.RWMutex
	flows  map[uuid.UUID]domain.Flow
	steps  map[uuid.UUID]domain.Step
	byFlow map[uuid.UUID][]uuid.UUID
}

var _ Source = (*MemCatalog)(nil)

// NewMemCatalog создаёт пустой каталог.
func NewMemCatalog() *MemCatalog {
	return &MemCatalog{
		flows:  make(map[uuid.UUID]domain.Flow),
		steps:  make(map[uuid.UUID]domain.Step),
		byFlow: make(map[uuid.UUID][]uuid.UUID),
	}
}

// Add добавляет процедуру вместе с шагами, заменяя прежнюю версию.
// Шаги без FlowID привязываются к flow.
func (c *MemCatalog) Add(flow domain.Flow, steps []domain.Step) error {
	if flow.ID == uuid.Nil {
		return fmt.Errorf("flow %q: empty id", flow.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range c.byFlow[flow.ID] {
		delete(c.steps, id)
	}

	ids := make([]uuid.UUID, 0, len(steps))
	for _, s := range steps {
		if s.FlowID == uuid.Nil {
			s.FlowID = flow.ID
		}
		c.steps[s.ID] = s
		ids = append(ids, s.ID)
	}
	c.flows[flow.ID] = flow
	c.byFlow[flow.ID] = ids
	return nil
}

// GetFlow возвращает процедуру по ID.
func (c *MemCatalog) GetFlow(ctx context.Context, id uuid.UUID) (*domain.Flow, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	flow, ok := c.flows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &flow, nil
}

// ListFlows возвращает процедуры по фильтру, отсортированные по имени.
func (c *MemCatalog) ListFlows(ctx context.Context, filter domain.FlowFilter) ([]domain.Flow, error) {
	c.mu.RLock()
	var flows []domain.Flow
	for _, flow := range c.flows {
		if filter.Matches(&flow) {
			flows = append(flows, flow)
		}
	}
	c.mu.RUnlock()

	slices.SortFunc(flows, func(a, b domain.Flow) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID.String(), b.ID.String()))
	})
	return flows, nil
}

// GetStep возвращает шаг по ID.
func (c *MemCatalog) GetStep(ctx context.Context, id uuid.UUID) (*domain.Step, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	step, ok := c.steps[id]
	if !ok {
		return nil, ErrNotFound
	}
	step.DependsOn = slices.Clone(step.DependsOn)
	return &step, nil
}

// ListSteps возвращает шаги процедуры в порядке добавления.
// Для неизвестной процедуры возвращается пустой список.
func (c *MemCatalog) ListSteps(ctx context.Context, flowID uuid.UUID) ([]domain.Step, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := c.byFlow[flowID]
	steps := make([]domain.Step, 0, len(ids))
	for _, id := range ids {
		s := c.steps[id]
		s.DependsOn = slices.Clone(s.DependsOn)
		steps = append(steps, s)
	}
	return steps, nil
}
