package engine

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/domain"
)

// Node — узел графа шагов.
type Node struct {
	// Step — определение шага.
	Step *domain.Step

	// ID — идентификатор шага.
	ID uuid.UUID

	// InDegree — количество зависимостей (входящих рёбер).
	InDegree int

	// DependsOn — шаги, которые должны быть завершены до этого шага.
	DependsOn []*Node

	// Dependents — шаги, которые ждут этот шаг.
	Dependents []*Node

	// position — индекс в порядке отображения.
	position int
}

// Graph — граф зависимостей шагов одной процедуры.
//
// Граф неизменяем после BuildGraph: при изменении шагов строится заново.
type Graph struct {
	// FlowID — процедура, которой принадлежат шаги.
	FlowID uuid.UUID

	// Nodes — все узлы графа (stepID → Node).
	Nodes map[uuid.UUID]*Node

	// RootNodes — шаги без зависимостей, в порядке отображения.
	RootNodes []*Node

	// Order — топологический порядок; среди независимых шагов сохраняется
	// порядок отображения.
	Order []*Node

	// display — шаги в порядке отображения (StepOrder, Name, ID).
	display []*Node
}

// BuildGraph строит граф из шагов процедуры flowID.
//
// Проверяет:
// - Непустые и уникальные ID шагов
// - Принадлежность всех шагов процедуре flowID
// - Что все зависимости ссылаются на шаги этой же процедуры
// - Отсутствие зависимостей на себя и циклов
//
// Любое нарушение возвращается как *ConfigurationError.
func BuildGraph(flowID uuid.UUID, steps []domain.Step) (*Graph, error) {
	g := &Graph{
		FlowID: flowID,
		Nodes:  make(map[uuid.UUID]*Node, len(steps)),
	}

	// Первый проход: создаём все узлы
	for i := range steps {
		if err := g.addNode(&steps[i]); err != nil {
			return nil, err
		}
	}

	g.sortDisplay()

	// Второй проход: связываем узлы по зависимостям
	for _, node := range g.display {
		if err := g.linkDependencies(node); err != nil {
			return nil, err
		}
	}

	for _, node := range g.display {
		if node.InDegree == 0 {
			g.RootNodes = append(g.RootNodes, node)
		}
	}

	order, err := g.topologicalSort()
	if err != nil {
		return nil, err
	}
	g.Order = order

	return g, nil
}

// addNode добавляет узел в граф.
func (g *Graph) addNode(step *domain.Step) error {
	if step.ID == uuid.Nil {
		return NewConfigurationError(g.FlowID, uuid.Nil, "id",
			fmt.Sprintf("step %q has empty ID", step.Name), ErrEmptyStepID)
	}

	if step.FlowID != g.FlowID {
		return NewConfigurationError(g.FlowID, step.ID, "flow_id",
			fmt.Sprintf("step belongs to flow %s", step.FlowID), ErrForeignStep)
	}

	if _, exists := g.Nodes[step.ID]; exists {
		return NewConfigurationError(g.FlowID, step.ID, "id",
			"duplicate step ID", ErrDuplicateStepID)
	}

	g.Nodes[step.ID] = &Node{
		Step:       step,
		ID:         step.ID,
		DependsOn:  make([]*Node, 0, len(step.DependsOn)),
		Dependents: make([]*Node, 0),
	}
	return nil
}

// sortDisplay фиксирует порядок отображения: StepOrder, затем Name, затем ID.
func (g *Graph) sortDisplay() {
	g.display = make([]*Node, 0, len(g.Nodes))
	for _, node := range g.Nodes {
		g.display = append(g.display, node)
	}
	slices.SortFunc(g.display, func(a, b *Node) int {
		return cmp.Or(
			cmp.Compare(a.Step.StepOrder, b.Step.StepOrder),
			cmp.Compare(a.Step.Name, b.Step.Name),
			cmp.Compare(a.ID.String(), b.ID.String()),
		)
	})
	for i, node := range g.display {
		node.position = i
	}
}

// linkDependencies связывает узел с его зависимостями.
func (g *Graph) linkDependencies(node *Node) error {
	for _, depID := range node.Step.DependsOn {
		if depID == node.ID {
			return NewConfigurationError(g.FlowID, node.ID, "depends_on_step_ids",
				"step depends on itself", ErrSelfDependency)
		}

		depNode, exists := g.Nodes[depID]
		if !exists {
			// Шаг другой процедуры сюда тоже попадает: в графе только шаги этой процедуры
			return NewConfigurationError(g.FlowID, node.ID, "depends_on_step_ids",
				fmt.Sprintf("depends on step %s outside of flow", depID), ErrMissingDependency)
		}

		g.addEdge(depNode, node)
	}
	return nil
}

// addEdge добавляет ребро from → to, пропуская дубликаты.
func (g *Graph) addEdge(from, to *Node) {
	for _, dep := range to.DependsOn {
		if dep.ID == from.ID {
			return
		}
	}
	from.Dependents = append(from.Dependents, to)
	to.DependsOn = append(to.DependsOn, from)
	to.InDegree++
}

// topologicalSort выполняет топологическую сортировку (алгоритм Кана).
// Из готовых узлов всегда берётся первый в порядке отображения, поэтому
// результат детерминирован. При цикле возвращает *ConfigurationError
// с перечислением шагов цикла.
func (g *Graph) topologicalSort() ([]*Node, error) {
	inDegree := make(map[uuid.UUID]int, len(g.Nodes))
	for id, node := range g.Nodes {
		inDegree[id] = node.InDegree
	}

	ready := slices.Clone(g.RootNodes)
	order := make([]*Node, 0, len(g.Nodes))

	for len(ready) > 0 {
		// Извлекаем узел с минимальной позицией отображения
		next := 0
		for i := 1; i < len(ready); i++ {
			if ready[i].position < ready[next].position {
				next = i
			}
		}
		node := ready[next]
		ready = slices.Delete(ready, next, next+1)
		order = append(order, node)

		for _, dependent := range node.Dependents {
			inDegree[dependent.ID]--
			if inDegree[dependent.ID] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	// Если не все узлы обработаны — есть цикл
	if len(order) != len(g.Nodes) {
		return nil, newCycleError(g, g.findCycle(inDegree))
	}

	return order, nil
}

// findCycle находит один цикл среди узлов, не попавших в топологический порядок.
// Возвращает путь, где первый шаг повторён в конце: A → B → A.
func (g *Graph) findCycle(inDegree map[uuid.UUID]int) []uuid.UUID {
	const (
		white = iota
		grey
		black
	)
	color := make(map[uuid.UUID]int, len(g.Nodes))
	var stack []uuid.UUID

	var visit func(n *Node) []uuid.UUID
	visit = func(n *Node) []uuid.UUID {
		color[n.ID] = grey
		stack = append(stack, n.ID)
		for _, dep := range n.DependsOn {
			switch color[dep.ID] {
			case grey:
				start := slices.Index(stack, dep.ID)
				cycle := slices.Clone(stack[start:])
				return append(cycle, dep.ID)
			case white:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n.ID] = black
		return nil
	}

	for _, node := range g.display {
		if inDegree[node.ID] == 0 || color[node.ID] != white {
			continue
		}
		if cycle := visit(node); cycle != nil {
			// Разворачиваем: путь "зависит от" → путь выполнения
			slices.Reverse(cycle)
			return cycle
		}
	}
	return nil
}

// label возвращает читаемое имя шага для сообщений об ошибках.
func (g *Graph) label(id uuid.UUID) string {
	if node, ok := g.Nodes[id]; ok && node.Step.Name != "" {
		return fmt.Sprintf("%s(%s)", node.Step.Name, id)
	}
	return id.String()
}

// GetNode возвращает узел по ID.
func (g *Graph) GetNode(id uuid.UUID) *Node {
	return g.Nodes[id]
}

// Size возвращает количество шагов.
func (g *Graph) Size() int {
	return len(g.Nodes)
}

// Steps возвращает шаги в порядке отображения.
func (g *Graph) Steps() []*Node {
	return g.display
}

// StepIDs возвращает ID шагов в топологическом порядке.
func (g *Graph) StepIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(g.Order))
	for i, node := range g.Order {
		ids[i] = node.ID
	}
	return ids
}
