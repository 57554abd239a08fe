package engine

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/domain"
)

func TestBuildGraph_SimpleChain(t *testing.T) {
	g, err := BuildGraph(testFlowID, []domain.Step{
		step("A", 1),
		step("B", 2, "A"),
		step("C", 3, "B"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Size() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.Size())
	}

	// Проверяем корневые узлы
	if len(g.RootNodes) != 1 || g.RootNodes[0].ID != sid("A") {
		t.Fatalf("expected single root A, got %v", g.RootNodes)
	}

	nodeB := g.GetNode(sid("B"))
	if len(nodeB.DependsOn) != 1 || nodeB.DependsOn[0].ID != sid("A") {
		t.Error("node B should depend on A")
	}
	nodeA := g.GetNode(sid("A"))
	if len(nodeA.Dependents) != 1 || nodeA.Dependents[0].ID != sid("B") {
		t.Error("node A should have B as dependent")
	}

	order := g.StepIDs()
	want := []uuid.UUID{sid("A"), sid("B"), sid("C")}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("unexpected order at %d: %v", i, order)
		}
	}
}

func TestBuildGraph_Diamond(t *testing.T) {
	// A → B → D
	// A → C → D
	g, err := BuildGraph(testFlowID, []domain.Step{
		step("D", 4, "B", "C"),
		step("C", 3, "A"),
		step("B", 2, "A"),
		step("A", 1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.GetNode(sid("A")).InDegree != 0 {
		t.Error("A should have inDegree 0")
	}
	if g.GetNode(sid("D")).InDegree != 2 {
		t.Error("D should have inDegree 2")
	}

	// Порядок отображения не зависит от порядка входа
	steps := g.Steps()
	for i, name := range []string{"A", "B", "C", "D"} {
		if steps[i].ID != sid(name) {
			t.Errorf("display position %d: expected %s", i, name)
		}
	}
}

func TestBuildGraph_StepOrderIsNotDependency(t *testing.T) {
	// B отображается первым, но зависит от A
	g, err := BuildGraph(testFlowID, []domain.Step{
		step("B", 1, "A"),
		step("A", 2),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Steps()[0].ID != sid("B") {
		t.Error("B should be displayed first")
	}
	if g.Order[0].ID != sid("A") {
		t.Error("A must come first in topological order")
	}
}

func TestBuildGraph_DuplicateDependencyCountedOnce(t *testing.T) {
	s := step("B", 2, "A")
	s.DependsOn = append(s.DependsOn, sid("A"))

	g, err := BuildGraph(testFlowID, []domain.Step{step("A", 1), s})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.GetNode(sid("B")).InDegree != 1 {
		t.Errorf("expected inDegree 1, got %d", g.GetNode(sid("B")).InDegree)
	}
}

func TestBuildGraph_Empty(t *testing.T) {
	g, err := BuildGraph(testFlowID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Size() != 0 || len(g.Order) != 0 {
		t.Error("empty flow should produce empty graph")
	}
}

func TestBuildGraph_CyclicDependency(t *testing.T) {
	_, err := BuildGraph(testFlowID, []domain.Step{
		step("A", 1, "B"),
		step("B", 2, "A"),
	})
	if !errors.Is(err, ErrCyclicDependency) {
		t.Fatalf("expected ErrCyclicDependency, got %v", err)
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Error("cycle must be a configuration error")
	}

	cfgErr := AsConfigurationError(err)
	if cfgErr == nil {
		t.Fatal("expected *ConfigurationError")
	}
	if len(cfgErr.Cycle) != 3 || cfgErr.Cycle[0] != cfgErr.Cycle[2] {
		t.Fatalf("expected closed cycle path, got %v", cfgErr.Cycle)
	}
	involved := map[uuid.UUID]bool{cfgErr.Cycle[0]: true, cfgErr.Cycle[1]: true}
	if !involved[sid("A")] || !involved[sid("B")] {
		t.Errorf("cycle should name A and B, got %v", cfgErr.Cycle)
	}
}

func TestBuildGraph_TransitiveCycle(t *testing.T) {
	// X → (A → B → C → A); X сам в цикл не входит
	_, err := BuildGraph(testFlowID, []domain.Step{
		step("X", 0),
		step("A", 1, "X", "C"),
		step("B", 2, "A"),
		step("C", 3, "B"),
		step("D", 4, "C"),
	})
	cfgErr := AsConfigurationError(err)
	if cfgErr == nil || !errors.Is(err, ErrCyclicDependency) {
		t.Fatalf("expected cycle error, got %v", err)
	}

	if len(cfgErr.Cycle) != 4 {
		t.Fatalf("expected A, B, C in cycle, got %v", cfgErr.Cycle)
	}
	for _, id := range cfgErr.Cycle {
		if id == sid("X") || id == sid("D") {
			t.Errorf("step outside cycle reported: %v", id)
		}
	}
}

func TestBuildGraph_SelfDependency(t *testing.T) {
	_, err := BuildGraph(testFlowID, []domain.Step{step("A", 1, "A")})
	if !errors.Is(err, ErrSelfDependency) {
		t.Fatalf("expected ErrSelfDependency, got %v", err)
	}
}

func TestBuildGraph_MissingDependency(t *testing.T) {
	_, err := BuildGraph(testFlowID, []domain.Step{
		step("A", 1),
		step("B", 2, "ghost"),
	})
	if !errors.Is(err, ErrMissingDependency) {
		t.Fatalf("expected ErrMissingDependency, got %v", err)
	}

	cfgErr := AsConfigurationError(err)
	if cfgErr.StepID != sid("B") || cfgErr.Field != "depends_on_step_ids" {
		t.Errorf("unexpected error context: %+v", cfgErr)
	}
}

func TestBuildGraph_ForeignStep(t *testing.T) {
	other := step("B", 2)
	other.FlowID = uuid.New()

	_, err := BuildGraph(testFlowID, []domain.Step{step("A", 1), other})
	if !errors.Is(err, ErrForeignStep) {
		t.Fatalf("expected ErrForeignStep, got %v", err)
	}
}

func TestBuildGraph_DuplicateStepID(t *testing.T) {
	_, err := BuildGraph(testFlowID, []domain.Step{step("A", 1), step("A", 2)})
	if !errors.Is(err, ErrDuplicateStepID) {
		t.Fatalf("expected ErrDuplicateStepID, got %v", err)
	}
}

func TestBuildGraph_EmptyStepID(t *testing.T) {
	s := step("A", 1)
	s.ID = uuid.Nil

	_, err := BuildGraph(testFlowID, []domain.Step{s})
	if !errors.Is(err, ErrEmptyStepID) {
		t.Fatalf("expected ErrEmptyStepID, got %v", err)
	}
}

func TestIsConfigurationError(t *testing.T) {
	if !IsConfigurationError(NewConfigurationError(testFlowID, uuid.Nil, "", "x", ErrMissingDependency)) {
		t.Error("ConfigurationError should be recognised")
	}
	if !IsConfigurationError(domain.ErrMalformedStepIDs) {
		t.Error("malformed id list is a configuration error")
	}
	if IsConfigurationError(errors.New("boom")) {
		t.Error("arbitrary error is not a configuration error")
	}
}
