package engine

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/domain"
)

func chainGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := BuildGraph(testFlowID, []domain.Step{
		step("A", 1),
		step("B", 2, "A"),
		step("C", 3, "B"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return g
}

func mustStep(t *testing.T, res *Resolution, name string) StepState {
	t.Helper()
	s, ok := res.Step(sid(name))
	if !ok {
		t.Fatalf("step %s not resolved", name)
	}
	return s
}

func TestResolve_NoProgress(t *testing.T) {
	res := Resolve(chainGraph(t), nil)

	a := mustStep(t, res, "A")
	if a.Status != domain.StepStatusNotStarted || !a.CanStart {
		t.Errorf("A: expected NOT_STARTED/canStart, got %s/%v", a.Status, a.CanStart)
	}

	for _, name := range []string{"B", "C"} {
		s := mustStep(t, res, name)
		if s.Status != domain.StepStatusBlocked || s.CanStart {
			t.Errorf("%s: expected BLOCKED/!canStart, got %s/%v", name, s.Status, s.CanStart)
		}
		if s.BaseStatus != domain.StepStatusNotStarted {
			t.Errorf("%s: base status must stay NOT_STARTED, got %s", name, s.BaseStatus)
		}
		if s.Progress != nil {
			t.Errorf("%s: no progress record expected", name)
		}
	}

	if got := mustStep(t, res, "B").WaitingFor; len(got) != 1 || got[0] != sid("A") {
		t.Errorf("B should wait for A, got %v", got)
	}
}

func TestResolve_CompletedDependencyUnblocks(t *testing.T) {
	g := chainGraph(t)
	before := Resolve(g, nil)
	after := Resolve(g, snapshotOf(progressOf("A", domain.StepStatusCompleted)))

	if s := mustStep(t, after, "A"); s.Status != domain.StepStatusCompleted || s.CanStart {
		t.Errorf("A: expected COMPLETED/!canStart, got %s/%v", s.Status, s.CanStart)
	}
	if s := mustStep(t, after, "B"); s.Status != domain.StepStatusNotStarted || !s.CanStart {
		t.Errorf("B: expected NOT_STARTED/canStart, got %s/%v", s.Status, s.CanStart)
	}
	if s := mustStep(t, after, "C"); s.Status != domain.StepStatusBlocked {
		t.Errorf("C: expected BLOCKED, got %s", s.Status)
	}

	unblocked := NewlyStartable(before, after)
	if len(unblocked) != 1 || unblocked[0] != sid("B") {
		t.Errorf("expected B newly startable, got %v", unblocked)
	}
}

func TestResolve_InProgressDependencyStillBlocks(t *testing.T) {
	res := Resolve(chainGraph(t), snapshotOf(progressOf("A", domain.StepStatusInProgress)))

	if s := mustStep(t, res, "A"); s.Status != domain.StepStatusInProgress || s.CanStart {
		t.Errorf("A: expected IN_PROGRESS/!canStart, got %s/%v", s.Status, s.CanStart)
	}
	if s := mustStep(t, res, "B"); s.Status != domain.StepStatusBlocked {
		t.Errorf("B: expected BLOCKED, got %s", s.Status)
	}
}

func TestResolve_SkippedDependencyBlocks(t *testing.T) {
	// Зависимость должна быть именно COMPLETED
	res := Resolve(chainGraph(t), snapshotOf(progressOf("A", domain.StepStatusSkipped)))

	if s := mustStep(t, res, "A"); s.Status != domain.StepStatusSkipped {
		t.Errorf("A: expected SKIPPED, got %s", s.Status)
	}
	if s := mustStep(t, res, "B"); s.Status != domain.StepStatusBlocked || s.CanStart {
		t.Errorf("B: expected BLOCKED, got %s/%v", s.Status, s.CanStart)
	}
}

func TestResolve_ExplicitNotStartedRecord(t *testing.T) {
	res := Resolve(chainGraph(t), snapshotOf(progressOf("A", domain.StepStatusNotStarted)))

	a := mustStep(t, res, "A")
	if a.Progress == nil {
		t.Fatal("explicit record should be attached")
	}
	if a.Status != domain.StepStatusNotStarted || !a.CanStart {
		t.Errorf("A: expected NOT_STARTED/canStart, got %s/%v", a.Status, a.CanStart)
	}
}

func TestResolve_StoredBlockedNormalised(t *testing.T) {
	res := Resolve(chainGraph(t), snapshotOf(progressOf("A", domain.StepStatusBlocked)))

	a := mustStep(t, res, "A")
	if a.BaseStatus != domain.StepStatusNotStarted || !a.CanStart {
		t.Errorf("stored BLOCKED must be treated as NOT_STARTED, got %s/%v", a.BaseStatus, a.CanStart)
	}
}

func TestResolve_IgnoresForeignProgress(t *testing.T) {
	stray := domain.Progress{StepID: uuid.New(), Status: domain.StepStatusCompleted}
	res := Resolve(chainGraph(t), snapshotOf(stray))

	if len(res.Steps) != 3 {
		t.Errorf("expected 3 steps, got %d", len(res.Steps))
	}
}

func TestResolve_DisplayOrder(t *testing.T) {
	g, err := BuildGraph(testFlowID, []domain.Step{
		step("late", 10),
		step("early", 1, "late"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := Resolve(g, nil)
	if res.Steps[0].Step.Name != "early" || res.Steps[1].Step.Name != "late" {
		t.Errorf("steps should follow step_order, got %s, %s", res.Steps[0].Step.Name, res.Steps[1].Step.Name)
	}
	if res.Steps[0].Status != domain.StepStatusBlocked {
		t.Error("early depends on late and must be blocked")
	}
}

func TestResolve_EveryStepGetsOneStatus(t *testing.T) {
	// Глубокий слоистый граф: каждый шаг зависит от двух предыдущих
	var steps []domain.Step
	for i := 0; i < 200; i++ {
		name := stepName(i)
		var deps []string
		if i > 0 {
			deps = append(deps, stepName(i-1))
		}
		if i > 1 {
			deps = append(deps, stepName(i-2))
		}
		steps = append(steps, step(name, i, deps...))
	}

	g, err := BuildGraph(testFlowID, steps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot := snapshotOf(
		progressOf(stepName(0), domain.StepStatusCompleted),
		progressOf(stepName(1), domain.StepStatusCompleted),
	)
	res := Resolve(g, snapshot)

	if len(res.Steps) != 200 {
		t.Fatalf("expected 200 resolved steps, got %d", len(res.Steps))
	}
	startable := res.Startable()
	if len(startable) != 1 || startable[0] != sid(stepName(2)) {
		t.Errorf("only step 2 should be startable, got %v", startable)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	g := chainGraph(t)
	snapshot := snapshotOf(
		progressOf("A", domain.StepStatusCompleted),
		progressOf("B", domain.StepStatusInProgress),
	)

	first := Resolve(g, snapshot)
	second := Resolve(g, snapshot)

	if diff := cmp.Diff(first.Steps, second.Steps); diff != "" {
		t.Errorf("resolution is not idempotent (-first +second):\n%s", diff)
	}
}

func TestPreview(t *testing.T) {
	res := Preview(chainGraph(t))

	for _, s := range res.Steps {
		if s.Status != domain.StepStatusNotStarted || s.CanStart {
			t.Errorf("%s: preview must be NOT_STARTED without canStart", s.Step.Name)
		}
	}
	stats := Aggregate(res)
	if stats.NotStartedSteps != 3 || stats.CompletionRate != 0 {
		t.Errorf("unexpected preview stats: %+v", stats)
	}
}

// Сценарий из описания движка: A, B(A), C(B).
func TestScenario_CompleteFirstStep(t *testing.T) {
	g := chainGraph(t)

	stats := Aggregate(Resolve(g, nil))
	if stats.CompletionRate != 0 {
		t.Errorf("expected 0%%, got %v", stats.CompletionRate)
	}

	res := Resolve(g, snapshotOf(progressOf("A", domain.StepStatusCompleted)))
	stats = Aggregate(res)

	if math.Abs(stats.CompletionRate-100.0/3) > 1e-9 {
		t.Errorf("expected 33.33%%, got %v", stats.CompletionRate)
	}
	if stats.RoundedCompletionRate() != 33.33 {
		t.Errorf("expected rounded 33.33, got %v", stats.RoundedCompletionRate())
	}
}

func stepName(i int) string {
	return fmt.Sprintf("step-%03d", i)
}
