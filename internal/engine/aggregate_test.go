package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shaiso/Procedura/internal/domain"
)

func TestAggregate_EmptyFlow(t *testing.T) {
	g, err := BuildGraph(testFlowID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := Aggregate(Resolve(g, nil))
	if stats.TotalSteps != 0 || stats.CompletionRate != 0 {
		t.Errorf("empty flow should have zero stats, got %+v", stats)
	}
	if stats.IsComplete {
		t.Error("empty flow is not complete")
	}
}

func TestAggregate_Buckets(t *testing.T) {
	g, err := BuildGraph(testFlowID, []domain.Step{
		step("A", 1),
		step("B", 2),
		step("C", 3, "A"),
		step("D", 4),
		step("E", 5, "B"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := Resolve(g, snapshotOf(
		progressOf("A", domain.StepStatusCompleted),
		progressOf("B", domain.StepStatusInProgress),
		progressOf("D", domain.StepStatusSkipped),
	))

	want := Stats{
		TotalSteps:             5,
		CompletedSteps:         1,
		InProgressSteps:        1,
		NotStartedSteps:        2, // C (доступен) и E (BLOCKED)
		BlockedSteps:           1,
		SkippedSteps:           1,
		CompletionRate:         20,
		RequiredSteps:          5,
		RequiredCompletedSteps: 1,
		IsComplete:             false,
	}
	if diff := cmp.Diff(want, Aggregate(res)); diff != "" {
		t.Errorf("unexpected stats (-want +got):\n%s", diff)
	}
}

func TestAggregate_CompletionRateFormula(t *testing.T) {
	g := chainGraph(t)
	res := Resolve(g, snapshotOf(
		progressOf("A", domain.StepStatusCompleted),
		progressOf("B", domain.StepStatusCompleted),
	))

	stats := Aggregate(res)
	want := float64(stats.CompletedSteps) / float64(stats.TotalSteps) * 100
	if stats.CompletionRate != want {
		t.Errorf("expected %v, got %v", want, stats.CompletionRate)
	}
}

func TestAggregate_RequiredCompletion(t *testing.T) {
	optional := step("B", 2)
	optional.IsRequired = false

	g, err := BuildGraph(testFlowID, []domain.Step{step("A", 1), optional, step("C", 3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := Aggregate(Resolve(g, snapshotOf(
		progressOf("A", domain.StepStatusCompleted),
		progressOf("C", domain.StepStatusSkipped),
	)))

	if stats.RequiredSteps != 2 || stats.RequiredCompletedSteps != 1 {
		t.Errorf("unexpected required counters: %+v", stats)
	}
	if !stats.IsComplete {
		t.Error("all required steps are completed or skipped")
	}
}

func TestAggregate_NoRequiredSteps(t *testing.T) {
	a := step("A", 1)
	a.IsRequired = false
	g, err := BuildGraph(testFlowID, []domain.Step{a})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if Aggregate(Resolve(g, nil)).IsComplete {
		t.Error("open optional step keeps flow incomplete")
	}
	if !Aggregate(Resolve(g, snapshotOf(progressOf("A", domain.StepStatusCompleted)))).IsComplete {
		t.Error("flow with all steps completed is complete")
	}
}
