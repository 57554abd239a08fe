package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseStepIDs(t *testing.T) {
	a := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	b := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	ids, err := ParseStepIDs(a.String() + ", " + b.String() + ";" + a.String() + ",,")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	if ids[0] != a || ids[1] != b {
		t.Errorf("unexpected order: %v", ids)
	}
}

func TestParseStepIDs_Empty(t *testing.T) {
	for _, raw := range []string{"", "  ", ",", " ; "} {
		ids, err := ParseStepIDs(raw)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", raw, err)
		}
		if len(ids) != 0 {
			t.Errorf("%q: expected no ids, got %v", raw, ids)
		}
	}
}

func TestParseStepIDs_Malformed(t *testing.T) {
	_, err := ParseStepIDs("11111111-1111-1111-1111-111111111111,step-2")
	if !errors.Is(err, ErrMalformedStepIDs) {
		t.Fatalf("expected ErrMalformedStepIDs, got %v", err)
	}
}

func TestFormatStepIDs_RoundTrip(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	parsed, err := ParseStepIDs(FormatStepIDs(ids))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed) != 2 || parsed[0] != ids[0] || parsed[1] != ids[1] {
		t.Errorf("round trip mismatch: %v != %v", parsed, ids)
	}
	if FormatStepIDs(nil) != "" {
		t.Error("empty list should format as empty string")
	}
}

func TestParseStepStatus(t *testing.T) {
	cases := map[string]StepStatus{
		"IN_PROGRESS": StepStatusInProgress,
		"COMPLETED":   StepStatusCompleted,
		"SKIPPED":     StepStatusSkipped,
		"NOT_STARTED": StepStatusNotStarted,
		"BLOCKED":     StepStatusNotStarted,
		"garbage":     StepStatusNotStarted,
	}
	for raw, want := range cases {
		if got := ParseStepStatus(raw); got != want {
			t.Errorf("ParseStepStatus(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestStepStatus_Predicates(t *testing.T) {
	if StepStatusBlocked.IsPersistable() {
		t.Error("BLOCKED must not be persistable")
	}
	if !StepStatusSkipped.IsPersistable() {
		t.Error("SKIPPED should be persistable")
	}
	if !StepStatusCompleted.IsTerminal() || !StepStatusSkipped.IsTerminal() {
		t.Error("COMPLETED and SKIPPED are terminal")
	}
	if StepStatusInProgress.IsTerminal() {
		t.Error("IN_PROGRESS is not terminal")
	}
}

func TestProgress_Marks(t *testing.T) {
	p := &Progress{Status: StepStatusNotStarted}
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	p.MarkStarted(start)
	if p.Status != StepStatusInProgress || p.StartedAt == nil || !p.StartedAt.Equal(start) {
		t.Fatalf("unexpected progress after start: %+v", p)
	}
	if p.Duration() != 0 {
		t.Error("duration should be 0 before completion")
	}

	p.MarkCompleted(start.Add(2 * time.Hour))
	if p.Status != StepStatusCompleted || p.CompletedAt == nil {
		t.Fatalf("unexpected progress after complete: %+v", p)
	}
	if p.Duration() != 2*time.Hour {
		t.Errorf("expected 2h, got %s", p.Duration())
	}
}

func TestStep_AllowsRole(t *testing.T) {
	open := &Step{}
	if !open.AllowsRole("parent") {
		t.Error("step without role should allow any role")
	}

	restricted := &Step{RequiredRole: "student"}
	if restricted.AllowsRole("parent") {
		t.Error("parent must not act on a student step")
	}
	if !restricted.AllowsRole("student") {
		t.Error("student should act on a student step")
	}
}

func TestFlowFilter_Matches(t *testing.T) {
	uni := uuid.New()
	active := true
	flow := &Flow{UniversityID: uni, FlowType: FlowTypeAdmission, IsActive: true}

	if !(FlowFilter{}).Matches(flow) {
		t.Error("empty filter should match")
	}
	if !(FlowFilter{UniversityID: &uni, FlowType: FlowTypeAdmission, IsActive: &active}).Matches(flow) {
		t.Error("full filter should match")
	}
	other := uuid.New()
	if (FlowFilter{UniversityID: &other}).Matches(flow) {
		t.Error("other university should not match")
	}
	if (FlowFilter{FlowType: FlowTypeGraduation}).Matches(flow) {
		t.Error("other flow type should not match")
	}
}
