package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Procedura/internal/catalog"
	"github.com/shaiso/Procedura/internal/domain"
	"github.com/shaiso/Procedura/internal/engine"
	"github.com/shaiso/Procedura/internal/procedure"
	"github.com/shaiso/Procedura/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	okFlow       = uuid.MustParse("6f1c2a40-0d4b-4c43-9a57-0e2b6a9b1a01")
	cyclicFlow   = uuid.MustParse("6f1c2a40-0d4b-4c43-9a57-0e2b6a9b1a02")
	danglingFlow = uuid.MustParse("6f1c2a40-0d4b-4c43-9a57-0e2b6a9b1a03")
	inactiveFlow = uuid.MustParse("6f1c2a40-0d4b-4c43-9a57-0e2b6a9b1a04")
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(t *testing.T) *procedure.Service {
	t.Helper()

	a, b := uuid.New(), uuid.New()
	c := catalog.NewMemCatalog()
	require.NoError(t, c.Add(
		domain.Flow{ID: okFlow, Name: "Admission", IsActive: true},
		[]domain.Step{
			{ID: a, Name: "A", StepOrder: 1},
			{ID: b, Name: "B", StepOrder: 2, DependsOn: []uuid.UUID{a}},
		},
	))

	x, y := uuid.New(), uuid.New()
	require.NoError(t, c.Add(
		domain.Flow{ID: cyclicFlow, Name: "Cyclic", IsActive: true},
		[]domain.Step{
			{ID: x, Name: "X", DependsOn: []uuid.UUID{y}},
			{ID: y, Name: "Y", DependsOn: []uuid.UUID{x}},
		},
	))
	require.NoError(t, c.Add(
		domain.Flow{ID: danglingFlow, Name: "Dangling", IsActive: true},
		[]domain.Step{{ID: uuid.New(), Name: "Z", DependsOn: []uuid.UUID{uuid.New()}}},
	))
	// Неактивная процедура не проверяется, даже если сломана
	w := uuid.New()
	require.NoError(t, c.Add(
		domain.Flow{ID: inactiveFlow, Name: "Archived", IsActive: false},
		[]domain.Step{{ID: w, Name: "W", DependsOn: []uuid.UUID{w}}},
	))

	return procedure.New(procedure.Config{Catalog: c, Store: progress.NewMemStore(), Logger: discard()})
}

func TestTick(t *testing.T) {
	a, err := New(Config{Flows: newService(t), Logger: discard()})
	require.NoError(t, err)
	assert.Nil(t, a.LastReport())

	report, err := a.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Checked)
	assert.Zero(t, report.Failed)
	require.Len(t, report.Misconfigured, 2)

	byFlow := map[uuid.UUID]Finding{}
	for _, f := range report.Misconfigured {
		byFlow[f.FlowID] = f
	}
	assert.ErrorIs(t, byFlow[cyclicFlow].Err, engine.ErrCyclicDependency)
	assert.ErrorIs(t, byFlow[danglingFlow].Err, engine.ErrMissingDependency)
	assert.NotContains(t, byFlow, okFlow)

	assert.Same(t, report, a.LastReport())
}

type brokenValidator struct {
	flows   []domain.Flow
	listErr error
}

func (v brokenValidator) ListFlows(context.Context, domain.FlowFilter) ([]domain.Flow, error) {
	return v.flows, v.listErr
}

func (v brokenValidator) ValidateFlow(_ context.Context, id uuid.UUID) (*procedure.Validation, error) {
	if id == okFlow {
		return nil, procedure.ErrNotFound
	}
	return nil, errors.New("connection refused")
}

func TestTick_ValidationFailuresDoNotStopAudit(t *testing.T) {
	a, err := New(Config{
		Flows:  brokenValidator{flows: []domain.Flow{{ID: okFlow}, {ID: cyclicFlow}, {ID: danglingFlow}}},
		Logger: discard(),
	})
	require.NoError(t, err)

	report, err := a.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Checked)
	assert.Equal(t, 2, report.Failed, "deleted flow is not a failure")
}

func TestTick_ListError(t *testing.T) {
	a, err := New(Config{Flows: brokenValidator{listErr: errors.New("down")}, Logger: discard()})
	require.NoError(t, err)

	_, err = a.Tick(context.Background())
	assert.ErrorContains(t, err, "list active flows")
	assert.Nil(t, a.LastReport())
}

func TestNew_Schedule(t *testing.T) {
	_, err := New(Config{Schedule: "every day"})
	assert.Error(t, err)

	a, err := New(Config{Schedule: "*/10 * * * *"})
	require.NoError(t, err)
	from := time.Date(2026, 9, 1, 10, 3, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 1, 10, 10, 0, 0, time.UTC), a.Next(from))

	a, err = New(Config{})
	require.NoError(t, err)
	assert.Equal(t, from.Add(15*time.Minute), a.Next(from))
}

func TestRun_StopsOnCancel(t *testing.T) {
	a, err := New(Config{Flows: newService(t), Schedule: "@every 1h", Logger: discard()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return a.LastReport() != nil }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
