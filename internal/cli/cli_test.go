package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Procedura/internal/api"
	"github.com/shaiso/Procedura/internal/catalog"
	"github.com/shaiso/Procedura/internal/procedure"
	"github.com/shaiso/Procedura/internal/progress"
)

const (
	catalogFile = "testdata/catalog.json"
	university  = "9a3e7b10-52f1-4d8e-8c1a-3b5f0c7d2e11"
	admission   = "6f1c2a40-0d4b-4c43-9a57-0e2b6a9b1a01"
	transfer    = "6f1c2a40-0d4b-4c43-9a57-0e2b6a9b1a02"
	submitStep  = "a0000000-0000-4000-8000-000000000001"
	payStep     = "a0000000-0000-4000-8000-000000000002"
	user        = "c0000000-0000-4000-8000-000000000001"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	c, err := catalog.LoadFile(catalogFile)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := procedure.New(procedure.Config{Catalog: c, Store: progress.NewMemStore(), Logger: logger})

	mux := http.NewServeMux()
	api.NewHandler(api.Config{Service: svc, Logger: logger}).RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// run выполняет команду CLI и возвращает stdout.
func run(t *testing.T, baseURL string, jsonMode bool, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	clientFn := func() *Client { return NewClient(baseURL) }
	outputFn := func() *Output { return NewOutputTo(jsonMode, &stdout, &stderr) }

	root := &cobra.Command{Use: "procedura", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(
		NewFlowCmd(clientFn, outputFn),
		NewStepCmd(clientFn, outputFn),
		NewProgressCmd(clientFn, outputFn),
	)
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.Execute()
	return stdout.String(), err
}

func TestValidateFile(t *testing.T) {
	results, err := ValidateFile(catalogFile)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Valid)
	assert.Equal(t, 2, results[0].Steps)
	assert.Equal(t, []string{submitStep, payStep}, results[0].Order)

	assert.False(t, results[1].Valid)
	require.NotNil(t, results[1].Error)
	assert.Equal(t, transfer, results[1].Error.FlowID)
	assert.NotEmpty(t, results[1].Error.Cycle)
}

func TestValidateFile_Missing(t *testing.T) {
	_, err := ValidateFile("testdata/missing.json")
	assert.Error(t, err)
}

func TestFlowValidate_File(t *testing.T) {
	out, err := run(t, "http://unused", false, "flow", "validate", catalogFile)
	assert.EqualError(t, err, "1 of 2 flows misconfigured")
	assert.Contains(t, out, admission)
	assert.Contains(t, out, transfer)
}

func TestFlowValidate_Remote(t *testing.T) {
	srv := newServer(t)

	out, err := run(t, srv.URL, true, "flow", "validate", admission)
	require.NoError(t, err)

	var results []ValidationResponse
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.True(t, results[0].Valid)
}

func TestFlowList(t *testing.T) {
	srv := newServer(t)

	out, err := run(t, srv.URL, true, "flow", "list", "--type", "admission")
	require.NoError(t, err)

	var flows []FlowResponse
	require.NoError(t, json.Unmarshal([]byte(out), &flows))
	require.Len(t, flows, 1)
	assert.Equal(t, "Admission 2026", flows[0].Name)
}

func TestStepLifecycle(t *testing.T) {
	srv := newServer(t)

	out, err := run(t, srv.URL, false, "step", "start", submitStep, "--user", user, "--notes", "sent by mail")
	require.NoError(t, err)
	assert.Contains(t, out, "IN_PROGRESS")

	out, err = run(t, srv.URL, true, "step", "complete", submitStep, "--user", user)
	require.NoError(t, err)
	var result TransitionResponse
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "COMPLETED", result.Step.Status)
	assert.Equal(t, []string{payStep}, result.Unblocked)
	assert.Equal(t, 50.0, result.Stats.CompletionRate)

	out, err = run(t, srv.URL, true, "flow", "show", admission, "--university", university, "--user", user)
	require.NoError(t, err)
	var detail FlowDetailResponse
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	require.Len(t, detail.Steps, 2)
	require.NotNil(t, detail.Steps[1].CanStart)
	assert.True(t, *detail.Steps[1].CanStart)

	out, err = run(t, srv.URL, true, "progress", "list", user)
	require.NoError(t, err)
	var records []ProgressResponse
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "sent by mail", records[0].Notes)
}

func TestStepStart_Blocked(t *testing.T) {
	srv := newServer(t)

	_, err := run(t, srv.URL, false, "step", "start", payStep, "--user", user)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "NOT_STARTABLE", apiErr.Code)
}

func TestStepStart_RequiresUser(t *testing.T) {
	_, err := run(t, "http://unused", false, "step", "start", submitStep)
	assert.ErrorContains(t, err, "user")
}
