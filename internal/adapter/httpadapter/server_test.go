package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/couchcryptid/farm-yield-sim/internal/adapter/httpadapter"
	"github.com/couchcryptid/farm-yield-sim/internal/domain"
	"github.com/couchcryptid/farm-yield-sim/internal/simulation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockRunner struct {
	got domain.Layout
	err error
}

func (m *mockRunner) Run(_ context.Context, l domain.Layout) (domain.Run, error) {
	m.got = l
	if m.err != nil {
		return domain.Run{}, m.err
	}
	return domain.Run{ID: "run-42", Origin: l.Origin, Year: l.Year, Grid: domain.FarmGrid{Rows: l.Rows(), Cols: l.Cols()}}, nil
}

func newTestServer(readyErr error, runner httpadapter.Runner) *httpadapter.Server {
	if runner == nil {
		runner = &mockRunner{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, runner, logger)
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("climate model not loaded"), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSimulateReturnsRun(t *testing.T) {
	runner := &mockRunner{}
	srv := newTestServer(nil, runner)
	body := `{"origin": {"latitude": 35, "longitude": 139}, "year": 2024, "crops": [["rice", "leafy"]]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/simulate", strings.NewReader(body))

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, [][]domain.Crop{{domain.CropRice, domain.CropLeafy}}, runner.got.Crops)

	var run domain.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "run-42", run.ID)
	assert.Equal(t, 2024, run.Year)
	assert.Equal(t, 2, run.Grid.Cols)
}

func TestSimulateRejectsBadLayout(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"malformed", `{"crops": [["rice"`, "decode layout"},
		{"ragged", `{"crops": [["rice", "rice"], ["rice"]]}`, "row 1"},
		{"unknown crop", `{"crops": [["pumpkn"]]}`, "pumpkin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockRunner{}
			srv := newTestServer(nil, runner)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/simulate", strings.NewReader(tt.body))

			srv.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp["error"], tt.msg)
			assert.Nil(t, runner.got.Crops, "runner must not be called")
		})
	}
}

func TestSimulateMapsRunnerErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid layout", fmt.Errorf("%w: year 0 out of range", simulation.ErrInvalidLayout), http.StatusBadRequest},
		{"fault", errors.New("row 0 col 0: model crashed"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(nil, &mockRunner{err: tt.err})
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/simulate", strings.NewReader(`crops: [[rice]]`))

			srv.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.err.Error())
		})
	}
}

func TestSimulateRejectsOversizedBody(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	body := "crops: [[" + strings.Repeat("rice, ", 200_000) + "rice]]"
	req := httptest.NewRequest(http.MethodPost, "/simulate", strings.NewReader(body))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSimulateRequiresPost(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/simulate", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
