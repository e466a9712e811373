package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hairizuanbinnoorazman/checkout-crawler/logger"
	"github.com/hairizuanbinnoorazman/checkout-crawler/run"
	"github.com/hairizuanbinnoorazman/checkout-crawler/storage"
	"github.com/hairizuanbinnoorazman/checkout-crawler/telemetry"
	"github.com/hairizuanbinnoorazman/checkout-crawler/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type apiFixture struct {
	router    *mux.Router
	telemetry *telemetry.Aggregator
	runs      *run.SQLStore
}

func newAPIFixture(t *testing.T, withRuns bool) *apiFixture {
	t.Helper()
	log := logger.NewTestLogger()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	aggregator := telemetry.NewAggregator(store, "data", log)

	f := &apiFixture{telemetry: aggregator}
	var runStore run.Store
	if withRuns {
		db := testutil.SetupTestDB(t)
		testutil.AutoMigrate(t, db, &run.Run{})
		f.runs = run.NewSQLStore(db, log)
		runStore = f.runs
	}
	f.router = NewRouter(aggregator, store, "data", runStore, log)
	return f
}

func (f *apiFixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	f := newAPIFixture(t, false)
	w := f.get(t, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestLedgerHandler_Performance(t *testing.T) {
	f := newAPIFixture(t, false)
	ctx := context.Background()

	result := "order form submitted"
	require.NoError(t, f.telemetry.RecordPerformance(ctx, "tienda.example", "cashier", telemetry.Performance{
		Status:      telemetry.StatusSuccess,
		StepsTaken:  12,
		FinalResult: &result,
	}))
	require.NoError(t, f.telemetry.RecordPerformance(ctx, "winkel.example", "navigator", telemetry.Performance{
		Status: telemetry.StatusFailure,
	}))

	tests := []struct {
		name       string
		target     string
		wantStatus int
		check      func(t *testing.T, body []byte)
	}{
		{
			name:       "whole document",
			target:     "/api/v1/performance",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				assert.True(t, gjson.GetBytes(body, telemetry.KeyPath("tienda.example", "cashier")).Exists())
				assert.True(t, gjson.GetBytes(body, telemetry.KeyPath("winkel.example", "navigator")).Exists())
			},
		},
		{
			name:       "one website",
			target:     "/api/v1/performance/tienda.example",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				assert.Equal(t, int64(12), gjson.GetBytes(body, "cashier.steps_taken").Int())
			},
		},
		{
			name:       "one role",
			target:     "/api/v1/performance/tienda.example/cashier",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				assert.Equal(t, "order form submitted", gjson.GetBytes(body, "final_result").String())
			},
		},
		{
			name:       "unknown website",
			target:     "/api/v1/performance/boutique.example",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown role",
			target:     "/api/v1/performance/tienda.example/navigator",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.get(t, tt.target)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			if tt.check != nil {
				tt.check(t, w.Body.Bytes())
			}
		})
	}
}

func TestLedgerHandler_EmptyLedger(t *testing.T) {
	f := newAPIFixture(t, false)

	w := f.get(t, "/api/v1/model-outputs")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())
}

func TestLedgerHandler_ModelOutputs(t *testing.T) {
	f := newAPIFixture(t, false)
	ctx := context.Background()

	steps := []telemetry.StepOutput{{
		CurrentState: telemetry.CurrentState{NextGoal: "accept cookies"},
		Action:       []json.RawMessage{json.RawMessage(`{"click_element":{"index":4}}`)},
	}}
	actions := []telemetry.RawAction{{"click_element": json.RawMessage(`{"index":4}`)}}
	require.NoError(t, f.telemetry.RecordModelOutput(ctx, "tienda.example", "navigator", steps, actions))

	w := f.get(t, "/api/v1/model-outputs/tienda.example/navigator")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "accept cookies", gjson.Get(w.Body.String(), "0.current_state.next_goal").String())
	assert.Equal(t, int64(4), gjson.Get(w.Body.String(), "0.actions.0.click_element.index").Int())
}

func TestLedgerHandler_Screenshot(t *testing.T) {
	f := newAPIFixture(t, false)
	png := []byte("\x89PNG\r\n\x1a\nfake")
	require.NoError(t, f.telemetry.SaveScreenshot(context.Background(), "tienda.example", "shopper", png))

	w := f.get(t, "/api/v1/screenshots/tienda.example/shopper")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.Equal(png, w.Body.Bytes()))

	w = f.get(t, "/api/v1/screenshots/tienda.example/cashier")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunHandler(t *testing.T) {
	f := newAPIFixture(t, true)
	ctx := context.Background()

	batch := uuid.New()
	var ids []uuid.UUID
	for _, website := range []string{"tienda.example", "winkel.example", "laden.example"} {
		r := &run.Run{BatchID: batch, Website: website, Language: "spanish", Variant: "generic"}
		require.NoError(t, f.runs.Create(ctx, r))
		ids = append(ids, r.ID)
	}
	require.NoError(t, f.runs.Complete(ctx, ids[0], run.Result{Status: run.StatusSuccess, CompletedRoles: []string{"navigator", "shopper", "cashier"}}))
	require.NoError(t, f.runs.Complete(ctx, ids[1], run.Result{Status: run.StatusAborted, FailedRole: "shopper"}))

	t.Run("list all", func(t *testing.T) {
		w := f.get(t, "/api/v1/runs")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(3), gjson.Get(w.Body.String(), "total").Int())
		assert.Equal(t, int64(20), gjson.Get(w.Body.String(), "limit").Int())
	})

	t.Run("filter by status", func(t *testing.T) {
		w := f.get(t, "/api/v1/runs?status=aborted&batch_id="+batch.String())
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Equal(t, int64(1), gjson.Get(body, "total").Int())
		assert.Equal(t, "winkel.example", gjson.Get(body, "items.0.website").String())
		assert.Equal(t, "shopper", gjson.Get(body, "items.0.failed_role").String())
	})

	t.Run("pagination", func(t *testing.T) {
		w := f.get(t, "/api/v1/runs?limit=2&offset=2")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(1), gjson.Get(w.Body.String(), "items.#").Int())
		assert.Equal(t, int64(3), gjson.Get(w.Body.String(), "total").Int())
	})

	t.Run("bad requests", func(t *testing.T) {
		for _, target := range []string{
			"/api/v1/runs?status=finished",
			"/api/v1/runs?batch_id=nope",
			"/api/v1/runs?limit=-1",
			"/api/v1/runs?offset=x",
			"/api/v1/runs/not-a-uuid",
		} {
			w := f.get(t, target)
			assert.Equal(t, http.StatusBadRequest, w.Code, target)
		}
	})

	t.Run("get by id", func(t *testing.T) {
		w := f.get(t, "/api/v1/runs/"+ids[0].String())
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "success", gjson.Get(w.Body.String(), "status").String())
		assert.Equal(t, "cashier", gjson.Get(w.Body.String(), "completed_roles.2").String())
	})

	t.Run("unknown id", func(t *testing.T) {
		w := f.get(t, "/api/v1/runs/"+uuid.New().String())
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestNewRouter_WithoutHistory(t *testing.T) {
	f := newAPIFixture(t, false)
	w := f.get(t, "/api/v1/runs")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
