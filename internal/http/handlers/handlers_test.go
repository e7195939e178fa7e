package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"levelforge/internal/dispatch"
	"levelforge/internal/domain"
	"levelforge/internal/generator"
	"levelforge/internal/guard"
	"levelforge/internal/orchestrator"
	"levelforge/internal/statuscache"
)

func newTestApp(t *testing.T) (*App, *statuscache.Cache) {
	t.Helper()

	cache := statuscache.New(statuscache.Config{})
	gen := generator.NewStatic()
	orch := orchestrator.New(orchestrator.Config{
		PoolSize: 2,
		Limits:   orchestrator.Limits{MaxTotalLevels: 100, MaxValuesPerVariation: 10, MaxVariations: 6},
	}, cache, gen, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	orch.Start(ctx)

	app := NewApp(
		guard.New(1000, 64*1024, 10, nil),
		dispatch.New(dispatch.Thresholds{Tiles: 10000, Entities: 500, Parameters: 12}),
		orch,
		cache,
		gen,
		zerolog.Nop(),
		"en",
	)
	return app, cache
}

func testRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/generate", app.Generate)
	r.Post("/v1/batch", app.StartBatch)
	r.Post("/v1/batch/validate", app.ValidateBatch)
	r.Delete("/v1/batch/{id}", app.CancelBatch)
	r.Get("/v1/jobs/{id}", app.JobStatus)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var payload map[string]any
	if rr.Body.Len() > 0 {
		if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return rr, payload
}

func waitForJobState(t *testing.T, cache *statuscache.Cache, id string, want domain.JobState) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if job, ok := cache.Get(id); ok && job.State == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := cache.Get(id)
	t.Fatalf("job %s never reached %s, last seen %+v", id, want, job)
}

func TestGenerateSyncPath(t *testing.T) {
	app, _ := newTestApp(t)
	h := testRouter(app)

	rr, payload := doJSON(t, h, http.MethodPost, "/v1/generate",
		`{"width":20,"height":20,"seed":7,"algorithm":"cave"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %v", rr.Code, payload)
	}
	tiles, ok := payload["tiles"].([]any)
	if !ok || len(tiles) != 20 {
		t.Fatalf("expected 20 tile rows inline, got %T len %d", payload["tiles"], len(tiles))
	}
}

func TestGenerateAsyncPath(t *testing.T) {
	app, cache := newTestApp(t)
	h := testRouter(app)

	rr, payload := doJSON(t, h, http.MethodPost, "/v1/generate",
		`{"width":100,"height":100,"seed":7,"algorithm":"cave"}`)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %v", rr.Code, payload)
	}
	id, _ := payload["job_id"].(string)
	if id == "" {
		t.Fatalf("missing job_id in %v", payload)
	}
	waitForJobState(t, cache, id, domain.JobStateCompleted)
}

func TestGenerateRejectsUnsafeContent(t *testing.T) {
	app, _ := newTestApp(t)
	h := testRouter(app)

	rr, payload := doJSON(t, h, http.MethodPost, "/v1/generate",
		`{"width":20,"height":20,"algorithm":"<script>alert(1)</script>"}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if payload["code"] != "UNSAFE_CONTENT" {
		t.Fatalf("code = %v, want UNSAFE_CONTENT", payload["code"])
	}
}

func TestGenerateRejectsOversizedBody(t *testing.T) {
	app, _ := newTestApp(t)
	h := testRouter(app)

	body := `{"width":20,"height":20,"parameters":{"pad":"` + strings.Repeat("x", 70*1024) + `"}}`
	rr, payload := doJSON(t, h, http.MethodPost, "/v1/generate", body)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rr.Code)
	}
	if payload["code"] != "TOO_LARGE" {
		t.Fatalf("code = %v, want TOO_LARGE", payload["code"])
	}
}

func TestGenerateRejectsDeepJSON(t *testing.T) {
	app, _ := newTestApp(t)
	h := testRouter(app)

	body := strings.Repeat(`{"a":`, 15) + "1" + strings.Repeat("}", 15)
	rr, payload := doJSON(t, h, http.MethodPost, "/v1/generate", body)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if payload["code"] != "TOO_DEEP" {
		t.Fatalf("code = %v, want TOO_DEEP", payload["code"])
	}
}

func TestGenerateRejectsBadFileName(t *testing.T) {
	app, _ := newTestApp(t)
	h := testRouter(app)

	rr, _ := doJSON(t, h, http.MethodPost, "/v1/generate",
		`{"width":20,"height":20,"name":"CON.txt"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for reserved device name", rr.Code)
	}
}

func TestBatchLifecycleOverHTTP(t *testing.T) {
	app, cache := newTestApp(t)
	h := testRouter(app)

	rr, payload := doJSON(t, h, http.MethodPost, "/v1/batch", `{
		"session_id": "editor-1",
		"base_config": {"width": 8, "height": 8, "algorithm": "rooms"},
		"variations": [
			{"name": "seed", "values": [1, 2, 3]},
			{"name": "density", "values": [0.1, 0.2]}
		]
	}`)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %v", rr.Code, payload)
	}
	if payload["total_levels"] != float64(6) {
		t.Fatalf("total_levels = %v, want 6", payload["total_levels"])
	}
	id := payload["job_id"].(string)
	waitForJobState(t, cache, id, domain.JobStateCompleted)

	rr, payload = doJSON(t, h, http.MethodGet, "/v1/jobs/"+id, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("job status = %d, want 200", rr.Code)
	}
	if payload["state"] != "completed" || payload["progress"] != float64(100) {
		t.Fatalf("unexpected job payload: %v", payload)
	}

	// Cancelling a completed job is an invalid state transition.
	rr, payload = doJSON(t, h, http.MethodDelete, "/v1/batch/"+id, "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("cancel completed = %d, want 409: %v", rr.Code, payload)
	}
	if payload["code"] != "INVALID_STATE" {
		t.Fatalf("code = %v, want INVALID_STATE", payload["code"])
	}
}

func TestBatchValidationFailureOverHTTP(t *testing.T) {
	app, cache := newTestApp(t)
	h := testRouter(app)

	values := make([]string, 10)
	for i := range values {
		values[i] = fmt.Sprint(i)
	}
	big := strings.Join(values, ",")
	body := fmt.Sprintf(`{
		"base_config": {"width": 8, "height": 8},
		"variations": [
			{"name": "a", "values": [%s]},
			{"name": "b", "values": [%s]},
			{"name": "c", "values": [%s]}
		]
	}`, big, big, big)

	rr, payload := doJSON(t, h, http.MethodPost, "/v1/batch", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %v", rr.Code, payload)
	}
	errs, _ := payload["errors"].([]any)
	if len(errs) == 0 {
		t.Fatal("validation failure must list errors")
	}
	if cache.Len() != 0 {
		t.Fatal("rejected batch must not register a job")
	}
}

func TestValidateBatchIsPure(t *testing.T) {
	app, cache := newTestApp(t)
	h := testRouter(app)

	rr, payload := doJSON(t, h, http.MethodPost, "/v1/batch/validate", `{
		"base_config": {"width": 8, "height": 8},
		"variations": [{"name": "seed", "values": [1, 2, 3]}]
	}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if payload["is_valid"] != true || payload["total_levels"] != float64(3) {
		t.Fatalf("unexpected validation payload: %v", payload)
	}
	combos, _ := payload["variation_combinations"].([]any)
	if len(combos) != 3 {
		t.Fatalf("variation_combinations = %d, want 3", len(combos))
	}
	if cache.Len() != 0 {
		t.Fatal("validate endpoint must not register jobs")
	}
}

func TestCancelUnknownJobOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)
	h := testRouter(app)

	rr, payload := doJSON(t, h, http.MethodDelete, "/v1/batch/does-not-exist", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if payload["code"] != "NOT_FOUND" {
		t.Fatalf("code = %v, want NOT_FOUND", payload["code"])
	}
}

func TestJobStatusUnknown(t *testing.T) {
	app, _ := newTestApp(t)
	h := testRouter(app)

	rr, _ := doJSON(t, h, http.MethodGet, "/v1/jobs/missing", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestJobStatusLocalizedNotFound(t *testing.T) {
	app, _ := newTestApp(t)
	h := testRouter(app)

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/missing", nil)
	req.Header.Set("Accept-Language", "id-ID")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["error"] != "job tidak ditemukan" {
		t.Fatalf("unexpected localized error: %v", payload["error"])
	}
}
