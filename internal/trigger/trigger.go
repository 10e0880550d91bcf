// Package trigger exposes the HTTP entry point that kicks off a pipeline
// run: POST /update, authorized by a static API key.
package trigger

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flibusta-go/libupdater/internal/ingest"
	"github.com/flibusta-go/libupdater/internal/lock"
	"github.com/flibusta-go/libupdater/pkg/uuidv7"
)

// Runner launches one full pipeline pass. Satisfied by [*ingest.Orchestrator].
type Runner interface {
	Run(ctx context.Context, runID string) ingest.RunReport
}

// AfterRun is invoked once a triggered run finishes, with its report.
type AfterRun func(report ingest.RunReport)

// Handler serves POST /update: it authorizes the caller, takes the
// single-run guard, and launches the pipeline in the background so the HTTP
// response doesn't block on a multi-hour ingest.
type Handler struct {
	apiKey string
	guard  lock.Guard
	runner Runner
	after  AfterRun
	log    *slog.Logger
}

// NewHandler constructs the trigger handler. after, if non-nil, runs once the
// launched pipeline completes (e.g. to fan out webhooks).
func NewHandler(apiKey string, guard lock.Guard, runner Runner, after AfterRun, log *slog.Logger) *Handler {
	return &Handler{apiKey: apiKey, guard: guard, runner: runner, after: after, log: log}
}

// Routes mounts the trigger's single endpoint.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/update", h.update)
	return r
}

// update handles POST /update.
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Authorization")
	if key == "" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("No api-key!"))
		return
	}
	if key != h.apiKey {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Wrong api-key!"))
		return
	}

	if !h.TriggerAsync() {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("ALREADY_RUNNING"))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Update started"))
}

// TriggerAsync takes the single-run guard and, if acquired, launches one
// pipeline pass detached from the caller. It reports whether the guard was
// acquired — false means a run is already in flight and nothing was
// launched. Shared by the HTTP handler and the daily cron wake-up so both
// entry points go through the same at-most-one-run guarantee.
func (h *Handler) TriggerAsync() bool {
	release, err := h.guard.TryAcquire(context.Background())
	if err != nil {
		return false
	}

	runID := uuidv7.New()
	go h.runDetached(runID, release)
	return true
}

// runDetached executes one pipeline pass outside the request's lifetime,
// always releasing the guard and, if configured, reporting the outcome.
func (h *Handler) runDetached(runID string, release func()) {
	defer release()

	ctx := context.Background()
	h.log.Info("pipeline_run_started", slog.String("run_id", runID))

	report := h.runner.Run(ctx, runID)

	h.log.Info("pipeline_run_finished",
		slog.String("run_id", runID),
		slog.Bool("success", report.Success),
	)

	if h.after != nil {
		h.after(report)
	}
}
