package trigger_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flibusta-go/libupdater/internal/ingest"
	"github.com/flibusta-go/libupdater/internal/lock"
	"github.com/flibusta-go/libupdater/internal/trigger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRunner struct {
	started chan struct{}
	release chan struct{}
	report  ingest.RunReport
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{started: make(chan struct{}), release: make(chan struct{})}
}

func (f *fakeRunner) Run(ctx context.Context, runID string) ingest.RunReport {
	close(f.started)
	<-f.release
	return ingest.RunReport{RunID: runID, Success: true}
}

func doUpdate(h *trigger.Handler, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/update", nil)
	if apiKey != "" {
		req.Header.Set("Authorization", apiKey)
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestHandler_Update_MissingAPIKey(t *testing.T) {
	h := trigger.NewHandler("correct-key", lock.NewInProcess(), newFakeRunner(), nil, discardLogger())
	rec := doUpdate(h, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No api-key!", rec.Body.String())
}

func TestHandler_Update_WrongAPIKey(t *testing.T) {
	h := trigger.NewHandler("correct-key", lock.NewInProcess(), newFakeRunner(), nil, discardLogger())
	rec := doUpdate(h, "wrong-key")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Wrong api-key!", rec.Body.String())
}

func TestHandler_Update_StartsRunAndReportsAfter(t *testing.T) {
	runner := newFakeRunner()

	var mu sync.Mutex
	var gotReport *ingest.RunReport
	done := make(chan struct{})
	after := func(report ingest.RunReport) {
		mu.Lock()
		gotReport = &report
		mu.Unlock()
		close(done)
	}

	h := trigger.NewHandler("correct-key", lock.NewInProcess(), runner, after, discardLogger())

	rec := doUpdate(h, "correct-key")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Update started", rec.Body.String())

	<-runner.started
	close(runner.release)
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, gotReport)
	assert.True(t, gotReport.Success)
}

func TestHandler_Update_RejectsConcurrentTrigger(t *testing.T) {
	runner := newFakeRunner()
	h := trigger.NewHandler("correct-key", lock.NewInProcess(), runner, nil, discardLogger())

	first := doUpdate(h, "correct-key")
	assert.Equal(t, http.StatusOK, first.Code)
	<-runner.started

	second := doUpdate(h, "correct-key")
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Equal(t, "ALREADY_RUNNING", second.Body.String())

	close(runner.release)
}

func TestHandler_TriggerAsync_GuardRejection(t *testing.T) {
	guard := lock.NewInProcess()
	release, err := guard.TryAcquire(context.Background())
	require.NoError(t, err)
	defer release()

	h := trigger.NewHandler("key", guard, newFakeRunner(), nil, discardLogger())
	assert.False(t, h.TriggerAsync())
}
