package webhook_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flibusta-go/libupdater/internal/ingest"
	"github.com/flibusta-go/libupdater/internal/platform/config"
	"github.com/flibusta-go/libupdater/internal/webhook"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFromReport(t *testing.T) {
	report := ingest.RunReport{
		RunID:   "01H000",
		Started: time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC),
		Ended:   time.Date(2026, 1, 1, 3, 5, 0, 0, time.UTC),
		Success: true,
		Tasks: []ingest.TaskResult{
			{Name: "authors", Status: ingest.StatusSuccess, Rows: 10, Warnings: 1},
			{Name: "sequences", Status: ingest.StatusFailed},
		},
	}

	payload := webhook.FromReport(report)
	assert.Equal(t, "01H000", payload.RunID)
	assert.True(t, payload.Success)
	require.Len(t, payload.Tasks, 2)
	assert.Equal(t, "authors", payload.Tasks[0].Name)
	assert.Equal(t, "success", payload.Tasks[0].Status)
	assert.Equal(t, 10, payload.Tasks[0].Rows)
	assert.Equal(t, "failed", payload.Tasks[1].Status)
}

func TestNotifier_Notify_DeliversToAllHooks(t *testing.T) {
	var received int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-Token"))

		var payload webhook.Payload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "run-1", payload.RunID)

		atomic.AddInt32(&received, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	hooks := config.Webhooks{
		{Method: "POST", URL: srv.URL, Headers: map[string]string{"X-Token": "secret"}},
		{URL: srv.URL, Headers: map[string]string{"X-Token": "secret"}},
	}

	n := webhook.New(hooks, discardLogger())
	n.Notify(context.Background(), webhook.Payload{RunID: "run-1"})

	assert.Equal(t, int32(2), atomic.LoadInt32(&received))
}

func TestNotifier_Notify_NoHooksIsNoop(t *testing.T) {
	n := webhook.New(nil, discardLogger())
	n.Notify(context.Background(), webhook.Payload{RunID: "run-1"})
}

func TestNotifier_Notify_EndpointFailureDoesNotPanic(t *testing.T) {
	n := webhook.New(config.Webhooks{{URL: "http://127.0.0.1:0/unreachable"}}, discardLogger())
	n.Notify(context.Background(), webhook.Payload{RunID: "run-1"})
}
