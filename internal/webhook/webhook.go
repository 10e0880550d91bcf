// Package webhook fans a completed pipeline run out to the operator-configured
// notification endpoints. It is glue: only cmd/updater imports it, never
// internal/ingest, so the orchestrator's [ingest.RunReport] stays the only
// contract the pipeline owes its caller.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/flibusta-go/libupdater/internal/ingest"
	"github.com/flibusta-go/libupdater/internal/platform/config"
)

// Payload is the JSON body posted to every configured webhook.
type Payload struct {
	RunID   string    `json:"run_id"`
	Started time.Time `json:"started"`
	Ended   time.Time `json:"ended"`
	Success bool      `json:"success"`
	Tasks   []Task    `json:"tasks"`
}

// Task summarizes one ingest task's outcome for the notification payload.
type Task struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Rows     int    `json:"rows"`
	Warnings int    `json:"warnings"`
}

// FromReport converts an [ingest.RunReport] into its wire payload.
func FromReport(report ingest.RunReport) Payload {
	tasks := make([]Task, len(report.Tasks))
	for i, t := range report.Tasks {
		tasks[i] = Task{
			Name:     t.Name,
			Status:   string(t.Status),
			Rows:     t.Rows,
			Warnings: t.Warnings,
		}
	}
	return Payload{
		RunID:   report.RunID,
		Started: report.Started,
		Ended:   report.Ended,
		Success: report.Success,
		Tasks:   tasks,
	}
}

// Notifier posts a run's payload to every configured webhook, concurrently,
// logging (never failing the caller on) a per-endpoint error.
type Notifier struct {
	hooks  config.Webhooks
	client *http.Client
	log    *slog.Logger
}

// New constructs a Notifier over cfg's configured webhooks.
func New(hooks config.Webhooks, log *slog.Logger) *Notifier {
	return &Notifier{
		hooks:  hooks,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// Notify posts payload to every configured webhook. A delivery failure is
// logged, not returned — a notification outage must never make an otherwise
// successful ingest run look like a failure.
func (n *Notifier) Notify(ctx context.Context, payload Payload) {
	if len(n.hooks) == 0 {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.log.Error("webhook_payload_marshal_failed", slog.Any("error", err))
		return
	}

	done := make(chan struct{}, len(n.hooks))
	for _, hook := range n.hooks {
		go func(hook config.Webhook) {
			defer func() { done <- struct{}{} }()
			n.deliver(ctx, hook, body)
		}(hook)
	}
	for range n.hooks {
		<-done
	}
}

func (n *Notifier) deliver(ctx context.Context, hook config.Webhook, body []byte) {
	method := hook.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, hook.URL, bytes.NewReader(body))
	if err != nil {
		n.log.Error("webhook_request_build_failed", slog.String("url", hook.URL), slog.Any("error", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hook.Headers {
		req.Header.Set(k, v)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.Error("webhook_delivery_failed", slog.String("url", hook.URL), slog.Any("error", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.log.Error("webhook_delivery_rejected",
			slog.String("url", hook.URL),
			slog.Int("status", resp.StatusCode),
		)
		return
	}

	n.log.Info("webhook_delivered", slog.String("url", hook.URL), slog.Int("status", resp.StatusCode))
}
