package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flibusta-go/libupdater/internal/platform/apperr"
)

// Entity is the capability a dump file's row mapper/upserter must provide.
// Row is the entity's own decoded row shape — e.g. an Author struct with
// RemoteID/FirstName/LastName — kept generic so each entity file owns its
// exact column layout without casting through `any`.
type Entity[Row any] interface {
	// Name is the dump's base file name, e.g. "lib.libavtorname.sql" for
	// sql/lib.libavtorname.sql.gz; it is also the local file it is saved to.
	Name() string

	// Before runs once per task invocation, ahead of any row, typically to
	// (re)create the entity's idempotent-upsert stored procedure.
	Before(ctx context.Context, pool *pgxpool.Pool) error

	// BuildRow decodes one INSERT row's positional literals into Row. A
	// returned error is a [apperr.CodeMapperMismatch] and fails the task —
	// the dump's column layout no longer matches what this mapper expects.
	BuildRow(literals []Literal) (Row, error)

	// Apply upserts one decoded row, keyed by (source, remote_id).
	// Relation entities silently skip (return nil) when a parent foreign
	// key reference is absent, rather than failing.
	Apply(ctx context.Context, pool *pgxpool.Pool, sourceID int64, row Row) error

	// After runs once per task invocation, once every row has been applied.
	After(ctx context.Context, pool *pgxpool.Pool) error
}

// Status is a task's terminal outcome, reported in a [RunReport].
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// TaskResult is what one [Task] run contributes to the pipeline's report.
type TaskResult struct {
	Name     string
	Status   Status
	Rows     int
	Warnings int // non-fatal per-line parse failures
	Duration time.Duration
	Err      error
}

// Task wires one [Entity] into the pipeline's wait/download/before/upsert/
// after/publish lifecycle.
type Task[Row any] struct {
	entity     Entity[Row]
	downloader *Downloader
	deps       []*Gate
	gate       *Gate
	sourceID   int64
}

// NewTask constructs a task for entity, gated on deps, publishing its own
// terminal outcome to gate so dependents can observe it.
func NewTask[Row any](entity Entity[Row], downloader *Downloader, sourceID int64, gate *Gate, deps ...*Gate) *Task[Row] {
	return &Task[Row]{
		entity:     entity,
		downloader: downloader,
		deps:       deps,
		gate:       gate,
		sourceID:   sourceID,
	}
}

// Gate returns the task's own publication gate, for wiring as a dependency
// of other tasks.
func (t *Task[Row]) Gate() *Gate { return t.gate }

// Run executes the task's full lifecycle against pool, publishing its
// terminal status to its gate exactly once before returning.
//
// A failed dependency never short-circuits this task: it still downloads,
// runs Before, walks every row, and runs After. Failure propagates
// downstream only as a `failed` gate transition; the task body always runs,
// and a dependent relation entity's own defensive upsert (see BookAuthor,
// Translator, SequenceInfo, BookGenre) no-ops when the resolved parent row
// turns out to be absent.
func (t *Task[Row]) Run(ctx context.Context, pool *pgxpool.Pool) TaskResult {
	start := time.Now()
	name := t.entity.Name()

	// Block until every dependency has resolved, one way or the other, so
	// this task's upserts see a stable parent-table state. The resolution
	// itself is irrelevant here — only that it happened.
	AwaitAll(t.deps)

	result, err := t.run(ctx, pool)
	result.Name = name
	result.Duration = time.Since(start)

	// The gate always reflects the task's own outcome. Setting it to
	// success on failure would let a broken upstream task silently unblock
	// its dependents, masking the failure instead of propagating it.
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		t.gate.Set(false)
	} else {
		result.Status = StatusSuccess
		t.gate.Set(true)
	}

	return result
}

func (t *Task[Row]) run(ctx context.Context, pool *pgxpool.Pool) (TaskResult, error) {
	name := t.entity.Name()

	if _, err := t.downloader.Download(ctx, name); err != nil {
		return TaskResult{}, err
	}

	reader, err := OpenLineReader(name)
	if err != nil {
		return TaskResult{}, apperr.DiskError("open "+name, err)
	}
	defer reader.Close()

	if err := t.entity.Before(ctx, pool); err != nil {
		return TaskResult{}, err
	}

	var applied, warnings int
	for reader.Next() {
		rows, ok, malformed := ExtractRows(reader.Text())
		if !ok {
			if malformed {
				// Looked like an INSERT but a cell didn't fold into a
				// Literal: real corruption in row-shaped data, non-fatal.
				warnings++
			}
			// Otherwise this line was never an INSERT at all — ordinary
			// dump noise (CREATE TABLE, LOCK TABLES, a blank line) — and
			// doesn't count as anything.
			continue
		}

		for _, literals := range rows {
			row, err := t.entity.BuildRow(literals)
			if err != nil {
				// A mapper mismatch means the dump's column layout no
				// longer matches what this entity expects: fatal to the
				// task, not a per-line warning.
				return TaskResult{Warnings: warnings}, err
			}

			if err := t.entity.Apply(ctx, pool, t.sourceID, row); err != nil {
				return TaskResult{Warnings: warnings}, fmt.Errorf("%s: %w", name, err)
			}
			applied++
		}
	}
	if err := reader.Err(); err != nil {
		return TaskResult{Rows: applied, Warnings: warnings}, apperr.DiskError("read "+name, err)
	}

	if err := t.entity.After(ctx, pool); err != nil {
		return TaskResult{Rows: applied, Warnings: warnings}, err
	}

	return TaskResult{Rows: applied, Warnings: warnings}, nil
}
