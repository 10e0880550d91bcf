// Package ingest implements the dependency-aware concurrent ingestion
// pipeline: twelve tasks, each streaming one gzipped SQL dump through a
// parser and upserting its rows, ordered only by their declared
// completion edges.
package ingest

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/flibusta-go/libupdater/internal/ingest/entities"
)

// RunReport aggregates one pipeline run's outcome across all twelve tasks.
type RunReport struct {
	RunID   string
	Started time.Time
	Ended   time.Time
	Tasks   []TaskResult
	Success bool
}

// runner is the common interface every generic *Task[Row] satisfies,
// letting the orchestrator hold them in one slice despite each closing
// over a distinct Row type.
type runner interface {
	Run(ctx context.Context, pool *pgxpool.Pool) TaskResult
}

// Orchestrator declares the twelve-task dependency graph, launches them
// concurrently, joins, and aggregates a [RunReport].
type Orchestrator struct {
	pool       *pgxpool.Pool
	downloader *Downloader
	sourceID   int64
}

// NewOrchestrator constructs an orchestrator. sourceID identifies the
// dump's source row in the target schema ((source, remote_id)
// upsert key).
func NewOrchestrator(pool *pgxpool.Pool, downloader *Downloader, sourceID int64) *Orchestrator {
	return &Orchestrator{pool: pool, downloader: downloader, sourceID: sourceID}
}

// Run executes one full pipeline pass and returns its [RunReport]. It never
// returns an error itself — failure is reported through RunReport.Success
// and each task's own TaskResult: join everything, then decide.
func (o *Orchestrator) Run(ctx context.Context, runID string) RunReport {
	report := RunReport{RunID: runID, Started: time.Now()}

	gAuthor := NewGate()
	gBook := NewGate()
	gSequence := NewGate()
	gGenre := NewGate()
	gBookAnnotation := NewGate()
	gAuthorAnnotation := NewGate()

	tasks := []runner{
		NewTask[entities.AuthorRow](entities.Author{}, o.downloader, o.sourceID, gAuthor),
		NewTask[entities.BookRow](entities.Book{}, o.downloader, o.sourceID, gBook),
		NewTask[entities.SequenceRow](entities.Sequence{}, o.downloader, o.sourceID, gSequence),
		NewTask[entities.GenreRow](entities.Genre{}, o.downloader, o.sourceID, gGenre),

		NewTask[entities.BookAuthorRow](entities.BookAuthor{}, o.downloader, o.sourceID, NewGate(), gAuthor, gBook),
		NewTask[entities.TranslatorRow](entities.Translator{}, o.downloader, o.sourceID, NewGate(), gAuthor, gBook),
		NewTask[entities.SequenceInfoRow](entities.SequenceInfo{}, o.downloader, o.sourceID, NewGate(), gBook, gSequence),

		NewTask[entities.BookAnnotationRow](entities.BookAnnotation{}, o.downloader, o.sourceID, gBookAnnotation, gBook),
		NewTask[entities.BookAnnotationPicRow](entities.BookAnnotationPic{}, o.downloader, o.sourceID, NewGate(), gBookAnnotation),

		NewTask[entities.AuthorAnnotationRow](entities.AuthorAnnotation{}, o.downloader, o.sourceID, gAuthorAnnotation, gAuthor),
		NewTask[entities.AuthorAnnotationPicRow](entities.AuthorAnnotationPic{}, o.downloader, o.sourceID, NewGate(), gAuthorAnnotation),

		NewTask[entities.BookGenreRow](entities.BookGenre{}, o.downloader, o.sourceID, NewGate(), gGenre, gBook),
	}

	results := make([]TaskResult, len(tasks))
	var g errgroup.Group
	for i, t := range tasks {
		g.Go(func() error {
			results[i] = t.Run(ctx, o.pool)
			return nil
		})
	}
	_ = g.Wait() // each task reports failure through its own TaskResult, never an error here

	report.Ended = time.Now()
	report.Tasks = results
	report.Success = true
	for _, r := range results {
		if r.Status != StatusSuccess {
			report.Success = false
			break
		}
	}
	return report
}
