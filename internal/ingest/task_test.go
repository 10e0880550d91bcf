package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flibusta-go/libupdater/internal/platform/apperr"
)

// fakeEntity is a minimal Entity[int64] double: BuildRow decodes a single
// integer cell, Apply just records it. It never touches the pool it's
// handed, so tests can pass a nil *pgxpool.Pool through Task.Run.
// mismatchOn, if non-zero, makes BuildRow return a CodeMapperMismatch error
// for that one value.
type fakeEntity struct {
	mismatchOn int64
	applyErr   error
	applied    []int64
}

func (f *fakeEntity) Name() string { return "lib.test.sql" }

func (f *fakeEntity) Before(context.Context, *pgxpool.Pool) error { return nil }

func (f *fakeEntity) BuildRow(cells []Literal) (int64, error) {
	id, ok := cells[0].Integer()
	if !ok {
		return 0, apperr.MapperMismatch("fakeEntity", "id", cells[0])
	}
	if f.mismatchOn != 0 && id == f.mismatchOn {
		return 0, apperr.MapperMismatch("fakeEntity", "id", cells[0])
	}
	return id, nil
}

func (f *fakeEntity) Apply(ctx context.Context, pool *pgxpool.Pool, sourceID int64, row int64) error {
	f.applied = append(f.applied, row)
	return f.applyErr
}

func (f *fakeEntity) After(context.Context, *pgxpool.Pool) error { return nil }

// serveDump spins up an httptest.Server that serves body gzipped at
// /sql/{name}.gz, and chdirs the test into a scratch directory so the
// downloader's local file write lands somewhere disposable.
func serveDump(t *testing.T, body string) *Downloader {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(gzipBody(t, body))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	return NewDownloader(srv.URL, nil)
}

func TestTask_Run_IgnoresFailedDependency(t *testing.T) {
	downloader := serveDump(t, "INSERT INTO t VALUES (1);\nINSERT INTO t VALUES (2);\n")

	depGate := NewGate()
	depGate.Set(false) // dependency already failed before this task runs

	entity := &fakeEntity{}
	gate := NewGate()
	task := NewTask[int64](entity, downloader, 7, gate, depGate)

	result := task.Run(context.Background(), nil)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 2, result.Rows)
	assert.ElementsMatch(t, []int64{1, 2}, entity.applied)

	resolved, success := gate.Poll()
	assert.True(t, resolved)
	assert.True(t, success, "this task's own outcome succeeded, independent of its failed dependency")
}

func TestTask_Run_MapperMismatchFailsTask(t *testing.T) {
	downloader := serveDump(t, "INSERT INTO t VALUES (1);\nINSERT INTO t VALUES (99);\nINSERT INTO t VALUES (2);\n")

	entity := &fakeEntity{mismatchOn: 99}
	gate := NewGate()
	task := NewTask[int64](entity, downloader, 7, gate)

	result := task.Run(context.Background(), nil)

	require.Error(t, result.Err)
	assert.Equal(t, StatusFailed, result.Status)
	assert.True(t, apperr.Is(result.Err, apperr.CodeMapperMismatch))
	// The task stops at the first mismatch; the row after it never applies.
	assert.Equal(t, []int64{1}, entity.applied)

	resolved, success := gate.Poll()
	assert.True(t, resolved)
	assert.False(t, success)
}

func TestTask_Run_MalformedLineIsWarningNotFatal(t *testing.T) {
	downloader := serveDump(t, "INSERT INTO t VALUES (1);\nINSERT INTO t VALUES (NOW());\nCREATE TABLE noise (id int);\nINSERT INTO t VALUES (2);\n")

	entity := &fakeEntity{}
	gate := NewGate()
	task := NewTask[int64](entity, downloader, 7, gate)

	result := task.Run(context.Background(), nil)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 1, result.Warnings, "only the malformed INSERT counts, not the CREATE TABLE noise")
	assert.Equal(t, 2, result.Rows)
	assert.ElementsMatch(t, []int64{1, 2}, entity.applied)
}
