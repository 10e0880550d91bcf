// Package constants centralizes immutable values shared between the
// pipeline's layers: the upstream dump path, dependency-graph timing, and the
// dialect/date formats the dumps are stable on.
package constants

import "time"

// # Metadata

const (
	AppName    = "libupdater"
	AppVersion = "0.1.0-dev"
)

// # Upstream origin

const (
	// DumpPathTemplate is the upstream path for a dump named name, relative
	// to the configured base URL: "{base}/sql/{name}.gz".
	DumpPathTemplate = "%s/sql/%s.gz"

	// SourceName is the row in the "sources" table this pipeline reconciles
	// against.
	SourceName = "flibusta"
)

// # Timing

const (
	// GateBackoff is the poll interval used by ingest.AwaitAll.
	GateBackoff = 1 * time.Second

	// ConnectTimeout bounds establishing a new pool connection.
	ConnectTimeout = 5 * time.Second

	// StartupTimeout bounds the whole startup sequence (pool + migrations).
	StartupTimeout = 30 * time.Second

	// ShutdownTimeout is how long the HTTP trigger server waits for
	// in-flight requests during graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// Trigger server timeouts. The /update handler only ever writes a short
	// confirmation and launches the run detached, so these stay small.
	ReadTimeout       = 5 * time.Second
	ReadHeaderTimeout = 3 * time.Second
	WriteTimeout      = 5 * time.Second
	IdleTimeout       = 60 * time.Second
)

// # Scheduling

const (
	// DailyRunHour and DailyRunMinute are the local time-of-day the pipeline
	// wakes up on its own, independent of any POST /update trigger.
	DailyRunHour   = 3
	DailyRunMinute = 0
)

// # Dump parsing

const (
	// DumpDateLayout is the layout dump date columns arrive in: "YYYY-MM-DD HH:MM:SS".
	DumpDateLayout = "2006-01-02 15:04:05"
)

// # Language filter

// AllowedLanguages are the languages a Book is kept live for; anything else
// is forced is_deleted after the Book task's post-pass.
var AllowedLanguages = map[string]bool{
	"ru": true,
	"be": true,
	"uk": true,
}

// # Database schema

const (
	SchemaPublic = "public"
)
