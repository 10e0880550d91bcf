// Package lock provides the pipeline's single-run guard:
// a mutual-exclusion token ensuring at most one pipeline invocation is
// mid-run process-wide. A second trigger while a run is in-flight must be
// rejected immediately — the guard never queues a waiting caller.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flibusta-go/libupdater/internal/platform/apperr"
)

// Guard is the single-run guard contract. TryAcquire returns
// [apperr.ErrAlreadyRunning] immediately on contention; it never blocks.
type Guard interface {
	// TryAcquire attempts to take the lock. On success it returns a release
	// function that must be called once the run finishes.
	TryAcquire(ctx context.Context) (release func(), err error)
}

// InProcess is the default guard: a process-wide mutex, sufficient for a
// single pipeline instance.
type InProcess struct {
	mu sync.Mutex
}

// NewInProcess constructs an [InProcess] guard.
func NewInProcess() *InProcess {
	return &InProcess{}
}

// TryAcquire implements [Guard].
func (g *InProcess) TryAcquire(context.Context) (func(), error) {
	if !g.mu.TryLock() {
		return nil, apperr.AlreadyRunning()
	}
	return g.mu.Unlock, nil
}

// Distributed is an optional enrichment over an in-process
// requirement: a Redis SETNX lock so multiple deployed instances of the
// pipeline (e.g. one per region) still enforce at-most-one-run across the
// fleet, not just within a single process.
type Distributed struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewDistributed constructs a [Distributed] guard backed by client.
func NewDistributed(client *redis.Client) *Distributed {
	return &Distributed{
		client: client,
		key:    "libupdater:run-lock",
		ttl:    2 * time.Hour, // generous upper bound on a full dump replay
	}
}

// TryAcquire implements [Guard]. It uses SET key NX EX ttl, the standard
// Redis distributed-lock idiom; the TTL is a safety net against a crashed
// holder, not a correctness requirement (only one process ever holds the
// key at a time under normal operation).
func (g *Distributed) TryAcquire(ctx context.Context) (func(), error) {
	acquired, err := g.client.SetNX(ctx, g.key, "1", g.ttl).Result()
	if err != nil {
		return nil, apperr.DBError("run-lock: redis setnx", err)
	}
	if !acquired {
		return nil, apperr.AlreadyRunning()
	}

	release := func() {
		// Best-effort: if this fails the TTL still reclaims the lock.
		_ = g.client.Del(context.Background(), g.key).Err()
	}
	return release, nil
}
