package ingest

import (
	"sync/atomic"
	"time"

	"github.com/flibusta-go/libupdater/internal/platform/constants"
)

// gateState is the tri-state a [Gate] can occupy: a task that depends on
// another must see either a terminal success or a terminal failure before
// proceeding, never a partial result.
type gateState int32

const (
	gatePending gateState = iota
	gateSuccess
	gateFailed
)

// Gate publishes one task's terminal outcome to whichever other tasks
// declared a dependency on it. It starts pending and is set
// exactly once.
type Gate struct {
	state atomic.Int32
}

// NewGate returns a pending gate.
func NewGate() *Gate {
	return &Gate{}
}

// Set records the task's terminal outcome. Calling Set more than once is a
// caller bug; only the first call has effect.
func (g *Gate) Set(success bool) {
	s := gateFailed
	if success {
		s = gateSuccess
	}
	g.state.CompareAndSwap(int32(gatePending), int32(s))
}

// Poll reports whether the gate has resolved and, if so, whether it
// resolved to success.
func (g *Gate) Poll() (resolved, success bool) {
	s := gateState(g.state.Load())
	return s != gatePending, s == gateSuccess
}

// AwaitAll blocks until every gate in deps has resolved, polling at
// [constants.GateBackoff] intervals, then reports whether all of them
// resolved to success. An empty dependency list resolves immediately.
func AwaitAll(deps []*Gate) bool {
	for _, g := range deps {
		for {
			if resolved, _ := g.Poll(); resolved {
				break
			}
			time.Sleep(constants.GateBackoff)
		}
	}

	for _, g := range deps {
		if _, success := g.Poll(); !success {
			return false
		}
	}
	return true
}
