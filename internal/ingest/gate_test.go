package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGate_PollBeforeSet(t *testing.T) {
	g := NewGate()
	resolved, _ := g.Poll()
	assert.False(t, resolved)
}

func TestGate_SetSuccess(t *testing.T) {
	g := NewGate()
	g.Set(true)
	resolved, success := g.Poll()
	assert.True(t, resolved)
	assert.True(t, success)
}

func TestGate_SetFailure(t *testing.T) {
	g := NewGate()
	g.Set(false)
	resolved, success := g.Poll()
	assert.True(t, resolved)
	assert.False(t, success)
}

func TestGate_SetIsOneShot(t *testing.T) {
	g := NewGate()
	g.Set(true)
	g.Set(false) // must not override the first outcome
	_, success := g.Poll()
	assert.True(t, success)
}

func TestAwaitAll_EmptyResolvesImmediately(t *testing.T) {
	assert.True(t, AwaitAll(nil))
}

func TestAwaitAll_AllSucceed(t *testing.T) {
	a, b := NewGate(), NewGate()
	a.Set(true)
	b.Set(true)
	assert.True(t, AwaitAll([]*Gate{a, b}))
}

func TestAwaitAll_OneFails(t *testing.T) {
	a, b := NewGate(), NewGate()
	a.Set(true)
	b.Set(false)
	assert.False(t, AwaitAll([]*Gate{a, b}))
}

func TestAwaitAll_BlocksUntilResolved(t *testing.T) {
	g := NewGate()
	done := make(chan bool, 1)

	go func() {
		done <- AwaitAll([]*Gate{g})
	}()

	select {
	case <-done:
		t.Fatal("AwaitAll returned before the gate resolved")
	case <-time.After(50 * time.Millisecond):
	}

	g.Set(true)
	assert.True(t, <-done)
}
