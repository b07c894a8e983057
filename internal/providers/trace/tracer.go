// Package trace records diagnostic lines written by provider programs.
package trace

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/asybalance/internal/api"
	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

// DefaultCapacity is the number of entries a Tracer keeps
const DefaultCapacity = 1000

// Tracer writes entries to zap and keeps the most recent ones in a ring
type Tracer struct {
	log *zap.Logger

	mu      sync.Mutex
	entries []types.TraceEntry
	start   int
	dropped int
}

var _ api.Tracer = (*Tracer)(nil)

// New creates a tracer keeping up to capacity entries
func New(log *zap.Logger, capacity int) *Tracer {
	if log == nil {
		log = zap.NewNop()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tracer{log: log, entries: make([]types.TraceEntry, 0, capacity)}
}

// Trace records msg
func (t *Tracer) Trace(_ context.Context, msg, caller string) error {
	t.log.Info(msg, zap.String("caller", caller))

	entry := types.TraceEntry{Caller: caller, Message: msg}

	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.entries) < cap(t.entries) {
		t.entries = append(t.entries, entry)
		return nil
	}
	t.entries[t.start] = entry
	t.start = (t.start + 1) % len(t.entries)
	t.dropped++
	return nil
}

// Entries returns the kept entries, oldest first
func (t *Tracer) Entries() []types.TraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]types.TraceEntry, 0, len(t.entries))
	out = append(out, t.entries[t.start:]...)
	out = append(out, t.entries[:t.start]...)
	return out
}

// Dropped returns how many entries were overwritten
func (t *Tracer) Dropped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}
