// Package results collects the results accepted during a session.
package results

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/asybalance/internal/api"
	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

// Collector keeps every accepted result in arrival order and optionally
// forwards each one to a downstream sink.
type Collector struct {
	mu      sync.Mutex
	results []types.Result
	next    api.ResultSink
	log     *zap.Logger
}

var _ api.ResultSink = (*Collector)(nil)

// NewCollector creates a collector. next may be nil.
func NewCollector(next api.ResultSink, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{next: next, log: log}
}

// SetResult records res and forwards it
func (c *Collector) SetResult(ctx context.Context, res types.Result) error {
	c.mu.Lock()
	c.results = append(c.results, res)
	n := len(c.results)
	c.mu.Unlock()

	if res.Error {
		c.log.Info("Provider result", zap.Int("index", n-1), zap.Bool("error", true),
			zap.String("message", res.Message), zap.Bool("investigate", res.Investigate))
	} else {
		c.log.Info("Provider result", zap.Int("index", n-1), zap.Int("fields", len(res.Data)))
	}

	if c.next != nil {
		if err := c.next.SetResult(ctx, res); err != nil {
			return fmt.Errorf("forward result: %w", err)
		}
	}
	return nil
}

// Results returns a copy of the collected results
func (c *Collector) Results() []types.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Result(nil), c.results...)
}

// Len returns the number of collected results
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

// SinkFunc adapts a function to api.ResultSink
type SinkFunc func(ctx context.Context, res types.Result) error

func (f SinkFunc) SetResult(ctx context.Context, res types.Result) error {
	return f(ctx, res)
}
