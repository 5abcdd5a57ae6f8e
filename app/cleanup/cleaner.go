package cleanup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var ErrUnknownAnalyzer = errors.New("cleanup: unknown analyzer")

// Result is the outcome of counting or cleaning with one analyzer.
type Result struct {
	Analyzer    string `json:"analyzer"`
	Description string `json:"description"`
	Count       int64  `json:"count"`
}

// runs serializes deletes across every Cleaner in the process. Cleaners are
// cheap and rebuilt whenever the policy may have changed.
var runs sync.Mutex

// Cleaner runs a set of analyzers.
type Cleaner struct {
	analyzers []Analyzer
	log       zerolog.Logger
}

func NewCleaner(log zerolog.Logger, analyzers ...Analyzer) *Cleaner {
	return &Cleaner{analyzers: analyzers, log: log}
}

// Analyzers returns the analyzer names in run order.
func (c *Cleaner) Analyzers() []string {
	names := make([]string, len(c.analyzers))
	for i, a := range c.analyzers {
		names[i] = a.Name()
	}
	return names
}

// Report counts what every analyzer would remove.
func (c *Cleaner) Report(ctx context.Context) ([]Result, error) {
	out := make([]Result, 0, len(c.analyzers))
	for _, a := range c.analyzers {
		n, err := a.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("cleanup: count %s: %w", a.Name(), err)
		}
		out = append(out, result(a, n))
	}
	return out, nil
}

// Run cleans with the named analyzer.
func (c *Cleaner) Run(ctx context.Context, name string) (Result, error) {
	for _, a := range c.analyzers {
		if a.Name() == name {
			runs.Lock()
			defer runs.Unlock()
			return c.clean(ctx, a)
		}
	}
	return Result{}, fmt.Errorf("%w: %s", ErrUnknownAnalyzer, name)
}

// RunAll cleans with every analyzer in order, stopping at the first error.
func (c *Cleaner) RunAll(ctx context.Context) ([]Result, error) {
	runs.Lock()
	defer runs.Unlock()

	out := make([]Result, 0, len(c.analyzers))
	for _, a := range c.analyzers {
		r, err := c.clean(ctx, a)
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (c *Cleaner) clean(ctx context.Context, a Analyzer) (Result, error) {
	start := time.Now()
	n, err := a.Clean(ctx)
	if err != nil {
		c.log.Error().Err(err).Str("analyzer", a.Name()).Msg("cleanup failed")
		return Result{}, fmt.Errorf("cleanup: clean %s: %w", a.Name(), err)
	}
	c.log.Info().Str("analyzer", a.Name()).Int64("deleted", n).Dur("took", time.Since(start)).Msg("cleanup finished")
	return result(a, n), nil
}

func result(a Analyzer, n int64) Result {
	return Result{Analyzer: a.Name(), Description: a.Description(), Count: n}
}
