// Package bench measures configuration load latency.
package bench

import (
	"context"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/weftconf/weft/packages/core/config"
	"github.com/weftconf/weft/packages/core/parser"
)

// Result summarizes a benchmark run.
type Result struct {
	Target     string
	Iterations int
	Duration   time.Duration

	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration

	Sections int
	Options  int
}

// Runner drives repeated loads of a single target.
type Runner struct {
	parser     *parser.Parser
	iterations int
	warmup     int
}

// Option is a functional option for Runner.
type Option func(*Runner)

// WithParser sets the parser used for each load.
func WithParser(p *parser.Parser) Option {
	return func(r *Runner) {
		r.parser = p
	}
}

// WithIterations sets the number of timed loads.
func WithIterations(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.iterations = n
		}
	}
}

// WithWarmup sets the number of untimed loads before measuring.
func WithWarmup(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.warmup = n
		}
	}
}

// NewRunner creates a benchmark runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		parser:     parser.New(),
		iterations: 100,
		warmup:     5,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run loads target repeatedly and aggregates latencies. The first load
// error aborts the run; a target that cannot be loaded once will not
// load any better on repetition.
func (r *Runner) Run(ctx context.Context, target string) (*Result, error) {
	// Histogram: 1us to 60s range, 3 significant digits
	hist := hdrhistogram.New(1, 60_000_000, 3)

	for i := 0; i < r.warmup; i++ {
		if _, err := r.parser.Parse(ctx, target); err != nil {
			return nil, err
		}
	}

	var store *config.Store
	start := time.Now()
	for i := 0; i < r.iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		began := time.Now()
		st, err := r.parser.Parse(ctx, target)
		if err != nil {
			return nil, err
		}
		store = st

		latencyUs := time.Since(began).Microseconds()
		if latencyUs < 1 {
			latencyUs = 1
		}
		if latencyUs > 60_000_000 {
			latencyUs = 60_000_000
		}
		_ = hist.RecordValue(latencyUs)
	}

	result := &Result{
		Target:     target,
		Iterations: r.iterations,
		Duration:   time.Since(start),
		Min:        time.Duration(hist.Min()) * time.Microsecond,
		Max:        time.Duration(hist.Max()) * time.Microsecond,
		Mean:       time.Duration(hist.Mean()) * time.Microsecond,
		StdDev:     time.Duration(hist.StdDev()) * time.Microsecond,
		P50:        time.Duration(hist.ValueAtQuantile(50)) * time.Microsecond,
		P95:        time.Duration(hist.ValueAtQuantile(95)) * time.Microsecond,
		P99:        time.Duration(hist.ValueAtQuantile(99)) * time.Microsecond,
	}
	if store != nil {
		result.Sections = len(store.SectionNames())
		for _, section := range store.SectionNames() {
			result.Options += len(store.OptionNames(section))
		}
	}

	return result, nil
}
