package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RunConfig holds the inputs shared by every run of a benchmark.
type RunConfig struct {
	AuxData   []byte
	GasBudget int64
	// WarmIterations is the number of warm runs after the cold run. Zero
	// skips them.
	WarmIterations int
	// Observer, when set, is notified as Run progresses.
	Observer Observer
}

// Observer receives progress from Runner.Run.
type Observer interface {
	Starting()
	ColdRun(result *Result)
	WarmAverage(avg time.Duration)
}

// Runner benchmarks one compiled program.
type Runner struct {
	Name    string
	Program Program
	Logger  *slog.Logger
}

// NewRunner creates a Runner for the program compiled under the named cost
// model.
func NewRunner(name string, program Program, logger *slog.Logger) *Runner {
	return &Runner{
		Name:    name,
		Program: program,
		Logger:  logger.With(slog.String("model", name)),
	}
}

// Cold performs the single timed run whose value and gas are reported.
func (r *Runner) Cold(ctx context.Context, cfg RunConfig) (*Result, error) {
	r.Logger.DebugContext(ctx, "starting cold run",
		slog.Int("aux_bytes", len(cfg.AuxData)),
		slog.Int64("gas_budget", cfg.GasBudget),
	)

	wallStart := time.Now()

	out, err := RunOnce(r.Program, cfg.AuxData, cfg.GasBudget)
	if err != nil {
		return nil, fmt.Errorf("cold run %s: %w", r.Name, err)
	}

	wallElapsed := time.Since(wallStart)

	r.Logger.InfoContext(ctx, "cold run finished",
		slog.Duration("wall_time", wallElapsed),
		slog.Int64("gas_used", out.GasUsed),
	)

	return &Result{
		Model:       r.Name,
		Value:       out.Value,
		GasUsed:     out.GasUsed,
		ColdElapsed: wallElapsed,
	}, nil
}

// Warm performs n independent runs back to back and returns the average
// wall time of one run. Only the whole loop is timed.
func (r *Runner) Warm(ctx context.Context, cfg RunConfig, n int) (time.Duration, error) {
	if n <= 0 {
		return 0, errors.New("warm runs need at least one iteration")
	}

	wallStart := time.Now()

	for i := range n {
		if _, err := RunOnce(r.Program, cfg.AuxData, cfg.GasBudget); err != nil {
			return 0, fmt.Errorf("warm run %d of %s: %w", i+1, r.Name, err)
		}
	}

	avg := time.Since(wallStart) / time.Duration(n)

	r.Logger.InfoContext(ctx, "warm runs finished",
		slog.Int("iterations", n),
		slog.Duration("average", avg),
	)

	return avg, nil
}

// Run performs the cold run and, when configured, the warm runs.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if cfg.Observer != nil {
		cfg.Observer.Starting()
	}

	result, err := r.Cold(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Observer != nil {
		cfg.Observer.ColdRun(result)
	}

	if cfg.WarmIterations > 0 {
		avg, err := r.Warm(ctx, cfg, cfg.WarmIterations)
		if err != nil {
			return nil, err
		}

		result.WarmAverage = avg
		result.WarmRuns = cfg.WarmIterations

		if cfg.Observer != nil {
			cfg.Observer.WarmAverage(avg)
		}
	}

	return result, nil
}
