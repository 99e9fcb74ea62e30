package harness

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvWarmRuns      = "GASBENCH_WARM_RUNS"
	EnvWarmAllModels = "GASBENCH_WARM_ALL_MODELS"
	EnvGasBudget     = "GASBENCH_GAS_BUDGET"
)

// DefaultWarmIterations is the number of warm runs per measured model.
const DefaultWarmIterations = 10

// WarmPolicy decides which models get warm runs. By default only the first
// model does.
type WarmPolicy struct {
	Iterations int
	AllModels  bool
}

// IterationsFor returns the warm run count for the model at index.
func (p WarmPolicy) IterationsFor(index int) int {
	if index > 0 && !p.AllModels {
		return 0
	}

	return p.Iterations
}

// Config is the harness configuration that does not come from the command
// line.
type Config struct {
	Warm      WarmPolicy
	GasBudget int64
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Warm:      WarmPolicy{Iterations: DefaultWarmIterations},
		GasBudget: DefaultGasBudget,
	}
}

// ConfigFromEnv starts from DefaultConfig and applies the GASBENCH_*
// environment variables.
func ConfigFromEnv() (Config, error) {
	return configFromLookup(os.LookupEnv)
}

func configFromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()

	if v, ok := lookup(EnvWarmRuns); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("invalid %s=%q: want a non-negative integer", EnvWarmRuns, v)
		}

		cfg.Warm.Iterations = n
	}

	if v, ok := lookup(EnvWarmAllModels); ok && v != "" {
		all, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s=%q: %w", EnvWarmAllModels, v, err)
		}

		cfg.Warm.AllModels = all
	}

	if v, ok := lookup(EnvGasBudget); ok && v != "" {
		budget, err := strconv.ParseInt(v, 10, 64)
		if err != nil || budget <= 0 {
			return cfg, fmt.Errorf("invalid %s=%q: want a positive integer", EnvGasBudget, v)
		}

		cfg.GasBudget = budget
	}

	return cfg, nil
}
