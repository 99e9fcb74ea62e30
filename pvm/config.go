package pvm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/weiihann/gasbench/costmodel"
)

// LevelTrace sits below Debug and is used for per-instruction tracing.
const LevelTrace = slog.LevelDebug - 4

// Backend selects how guest code is executed.
type Backend string

// BackendInterpreter is the only backend this engine provides.
const BackendInterpreter Backend = "interpreter"

// Environment variables read by ConfigFromEnv.
const (
	EnvBackend           = "PVM_BACKEND"
	EnvAllowExperimental = "PVM_ALLOW_EXPERIMENTAL"
	EnvTraceExecution    = "PVM_TRACE_EXECUTION"
)

// Config holds engine wide options.
type Config struct {
	Backend           Backend
	AllowExperimental bool
	TraceExecution    bool
	// CostModel is shared by every module compiled by the engine. Nil selects
	// the naive model.
	CostModel *costmodel.Model
	Logger    *slog.Logger
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{Backend: BackendInterpreter}
}

// ConfigFromEnv starts from DefaultConfig and applies the PVM_* environment
// variables.
func ConfigFromEnv() (Config, error) {
	return configFromLookup(os.LookupEnv)
}

func configFromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()

	if v, ok := lookup(EnvBackend); ok && v != "" {
		cfg.Backend = Backend(v)
	}

	for _, b := range []struct {
		name string
		dst  *bool
	}{
		{EnvAllowExperimental, &cfg.AllowExperimental},
		{EnvTraceExecution, &cfg.TraceExecution},
	} {
		v, ok := lookup(b.name)
		if !ok || v == "" {
			continue
		}

		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s=%q: %w", b.name, v, err)
		}

		*b.dst = parsed
	}

	return cfg, nil
}

// Engine compiles modules under one configuration.
type Engine struct {
	cfg    Config
	costs  *costmodel.Model
	logger *slog.Logger
}

// NewEngine validates cfg and builds an engine. No guest code runs.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Backend == "" {
		cfg.Backend = BackendInterpreter
	}

	if cfg.Backend != BackendInterpreter {
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}

	costs := cfg.CostModel
	if costs == nil {
		costs = costmodel.Naive()
	} else if !cfg.AllowExperimental {
		return nil, fmt.Errorf("custom cost models are experimental: enable AllowExperimental")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if cfg.TraceExecution {
		logger.Log(context.Background(), LevelTrace, "execution tracing enabled")
	}

	return &Engine{cfg: cfg, costs: costs, logger: logger}, nil
}

// CostModel returns the model every module of this engine is metered with.
func (e *Engine) CostModel() *costmodel.Model {
	return e.costs
}
