// Package main provides the CLI entry point for gasbench, which runs a guest
// program under every bundled gas cost model and compares gas and time.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/weiihann/gasbench/costmodel"
	"github.com/weiihann/gasbench/harness"
	"github.com/weiihann/gasbench/pvm"
	"github.com/weiihann/gasbench/report"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	stdout := bufio.NewWriter(os.Stdout)
	atexit.Register(func() { stdout.Flush() })

	root := newRootCmd(logger, level, stdout)
	if err := root.Execute(); err != nil {
		stdout.Flush()
		fmt.Fprintf(os.Stderr, "gasbench: %v\n", err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar, stdout *bufio.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "gasbench <program.polkavm> <aux-data>",
		Short: "Benchmark a guest program under every bundled gas cost model",
		Long: `Gasbench compiles the program once per bundled cost model, runs it with
the aux data file mapped into guest memory, and reports the result value,
gas used and wall time of each model.

Programs ending in .s are assembled first. Warm runs and the gas budget are
configured through GASBENCH_* environment variables.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd.Context(), logger, level, stdout, args[0], args[1])
		},
	}
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	level *slog.LevelVar,
	stdout *bufio.Writer,
	programPath string,
	auxPath string,
) error {
	// Step 1: Read configuration.
	cfg, err := harness.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("harness config: %w", err)
	}

	engineCfg, err := pvm.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("engine config: %w", err)
	}

	engineCfg.Logger = logger
	if engineCfg.TraceExecution {
		level.Set(pvm.LevelTrace)
	}

	// Step 2: Load the inputs.
	aux, err := os.ReadFile(auxPath)
	if err != nil {
		return fmt.Errorf("read aux data %s: %w", auxPath, err)
	}

	if uint64(len(aux)) > math.MaxUint32 {
		return fmt.Errorf("aux data %s is too large (%s)", auxPath, humanize.IBytes(uint64(len(aux))))
	}

	blob, err := harness.LoadProgram(ctx, logger, programPath)
	if err != nil {
		return err
	}

	sources := costmodel.Embedded()

	logger.InfoContext(ctx, "starting benchmark",
		slog.String("program", programPath),
		slog.String("aux_data", humanize.IBytes(uint64(len(aux)))),
		slog.Int("models", len(sources)),
		slog.Int("warm_runs", cfg.Warm.Iterations),
		slog.Bool("warm_all_models", cfg.Warm.AllModels),
		slog.Int64("gas_budget", cfg.GasBudget),
	)

	// Step 3: Run each cost model sequentially.
	rep := report.NewReporter(stdout)
	results := make([]harness.Result, 0, len(sources))

	for i, src := range sources {
		model, err := costmodel.Load(src.Data)
		if err != nil {
			return fmt.Errorf("load cost model %s: %w", src.Name, err)
		}

		program, err := harness.Compile(model, engineCfg, blob, uint32(len(aux)), harness.EntryExport)
		if err != nil {
			return fmt.Errorf("compile under %s: %w", src.Name, err)
		}

		runner := harness.NewRunner(src.Name, program, logger)

		rep.BeginModel(src.Name)

		result, err := runner.Run(ctx, harness.RunConfig{
			AuxData:        aux,
			GasBudget:      cfg.GasBudget,
			WarmIterations: cfg.Warm.IterationsFor(i),
			Observer:       rep,
		})
		if err != nil {
			return err
		}

		rep.EndModel()

		if err := rep.Err(); err != nil {
			return fmt.Errorf("write report: %w", err)
		}

		// Progress lines go out as soon as a model finishes.
		if err := stdout.Flush(); err != nil {
			return fmt.Errorf("write report: %w", err)
		}

		results = append(results, *result)
	}

	// Step 4: Generate the summary.
	if err := report.Generate(stdout, results); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	logger.InfoContext(ctx, "benchmark complete")

	return nil
}
