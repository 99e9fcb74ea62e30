// Package main provides auxdata, which generates benchmark inputs and
// converts them to the hex form used by on-chain callers.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/weiihann/gasbench/workload"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if err := newRootCmd(logger).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "auxdata: %v\n", err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "auxdata",
		Short:         "Generate and encode aux data for gasbench",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newGenerateCmd(logger))
	root.AddCommand(newHexCmd())

	return root
}

func newGenerateCmd(logger *slog.Logger) *cobra.Command {
	var (
		size    string
		pattern string
		seed    int64
		maxRun  int
		output  string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write deterministic aux data",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			n, err := humanize.ParseBytes(size)
			if err != nil {
				return fmt.Errorf("invalid --size %q: %w", size, err)
			}

			if n > uint64(^uint32(0)) {
				return fmt.Errorf("invalid --size %q: larger than 4 GiB", size)
			}

			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			cfg := workload.Config{
				Size:    int(n),
				Pattern: pattern,
				Seed:    seed,
				MaxRun:  maxRun,
			}

			return generate(logger, cfg, output)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&size, "size", "1MiB",
		"Number of bytes to generate (e.g. 4096, 64KiB, 1MB)")
	flags.StringVar(&pattern, "pattern", workload.PatternRandom,
		"Data pattern: "+strings.Join(workload.Patterns(), ", "))
	flags.Int64Var(&seed, "seed", 0,
		"Random seed (0 = use current time)")
	flags.IntVar(&maxRun, "max-run", 64,
		"Longest run of equal bytes for the runs pattern")
	flags.StringVarP(&output, "output", "o", "",
		"Output file (required)")

	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func generate(logger *slog.Logger, cfg workload.Config, output string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	summary, err := workload.NewGenerator(cfg).Generate(f)
	if err != nil {
		f.Close()
		os.Remove(output)

		return fmt.Errorf("generate: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	logger.Info("aux data generated",
		slog.String("path", output),
		slog.String("pattern", cfg.Pattern),
		slog.Int64("seed", cfg.Seed),
		slog.String("size", humanize.IBytes(uint64(summary.Bytes))),
		slog.Int("non_zero", summary.NonZero),
		slog.Int("runs", summary.Runs),
	)

	return nil
}

func newHexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hex <file>",
		Short: "Print a file as a length-prefixed, word-aligned hex string",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			return writeLine(cmd.OutOrStdout(), workload.EncodeHex(data))
		},
	}
}

func writeLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)

	return err
}
