// Package main provides pvmasm, which assembles guest programs into
// program blobs.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/weiihann/gasbench/asm"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if err := newRootCmd(logger).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pvmasm: %v\n", err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:           "pvmasm <source.s>",
		Short:         "Assemble a guest program into a program blob",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			return assemble(logger, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "",
		"Output path (default: source with .polkavm extension)")

	return cmd
}

func assemble(logger *slog.Logger, source, output string) error {
	src, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	blob, err := asm.Assemble(string(src))
	if err != nil {
		return fmt.Errorf("assemble %s: %w", source, err)
	}

	raw, err := blob.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode blob: %w", err)
	}

	if output == "" {
		output = strings.TrimSuffix(source, filepath.Ext(source)) + ".polkavm"
	}

	if err := os.WriteFile(output, raw, 0o644); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}

	logger.Info("program assembled",
		slog.String("output", output),
		slog.String("size", humanize.Bytes(uint64(len(raw)))),
		slog.Int("code_bytes", len(blob.Code)),
		slog.Int("exports", len(blob.Exports)),
	)

	return nil
}
