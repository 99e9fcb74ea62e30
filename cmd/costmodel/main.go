// Package main provides the costmodel tool, which prints and validates gas
// cost model documents.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/weiihann/gasbench/costmodel"
)

// Output formats of the dump command.
const (
	formatJSON  = "json"
	formatGo    = "go"
	formatTable = "table"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if err := newRootCmd(logger).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "costmodel: %v\n", err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "costmodel",
		Short:         "Inspect and validate gas cost models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newDumpCmd())
	root.AddCommand(newCheckCmd(logger))

	return root
}

func newDumpCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "dump [name]",
		Short: "Print a bundled cost model, or the naive model when no name is given",
		Long: `Print a cost model. Bundled models are ` + strings.Join(modelNames(), ", ") + `.
Without a name the naive model (every instruction costs 1) is printed. The
table format compares every bundled model side by side and ignores the name.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			if format == formatTable {
				return dumpTable(w)
			}

			name, model := "naive", costmodel.Naive()
			if len(args) == 1 {
				name = args[0]

				src, ok := costmodel.EmbeddedByName(name)
				if !ok {
					return fmt.Errorf("unknown cost model %q (want one of %s)",
						name, strings.Join(modelNames(), ", "))
				}

				var err error
				if model, err = costmodel.Load(src.Data); err != nil {
					return fmt.Errorf("load cost model %s: %w", name, err)
				}
			}

			return dump(w, name, model, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatJSON,
		"Output format: json, go, table")

	return cmd
}

func dump(w io.Writer, name string, model *costmodel.Model, format string) error {
	switch format {
	case formatJSON:
		raw, err := model.MarshalJSON()
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(w, "%s\n", raw)

		return err

	case formatGo:
		return model.WriteGo(w, goIdent(name))

	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// goIdent turns a model name such as L2-miss into costModelL2Miss.
func goIdent(name string) string {
	var sb strings.Builder

	sb.WriteString("costModel")

	upper := true
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			if upper {
				sb.WriteString(strings.ToUpper(string(r)))
			} else {
				sb.WriteRune(r)
			}

			upper = false
		default:
			upper = true
		}
	}

	return sb.String()
}

func dumpTable(w io.Writer) error {
	sources := costmodel.Embedded()
	models := make([]*costmodel.Model, 0, len(sources))

	header := table.Row{"Instruction"}

	for _, src := range sources {
		model, err := costmodel.Load(src.Data)
		if err != nil {
			return fmt.Errorf("load cost model %s: %w", src.Name, err)
		}

		models = append(models, model)
		header = append(header, src.Name)
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle("Gas Cost Models")
	t.AppendHeader(header)

	for _, inst := range costmodel.Instructions() {
		row := table.Row{inst.String()}
		for _, m := range models {
			row = append(row, humanize.Comma(int64(m.Cost(inst))))
		}

		t.AppendRow(row)
	}

	_, err := fmt.Fprintln(w, t.Render())

	return err
}

func newCheckCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a cost model document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			model, err := costmodel.Load(raw)
			if err != nil {
				return fmt.Errorf("check %s: %w", args[0], err)
			}

			var total uint64
			for _, w := range model.Weights() {
				total += uint64(w)
			}

			logger.Info("cost model is valid",
				slog.String("path", args[0]),
				slog.Int("instructions", len(model.Weights())),
				slog.String("total_weight", humanize.Comma(int64(total))),
			)

			for _, src := range costmodel.Embedded() {
				bundled, err := costmodel.Load(src.Data)
				if err == nil && bundled.Equal(model) {
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (identical to %s)\n", args[0], src.Name)

					return err
				}
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])

			return err
		},
	}
}

func modelNames() []string {
	sources := costmodel.Embedded()
	names := make([]string, len(sources))

	for i, src := range sources {
		names[i] = src.Name
	}

	return names
}
