// Package report formats benchmark results.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/weiihann/gasbench/harness"
)

// Generate writes a summary table comparing the results of every model.
func Generate(w io.Writer, results []harness.Result) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}

	valuesMatch := checkValues(results)
	cheapest := findCheapest(results)

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle("Benchmark Results")
	t.AppendHeader(table.Row{
		"Model", "Result", "Gas Used", "Relative Gas", "Initial Run", "Average",
	})

	for _, r := range results {
		relative := 1.0
		if cheapest > 0 {
			relative = float64(r.GasUsed) / float64(cheapest)
		}

		average := "-"
		if r.HasWarm() {
			average = fmt.Sprintf("%s (%d runs)", formatSeconds(r.WarmAverage), r.WarmRuns)
		}

		t.AppendRow(table.Row{
			r.Model,
			fmt.Sprintf("0x%x", r.Value),
			humanize.Comma(r.GasUsed),
			fmt.Sprintf("%.2fx", relative),
			formatSeconds(r.ColdElapsed),
			average,
		})
	}

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}

	if valuesMatch {
		_, err := fmt.Fprintln(w, "Results: all match")

		return err
	}

	if _, err := fmt.Fprintln(w, "Results: MISMATCH"); err != nil {
		return err
	}

	for _, r := range results {
		if _, err := fmt.Fprintf(w, "  - %s: 0x%x\n", r.Model, r.Value); err != nil {
			return err
		}
	}

	return nil
}

// checkValues reports whether every model produced the same result. Cost
// models only change gas, so a mismatch means the engine is broken.
func checkValues(results []harness.Result) bool {
	first := results[0].Value
	for _, r := range results[1:] {
		if r.Value != first {
			return false
		}
	}

	return true
}

func findCheapest(results []harness.Result) int64 {
	cheapest := int64(math.MaxInt64)
	for _, r := range results {
		if r.GasUsed > 0 && r.GasUsed < cheapest {
			cheapest = r.GasUsed
		}
	}

	if cheapest == math.MaxInt64 {
		return 0
	}

	return cheapest
}

// formatSeconds prints d in seconds with the shortest exact decimal form.
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}
