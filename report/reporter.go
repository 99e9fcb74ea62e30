package report

import (
	"fmt"
	"io"
	"time"

	"github.com/weiihann/gasbench/harness"
)

var _ harness.Observer = (*Reporter)(nil)

// Reporter prints the per model progress lines as a benchmark runs. The
// first write error sticks and is returned by Err.
type Reporter struct {
	w   io.Writer
	err error
}

// NewReporter returns a Reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

func (r *Reporter) printf(format string, args ...any) {
	if r.err != nil {
		return
	}

	_, r.err = fmt.Fprintf(r.w, format, args...)
}

// BeginModel announces the cost model about to run.
func (r *Reporter) BeginModel(name string) {
	r.printf("Using gas cost model: %s\n", name)
}

// Starting is printed right before the cold run.
func (r *Reporter) Starting() {
	r.printf("  Starting...\n")
}

// ColdRun prints the authoritative result of the cold run.
func (r *Reporter) ColdRun(res *harness.Result) {
	r.printf("  Result: 0x%x\n", res.Value)
	r.printf("  Gas used: %d\n", res.GasUsed)
	r.printf("  Initial run elapsed: %s\n", formatSeconds(res.ColdElapsed))
}

// WarmAverage prints the average duration of the warm runs.
func (r *Reporter) WarmAverage(avg time.Duration) {
	r.printf("  Elapsed on average: %s\n", formatSeconds(avg))
}

// EndModel closes the block of the current model.
func (r *Reporter) EndModel() {
	r.printf("\n")
}

// Err returns the first write error.
func (r *Reporter) Err() error {
	return r.err
}
