// Package harness runs guest programs under a cost model and times them.
package harness

import "time"

// Result holds the measurements for one cost model.
type Result struct {
	Model string
	// Value is the guest's result register after the cold run.
	Value   uint64
	GasUsed int64

	ColdElapsed time.Duration
	// WarmAverage is only meaningful when WarmRuns is non-zero.
	WarmAverage time.Duration
	WarmRuns    int
}

// HasWarm reports whether warm runs were measured.
func (r *Result) HasWarm() bool {
	return r.WarmRuns > 0
}
