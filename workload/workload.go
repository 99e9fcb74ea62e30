// Package workload generates deterministic aux data inputs for guest
// programs.
package workload

import (
	"bufio"
	"fmt"
	"io"
	"math"
	mrand "math/rand"
)

// Patterns accepted by Config.Pattern.
const (
	PatternRandom = "random"
	PatternZeros  = "zeros"
	PatternText   = "text"
	PatternRuns   = "runs"
)

// Patterns lists every supported pattern.
func Patterns() []string {
	return []string{PatternRandom, PatternZeros, PatternText, PatternRuns}
}

// Summary contains statistics about the generated data.
type Summary struct {
	Bytes   int
	NonZero int
	// Runs counts maximal sequences of equal bytes.
	Runs int
}

// Config controls aux data generation.
type Config struct {
	Size    int
	Pattern string
	Seed    int64
	// MaxRun bounds the run length of the runs pattern.
	MaxRun int
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if c.Size < 0 {
		return fmt.Errorf("size must not be negative, got %d", c.Size)
	}

	if uint64(c.Size) > math.MaxUint32 {
		return fmt.Errorf("size %d does not fit the guest address space", c.Size)
	}

	for _, p := range Patterns() {
		if c.Pattern == p {
			return nil
		}
	}

	return fmt.Errorf("unknown pattern %q (want one of %v)", c.Pattern, Patterns())
}

// Generator produces deterministic aux data from a Config.
type Generator struct {
	cfg Config
	rng *mrand.Rand
}

// NewGenerator creates a Generator from the given Config.
func NewGenerator(cfg Config) *Generator {
	if cfg.MaxRun <= 0 {
		cfg.MaxRun = 64
	}

	return &Generator{
		cfg: cfg,
		rng: mrand.New(mrand.NewSource(cfg.Seed)),
	}
}

// Bytes returns the generated data in memory.
func (g *Generator) Bytes() ([]byte, error) {
	data := make([]byte, 0, max(g.cfg.Size, 0))
	w := &sliceWriter{buf: data}

	if _, err := g.Generate(w); err != nil {
		return nil, err
	}

	return w.buf, nil
}

// Generate writes cfg.Size bytes to w and returns a Summary.
func (g *Generator) Generate(w io.Writer) (Summary, error) {
	var summary Summary

	if err := g.cfg.Validate(); err != nil {
		return summary, err
	}

	bw := bufio.NewWriter(w)

	prev := -1

	var produce func() byte

	switch g.cfg.Pattern {
	case PatternZeros:
		produce = func() byte { return 0 }

	case PatternText:
		produce = g.textByte

	case PatternRuns:
		var (
			cur       byte
			remaining int
		)

		produce = func() byte {
			if remaining == 0 {
				cur = byte(g.rng.Intn(256))
				remaining = 1 + g.rng.Intn(g.cfg.MaxRun)
			}

			remaining--

			return cur
		}

	default:
		produce = func() byte { return byte(g.rng.Intn(256)) }
	}

	for i := 0; i < g.cfg.Size; i++ {
		b := produce()

		if err := bw.WriteByte(b); err != nil {
			return summary, fmt.Errorf("write aux data: %w", err)
		}

		summary.Bytes++
		if b != 0 {
			summary.NonZero++
		}

		if int(b) != prev {
			summary.Runs++
			prev = int(b)
		}
	}

	if err := bw.Flush(); err != nil {
		return summary, fmt.Errorf("flush aux data: %w", err)
	}

	return summary, nil
}

const textAlphabet = "abcdefghijklmnopqrstuvwxyz"

// textByte emits lowercase words of 1 to 12 letters separated by spaces,
// with a newline roughly every 80 bytes.
func (g *Generator) textByte() byte {
	switch n := g.rng.Intn(80); {
	case n == 0:
		return '\n'
	case n < 12:
		return ' '
	default:
		return textAlphabet[g.rng.Intn(len(textAlphabet))]
	}
}

type sliceWriter struct {
	buf []byte
}

func (w *sliceWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)

	return len(p), nil
}
