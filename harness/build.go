package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/weiihann/gasbench/asm"
	"github.com/weiihann/gasbench/pvm"
)

// LoadProgram reads a guest program. Files ending in .s are assembled,
// anything else must be a program blob.
func LoadProgram(ctx context.Context, logger *slog.Logger, path string) (*pvm.ProgramBlob, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program %s: %w", path, err)
	}

	if filepath.Ext(path) != ".s" {
		blob, err := pvm.ParseBlob(raw)
		if err != nil {
			return nil, fmt.Errorf("parse program %s: %w", path, err)
		}

		return blob, nil
	}

	logger.InfoContext(ctx, "assembling guest",
		slog.String("source", path),
	)

	blob, err := asm.Assemble(string(raw))
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", path, err)
	}

	logger.InfoContext(ctx, "guest assembled",
		slog.String("source", path),
		slog.Int("code_bytes", len(blob.Code)),
	)

	return blob, nil
}
