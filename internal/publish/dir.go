package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cabcoat/cabcoat/internal/export"
)

// Dir writes artifacts into a local directory.
type Dir struct {
	Path string
}

func (d Dir) Publish(ctx context.Context, art *export.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := d.Path
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(art.Filename))
	if err := os.WriteFile(path, art.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}

	slog.Info("Export saved", "path", path, "bytes", len(art.Data))
	return path, nil
}
