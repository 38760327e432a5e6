// Package publish stores export artifacts and reports where they landed.
package publish

import (
	"context"

	"github.com/cabcoat/cabcoat/internal/export"
)

// Publisher stores an export artifact and returns its location.
type Publisher interface {
	Publish(ctx context.Context, art *export.Artifact) (string, error)
}
