package cmd

import (
	"context"
	"fmt"

	"github.com/cabcoat/cabcoat/internal/catalog"
	"github.com/cabcoat/cabcoat/internal/config"
	"github.com/cabcoat/cabcoat/internal/publish"
	"github.com/cabcoat/cabcoat/internal/quota"
	"github.com/cabcoat/cabcoat/internal/session"
	"github.com/cabcoat/cabcoat/internal/storage"
)

// openGate opens the flag store and loads the generation gate from it.
// The caller closes the returned store.
func openGate(ctx context.Context, cfg config.Config) (*quota.Gate, *storage.FlagStore, error) {
	flags, err := storage.OpenFlags(cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	gate, err := quota.NewGate(ctx, flags, cfg.FreeLimit)
	if err != nil {
		flags.Close()
		return nil, nil, err
	}
	return gate, flags, nil
}

func loadCatalog(palettePath string) (*catalog.Catalog, error) {
	if palettePath == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadPalette(palettePath)
}

func sessionOptions(cfg config.Config, observers ...session.Observer) []session.Option {
	opts := []session.Option{
		session.WithTimeout(cfg.CallTimeout),
		session.WithAspectRatio(cfg.AspectRatio),
	}
	for _, o := range observers {
		opts = append(opts, session.WithObserver(o))
	}
	return opts
}

// newPublisher prefers S3 when a bucket is configured, then a local directory.
func newPublisher(ctx context.Context, cfg config.Config, dir string) (publish.Publisher, error) {
	if cfg.S3Bucket != "" {
		pub, err := publish.NewS3(ctx, publish.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3Endpoint != "",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure S3 publishing: %w", err)
		}
		return pub, nil
	}
	if dir != "" {
		return publish.Dir{Path: dir}, nil
	}
	return nil, nil
}
