package main

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/vango-dev/domsync/internal/config"
	"github.com/vango-dev/domsync/pkg/snapshot"
)

// loadConfig loads the file given by --config, or domsync.json/yaml from
// dir when present, or the defaults. Log flags override the file.
func loadConfig(path, dir string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case path != "":
		cfg, err = config.LoadFile(path)
	case config.Exists(dir):
		cfg, err = config.Load(dir)
	default:
		cfg = config.New()
	}
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Log.Level = strings.ToLower(logLevel)
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	return cfg, nil
}

// newLogger builds the slog handler the config asks for.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// storeFor returns the snapshot store the config selects: S3 when a
// bucket is set, a directory when one is set, otherwise nil.
func storeFor(ctx context.Context, cfg config.SnapshotConfig) (snapshot.Store, error) {
	switch {
	case cfg.S3.Bucket != "":
		client, err := snapshot.NewS3Client(ctx, snapshot.S3Options{
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return snapshot.NewS3Store(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
	case cfg.Dir != "":
		return snapshot.NewFileStore(cfg.Dir), nil
	default:
		return nil, nil
	}
}
