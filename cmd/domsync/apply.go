package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/domsync/internal/config"
	"github.com/vango-dev/domsync/internal/errors"
	"github.com/vango-dev/domsync/pkg/dom/htmldom"
	"github.com/vango-dev/domsync/pkg/events"
	"github.com/vango-dev/domsync/pkg/patch"
	"github.com/vango-dev/domsync/pkg/snapshot"
)

func applyCmd() *cobra.Command {
	var (
		minify      bool
		snapshotDir string
		s3Bucket    string
		s3Prefix    string
		s3Region    string
	)

	cmd := &cobra.Command{
		Use:   "apply [files...]",
		Short: "Apply transactions to a fresh headless document",
		Long: `Apply decodes transactions and applies them in order to a fresh
in-memory document, then prints the rendered root.

Each file holds a JSON array of transactions or a stream of transaction
objects. With no files, transactions are read from stdin.

Examples:
  domsync apply mount.json update.json
  domsync apply --minify < session.ndjson
  domsync apply --snapshot-dir=out session.json
  domsync apply --s3-bucket=snaps --s3-region=us-east-1 session.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, ".")
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("minify") {
				cfg.Snapshot.Minify = minify
			}
			if snapshotDir != "" {
				cfg.Snapshot.Dir = snapshotDir
			}
			if s3Bucket != "" {
				cfg.Snapshot.S3.Bucket = s3Bucket
				cfg.Snapshot.S3.Prefix = s3Prefix
			}
			if s3Region != "" {
				cfg.Snapshot.S3.Region = s3Region
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cfg, cmd.ErrOrStderr())
			return runApply(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args, cfg, logger)
		},
	}

	cmd.Flags().BoolVar(&minify, "minify", false, "Minify the rendered output")
	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "Also write the rendered output to this directory")
	cmd.Flags().StringVar(&s3Bucket, "s3-bucket", "", "Also upload the rendered output to this S3 bucket")
	cmd.Flags().StringVar(&s3Prefix, "s3-prefix", "", "Key prefix for S3 uploads")
	cmd.Flags().StringVar(&s3Region, "s3-region", "", "Region of the S3 bucket")

	return cmd
}

// runApply replays every transaction in files (or stdin) and writes the
// rendered root to out.
func runApply(ctx context.Context, stdin io.Reader, out io.Writer, files []string, cfg *config.Config, logger *slog.Logger) error {
	txs, err := readTransactions(stdin, files)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		return errors.New("DS501").WithDetail("the input holds no transactions")
	}

	doc := htmldom.New()
	manager := events.ManagerFunc(func(id string, e *events.Event) {
		logger.Info("event", "id", id, "name", e.Name)
	})
	p := patch.New(doc.Root(), doc, manager, patch.WithLogger(logger))
	defer p.Close()

	for i, tx := range txs {
		if err := p.Patch(ctx, tx); err != nil {
			logger.Error("apply failed", "transaction", i)
			return err
		}
	}
	logger.Info("applied transactions", "count", len(txs), "registered", p.Identity().Len())

	body, err := snapshot.Render(doc, doc.Root(), cfg.Snapshot.Minify)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "%s\n", body); err != nil {
		return err
	}

	store, err := storeFor(ctx, cfg.Snapshot)
	if err != nil {
		return err
	}
	if store != nil {
		loc, err := store.Put(ctx, snapshot.Name(time.Now()), body)
		if err != nil {
			return err
		}
		logger.Info("snapshot stored", "location", loc)
	}
	return nil
}

func readTransactions(stdin io.Reader, files []string) ([]*patch.Transaction, error) {
	if len(files) == 0 {
		return patch.DecodeTransactions(stdin)
	}

	var all []*patch.Transaction
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			return nil, errors.New("DS501").WithDetailf("open %s", name).Wrap(err)
		}
		txs, err := patch.DecodeTransactions(f)
		f.Close()
		if err != nil {
			return nil, errors.FromError(err, "DS301").WithDetailf("decode %s", name)
		}
		all = append(all, txs...)
	}
	return all, nil
}
