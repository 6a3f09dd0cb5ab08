package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/config"
	"github.com/dvloznov/spending-patterns/internal/domain"
	infraBQ "github.com/dvloznov/spending-patterns/internal/infra/bigquery"
	"github.com/dvloznov/spending-patterns/internal/logger"
	"github.com/dvloznov/spending-patterns/internal/storage"
)

// Target is a transaction table that can be created before it is written.
type Target interface {
	EnsureTable(ctx context.Context) error
	domain.TableWriter
}

// Options controls one migration run.
type Options struct {
	FromDir string
	DryRun  bool
}

var (
	projectID       = flag.String("project", "", "GCP project ID (defaults to BIGQUERY_PROJECT)")
	datasetID       = flag.String("dataset", "", "BigQuery dataset ID (defaults to BIGQUERY_DATASET)")
	tableID         = flag.String("table", "", "BigQuery table ID (defaults to BIGQUERY_TABLE)")
	credentialsFile = flag.String("credentials", "", "Service account key file (defaults to GOOGLE_CREDENTIALS_FILE)")
	fromDir         = flag.String("from-dir", "", "Copy the local transaction table under this data directory into BigQuery")
	dryRun          = flag.Bool("dry-run", false, "Report what would be copied without writing")
)

func main() {
	flag.Parse()
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	project := firstNonEmpty(*projectID, cfg.BigQueryProject)
	dataset := firstNonEmpty(*datasetID, cfg.BigQueryDataset, infraBQ.DefaultDataset)
	table := firstNonEmpty(*tableID, cfg.BigQueryTable, infraBQ.DefaultTable)
	creds := firstNonEmpty(*credentialsFile, cfg.CredentialsFile)

	if project == "" {
		log.Fatal().Msg("Error: -project flag is required. Please specify your GCP project ID.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	repo, err := infraBQ.NewTableRepository(ctx, project, dataset, table, creds, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer repo.Close()

	log.Info().Str("project", project).Str("dataset", dataset).Str("table", table).Msg("Connected to BigQuery")

	if err := migrate(ctx, repo, Options{FromDir: *fromDir, DryRun: *dryRun}, log); err != nil {
		log.Error().Err(err).Msg("Migration failed")
		repo.Close()
		os.Exit(1)
	}
}

// migrate creates the target table and, when opts.FromDir is set, copies the
// local parquet table into it.
func migrate(ctx context.Context, target Target, opts Options, log zerolog.Logger) error {
	if opts.DryRun {
		log.Info().Msg("Dry run: table creation skipped")
	} else {
		if err := target.EnsureTable(ctx); err != nil {
			return errors.Wrap(err, "migrate: ensure table")
		}
		log.Info().Msg("Transaction table is ready")
	}

	if opts.FromDir == "" {
		return nil
	}

	info, err := os.Stat(opts.FromDir)
	if err != nil {
		return errors.Wrapf(err, "migrate: data dir %s", opts.FromDir)
	}
	if !info.IsDir() {
		return errors.Errorf("migrate: %s is not a directory", opts.FromDir)
	}

	source := storage.NewTableRepository(storage.NewLocalBlob(opts.FromDir), log)
	rows, err := source.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "migrate: load local table")
	}
	if rows.Empty() {
		log.Warn().Str("dir", opts.FromDir).Msg("Local transaction table is empty, nothing to copy")
		return nil
	}

	if opts.DryRun {
		log.Info().Int("rows", rows.Len()).Msg("Dry run: would copy rows")
		return nil
	}

	if err := target.Save(ctx, rows); err != nil {
		return errors.Wrap(err, "migrate: copy rows")
	}
	log.Info().Int("rows", rows.Len()).Msg("Copied local transaction table")
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
