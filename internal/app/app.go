// Package app wires storage backends and services from a Config.
package app

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/analysis"
	"github.com/dvloznov/spending-patterns/internal/api/handlers"
	"github.com/dvloznov/spending-patterns/internal/config"
	"github.com/dvloznov/spending-patterns/internal/domain"
	infraBQ "github.com/dvloznov/spending-patterns/internal/infra/bigquery"
	"github.com/dvloznov/spending-patterns/internal/ingest"
	"github.com/dvloznov/spending-patterns/internal/notify"
	"github.com/dvloznov/spending-patterns/internal/personality"
	"github.com/dvloznov/spending-patterns/internal/rules"
	"github.com/dvloznov/spending-patterns/internal/saving"
	"github.com/dvloznov/spending-patterns/internal/storage"
	"github.com/dvloznov/spending-patterns/internal/transactions"
)

// App holds the services of one process.
type App struct {
	Blob         storage.Blob
	Tables       domain.TableRepository
	Rules        domain.RuleRepository
	Analysis     *analysis.Service
	RuleService  *rules.Service
	Transactions *transactions.Service
	Ingest       *ingest.Service
	Savings      *saving.Service
	Personality  *personality.Service
	Notifier     domain.Notifier

	closers []io.Closer
}

// New opens the configured backends and builds every service on top of them.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	a := &App{}

	if cfg.UseGCS() {
		blob, err := storage.NewGCSBlob(ctx, cfg.StorageBucket, cfg.StoragePrefix, cfg.CredentialsFile)
		if err != nil {
			return nil, errors.Wrap(err, "app.New: open bucket")
		}
		a.Blob = blob
		a.closers = append(a.closers, blob)
		log.Info().Str("bucket", cfg.StorageBucket).Str("prefix", cfg.StoragePrefix).Msg("Using GCS storage")
	} else {
		a.Blob = storage.NewLocalBlob(cfg.DataDir)
		log.Info().Str("dir", cfg.DataDir).Msg("Using local storage")
	}

	if cfg.UseBigQuery() {
		repo, err := infraBQ.NewTableRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset, cfg.BigQueryTable, cfg.CredentialsFile, log)
		if err != nil {
			a.Close()
			return nil, errors.Wrap(err, "app.New: open BigQuery")
		}
		a.Tables = repo
		a.closers = append(a.closers, repo)
		log.Info().Str("project", cfg.BigQueryProject).Str("dataset", cfg.BigQueryDataset).Str("table", cfg.BigQueryTable).Msg("Using BigQuery transaction table")
	} else {
		a.Tables = storage.NewTableRepository(a.Blob, log)
	}

	a.Rules = storage.NewRuleRepository(a.Blob, log)
	a.Analysis = analysis.NewService(a.Tables, a.Rules, log)
	a.RuleService = rules.NewService(a.Rules, log)
	a.Transactions = transactions.NewService(a.Tables, log)
	a.Ingest = ingest.NewService(a.Blob, a.Tables, log)
	a.Savings = saving.NewService(a.Tables, a.Rules, log)
	a.Personality = personality.NewService(a.Tables, log)
	a.Notifier = notify.FromConfig(cfg, log)
	return a, nil
}

// Handlers returns the services the HTTP router dispatches to.
func (a *App) Handlers() handlers.Services {
	return handlers.Services{
		Analysis:     a.Analysis,
		Rules:        a.RuleService,
		Transactions: a.Transactions,
		Ingest:       a.Ingest,
		Savings:      a.Savings,
		Personality:  a.Personality,
		Notifier:     a.Notifier,
	}
}

// Close releases the backend clients in reverse order of opening.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
