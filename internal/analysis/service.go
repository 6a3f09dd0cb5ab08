package analysis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/domain"
)

// Service runs the detectors against the stored table and rules.
type Service struct {
	tables domain.TableLoader
	rules  domain.RuleLoader
	log    zerolog.Logger
}

// NewService creates a new analysis service.
func NewService(tables domain.TableLoader, rules domain.RuleLoader, log zerolog.Logger) *Service {
	return &Service{
		tables: tables,
		rules:  rules,
		log:    log,
	}
}

// Overspending evaluates the enabled rules over the selected period.
func (s *Service) Overspending(ctx context.Context, p DateParams) ([]OverspendingPattern, error) {
	rows, err := s.load(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []OverspendingPattern{}, nil
	}

	rules, err := s.rules.Load(ctx, false)
	if err != nil {
		return nil, errors.Wrap(err, "Overspending: load rules")
	}

	patterns := DetectOverspending(rows, rules)
	s.log.Info().
		Int("rules", len(rules)).
		Int("patterns", len(patterns)).
		Msg("Overspending patterns detected")
	return patterns, nil
}

// Recurring groups repeated expenses over the selected period.
func (s *Service) Recurring(ctx context.Context, p DateParams, minCount int) ([]RecurringPattern, error) {
	if minCount < 1 {
		return nil, domain.NewValidationError("min_count", "must be at least 1")
	}
	rows, err := s.load(ctx, p)
	if err != nil {
		return nil, err
	}

	patterns := DetectRecurring(rows, minCount)
	s.log.Info().
		Int("min_count", minCount).
		Int("patterns", len(patterns)).
		Msg("Recurring patterns detected")
	return patterns, nil
}

// TimeBased reports time-of-day concentration over the selected period.
func (s *Service) TimeBased(ctx context.Context, p DateParams) ([]TimeBasedPattern, error) {
	rows, err := s.load(ctx, p)
	if err != nil {
		return nil, err
	}

	patterns := DetectTimeBased(rows)
	s.log.Info().Int("patterns", len(patterns)).Msg("Time-based patterns detected")
	return patterns, nil
}

// MonthlyStats summarizes income and expense for one month.
func (s *Service) MonthlyStats(ctx context.Context, year, month int) (MonthlyStats, error) {
	if year < 1 {
		return MonthlyStats{}, domain.NewValidationError("year", "is required")
	}
	if month < 1 || month > 12 {
		return MonthlyStats{}, domain.NewValidationError("month", "must be between 1 and 12")
	}

	table, err := s.tables.Load(ctx)
	if err != nil {
		return MonthlyStats{}, domain.WrapStorage("load transactions", err)
	}
	return ComputeMonthlyStats(table, year, time.Month(month)), nil
}

// load resolves the period, reads the table and runs Prepare.
func (s *Service) load(ctx context.Context, p DateParams) ([]Enriched, error) {
	r, err := ResolveDateRange(p)
	if err != nil {
		return nil, err
	}

	table, err := s.tables.Load(ctx)
	if err != nil {
		return nil, domain.WrapStorage("load transactions", err)
	}
	return Prepare(table, r)
}
