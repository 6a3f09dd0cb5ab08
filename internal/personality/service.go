package personality

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/analysis"
	"github.com/dvloznov/spending-patterns/internal/domain"
)

// Service classifies the stored transactions.
type Service struct {
	tables domain.TableLoader
	log    zerolog.Logger
}

// NewService creates a new personality service.
func NewService(tables domain.TableLoader, log zerolog.Logger) *Service {
	return &Service{tables: tables, log: log}
}

// Analyze never fails: any error or panic while scoring yields the Unknown
// personality with neutral scores.
func (s *Service) Analyze(ctx context.Context, r analysis.DateRange) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error().Interface("panic", rec).Msg("Personality analysis panicked")
			result = Lookup(Unknown).WithScores(NeutralScores)
		}
	}()

	scores, err := s.score(ctx, r)
	if err != nil {
		s.log.Warn().Err(err).Msg("Personality analysis failed, returning default type")
		return Lookup(Unknown).WithScores(NeutralScores)
	}

	code := DetermineType(scores)
	s.log.Info().
		Str("type", string(code)).
		Float64("planning", scores.Planning).
		Float64("saving", scores.Saving).
		Msg("Personality analysis completed")
	return Lookup(code).WithScores(scores)
}

func (s *Service) score(ctx context.Context, r analysis.DateRange) (Scores, error) {
	table, err := s.tables.Load(ctx)
	if err != nil {
		return Scores{}, fmt.Errorf("score: load transactions: %w", err)
	}
	expenses := analysis.ExpenseOnly(analysis.FilterByDateRange(table, r))
	if err := analysis.ValidateTimestamps(expenses); err != nil {
		return Scores{}, err
	}
	return Score(expenses)
}
