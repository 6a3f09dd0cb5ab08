package saving

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/analysis"
	"github.com/dvloznov/spending-patterns/internal/domain"
)

// Service composes the top savings opportunities for a period.
type Service struct {
	tables domain.TableLoader
	rules  domain.RuleLoader
	log    zerolog.Logger
}

// NewService creates a new savings service.
func NewService(tables domain.TableLoader, rules domain.RuleLoader, log zerolog.Logger) *Service {
	return &Service{
		tables: tables,
		rules:  rules,
		log:    log,
	}
}

// Opportunities returns at most TopN opportunities for the selected period.
// The profile and thresholds always come from the whole table.
func (s *Service) Opportunities(ctx context.Context, p analysis.DateParams) ([]Opportunity, error) {
	r, err := analysis.ResolveDateRange(p)
	if err != nil {
		return nil, err
	}

	table, err := s.tables.Load(ctx)
	if err != nil {
		return nil, domain.WrapStorage("load transactions", err)
	}
	if table.Empty() {
		return []Opportunity{}, nil
	}

	profile := BuildProfile(table)
	th := ThresholdsFromProfile(profile)

	filtered := analysis.FilterByDateRange(table, r)
	if filtered.Empty() {
		return []Opportunity{}, nil
	}

	rows, err := analysis.Prepare(filtered, analysis.DateRange{})
	if err != nil {
		return nil, err
	}

	var opps []Opportunity
	opps = append(opps, RecurringOpportunities(analysis.DetectRecurring(rows, analysis.DefaultMinCount), profile, th)...)

	if len(rows) > 0 {
		rules, err := s.rules.Load(ctx, false)
		if err != nil {
			return nil, errors.Wrap(err, "Opportunities: load rules")
		}
		opps = append(opps, OverspendingOpportunities(analysis.DetectOverspending(rows, rules), th)...)
	}

	opps = append(opps, CategoryOpportunities(analysis.ExpenseOnly(filtered), profile, th)...)

	top := Rank(opps, TopN)
	s.log.Info().
		Int("candidates", len(opps)).
		Int("returned", len(top)).
		Int64("min_savings_amount", th.MinSavingsAmount).
		Msg("Savings opportunities composed")
	return top, nil
}
