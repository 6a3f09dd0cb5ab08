// Package rules manages the user's overspending rules: listing, creating,
// updating and deleting entries of the persisted rule list.
package rules

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/domain"
	"github.com/dvloznov/spending-patterns/internal/logger"
)

// Service performs read-modify-write cycles on the rule list. A single
// mutex serializes writers within the process.
type Service struct {
	repo domain.RuleRepository
	log  zerolog.Logger
	mu   sync.Mutex
}

// NewService creates a rule service over repo.
func NewService(repo domain.RuleRepository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// List returns the stored rules in file order.
func (s *Service) List(ctx context.Context, includeDisabled bool) ([]domain.OverspendingRule, error) {
	rules, err := s.repo.Load(ctx, includeDisabled)
	if err != nil {
		return nil, errors.Wrap(err, "rules.List")
	}
	return rules, nil
}

// ReplaceAll validates every rule and overwrites the whole list.
func (s *Service) ReplaceAll(ctx context.Context, rules []domain.OverspendingRule) error {
	for i := range rules {
		if err := domain.Validate(rules[i]); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rules == nil {
		rules = []domain.OverspendingRule{}
	}
	if err := s.repo.Save(ctx, rules); err != nil {
		return errors.Wrap(err, "rules.ReplaceAll")
	}
	log := logger.FromContext(ctx, s.log)
	log.Info().Int("rules", len(rules)).Msg("Rules replaced")
	return nil
}

// Create appends rule under the repository's next id. Ids of deleted rules
// are not reused. Any id carried by the input is ignored.
func (s *Service) Create(ctx context.Context, rule domain.OverspendingRule) (domain.OverspendingRule, error) {
	if err := domain.Validate(rule); err != nil {
		return domain.OverspendingRule{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.repo.Load(ctx, true)
	if err != nil {
		return domain.OverspendingRule{}, errors.Wrap(err, "rules.Create: load")
	}

	id, err := s.repo.NextID(ctx)
	if err != nil {
		return domain.OverspendingRule{}, errors.Wrap(err, "rules.Create: next id")
	}

	created := rule.WithID(id)
	rules = append(rules, created)
	if err := s.repo.Save(ctx, rules); err != nil {
		return domain.OverspendingRule{}, errors.Wrap(err, "rules.Create: save")
	}

	log := logger.FromContext(ctx, s.log)
	log.Info().Int64("rule_id", created.RuleID()).Str("category", created.CategoryFilter).Msg("Rule created")
	return created, nil
}

// Update replaces the rule with the given id, keeping the id.
func (s *Service) Update(ctx context.Context, id int64, rule domain.OverspendingRule) (domain.OverspendingRule, error) {
	if err := domain.Validate(rule); err != nil {
		return domain.OverspendingRule{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.repo.Load(ctx, true)
	if err != nil {
		return domain.OverspendingRule{}, errors.Wrap(err, "rules.Update: load")
	}

	idx := indexOf(rules, id)
	if idx < 0 {
		return domain.OverspendingRule{}, &domain.NotFoundError{Resource: "rule", ID: id}
	}
	updated := rule.WithID(id)
	rules[idx] = updated
	if err := s.repo.Save(ctx, rules); err != nil {
		return domain.OverspendingRule{}, errors.Wrap(err, "rules.Update: save")
	}

	log := logger.FromContext(ctx, s.log)
	log.Info().Int64("rule_id", id).Msg("Rule updated")
	return updated, nil
}

// Delete removes the rule with the given id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.repo.Load(ctx, true)
	if err != nil {
		return errors.Wrap(err, "rules.Delete: load")
	}

	idx := indexOf(rules, id)
	if idx < 0 {
		return &domain.NotFoundError{Resource: "rule", ID: id}
	}
	kept := make([]domain.OverspendingRule, 0, len(rules)-1)
	kept = append(kept, rules[:idx]...)
	kept = append(kept, rules[idx+1:]...)
	if err := s.repo.Save(ctx, kept); err != nil {
		return errors.Wrap(err, "rules.Delete: save")
	}

	log := logger.FromContext(ctx, s.log)
	log.Info().Int64("rule_id", id).Msg("Rule deleted")
	return nil
}

func indexOf(rules []domain.OverspendingRule, id int64) int {
	for i, r := range rules {
		if r.ID != nil && *r.ID == id {
			return i
		}
	}
	return -1
}
