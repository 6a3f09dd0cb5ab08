package transactions

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/domain"
	"github.com/dvloznov/spending-patterns/internal/logger"
)

// Service reads and edits the transaction table. Edits rewrite the whole
// table; a mutex serializes them within the process.
type Service struct {
	tables domain.TableRepository
	log    zerolog.Logger
	mu     sync.Mutex
}

// NewService creates a transaction service over tables.
func NewService(tables domain.TableRepository, log zerolog.Logger) *Service {
	return &Service{tables: tables, log: log}
}

// List returns one page of the transactions matching q.
func (s *Service) List(ctx context.Context, q Query) (Page, error) {
	if err := domain.Validate(q); err != nil {
		return Page{}, err
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}

	t, err := s.tables.Load(ctx)
	if err != nil {
		return Page{}, domain.WrapStorage("load transactions", err)
	}
	filtered, err := Filter(t, q)
	if err != nil {
		return Page{}, err
	}

	page := Paginate(filtered, q.Limit, q.Offset)
	s.log.Info().
		Int("total", page.TotalCount).
		Int("returned", len(page.Transactions)).
		Msg("Transactions listed")
	return page, nil
}

// Modify applies u to the transaction with the given id and saves the table.
// When several rows share the id only the first is changed.
func (s *Service) Modify(ctx context.Context, id int64, u Update) (domain.Transaction, error) {
	if err := domain.Validate(u); err != nil {
		return domain.Transaction{}, err
	}

	log := logger.FromContext(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.tables.Load(ctx)
	if err != nil {
		return domain.Transaction{}, domain.WrapStorage("load transactions", err)
	}

	idx := t.IndexOf(id)
	if len(idx) == 0 {
		return domain.Transaction{}, &domain.NotFoundError{Resource: "transaction", ID: id}
	}
	if len(idx) > 1 {
		log.Warn().Int64("id", id).Int("rows", len(idx)).Msg("Duplicate transaction id, updating the first row")
	}

	updated := t.Clone()
	updated[idx[0]] = u.Apply(updated[idx[0]])
	if err := s.tables.Save(ctx, updated); err != nil {
		return domain.Transaction{}, errors.Wrap(err, "transactions.Modify: save")
	}

	log.Info().Int64("id", id).Msg("Transaction updated")
	return updated[idx[0]], nil
}
