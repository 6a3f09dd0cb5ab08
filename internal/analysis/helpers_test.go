package analysis

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dvloznov/spending-patterns/internal/domain"
)

func at(s string) time.Time {
	ts, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return ts
}

func tx(id int64, ts string, amount int64, category, merchant, payment string) domain.Transaction {
	return domain.Transaction{
		ID:            id,
		Timestamp:     at(ts),
		Amount:        amount,
		Category:      category,
		Description:   merchant,
		PaymentMethod: payment,
	}
}

func enriched(rows ...domain.Transaction) []Enriched {
	return Enrich(ExpenseOnly(domain.Table(rows)))
}

type mockTables struct {
	mock.Mock
}

func (m *mockTables) Load(ctx context.Context) (domain.Table, error) {
	args := m.Called(ctx)
	t, _ := args.Get(0).(domain.Table)
	return t, args.Error(1)
}

type mockRules struct {
	mock.Mock
}

func (m *mockRules) Load(ctx context.Context, includeDisabled bool) ([]domain.OverspendingRule, error) {
	args := m.Called(ctx, includeDisabled)
	r, _ := args.Get(0).([]domain.OverspendingRule)
	return r, args.Error(1)
}
