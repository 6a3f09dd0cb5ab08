package saving

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/spending-patterns/internal/analysis"
	"github.com/dvloznov/spending-patterns/internal/domain"
)

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

func marchTable() domain.Table {
	var t domain.Table
	t = append(t, domain.Transaction{
		ID:            8,
		Timestamp:     time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC),
		Amount:        -200000,
		Category:      "Shopping",
		Description:   "Mall",
		PaymentMethod: "Card",
	})
	for d := 8; d >= 1; d-- {
		t = append(t, domain.Transaction{
			ID:            int64(d - 1),
			Timestamp:     time.Date(2024, time.March, d, 9, 0, 0, 0, time.UTC),
			Amount:        -5000,
			Category:      "Cafe",
			Description:   "Starbucks",
			PaymentMethod: "Card",
		})
	}
	return t
}

func TestService_Opportunities(t *testing.T) {
	tables := &mockTables{}
	rules := &mockRules{}
	svc := NewService(tables, rules, zerolog.Nop())
	ctx := context.Background()

	tables.On("Load", ctx).Return(marchTable(), nil)
	rules.On("Load", ctx, false).Return([]domain.OverspendingRule{
		{Name: "Shopping spree", CategoryFilter: "Shopping", Enabled: true, PerTransaction: domain.Int64(100000)},
	}, nil)

	opps, err := svc.Opportunities(ctx, analysis.DateParams{Year: 2024, Month: 3})
	require.NoError(t, err)
	require.Len(t, opps, 2)

	over, ok := opps[0].(OverspendingOpportunity)
	require.True(t, ok)
	assert.Equal(t, int64(60000), over.SavingsAmount)
	assert.Equal(t, "Shopping spree", over.Category)

	rec, ok := opps[1].(RecurringOpportunity)
	require.True(t, ok)
	assert.Equal(t, "Starbucks", rec.Merchant)
	assert.Equal(t, 4, rec.RecommendedFrequency)
	assert.Equal(t, int64(20000), rec.SavingsAmount)

	rules.AssertExpectations(t)
}

func TestService_OpportunitiesEmptyPeriod(t *testing.T) {
	tables := &mockTables{}
	rules := &mockRules{}
	svc := NewService(tables, rules, zerolog.Nop())
	ctx := context.Background()
	tables.On("Load", ctx).Return(marchTable(), nil)

	opps, err := svc.Opportunities(ctx, analysis.DateParams{Year: 2024, Month: 4})
	require.NoError(t, err)
	assert.Empty(t, opps)
	assert.NotNil(t, opps)
	rules.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
}

func TestService_OpportunitiesErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid month", func(t *testing.T) {
		tables := &mockTables{}
		svc := NewService(tables, &mockRules{}, zerolog.Nop())
		_, err := svc.Opportunities(ctx, analysis.DateParams{Year: 2024, Month: 14})
		assert.True(t, domain.IsValidation(err))
		tables.AssertNotCalled(t, "Load", mock.Anything)
	})

	t.Run("load failure", func(t *testing.T) {
		tables := &mockTables{}
		tables.On("Load", ctx).Return(nil, errors.New("bucket unavailable"))
		svc := NewService(tables, &mockRules{}, zerolog.Nop())
		_, err := svc.Opportunities(ctx, analysis.DateParams{})
		assert.True(t, domain.IsStorage(err))
	})
}
