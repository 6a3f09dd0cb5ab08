package saving

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/spending-patterns/internal/analysis"
	"github.com/dvloznov/spending-patterns/internal/domain"
)

func TestRecurringOpportunities(t *testing.T) {
	th := DefaultThresholds()
	profile := &Profile{AvgMonthlyCount: 20}

	patterns := []analysis.RecurringPattern{
		{Merchant: "Starbucks", Category: "Cafe", Count: 8, AverageAmount: 5000, TotalAmount: 40000},
		{Merchant: "Kiosk", Category: "Cafe", Count: 3, AverageAmount: 90000, TotalAmount: 270000},
		{Merchant: "Bakery", Category: "Food", Count: 8, AverageAmount: 2500, TotalAmount: 20000},
	}

	opps := RecurringOpportunities(patterns, profile, th)
	require.Len(t, opps, 1, "below-frequency and at-minimum savings are dropped")

	o, ok := opps[0].(RecurringOpportunity)
	require.True(t, ok)
	assert.Equal(t, TypeRecurring, o.Type)
	assert.Equal(t, "Starbucks", o.Merchant)
	assert.Equal(t, 8, o.CurrentFrequency)
	assert.Equal(t, 4, o.RecommendedFrequency)
	assert.Equal(t, int64(20000), o.SavingsAmount)
	assert.Equal(t, int64(40000), o.CurrentAmount)
	assert.Equal(t, "Cafe", o.Category)
}

func TestRecurringOpportunities_UserFrequencyCapsRecommendation(t *testing.T) {
	th := DefaultThresholds()
	patterns := []analysis.RecurringPattern{
		{Merchant: "Gym", Category: "Fitness", Count: 20, AverageAmount: 3000, TotalAmount: 60000},
	}

	opps := RecurringOpportunities(patterns, &Profile{AvgMonthlyCount: 5}, th)
	require.Len(t, opps, 1)
	o := opps[0].(RecurringOpportunity)
	assert.Equal(t, 4, o.RecommendedFrequency)
	assert.Equal(t, int64(48000), o.SavingsAmount)

	opps = RecurringOpportunities(patterns, nil, th)
	require.Len(t, opps, 1)
	assert.Equal(t, 8, opps[0].(RecurringOpportunity).RecommendedFrequency)
}

func TestOverspendingOpportunities(t *testing.T) {
	th := DefaultThresholds()
	patterns := []analysis.OverspendingPattern{
		{
			Category:    "Late night delivery",
			TotalAmount: 100000,
			Reasons: []analysis.OverspendingReason{
				{Type: analysis.ReasonHighFrequency, Count: 6, Message: "3+ times a week (2 weeks)"},
				{Type: analysis.ReasonHighAmount, Count: 1, Message: "30,000 or more per transaction (1 transactions)"},
			},
		},
		{Category: "Small", TotalAmount: 30000},
	}

	opps := OverspendingOpportunities(patterns, th)
	require.Len(t, opps, 1)

	o, ok := opps[0].(OverspendingOpportunity)
	require.True(t, ok)
	assert.Equal(t, int64(30000), o.SavingsAmount)
	assert.Equal(t, "Late night delivery", o.Category)
	assert.Equal(t, "Keeping to the rule (3+ times a week (2 weeks), 30,000 or more per transaction (1 transactions))", o.Description)
	require.Len(t, o.Reasons, 2)
	assert.Equal(t, analysis.ReasonHighAmount, o.Reasons[1].Type)
}

func categoryTable(amounts ...int64) domain.Table {
	var t domain.Table
	for i, a := range amounts {
		t = append(t, domain.Transaction{
			ID:        int64(i),
			Timestamp: time.Date(2024, time.March, i+1, 12, 0, 0, 0, time.UTC),
			Amount:    a,
			Category:  "Food",
		})
	}
	return t
}

func TestCategoryOpportunities_Boundary(t *testing.T) {
	th := DefaultThresholds()
	th.MinSavingsAmount = 1000
	profile := &Profile{CategoryAvgs: map[string]float64{"Food": 10000}}

	// 10000 * 1.5 = 15000 exactly
	assert.Empty(t, CategoryOpportunities(categoryTable(15000, 15000, 15000), profile, th))

	opps := CategoryOpportunities(categoryTable(15000, 15000, 15003), profile, th)
	require.Len(t, opps, 1)
	o := opps[0].(CategoryOpportunity)
	assert.Equal(t, int64(15001), o.CurrentAvg)
	assert.Equal(t, int64(10000), o.RecommendedAvg)
	assert.Equal(t, int64(45003), o.CurrentAmount)
	// (15001 - 10000) * 3 * 0.2
	assert.Equal(t, int64(3001), o.SavingsAmount)
}

func TestCategoryOpportunities_MinCountAndMinSavings(t *testing.T) {
	profile := &Profile{CategoryAvgs: map[string]float64{"Food": 10000}}

	th := DefaultThresholds()
	th.MinSavingsAmount = 1000
	assert.Empty(t, CategoryOpportunities(categoryTable(90000, 90000), profile, th), "two rows are below the minimum count")

	th = DefaultThresholds()
	th.MinSavingsAmount = 30000
	assert.Empty(t, CategoryOpportunities(categoryTable(20000, 20000, 20000), profile, th), "savings of 6000 are below the minimum")
}

func TestCategoryOpportunities_FallsBackToOverallMean(t *testing.T) {
	th := DefaultThresholds()
	th.MinSavingsAmount = 1000

	table := domain.Table{
		{ID: 6, Timestamp: time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC), Amount: 30000, Category: "Food"},
		{ID: 5, Timestamp: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), Amount: 30000, Category: "Food"},
		{ID: 4, Timestamp: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), Amount: 30000, Category: "Food"},
		{ID: 3, Timestamp: time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC), Amount: 1000, Category: "Cafe"},
		{ID: 2, Timestamp: time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC), Amount: 1000, Category: "Cafe"},
		{ID: 1, Timestamp: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), Amount: 1000, Category: "Cafe"},
	}

	opps := CategoryOpportunities(table, &Profile{CategoryAvgs: map[string]float64{"Travel": 1}}, th)
	require.Len(t, opps, 1)
	o := opps[0].(CategoryOpportunity)
	assert.Equal(t, "Food", o.Category)
	assert.Equal(t, int64(15500), o.RecommendedAvg)
	assert.Equal(t, int64(8700), o.SavingsAmount)
	assert.Equal(t, "Bringing the average down to 15,500", o.Description)
}

func TestRank(t *testing.T) {
	mk := func(typ OpportunityType, savings int64) Opportunity {
		return CategoryOpportunity{OpportunityBase: OpportunityBase{Type: typ, SavingsAmount: savings}}
	}
	opps := []Opportunity{
		mk(TypeRecurring, 100),
		mk(TypeOverspending, 500),
		mk(TypeCategory, 100),
		mk(TypeCategory, 900),
	}

	top := Rank(opps, TopN)
	require.Len(t, top, 3)
	assert.Equal(t, int64(900), top[0].Base().SavingsAmount)
	assert.Equal(t, int64(500), top[1].Base().SavingsAmount)
	assert.Equal(t, TypeRecurring, top[2].Base().Type, "ties keep input order")
	assert.Equal(t, TypeRecurring, opps[0].Base().Type, "input is not reordered")
}
