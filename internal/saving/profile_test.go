package saving

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/spending-patterns/internal/domain"
)

func expense(id int64, ts time.Time, amount int64, category string) domain.Transaction {
	return domain.Transaction{
		ID:            id,
		Timestamp:     ts,
		Amount:        -amount,
		Category:      category,
		Description:   category + " shop",
		PaymentMethod: "Card",
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestBuildProfile_NoExpenses(t *testing.T) {
	assert.Nil(t, BuildProfile(nil))
	assert.Nil(t, BuildProfile(domain.Table{{ID: 1, Timestamp: day(2024, 3, 1), Amount: 5000}}))
}

func TestBuildProfile(t *testing.T) {
	table := domain.Table{
		expense(5, day(2024, time.March, 1), 10000, "Shopping"),
		expense(4, day(2024, time.February, 10), 4000, "Food"),
		expense(3, day(2024, time.February, 1), 3000, "Food"),
		expense(2, day(2024, time.January, 20), 2000, "Cafe"),
		expense(1, day(2024, time.January, 1), 1000, "Cafe"),
		{ID: 0, Timestamp: day(2023, time.December, 1), Amount: 900000, Category: "Salary"},
	}

	p := BuildProfile(table)
	require.NotNil(t, p)
	assert.InDelta(t, 4000, p.AvgAmount, 1e-9)
	assert.InDelta(t, 3000, p.MedianAmount, 1e-9)
	assert.InDelta(t, 3535.5339, p.StdAmount, 1e-3)
	assert.InDelta(t, 4000, p.P75Amount, 1e-9)
	assert.InDelta(t, 7600, p.P90Amount, 1e-9)
	// 60 days between Jan 1 and Mar 1: 5 / (60/30)
	assert.Equal(t, 2, p.AvgMonthlyCount)
	assert.Equal(t, 0, p.AvgDailyCount)
	assert.InDelta(t, 1500, p.CategoryAvgs["Cafe"], 1e-9)
	assert.InDelta(t, 3500, p.CategoryMedians["Food"], 1e-9)
	assert.NotContains(t, p.CategoryAvgs, "Salary")
}

func TestBuildProfile_ShortSpanUsesMinimumDivisor(t *testing.T) {
	table := domain.Table{
		expense(2, day(2024, time.March, 1), 1000, "Cafe"),
		expense(1, day(2024, time.March, 1), 1000, "Cafe"),
	}
	p := BuildProfile(table)
	require.NotNil(t, p)
	assert.Equal(t, 2, p.AvgMonthlyCount)
	assert.Equal(t, 2, p.AvgDailyCount)
}

func TestThresholdsFromProfile_Defaults(t *testing.T) {
	th := ThresholdsFromProfile(nil)
	assert.Equal(t, int64(10000), th.MinSavingsAmount)
	assert.Equal(t, 4, th.RecurringMinFrequency)
	assert.Equal(t, 1.5, th.CategoryMultiplier)
	assert.Equal(t, 0.5, th.RecurringReductionRatio)
	assert.Equal(t, 0.3, th.OverspendingSavingsRatio)
	assert.Equal(t, 3, th.CategoryMinCount)
	assert.Equal(t, 0.2, th.CategorySavingsRatio)
}

func TestThresholdsFromProfile(t *testing.T) {
	tests := []struct {
		name           string
		profile        Profile
		wantMinSavings int64
		wantRecurring  int
		wantMultiplier float64
	}{
		{
			name:           "small spender hits the floors",
			profile:        Profile{AvgAmount: 4000, MedianAmount: 3000, StdAmount: 3535, AvgMonthlyCount: 2},
			wantMinSavings: 5000,
			wantRecurring:  3,
			wantMultiplier: 1.5,
		},
		{
			name:           "median drives min savings",
			profile:        Profile{AvgAmount: 150000, MedianAmount: 100000, StdAmount: 0, AvgMonthlyCount: 100},
			wantMinSavings: 20000,
			wantRecurring:  5,
			wantMultiplier: 1.5,
		},
		{
			name:           "mean drives min savings",
			profile:        Profile{AvgAmount: 300000, MedianAmount: 50000, StdAmount: 330000, AvgMonthlyCount: 90},
			wantMinSavings: 30000,
			wantRecurring:  4, // round(4.5) is 4, ties to even
			wantMultiplier: 1.4,
		},
		{
			name:           "volatile spending lowers the multiplier",
			profile:        Profile{AvgAmount: 2080, MedianAmount: 100, StdAmount: 4427, AvgMonthlyCount: 10},
			wantMinSavings: 5000,
			wantRecurring:  3,
			wantMultiplier: 1.3,
		},
		{
			name:           "ratio of exactly one is not volatile",
			profile:        Profile{AvgAmount: 2000, MedianAmount: 1000, StdAmount: 2000, AvgMonthlyCount: 10},
			wantMinSavings: 5000,
			wantRecurring:  3,
			wantMultiplier: 1.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.profile
			th := ThresholdsFromProfile(&p)
			assert.Equal(t, tt.wantMinSavings, th.MinSavingsAmount)
			assert.Equal(t, tt.wantRecurring, th.RecurringMinFrequency)
			assert.Equal(t, tt.wantMultiplier, th.CategoryMultiplier)
			assert.Equal(t, 3, th.CategoryMinCount)
		})
	}
}
