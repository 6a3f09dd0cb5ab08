// Package saving derives a per-user spending profile, turns it into adaptive
// thresholds and composes ranked savings opportunities from the detectors.
package saving

import (
	"math"

	"github.com/dvloznov/spending-patterns/internal/analysis"
	"github.com/dvloznov/spending-patterns/internal/domain"
	"github.com/dvloznov/spending-patterns/internal/stats"
)

// Profile is a statistical snapshot of all-time expense magnitudes.
type Profile struct {
	AvgAmount       float64
	MedianAmount    float64
	StdAmount       float64 // sample std, NaN for a single expense
	P75Amount       float64
	P90Amount       float64
	AvgMonthlyCount int
	AvgDailyCount   int
	CategoryMedians map[string]float64
	CategoryAvgs    map[string]float64
}

// BuildProfile computes the profile over every expense row of t, ignoring any
// date selection. It returns nil when t holds no expenses.
func BuildProfile(t domain.Table) *Profile {
	expenses := analysis.ExpenseOnly(t)
	if expenses.Empty() {
		return nil
	}

	amounts := make([]float64, len(expenses))
	byCategory := make(map[string][]float64)
	for i, tx := range expenses {
		amounts[i] = float64(tx.Amount)
		byCategory[tx.Category] = append(byCategory[tx.Category], float64(tx.Amount))
	}

	n := float64(len(expenses))
	days := float64(expenses.SpanDays())

	p := &Profile{
		AvgAmount:       stats.Mean(amounts),
		MedianAmount:    stats.Median(amounts),
		StdAmount:       stats.StdDev(amounts),
		P75Amount:       stats.Quantile(amounts, 0.75),
		P90Amount:       stats.Quantile(amounts, 0.90),
		AvgMonthlyCount: int(n / math.Max(1, days/30)),
		AvgDailyCount:   int(n / math.Max(1, days)),
		CategoryMedians: make(map[string]float64, len(byCategory)),
		CategoryAvgs:    make(map[string]float64, len(byCategory)),
	}
	for cat, xs := range byCategory {
		p.CategoryMedians[cat] = stats.Median(xs)
		p.CategoryAvgs[cat] = stats.Mean(xs)
	}
	return p
}

// Thresholds parameterize the opportunity composer.
type Thresholds struct {
	MinSavingsAmount         int64   `json:"min_savings_amount"`
	RecurringMinFrequency    int     `json:"recurring_min_frequency"`
	RecurringReductionRatio  float64 `json:"recurring_reduction_ratio"`
	OverspendingSavingsRatio float64 `json:"overspending_savings_ratio"`
	CategoryMultiplier       float64 `json:"category_multiplier"`
	CategoryMinCount         int     `json:"category_min_count"`
	CategorySavingsRatio     float64 `json:"category_savings_ratio"`
}

const (
	minSavingsFloor       = 5000
	recurringFrequencyMin = 3
)

// DefaultThresholds are used when there is no expense history.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinSavingsAmount:         10000,
		RecurringMinFrequency:    4,
		RecurringReductionRatio:  0.5,
		OverspendingSavingsRatio: 0.3,
		CategoryMultiplier:       1.5,
		CategoryMinCount:         3,
		CategorySavingsRatio:     0.2,
	}
}

// ThresholdsFromProfile adapts the thresholds to the user's spending.
// Volatile spenders get a lower category multiplier so excess is caught sooner.
func ThresholdsFromProfile(p *Profile) Thresholds {
	th := DefaultThresholds()
	if p == nil {
		return th
	}

	th.MinSavingsAmount = max(
		int64(minSavingsFloor),
		stats.Round(p.MedianAmount*0.2),
		stats.Round(p.AvgAmount*0.1),
	)
	th.RecurringMinFrequency = max(recurringFrequencyMin, int(stats.Round(float64(p.AvgMonthlyCount)*0.05)))

	ratio := p.StdAmount / math.Max(p.AvgAmount, 1)
	switch {
	case ratio > 1.5:
		th.CategoryMultiplier = 1.3
	case ratio > 1.0:
		th.CategoryMultiplier = 1.4
	default:
		th.CategoryMultiplier = 1.5
	}
	return th
}
