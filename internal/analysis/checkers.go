package analysis

import (
	"fmt"

	"github.com/dvloznov/spending-patterns/internal/domain"
)

// ReasonType tags why an overspending rule fired.
type ReasonType string

const (
	ReasonHighFrequency ReasonType = "high_frequency"
	ReasonHighMonthly   ReasonType = "high_monthly"
	ReasonHighAmount    ReasonType = "high_amount"
)

// ThresholdKind names one of the rule thresholds.
type ThresholdKind string

const (
	ThresholdWeeklyCount    ThresholdKind = "weekly_count"
	ThresholdMonthlyCount   ThresholdKind = "monthly_count"
	ThresholdMonthlyTotal   ThresholdKind = "monthly_total"
	ThresholdPerTransaction ThresholdKind = "per_transaction"
)

// OverspendingReason explains one triggered checker.
type OverspendingReason struct {
	Type      ReasonType    `json:"type"`
	Threshold ThresholdKind `json:"threshold"`
	Count     int           `json:"count"`
	Message   string        `json:"message"`
}

type checker struct {
	kind      ThresholdKind
	threshold func(domain.OverspendingRule) *int64
	check     func(rows []Enriched, threshold int64) *OverspendingReason
}

// checkers run in this order; reasons keep it.
var checkers = []checker{
	{
		kind:      ThresholdWeeklyCount,
		threshold: func(r domain.OverspendingRule) *int64 { return r.WeeklyCount },
		check:     checkWeeklyCount,
	},
	{
		kind:      ThresholdMonthlyCount,
		threshold: func(r domain.OverspendingRule) *int64 { return r.MonthlyCount },
		check:     checkMonthlyCount,
	},
	{
		kind:      ThresholdMonthlyTotal,
		threshold: func(r domain.OverspendingRule) *int64 { return r.MonthlyTotal },
		check:     checkMonthlyTotal,
	},
	{
		kind:      ThresholdPerTransaction,
		threshold: func(r domain.OverspendingRule) *int64 { return r.PerTransaction },
		check:     checkPerTransaction,
	},
}

func checkWeeklyCount(rows []Enriched, threshold int64) *OverspendingReason {
	counts := make(map[ISOWeek]int64)
	for _, r := range rows {
		counts[r.Week]++
	}
	hits := 0
	for _, c := range counts {
		if c >= threshold {
			hits++
		}
	}
	if hits == 0 {
		return nil
	}
	return &OverspendingReason{
		Type:      ReasonHighFrequency,
		Threshold: ThresholdWeeklyCount,
		Count:     len(rows),
		Message:   fmt.Sprintf("%d+ times a week (%d weeks)", threshold, hits),
	}
}

func checkMonthlyCount(rows []Enriched, threshold int64) *OverspendingReason {
	counts := make(map[YearMonth]int64)
	for _, r := range rows {
		counts[r.Month]++
	}
	hits := 0
	for _, c := range counts {
		if c >= threshold {
			hits++
		}
	}
	if hits == 0 {
		return nil
	}
	return &OverspendingReason{
		Type:      ReasonHighFrequency,
		Threshold: ThresholdMonthlyCount,
		Count:     len(rows),
		Message:   fmt.Sprintf("%d+ times a month (%d months)", threshold, hits),
	}
}

func checkMonthlyTotal(rows []Enriched, threshold int64) *OverspendingReason {
	totals := make(map[YearMonth]int64)
	for _, r := range rows {
		totals[r.Month] += r.Amount
	}
	hits := 0
	for _, sum := range totals {
		if sum >= threshold {
			hits++
		}
	}
	if hits == 0 {
		return nil
	}
	return &OverspendingReason{
		Type:      ReasonHighMonthly,
		Threshold: ThresholdMonthlyTotal,
		Count:     len(rows),
		Message:   fmt.Sprintf("monthly total over %s (%d months)", FormatAmount(threshold), hits),
	}
}

func checkPerTransaction(rows []Enriched, threshold int64) *OverspendingReason {
	n := 0
	for _, r := range rows {
		if r.Amount >= threshold {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return &OverspendingReason{
		Type:      ReasonHighAmount,
		Threshold: ThresholdPerTransaction,
		Count:     n,
		Message:   fmt.Sprintf("%s or more per transaction (%d transactions)", FormatAmount(threshold), n),
	}
}

// FormatAmount renders an amount with thousands separators, e.g. 1,250,000.
func FormatAmount(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%d", v)
	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
