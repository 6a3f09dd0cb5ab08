package analysis

import (
	"github.com/dvloznov/spending-patterns/internal/domain"
)

// OverspendingPattern is the result of one rule whose thresholds fired.
type OverspendingPattern struct {
	Category    string               `json:"category"` // rule name
	TotalAmount int64                `json:"total_amount"`
	Reasons     []OverspendingReason `json:"reasons"`
}

// DetectOverspending evaluates every enabled rule independently against rows.
// Patterns are returned in rule order.
func DetectOverspending(rows []Enriched, rules []domain.OverspendingRule) []OverspendingPattern {
	patterns := []OverspendingPattern{}
	if len(rows) == 0 {
		return patterns
	}
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if p, ok := CheckRule(rows, rule); ok {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// CheckRule applies a single rule. ok is false when the rule matched no rows
// or none of its checkers fired.
func CheckRule(rows []Enriched, rule domain.OverspendingRule) (OverspendingPattern, bool) {
	matched := filterByRule(rows, rule)
	if len(matched) == 0 {
		return OverspendingPattern{}, false
	}

	var reasons []OverspendingReason
	for _, c := range checkers {
		threshold := c.threshold(rule)
		if threshold == nil {
			continue
		}
		if reason := c.check(matched, *threshold); reason != nil {
			reasons = append(reasons, *reason)
		}
	}
	if len(reasons) == 0 {
		return OverspendingPattern{}, false
	}

	return OverspendingPattern{
		Category:    rule.Name,
		TotalAmount: sumAmounts(matched),
		Reasons:     reasons,
	}, true
}

func filterByRule(rows []Enriched, rule domain.OverspendingRule) []Enriched {
	var out []Enriched
	for _, r := range rows {
		if r.Category != rule.CategoryFilter {
			continue
		}
		if !rule.MatchesHour(r.Hour) {
			continue
		}
		out = append(out, r)
	}
	return out
}
