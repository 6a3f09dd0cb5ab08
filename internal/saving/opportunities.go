package saving

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/spending-patterns/internal/analysis"
	"github.com/dvloznov/spending-patterns/internal/domain"
	"github.com/dvloznov/spending-patterns/internal/stats"
)

// OpportunityType tags an Opportunity variant.
type OpportunityType string

const (
	TypeRecurring    OpportunityType = "recurring"
	TypeOverspending OpportunityType = "overspending"
	TypeCategory     OpportunityType = "category"
)

// TopN is the number of opportunities returned to callers.
const TopN = 3

// fallbackMonthlyCount stands in for the profile's monthly count when there is no profile.
const fallbackMonthlyCount = 10

// Opportunity is one of RecurringOpportunity, OverspendingOpportunity or
// CategoryOpportunity.
type Opportunity interface {
	Base() OpportunityBase
	isOpportunity()
}

// OpportunityBase holds the fields every variant shares.
type OpportunityBase struct {
	Type          OpportunityType `json:"type"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	CurrentAmount int64           `json:"current_amount"`
	SavingsAmount int64           `json:"savings_amount"`
	Category      string          `json:"category"`
}

// Base returns the shared fields.
func (b OpportunityBase) Base() OpportunityBase { return b }

// RecurringOpportunity suggests visiting a merchant less often.
type RecurringOpportunity struct {
	OpportunityBase
	Merchant             string `json:"merchant"`
	CurrentFrequency     int    `json:"current_frequency"`
	RecommendedFrequency int    `json:"recommended_frequency"`
}

// OverspendingOpportunity suggests keeping to an overspending rule.
type OverspendingOpportunity struct {
	OpportunityBase
	Reasons []Reason `json:"reasons"`
}

// Reason is the caller-facing part of an analysis.OverspendingReason.
type Reason struct {
	Type    analysis.ReasonType `json:"type"`
	Message string              `json:"message"`
}

// CategoryOpportunity suggests lowering the average spend in a category.
type CategoryOpportunity struct {
	OpportunityBase
	CurrentAvg     int64 `json:"current_avg"`
	RecommendedAvg int64 `json:"recommended_avg"`
}

func (RecurringOpportunity) isOpportunity()    {}
func (OverspendingOpportunity) isOpportunity() {}
func (CategoryOpportunity) isOpportunity()     {}

// RecurringOpportunities turns frequent recurring patterns into savings suggestions.
func RecurringOpportunities(patterns []analysis.RecurringPattern, p *Profile, th Thresholds) []Opportunity {
	userMonthly := fallbackMonthlyCount
	if p != nil {
		userMonthly = p.AvgMonthlyCount
	}

	var out []Opportunity
	for _, pattern := range patterns {
		if pattern.Count < th.RecurringMinFrequency {
			continue
		}
		recommended := min(
			max(2, int(stats.Round(float64(userMonthly)*0.8))),
			max(2, int(stats.Round(float64(pattern.Count)*th.RecurringReductionRatio))),
		)
		savings := pattern.AverageAmount * int64(pattern.Count-recommended)
		if savings <= th.MinSavingsAmount {
			continue
		}
		out = append(out, RecurringOpportunity{
			OpportunityBase: OpportunityBase{
				Type:          TypeRecurring,
				Title:         fmt.Sprintf("Cut back on %s", pattern.Merchant),
				Description:   fmt.Sprintf("Going from %d to %d visits a month", pattern.Count, recommended),
				CurrentAmount: pattern.TotalAmount,
				SavingsAmount: savings,
				Category:      pattern.Category,
			},
			Merchant:             pattern.Merchant,
			CurrentFrequency:     pattern.Count,
			RecommendedFrequency: recommended,
		})
	}
	return out
}

// OverspendingOpportunities assumes a fixed share of each overspending total can be saved.
func OverspendingOpportunities(patterns []analysis.OverspendingPattern, th Thresholds) []Opportunity {
	var out []Opportunity
	for _, pattern := range patterns {
		savings := stats.Round(float64(pattern.TotalAmount) * th.OverspendingSavingsRatio)
		if savings <= th.MinSavingsAmount {
			continue
		}

		reasons := make([]Reason, len(pattern.Reasons))
		messages := make([]string, len(pattern.Reasons))
		for i, r := range pattern.Reasons {
			reasons[i] = Reason{Type: r.Type, Message: r.Message}
			messages[i] = r.Message
		}

		out = append(out, OverspendingOpportunity{
			OpportunityBase: OpportunityBase{
				Type:          TypeOverspending,
				Title:         fmt.Sprintf("Rein in %s", pattern.Category),
				Description:   fmt.Sprintf("Keeping to the rule (%s)", strings.Join(messages, ", ")),
				CurrentAmount: pattern.TotalAmount,
				SavingsAmount: savings,
				Category:      pattern.Category,
			},
			Reasons: reasons,
		})
	}
	return out
}

type categoryStat struct {
	category string
	total    int64
	count    int
}

func (c categoryStat) average() float64 {
	return float64(c.total) / float64(c.count)
}

// CategoryOpportunities compares each category's average expense in the
// selected period with the user's all-time average for that category.
// expenses must hold positive magnitudes, as returned by analysis.ExpenseOnly.
func CategoryOpportunities(expenses domain.Table, p *Profile, th Thresholds) []Opportunity {
	if expenses.Empty() {
		return nil
	}

	byCategory := make(map[string]*categoryStat)
	var grand int64
	for _, tx := range expenses {
		s, ok := byCategory[tx.Category]
		if !ok {
			s = &categoryStat{category: tx.Category}
			byCategory[tx.Category] = s
		}
		s.total += tx.Amount
		s.count++
		grand += tx.Amount
	}
	overallAvg := float64(grand) / float64(len(expenses))

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Opportunity
	for _, name := range names {
		s := byCategory[name]
		avg := s.average()

		userAvg := overallAvg
		if p != nil {
			if v, ok := p.CategoryAvgs[name]; ok {
				userAvg = v
			}
		}

		if avg <= userAvg*th.CategoryMultiplier {
			continue
		}
		if s.count < th.CategoryMinCount {
			continue
		}

		excess := (avg - userAvg) * float64(s.count)
		savings := stats.Round(excess * th.CategorySavingsRatio)
		if savings <= th.MinSavingsAmount {
			continue
		}

		out = append(out, CategoryOpportunity{
			OpportunityBase: OpportunityBase{
				Type:          TypeCategory,
				Title:         fmt.Sprintf("Spend less on %s", name),
				Description:   fmt.Sprintf("Bringing the average down to %s", analysis.FormatAmount(int64(userAvg))),
				CurrentAmount: s.total,
				SavingsAmount: savings,
				Category:      name,
			},
			CurrentAvg:     int64(avg),
			RecommendedAvg: int64(userAvg),
		})
	}
	return out
}

// Rank orders opportunities by savings, largest first, keeping the input order
// for ties, and truncates to n.
func Rank(opps []Opportunity, n int) []Opportunity {
	ranked := make([]Opportunity, len(opps))
	copy(ranked, opps)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Base().SavingsAmount > ranked[j].Base().SavingsAmount
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
