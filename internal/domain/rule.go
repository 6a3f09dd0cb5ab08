package domain

import (
	"encoding/json"
)

// OverspendingRule is a user-editable threshold set scoped to one category and
// optionally to an hour-of-day window. Each non-nil threshold activates its checker.
type OverspendingRule struct {
	ID             *int64 `json:"id,omitempty"`
	Name           string `json:"name" validate:"required"`
	CategoryFilter string `json:"category_filter" validate:"required"`
	Enabled        bool   `json:"enabled"`
	PerTransaction *int64 `json:"per_transaction,omitempty" validate:"omitempty,gt=0"`
	WeeklyCount    *int64 `json:"weekly_count,omitempty" validate:"omitempty,gt=0"`
	MonthlyCount   *int64 `json:"monthly_count,omitempty" validate:"omitempty,gt=0"`
	MonthlyTotal   *int64 `json:"monthly_total,omitempty" validate:"omitempty,gt=0"`
	TimeFilter     []int  `json:"time_filter,omitempty" validate:"omitempty,len=2,dive,min=0,max=24"`
}

// UnmarshalJSON decodes a rule, defaulting Enabled to true when the field is absent.
func (r *OverspendingRule) UnmarshalJSON(data []byte) error {
	type plain OverspendingRule
	decoded := plain{Enabled: true}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = OverspendingRule(decoded)
	return nil
}

// RuleID returns the rule id, or 0 when the rule has none yet.
func (r OverspendingRule) RuleID() int64 {
	if r.ID == nil {
		return 0
	}
	return *r.ID
}

// WithID returns a copy of the rule carrying id.
func (r OverspendingRule) WithID(id int64) OverspendingRule {
	r.ID = &id
	return r
}

// MatchesHour reports whether hour falls inside the rule's time window.
// A window whose start is after its end wraps midnight. Rules without a
// window match every hour.
func (r OverspendingRule) MatchesHour(hour int) bool {
	if len(r.TimeFilter) != 2 {
		return true
	}
	start, end := r.TimeFilter[0], r.TimeFilter[1]
	if start > end {
		return hour >= start || hour < end
	}
	return hour >= start && hour < end
}

// Int64 returns a pointer to v. Handy for building rules in code.
func Int64(v int64) *int64 { return &v }
