package analysis

import (
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
)

// DefaultMinCount is the minimum number of occurrences for a recurring pattern.
const DefaultMinCount = 3

// RecurringPattern is a group of expenses at the same merchant, in the same
// six-hour bucket, category and payment method.
type RecurringPattern struct {
	Key           string     `json:"key"`
	Merchant      string     `json:"merchant"`
	TimeRange     string     `json:"time_range"`
	DayOfWeek     *string    `json:"day_of_week"`
	Category      string     `json:"category"`
	PaymentMethod string     `json:"payment_method"`
	Count         int        `json:"count"`
	TotalAmount   int64      `json:"total_amount"`
	AverageAmount int64      `json:"average_amount"`
	FirstDate     civil.Date `json:"first_date"`
	LastDate      civil.Date `json:"last_date"`
	PeriodDays    int        `json:"period_days"`
	Amounts       []int64    `json:"amounts"`
}

// SixHourBucket maps an hour to its recurring-detection bucket label.
func SixHourBucket(hour int) string {
	switch {
	case hour >= 0 && hour < 6:
		return "00:00-06:00"
	case hour >= 6 && hour < 12:
		return "06:00-12:00"
	case hour >= 12 && hour < 18:
		return "12:00-18:00"
	default:
		return "18:00-24:00"
	}
}

type recurringKey struct {
	merchant      string
	timeRange     string
	category      string
	paymentMethod string
}

func (k recurringKey) less(o recurringKey) bool {
	if k.merchant != o.merchant {
		return k.merchant < o.merchant
	}
	if k.timeRange != o.timeRange {
		return k.timeRange < o.timeRange
	}
	if k.category != o.category {
		return k.category < o.category
	}
	return k.paymentMethod < o.paymentMethod
}

// DetectRecurring groups rows by (merchant, bucket, category, payment method)
// and keeps groups with at least minCount rows, largest total first.
// Groups with equal totals keep their sorted-key order.
func DetectRecurring(rows []Enriched, minCount int) []RecurringPattern {
	patterns := []RecurringPattern{}
	if len(rows) == 0 {
		return patterns
	}

	groups := make(map[recurringKey][]Enriched)
	for _, r := range rows {
		k := recurringKey{
			merchant:      r.Description,
			timeRange:     SixHourBucket(r.Hour),
			category:      r.Category,
			paymentMethod: r.PaymentMethod,
		}
		groups[k] = append(groups[k], r)
	}

	keys := make([]recurringKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	for _, k := range keys {
		group := groups[k]
		if len(group) < minCount {
			continue
		}
		patterns = append(patterns, buildRecurringPattern(k, group))
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].TotalAmount > patterns[j].TotalAmount
	})
	return patterns
}

func buildRecurringPattern(k recurringKey, group []Enriched) RecurringPattern {
	count := len(group)
	amounts := make([]int64, count)
	dates := make([]civil.Date, count)
	days := make(map[string]struct{})
	var total int64
	for i, r := range group {
		amounts[i] = r.Amount
		dates[i] = r.Date
		days[r.DayName] = struct{}{}
		total += r.Amount
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	first, last := dates[0], dates[count-1]

	var dayOfWeek *string
	if len(days) == 1 {
		name := group[0].DayName
		dayOfWeek = &name
	}

	period := 0
	if count > 1 {
		period = last.DaysSince(first) / (count - 1)
	}

	return RecurringPattern{
		Key:           fmt.Sprintf("%s_%s_%s_%s", k.merchant, k.timeRange, k.category, k.paymentMethod),
		Merchant:      k.merchant,
		TimeRange:     k.timeRange,
		DayOfWeek:     dayOfWeek,
		Category:      k.category,
		PaymentMethod: k.paymentMethod,
		Count:         count,
		TotalAmount:   total,
		AverageAmount: total / int64(count),
		FirstDate:     first,
		LastDate:      last,
		PeriodDays:    period,
		Amounts:       amounts,
	}
}
