package analysis

import (
	"fmt"
	"sort"
)

// TimePatternType tags a time-based pattern.
type TimePatternType string

const (
	TimePatternRange          TimePatternType = "time_range"
	TimePatternEarlyMonth     TimePatternType = "early_month"
	TimePatternWeekendEvening TimePatternType = "weekend_evening"
)

// TimeBasedPattern summarizes spending inside one time slice.
type TimeBasedPattern struct {
	Type          TimePatternType `json:"type"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Count         int             `json:"count"`
	TotalAmount   int64           `json:"total_amount"`
	AverageAmount int64           `json:"average_amount"`
	TimeRange     string          `json:"time_range,omitempty"`
	Days          string          `json:"days,omitempty"`
}

type hourBucket struct {
	name  string
	icon  string
	start int
	end   int
}

var dayBuckets = []hourBucket{
	{name: "Dawn", icon: "🌙", start: 0, end: 6},
	{name: "Morning", icon: "☀️", start: 6, end: 12},
	{name: "Afternoon", icon: "🌤️", start: 12, end: 18},
	{name: "Evening", icon: "🌆", start: 18, end: 22},
	{name: "Night", icon: "🌃", start: 22, end: 24},
}

// earlyMonthLastDay is the last day of month counted as "early month".
const earlyMonthLastDay = 5

// weekendEveningHour is the first hour counted as a weekend evening.
const weekendEveningHour = 18

// DetectTimeBased reports spending per fixed hour bucket plus the early-month
// and weekend-evening slices, largest total first. Empty slices are omitted.
func DetectTimeBased(rows []Enriched) []TimeBasedPattern {
	patterns := []TimeBasedPattern{}
	if len(rows) == 0 {
		return patterns
	}

	for _, b := range dayBuckets {
		matched := selectRows(rows, func(r Enriched) bool { return r.Hour >= b.start && r.Hour < b.end })
		if len(matched) == 0 {
			continue
		}
		p := summarize(matched)
		p.Type = TimePatternRange
		p.Name = fmt.Sprintf("%s %s (%02d~%02d)", b.icon, b.name, b.start, b.end)
		p.Description = fmt.Sprintf("Spending in the %s", lowerFirst(b.name))
		p.TimeRange = fmt.Sprintf("%02d~%02d", b.start, b.end)
		patterns = append(patterns, p)
	}

	if early := selectRows(rows, func(r Enriched) bool { return r.Day <= earlyMonthLastDay }); len(early) > 0 {
		p := summarize(early)
		p.Type = TimePatternEarlyMonth
		p.Name = "💰 Early month (days 1~5)"
		p.Description = "Spending in the first days of the month"
		p.Days = "1~5"
		patterns = append(patterns, p)
	}

	if weekend := selectRows(rows, func(r Enriched) bool { return r.Weekend && r.Hour >= weekendEveningHour }); len(weekend) > 0 {
		p := summarize(weekend)
		p.Type = TimePatternWeekendEvening
		p.Name = "🎉 Weekend evening"
		p.Description = "Spending on weekend evenings"
		p.TimeRange = "after 18:00"
		patterns = append(patterns, p)
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].TotalAmount > patterns[j].TotalAmount
	})
	return patterns
}

func selectRows(rows []Enriched, keep func(Enriched) bool) []Enriched {
	var out []Enriched
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func summarize(rows []Enriched) TimeBasedPattern {
	total := sumAmounts(rows)
	return TimeBasedPattern{
		Count:         len(rows),
		TotalAmount:   total,
		AverageAmount: total / int64(len(rows)),
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
