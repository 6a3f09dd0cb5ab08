// Package analysis implements the pattern detectors over the transaction
// table: the filter/enrichment layer, overspending rules, recurring charges,
// time-of-day concentration and monthly statistics.
//
// Detectors are pure functions of (rows, rules, parameters). The Service type
// at the bottom of the package is the only part that touches storage.
package analysis

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/spending-patterns/internal/domain"
)

// DateParams carries the date selectors accepted by every entry point.
// A complete (Year, Month) pair wins over StartDate/EndDate.
type DateParams struct {
	Year      int    `json:"year,omitempty"`
	Month     int    `json:"month,omitempty"`
	StartDate string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   string `json:"end_date,omitempty"`   // YYYY-MM-DD
}

// DateRange is an inclusive calendar-date range. A nil bound is open.
type DateRange struct {
	Start *civil.Date
	End   *civil.Date
}

// Contains reports whether t falls on a day inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := civil.DateOf(t)
	if r.Start != nil && d.Before(*r.Start) {
		return false
	}
	if r.End != nil && d.After(*r.End) {
		return false
	}
	return true
}

// MonthRange returns the first and last calendar day of the given month.
func MonthRange(year int, month time.Month) DateRange {
	first := civil.Date{Year: year, Month: month, Day: 1}
	last := civil.DateOf(time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC))
	return DateRange{Start: &first, End: &last}
}

// ResolveDateRange turns request parameters into a DateRange.
func ResolveDateRange(p DateParams) (DateRange, error) {
	if p.Month != 0 && (p.Month < 1 || p.Month > 12) {
		return DateRange{}, domain.NewValidationError("month", "must be between 1 and 12")
	}
	if p.Year != 0 && p.Month != 0 {
		return MonthRange(p.Year, time.Month(p.Month)), nil
	}

	var r DateRange
	if p.StartDate != "" {
		d, err := civil.ParseDate(p.StartDate)
		if err != nil {
			return DateRange{}, &domain.ValidationError{Field: "start_date", Message: "must be YYYY-MM-DD", Err: err}
		}
		r.Start = &d
	}
	if p.EndDate != "" {
		d, err := civil.ParseDate(p.EndDate)
		if err != nil {
			return DateRange{}, &domain.ValidationError{Field: "end_date", Message: "must be YYYY-MM-DD", Err: err}
		}
		r.End = &d
	}
	return r, nil
}

// FilterByDateRange keeps the rows whose timestamp falls inside r.
func FilterByDateRange(t domain.Table, r DateRange) domain.Table {
	if r.Start == nil && r.End == nil {
		return t.Clone()
	}
	return t.Where(func(tx domain.Transaction) bool { return r.Contains(tx.Timestamp) })
}

// ExpenseOnly keeps negative-amount rows and replaces each amount with its magnitude.
func ExpenseOnly(t domain.Table) domain.Table {
	out := make(domain.Table, 0, len(t))
	for _, tx := range t {
		if !tx.IsExpense() {
			continue
		}
		tx.Amount = -tx.Amount
		out = append(out, tx)
	}
	return out
}

// ValidateTimestamps fails when any row lacks a genuine timestamp.
func ValidateTimestamps(t domain.Table) error {
	for _, tx := range t {
		if tx.Timestamp.IsZero() {
			return &domain.ValidationError{
				Field:   "timestamp",
				Message: fmt.Sprintf("transaction %d has no valid timestamp; check the stored table", tx.ID),
			}
		}
	}
	return nil
}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// ISOWeek identifies an ISO-8601 week.
type ISOWeek struct {
	Year int
	Week int
}

// Enriched is a transaction with the time fields the detectors group by.
type Enriched struct {
	domain.Transaction
	Hour    int
	DayName string     // e.g. "Monday"
	Date    civil.Date // calendar date
	Weekday int        // 0 = Monday .. 6 = Sunday
	Day     int        // day of month
	Weekend bool
	Week    ISOWeek
	Month   YearMonth
}

// Enrich appends the derived time fields to every row.
func Enrich(t domain.Table) []Enriched {
	out := make([]Enriched, len(t))
	for i, tx := range t {
		ts := tx.Timestamp
		weekday := (int(ts.Weekday()) + 6) % 7
		isoYear, isoWeek := ts.ISOWeek()
		out[i] = Enriched{
			Transaction: tx,
			Hour:        ts.Hour(),
			DayName:     ts.Weekday().String(),
			Date:        civil.DateOf(ts),
			Weekday:     weekday,
			Day:         ts.Day(),
			Weekend:     weekday >= 5,
			Week:        ISOWeek{Year: isoYear, Week: isoWeek},
			Month:       YearMonth{Year: ts.Year(), Month: ts.Month()},
		}
	}
	return out
}

// Prepare runs the fixed filter chain every detector starts from:
// date range, expense only, timestamp validation, enrichment.
// An empty intermediate result short-circuits to an empty slice.
func Prepare(t domain.Table, r DateRange) ([]Enriched, error) {
	expenses, err := PrepareExpenses(t, r)
	if err != nil || len(expenses) == 0 {
		return nil, err
	}
	return Enrich(expenses), nil
}

// PrepareExpenses is Prepare without the enrichment step.
func PrepareExpenses(t domain.Table, r DateRange) (domain.Table, error) {
	if t.Empty() {
		return nil, nil
	}
	filtered := FilterByDateRange(t, r)
	if filtered.Empty() {
		return nil, nil
	}
	expenses := ExpenseOnly(filtered)
	if expenses.Empty() {
		return nil, nil
	}
	if err := ValidateTimestamps(expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

func sumAmounts(rows []Enriched) int64 {
	var total int64
	for _, r := range rows {
		total += r.Amount
	}
	return total
}
