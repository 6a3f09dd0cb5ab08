// Package transactions lists, filters and edits rows of the transaction table.
package transactions

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/spending-patterns/internal/analysis"
	"github.com/dvloznov/spending-patterns/internal/domain"
)

const (
	DefaultLimit  = 50
	earlyMonthDay = 5
)

// Query selects and pages transactions. Zero values disable a filter.
type Query struct {
	Limit         int    `json:"limit" validate:"gte=0"`
	Offset        int    `json:"offset" validate:"gte=0"`
	Category      string `json:"category,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	Merchant      string `json:"merchant,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
	TimeRange     string `json:"time_range,omitempty"`
	IsWeekend     bool   `json:"is_weekend,omitempty"`
	EarlyMonth    bool   `json:"early_month,omitempty"`
}

// Page is one page of matching transactions, newest first.
type Page struct {
	Transactions []domain.Transaction `json:"transactions"`
	TotalCount   int                  `json:"total_count"`
	HasMore      bool                 `json:"has_more"`
}

// hourWindow is a [start, end) hour range that wraps midnight when start >= end.
type hourWindow struct {
	start, end int
}

func (w hourWindow) contains(hour int) bool {
	if w.start < w.end {
		return hour >= w.start && hour < w.end
	}
	return hour >= w.start || hour < w.end
}

// parseTimeRange reads "HH:MM-HH:MM". Only the hours are used.
func parseTimeRange(raw string) (*hourWindow, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, "-")
	if len(parts) != 2 {
		return nil, domain.NewValidationError("time_range", "must look like HH:MM-HH:MM")
	}
	var hours [2]int
	for i, p := range parts {
		h, err := strconv.Atoi(strings.TrimSpace(strings.SplitN(p, ":", 2)[0]))
		if err != nil || h < 0 || h > 24 {
			return nil, domain.NewValidationError("time_range", fmt.Sprintf("bad hour in %q", p))
		}
		hours[i] = h
	}
	return &hourWindow{start: hours[0], end: hours[1]}, nil
}

// Filter applies every filter of q to t, keeping table order.
func Filter(t domain.Table, q Query) (domain.Table, error) {
	r, err := analysis.ResolveDateRange(analysis.DateParams{StartDate: q.StartDate, EndDate: q.EndDate})
	if err != nil {
		return nil, err
	}
	window, err := parseTimeRange(q.TimeRange)
	if err != nil {
		return nil, err
	}

	return t.Where(func(tx domain.Transaction) bool {
		switch {
		case q.Category != "" && tx.Category != q.Category:
			return false
		case !r.Contains(tx.Timestamp):
			return false
		case q.Merchant != "" && !strings.Contains(tx.Description, q.Merchant):
			return false
		case q.PaymentMethod != "" && tx.PaymentMethod != q.PaymentMethod:
			return false
		case window != nil && !window.contains(tx.Timestamp.Hour()):
			return false
		case q.IsWeekend && !isWeekend(tx.Timestamp):
			return false
		case q.EarlyMonth && tx.Timestamp.Day() > earlyMonthDay:
			return false
		}
		return true
	}), nil
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Paginate sorts t newest first and slices out one page.
func Paginate(t domain.Table, limit, offset int) Page {
	sorted := t.Clone()
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.After(sorted[j].Timestamp) })

	total := len(sorted)
	start := min(offset, total)
	end := min(start+limit, total)
	rows := make([]domain.Transaction, end-start)
	copy(rows, sorted[start:end])

	return Page{
		Transactions: rows,
		TotalCount:   total,
		HasMore:      offset+len(rows) < total,
	}
}

// Update carries the editable fields of a transaction. Nil fields are left
// unchanged.
type Update struct {
	Description   *string `json:"description,omitempty"`
	Amount        *int64  `json:"amount,omitempty"`
	Category      *string `json:"category,omitempty" validate:"omitempty,min=1"`
	PaymentMethod *string `json:"payment_method,omitempty" validate:"omitempty,min=1"`
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Description == nil && u.Amount == nil && u.Category == nil && u.PaymentMethod == nil
}

// Apply returns tx with the update's fields set.
func (u Update) Apply(tx domain.Transaction) domain.Transaction {
	if u.Description != nil {
		tx.Description = *u.Description
	}
	if u.Amount != nil {
		tx.Amount = *u.Amount
	}
	if u.Category != nil {
		tx.Category = *u.Category
	}
	if u.PaymentMethod != nil {
		tx.PaymentMethod = *u.PaymentMethod
	}
	return tx
}
