package domain

import (
	"time"
)

// Transaction is one row of the transaction table.
// Amount follows the bank-export sign convention: positive = income,
// negative = expense. Detectors work on absolute expense magnitudes.
type Transaction struct {
	ID            int64     `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Type          string    `json:"type,omitempty"` // export column, e.g. 지출 / 수입 / 이체
	Category      string    `json:"category"`
	Subcategory   string    `json:"subcategory,omitempty"`
	Description   string    `json:"description"` // merchant / free text
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency,omitempty"`
	PaymentMethod string    `json:"payment_method"`
	Memo          string    `json:"memo,omitempty"`
}

// IsExpense reports whether the row is an outgoing payment.
func (t Transaction) IsExpense() bool {
	return t.Amount < 0
}

// IsIncome reports whether the row is an incoming payment.
func (t Transaction) IsIncome() bool {
	return t.Amount > 0
}

// Table is an ordered view of transactions. The persisted order is newest first.
// Transforms return new tables and never mutate the rows of their input.
type Table []Transaction

// Len returns the row count.
func (t Table) Len() int { return len(t) }

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t) == 0 }

// Clone returns a copy that can be modified without affecting t.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	copy(out, t)
	return out
}

// Where returns the rows for which keep returns true, preserving order.
func (t Table) Where(keep func(Transaction) bool) Table {
	out := make(Table, 0, len(t))
	for _, tx := range t {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// IndexOf returns the positions of every row with the given id.
func (t Table) IndexOf(id int64) []int {
	var idx []int
	for i, tx := range t {
		if tx.ID == id {
			idx = append(idx, i)
		}
	}
	return idx
}

// Span returns the earliest and latest timestamps in the table.
// ok is false for an empty table.
func (t Table) Span() (first, last time.Time, ok bool) {
	if len(t) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = t[0].Timestamp, t[0].Timestamp
	for _, tx := range t[1:] {
		if tx.Timestamp.Before(first) {
			first = tx.Timestamp
		}
		if tx.Timestamp.After(last) {
			last = tx.Timestamp
		}
	}
	return first, last, true
}

// SpanDays returns the whole number of days between the earliest and latest
// timestamps, truncated toward zero.
func (t Table) SpanDays() int {
	first, last, ok := t.Span()
	if !ok {
		return 0
	}
	return int(last.Sub(first) / (24 * time.Hour))
}
