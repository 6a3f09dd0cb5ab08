package analysis

import (
	"sort"
	"time"

	"github.com/dvloznov/spending-patterns/internal/domain"
	"github.com/dvloznov/spending-patterns/internal/stats"
)

// CategoryBreakdown is one category's share of a month's income or expense.
type CategoryBreakdown struct {
	Category   string  `json:"category"`
	Amount     int64   `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// MonthlyStats is the income/expense summary of one calendar month.
type MonthlyStats struct {
	Month            string              `json:"month"` // YYYY-MM
	TotalIncome      int64               `json:"total_income"`
	TotalExpense     int64               `json:"total_expense"`
	Balance          int64               `json:"balance"`
	IncomeCount      int                 `json:"income_count"`
	ExpenseCount     int                 `json:"expense_count"`
	IncomeBreakdown  []CategoryBreakdown `json:"income_breakdown"`
	ExpenseBreakdown []CategoryBreakdown `json:"expense_breakdown"`
}

// ComputeMonthlyStats summarizes the rows of t falling in the given month.
// Expense amounts are reported as magnitudes.
func ComputeMonthlyStats(t domain.Table, year int, month time.Month) MonthlyStats {
	out := MonthlyStats{
		Month:            YearMonth{Year: year, Month: month}.String(),
		IncomeBreakdown:  []CategoryBreakdown{},
		ExpenseBreakdown: []CategoryBreakdown{},
	}

	income := make(map[string]int64)
	expense := make(map[string]int64)
	for _, tx := range t {
		if tx.Timestamp.Year() != year || tx.Timestamp.Month() != month {
			continue
		}
		switch {
		case tx.IsIncome():
			income[tx.Category] += tx.Amount
			out.TotalIncome += tx.Amount
			out.IncomeCount++
		case tx.IsExpense():
			expense[tx.Category] -= tx.Amount
			out.TotalExpense -= tx.Amount
			out.ExpenseCount++
		}
	}

	out.Balance = out.TotalIncome - out.TotalExpense
	out.IncomeBreakdown = breakdown(income, out.TotalIncome)
	out.ExpenseBreakdown = breakdown(expense, out.TotalExpense)
	return out
}

func breakdown(sums map[string]int64, total int64) []CategoryBreakdown {
	items := []CategoryBreakdown{}
	if len(sums) == 0 || total == 0 {
		return items
	}
	for cat, amt := range sums {
		items = append(items, CategoryBreakdown{
			Category:   cat,
			Amount:     amt,
			Percentage: stats.RoundTo(float64(amt)/float64(total)*100, 1),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Amount != items[j].Amount {
			return items[i].Amount > items[j].Amount
		}
		return items[i].Category < items[j].Category
	})
	return items
}
