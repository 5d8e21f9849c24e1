// Package report derives dashboard and records figures from the current
// application state. Everything here is a pure function of its inputs;
// nothing is cached, every call recomputes from scratch.
package report

import (
	"time"

	"bentahub/backend/internal/domain"
)

type Range string

const (
	RangeToday Range = "today"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeAll   Range = "all"
)

// ParseRange coerces unknown values to today rather than failing.
func ParseRange(raw string) Range {
	switch Range(raw) {
	case RangeToday, RangeWeek, RangeMonth, RangeAll:
		return Range(raw)
	default:
		return RangeToday
	}
}

type Summary struct {
	TodaySalesCents       int64                `json:"today_sales_cents"`
	TodayTransactionCount int                  `json:"today_transaction_count"`
	TodayTransactions     []domain.Transaction `json:"today_transactions"`
	LowStockCount         int                  `json:"low_stock_count"`
	LowStockProducts      []domain.Product     `json:"low_stock_products"`
	MonthSalesCents       int64                `json:"month_sales_cents"`
	MonthExpenseCents     int64                `json:"month_expense_cents"`
	MonthNetCents         int64                `json:"month_net_cents"`
}

type RangeReport struct {
	Range            Range `json:"range"`
	SalesCents       int64 `json:"sales_cents"`
	ExpenseCents     int64 `json:"expense_cents"`
	NetCents         int64 `json:"net_cents"`
	TransactionCount int   `json:"transaction_count"`
	ExpenseCount     int   `json:"expense_count"`
}

// startOfDay aligns t to local midnight.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// RangeStart computes the inclusive start instant for a records range.
// The week range subtracts 7 days from midnight-today, an 8-calendar-day
// inclusive window, matching the original date arithmetic.
func RangeStart(r Range, ref time.Time) time.Time {
	day := startOfDay(ref)
	switch r {
	case RangeWeek:
		return day.AddDate(0, 0, -7)
	case RangeMonth:
		return startOfMonth(ref)
	case RangeAll:
		return time.Time{}
	default:
		return day
	}
}

// sameDay reports whether both instants fall on the same local calendar day.
func sameDay(a, b time.Time) bool {
	return startOfDay(a).Equal(startOfDay(b))
}

// Summarize computes the dashboard figures for the given reference time.
func Summarize(products []domain.Product, transactions []domain.Transaction, expenses []domain.Expense, ref time.Time) Summary {
	var s Summary

	for _, tx := range transactions {
		if sameDay(tx.Timestamp, ref) {
			s.TodaySalesCents += tx.TotalCents
			s.TodayTransactionCount++
			s.TodayTransactions = append(s.TodayTransactions, tx)
		}
	}

	// Catalog insertion order is preserved; callers truncate for display.
	for _, p := range products {
		if p.Stock <= p.LowStockThreshold {
			s.LowStockProducts = append(s.LowStockProducts, p)
		}
	}
	s.LowStockCount = len(s.LowStockProducts)

	monthStart := startOfMonth(ref)
	for _, tx := range transactions {
		if !tx.Timestamp.Before(monthStart) {
			s.MonthSalesCents += tx.TotalCents
		}
	}
	for _, e := range expenses {
		if !e.Date.Before(monthStart) {
			s.MonthExpenseCents += e.AmountCents
		}
	}
	s.MonthNetCents = s.MonthSalesCents - s.MonthExpenseCents

	return s
}

// Aggregate sums transactions and expenses inside the given range. The range
// start itself is included; anything before it, even by a millisecond, is not.
func Aggregate(transactions []domain.Transaction, expenses []domain.Expense, r Range, ref time.Time) RangeReport {
	start := RangeStart(r, ref)
	out := RangeReport{Range: r}

	for _, tx := range transactions {
		if !tx.Timestamp.Before(start) {
			out.SalesCents += tx.TotalCents
			out.TransactionCount++
		}
	}
	for _, e := range expenses {
		if !e.Date.Before(start) {
			out.ExpenseCents += e.AmountCents
			out.ExpenseCount++
		}
	}
	out.NetCents = out.SalesCents - out.ExpenseCents

	return out
}

// FilterTransactions returns the transactions inside the range, newest first.
// Input order (prepend on create) is already newest first, so a copy suffices.
func FilterTransactions(transactions []domain.Transaction, r Range, ref time.Time) []domain.Transaction {
	start := RangeStart(r, ref)
	out := make([]domain.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if !tx.Timestamp.Before(start) {
			out = append(out, tx)
		}
	}
	return out
}

func FilterExpenses(expenses []domain.Expense, r Range, ref time.Time) []domain.Expense {
	start := RangeStart(r, ref)
	out := make([]domain.Expense, 0, len(expenses))
	for _, e := range expenses {
		if !e.Date.Before(start) {
			out = append(out, e)
		}
	}
	return out
}
