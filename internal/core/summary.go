package core

import "github.com/shopspring/decimal"

// Summary holds totals over a set of transactions. Sums are exact decimal
// arithmetic, no floating point is involved.
type Summary struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	NetSavings   decimal.Decimal
}

// Summarize totals income and expense and derives net savings.
// An empty input yields an all-zero summary.
func Summarize(txs []Transaction) Summary {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txs {
		switch t.Category {
		case Income:
			income = income.Add(t.Amount)
		case Expense:
			expense = expense.Add(t.Amount)
		}
	}
	return Summary{
		TotalIncome:  income,
		TotalExpense: expense,
		NetSavings:   income.Sub(expense),
	}
}

// Combine adds two summaries and recomputes net savings.
func Combine(a, b Summary) Summary {
	income := a.TotalIncome.Add(b.TotalIncome)
	expense := a.TotalExpense.Add(b.TotalExpense)
	return Summary{
		TotalIncome:  income,
		TotalExpense: expense,
		NetSavings:   income.Sub(expense),
	}
}

// Equal compares summaries numerically, ignoring decimal scale.
func (s Summary) Equal(o Summary) bool {
	return s.TotalIncome.Equal(o.TotalIncome) &&
		s.TotalExpense.Equal(o.TotalExpense) &&
		s.NetSavings.Equal(o.NetSavings)
}
