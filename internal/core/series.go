package core

import (
	"iter"

	"github.com/shopspring/decimal"
)

// DateSpan returns the earliest and latest date in txs. ok is false when
// txs is empty.
func DateSpan(txs []Transaction) (first, last Date, ok bool) {
	for i, t := range txs {
		if i == 0 || t.Date.Before(first) {
			first = t.Date
		}
		if i == 0 || t.Date.After(last) {
			last = t.Date
		}
	}
	return first, last, len(txs) > 0
}

// DailySeries yields one (date, amount) pair per calendar day between the
// earliest and latest date in txs, inclusive. Each amount is the sum of the
// transactions of the given category on that day, zero when there are none.
//
// The span is taken over all of txs, not only the given category, so the
// Income and Expense series of the same set cover the same days. The
// sequence is recomputed on every iteration.
func DailySeries(txs []Transaction, category Category) iter.Seq2[Date, decimal.Decimal] {
	return func(yield func(Date, decimal.Decimal) bool) {
		first, last, ok := DateSpan(txs)
		if !ok {
			return
		}
		byDay := make(map[string]decimal.Decimal)
		for _, t := range txs {
			if t.Category != category {
				continue
			}
			key := t.Date.ISO()
			byDay[key] = byDay[key].Add(t.Amount)
		}
		for d := first; !d.After(last); d = d.AddDays(1) {
			amount, found := byDay[d.ISO()]
			if !found {
				amount = decimal.Zero
			}
			if !yield(d, amount) {
				return
			}
		}
	}
}
