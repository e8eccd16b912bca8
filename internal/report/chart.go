package report

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	DefaultChartWidth = 40
	chartTitle        = "Income and Expenses Over Time"
)

// TextChart draws one pair of horizontal bars per day, income on top.
// Bars are scaled to the largest daily amount of either series.
type TextChart struct {
	Width int // bar length of the largest amount
}

type point struct {
	date            core.Date
	income, expense decimal.Decimal
}

func (c TextChart) Plot(w io.Writer, income, expense iter.Seq2[core.Date, decimal.Decimal]) error {
	width := c.Width
	if width <= 0 {
		width = DefaultChartWidth
	}

	var points []point
	for d, amount := range income {
		points = append(points, point{date: d, income: amount, expense: decimal.Zero})
	}
	i := 0
	for d, amount := range expense {
		if i >= len(points) || !points[i].date.Equal(d) {
			return fmt.Errorf("series out of step at %s", d)
		}
		points[i].expense = amount
		i++
	}
	if i != len(points) {
		return fmt.Errorf("series lengths differ: %d income, %d expense days", len(points), i)
	}

	peak := decimal.Zero
	for _, p := range points {
		peak = decimal.Max(peak, p.income, p.expense)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", chartTitle)
	fmt.Fprintf(&b, "%s  I = Income, E = Expense\n", strings.Repeat(" ", len(core.DateFormat)))
	for _, p := range points {
		fmt.Fprintf(&b, "%s  I %s\n", p.date.String(), bar(p.income, peak, width))
		fmt.Fprintf(&b, "%s  E %s\n", strings.Repeat(" ", len(core.DateFormat)), bar(p.expense, peak, width))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// bar renders amount as a run of '#' proportional to peak followed by its
// value. Non-zero amounts get at least one mark.
func bar(amount, peak decimal.Decimal, width int) string {
	n := 0
	if peak.IsPositive() {
		n = int(amount.Mul(decimal.NewFromInt(int64(width))).Div(peak).Round(0).IntPart())
	}
	if n == 0 && amount.IsPositive() {
		n = 1
	}
	f, _ := amount.Float64()
	return fmt.Sprintf("%s %s", strings.Repeat("#", n), humanize.CommafWithDigits(f, 2))
}
