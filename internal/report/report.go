// Package report renders ledger query results for the terminal.
package report

import (
	"fmt"
	"io"
	"iter"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Charter draws the daily income and expense series. Both series cover the
// same days.
type Charter interface {
	Plot(w io.Writer, income, expense iter.Seq2[core.Date, decimal.Decimal]) error
}

// FormatTable writes txs as aligned columns: date, amount with two
// decimals, category and description.
func FormatTable(w io.Writer, txs []core.Transaction) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "date\tamount\tcategory\tdescription")
	for _, t := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			t.Date.String(),
			core.FormatAmount(t.Amount),
			t.Category.String(),
			t.Description)
	}
	return tw.Flush()
}

// FormatSummary writes the one-line totals summary.
func FormatSummary(w io.Writer, s core.Summary) error {
	_, err := fmt.Fprintf(w, "Summary: Total Income: $%s, Total Expense: $%s, Net Savings: $%s\n",
		core.FormatAmount(s.TotalIncome),
		core.FormatAmount(s.TotalExpense),
		core.FormatAmount(s.NetSavings))
	return err
}

// Reporter writes tables, summaries and charts to one output.
type Reporter struct {
	out     io.Writer
	charter Charter
}

func NewReporter(out io.Writer, charter Charter) *Reporter {
	if charter == nil {
		charter = TextChart{}
	}
	return &Reporter{out: out, charter: charter}
}

func (r *Reporter) Table(txs []core.Transaction) error {
	return FormatTable(r.out, txs)
}

func (r *Reporter) Summary(s core.Summary) error {
	return FormatSummary(r.out, s)
}

// Plot hands the Income and Expense daily series of txs to the charter.
func (r *Reporter) Plot(txs []core.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	return r.charter.Plot(r.out,
		core.DailySeries(txs, core.Income),
		core.DailySeries(txs, core.Expense))
}
