package ledger

import (
	"slices"
	"strings"

	"fintrack/internal/core"
)

// Columns is the fixed schema of every persisted record.
var Columns = []string{"date", "amount", "category", "description"}

const (
	colDate = iota
	colAmount
	colCategory
	colDescription
)

// EncodeRecord renders a transaction in the persisted column order.
func EncodeRecord(t core.Transaction) []string {
	return []string{
		t.Date.String(),
		t.Amount.String(),
		t.Category.String(),
		t.Description,
	}
}

// IsHeader reports whether rec is exactly the column header.
func IsHeader(rec []string) bool {
	if len(rec) != len(Columns) {
		return false
	}
	for i, c := range Columns {
		if strings.TrimSpace(rec[i]) != c {
			return false
		}
	}
	return true
}

// CheckHeader returns a MalformedRecordError when rec is not the header.
func CheckHeader(line int, rec []string) error {
	if IsHeader(rec) {
		return nil
	}
	return &core.MalformedRecordError{
		Line:  line,
		Field: "header",
		Value: strings.Join(rec, ","),
		Err:   core.ErrMalformedRecord,
	}
}

// DecodeRecord parses a stored row. Any violation of the transaction
// invariants is reported as a *core.MalformedRecordError carrying line.
// A missing trailing description column is read as an empty description.
func DecodeRecord(line int, rec []string) (core.Transaction, error) {
	if len(rec) == len(Columns)-1 {
		rec = append(slices.Clone(rec), "")
	}
	if len(rec) != len(Columns) {
		return core.Transaction{}, &core.MalformedRecordError{
			Line:  line,
			Value: strings.Join(rec, ","),
			Err:   core.ErrMalformedRecord,
		}
	}

	date, err := core.ParseDate(rec[colDate])
	if err != nil {
		return core.Transaction{}, malformed(line, Columns[colDate], rec[colDate], err)
	}
	amount, err := core.ParseAmount(rec[colAmount])
	if err != nil {
		return core.Transaction{}, malformed(line, Columns[colAmount], rec[colAmount], err)
	}
	category, err := core.ParseCategory(rec[colCategory])
	if err != nil {
		return core.Transaction{}, malformed(line, Columns[colCategory], rec[colCategory], err)
	}

	return core.Transaction{
		Date:        date,
		Amount:      amount,
		Category:    category,
		Description: rec[colDescription],
	}, nil
}

func malformed(line int, field, value string, err error) error {
	return &core.MalformedRecordError{Line: line, Field: field, Value: value, Err: err}
}
