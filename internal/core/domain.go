package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Income  Category = "Income"
	Expense Category = "Expense"
)

type (
	// Category classifies a transaction. Stored as the literal name.
	Category string

	Transaction struct {
		Date        Date
		Amount      decimal.Decimal
		Category    Category
		Description string // optional
	}
)

var (
	ErrInvalidFormat   = errors.New("invalid date format, use dd-mm-yyyy")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("amount must be a positive number")
	ErrInvalidCategory = errors.New("invalid category, use 'I' for Income or 'E' for Expense")
)

// categoryCodes maps the single-letter input codes to categories.
var categoryCodes = map[string]Category{
	"I": Income,
	"E": Expense,
}

func (c Category) String() string {
	return string(c)
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	switch c {
	case Income, Expense:
		return true
	default:
		return false
	}
}

// ParseCategoryCode maps an input code ("I" or "E", any case) to a Category.
func ParseCategoryCode(s string) (Category, error) {
	c, ok := categoryCodes[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// ParseCategory parses a stored category name. Surrounding whitespace is
// ignored, as for stored dates and amounts; the name itself must be exactly
// "Income" or "Expense".
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !c.IsValid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Category.IsValid() {
		return ErrInvalidCategory
	}
	return nil
}
