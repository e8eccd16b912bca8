// Package prompt reads validated ledger input from a line-oriented terminal.
// Invalid input is reported and asked again; end of input ends the session
// with io.EOF.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// ErrTooManyAttempts is returned once MaxAttempts invalid answers were given.
var ErrTooManyAttempts = errors.New("too many invalid attempts")

const (
	msgInvalidDate     = "Invalid date format. Please use dd-mm-yyyy."
	msgDateRequired    = "Date is required."
	msgInvalidAmount   = "Amount must be a positive number."
	msgInvalidCategory = "Invalid input. Use 'I' for Income or 'E' for Expense."
)

type Prompter struct {
	in    *bufio.Reader
	out   io.Writer
	clock core.Clock

	// MaxAttempts bounds the retries of a single question; zero means
	// unbounded.
	MaxAttempts int
}

func New(in io.Reader, out io.Writer, clock core.Clock) *Prompter {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Prompter{in: bufio.NewReader(in), out: out, clock: clock}
}

// Line writes label and returns the next input line without its line
// ending. A final line without newline is still returned.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// ask repeats label until parse accepts the answer. parse returns the
// message to show for a rejected answer.
func ask[T any](p *Prompter, label string, parse func(string) (T, string)) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		s, err := p.Line(label)
		if err != nil {
			return zero, err
		}
		v, msg := parse(s)
		if msg == "" {
			return v, nil
		}
		fmt.Fprintln(p.out, msg)
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return zero, ErrTooManyAttempts
		}
	}
}

// Date asks for a dd-mm-yyyy date. With allowDefault an empty answer is
// today's date.
func (p *Prompter) Date(label string, allowDefault bool) (core.Date, error) {
	return ask(p, label, func(s string) (core.Date, string) {
		if strings.TrimSpace(s) == "" {
			if allowDefault {
				return p.clock.Today(), ""
			}
			return core.Date{}, msgDateRequired
		}
		d, err := core.ParseDate(s)
		if err != nil {
			return core.Date{}, msgInvalidDate
		}
		return d, ""
	})
}

func (p *Prompter) Amount() (decimal.Decimal, error) {
	return ask(p, "Enter the amount: ", func(s string) (decimal.Decimal, string) {
		d, err := core.ParseAmount(s)
		if err != nil {
			return decimal.Zero, msgInvalidAmount
		}
		return d, ""
	})
}

// Category accepts I or E in either case.
func (p *Prompter) Category() (core.Category, error) {
	return ask(p, "Enter the category ('I' for Income or 'E' for Expense): ", func(s string) (core.Category, string) {
		c, err := core.ParseCategoryCode(s)
		if err != nil {
			return "", msgInvalidCategory
		}
		return c, ""
	})
}

func (p *Prompter) Description() (string, error) {
	return p.Line("Enter a description (optional): ")
}

// Choice shows menu and returns the trimmed answer.
func (p *Prompter) Choice(menu string) (string, error) {
	s, err := p.Line(menu)
	return strings.TrimSpace(s), err
}

// Confirm reports whether the answer is y or Y.
func (p *Prompter) Confirm(label string) (bool, error) {
	s, err := p.Line(label)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(s), "y"), nil
}
