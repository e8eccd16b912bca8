// Package app runs the interactive ledger menu.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/prompt"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

const menu = "\n1. Add transaction\n2. View transactions\n3. Exit\nChoice (1-3): "

// Ledger is the part of the ledger service the menu uses.
type Ledger interface {
	Record(ctx context.Context, t core.Transaction) (string, error)
	View(ctx context.Context, start, end core.Date) (services.Report, error)
}

// Tracker is the menu loop: 1 adds a transaction, 2 views a date range,
// 3 exits.
type Tracker struct {
	ledger   Ledger
	prompter *prompt.Prompter
	reporter *report.Reporter
	logger   *slog.Logger
}

func NewTracker(ledger Ledger, prompter *prompt.Prompter, reporter *report.Reporter, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		ledger:   ledger,
		prompter: prompter,
		reporter: reporter,
		logger:   logger,
	}
}

// Run serves the menu until the operator exits or input ends. Storage
// errors are logged and the menu is shown again.
func (t *Tracker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		choice, err := t.prompter.Choice(menu)
		if err != nil {
			return endOfInput(err)
		}

		switch choice {
		case "1":
			err = t.addTransaction(ctx)
			if isInputEnd(err) {
				return endOfInput(err)
			}
			if err != nil {
				t.logger.ErrorContext(ctx, "Transaction failed", "operation", "add_transaction", "error", err)
			}
		case "2":
			err = t.viewTransactions(ctx)
			if isInputEnd(err) {
				return endOfInput(err)
			}
			if err != nil {
				t.logger.ErrorContext(ctx, "Failed to fetch transactions", "operation", "view_transactions", "error", err)
			}
		case "3":
			t.logger.InfoContext(ctx, "Exiting.")
			return nil
		default:
			t.logger.WarnContext(ctx, "Invalid choice.", "choice", choice)
		}
	}
}

func (t *Tracker) addTransaction(ctx context.Context) error {
	date, err := t.prompter.Date("Enter transaction date (dd-mm-yyyy) or press enter for today's date: ", true)
	if err != nil {
		return err
	}
	amount, err := t.prompter.Amount()
	if err != nil {
		return err
	}
	category, err := t.prompter.Category()
	if err != nil {
		return err
	}
	description, err := t.prompter.Description()
	if err != nil {
		return err
	}

	_, err = t.ledger.Record(ctx, core.Transaction{
		Date:        date,
		Amount:      amount,
		Category:    category,
		Description: description,
	})
	return err
}

func (t *Tracker) viewTransactions(ctx context.Context) error {
	start, err := t.prompter.Date("Enter start date (dd-mm-yyyy): ", false)
	if err != nil {
		return err
	}
	end, err := t.prompter.Date("Enter end date (dd-mm-yyyy): ", false)
	if err != nil {
		return err
	}

	rep, err := t.ledger.View(ctx, start, end)
	if err != nil {
		return err
	}
	if len(rep.Transactions) == 0 {
		t.logger.InfoContext(ctx, "No transactions found.", "start", start.String(), "end", end.String())
		return nil
	}

	if err := t.reporter.Table(rep.Transactions); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	if err := t.reporter.Summary(rep.Summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	plot, err := t.prompter.Confirm("Show plot? (y/n): ")
	if err != nil || !plot {
		return err
	}
	if err := t.reporter.Plot(rep.Transactions); err != nil {
		return fmt.Errorf("plot transactions: %w", err)
	}
	return nil
}

func isInputEnd(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, prompt.ErrTooManyAttempts)
}

// endOfInput ends the session quietly when stdin is exhausted.
func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
