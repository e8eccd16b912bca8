package cli

import (
	"context"
	"fmt"

	"fintrack/internal/app"
	"fintrack/internal/backend"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/prompt"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

// openLedger builds the configured store and wraps it in a ledger service.
// Closing the service releases the store and the publisher.
func (e *env) openLedger(ctx context.Context) (*services.LedgerService, error) {
	bcfg, err := backend.FromAppConfig(e.cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(e.logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	return services.NewLedgerService(result.Store, result.Publisher), nil
}

func (e *env) runMenu(ctx context.Context) error {
	svc, err := e.openLedger(ctx)
	if err != nil {
		return err
	}
	defer e.closeLedger(svc)

	tracker := app.NewTracker(
		svc,
		prompt.New(e.in, e.out, core.SystemClock{}),
		report.NewReporter(e.out, report.TextChart{}),
		e.logger.Logger,
	)
	return tracker.Run(ctx)
}

func (e *env) closeLedger(svc *services.LedgerService) {
	if err := svc.Close(); err != nil {
		e.logger.Error("Failed to close ledger", log.FieldError, err)
	}
}
