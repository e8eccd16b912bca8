package cli

import (
	"github.com/spf13/cobra"

	"fintrack/internal/log"
)

func newInitCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configured ledger store if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := e.openLedger(ctx)
			if err != nil {
				return err
			}
			defer e.closeLedger(svc)

			if err := svc.Initialize(ctx); err != nil {
				return err
			}
			e.logger.Info("Ledger initialized",
				log.FieldOperation, log.OpInitialize,
				log.FieldBackend, e.cfg.DataBackend)
			return nil
		},
	}
}
