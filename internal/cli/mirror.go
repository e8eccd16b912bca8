package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

func newMirrorCommand(e *env) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Copy transactions from the SQLite ledger to the mirror store",
		Long: `Copy transactions recorded in the SQLite ledger to the mirror store
(Google Sheets or CSV). With AMQP_URL set the worker also reacts to
"transaction recorded" notifications; otherwise it sweeps on SYNC_INTERVAL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := e.cfg.ValidateMirror(); err != nil {
				return err
			}
			logger := e.logger.WithComponent(log.ComponentWorker)

			source, err := storage.NewSQLiteRepository(e.cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			defer source.Close()
			if err := source.Initialize(ctx); err != nil {
				return err
			}

			mcfg, err := backend.MirrorFromAppConfig(e.cfg)
			if err != nil {
				return err
			}
			mirror, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, mcfg)
			if err != nil {
				return fmt.Errorf("create %s mirror: %w", mcfg.Type, err)
			}
			defer mirror.Close()

			w := worker.NewMirrorWorker(source, mirror.Store, e.cfg.SyncBatchSize, e.cfg.SyncInterval)

			if once {
				if err := mirror.Store.Initialize(ctx); err != nil {
					return fmt.Errorf("initialize mirror store: %w", err)
				}
				synced, failed, err := w.ProcessPending(ctx)
				logger.Info("Mirror sweep finished",
					log.FieldOperation, log.OpMirror,
					"synced", synced,
					"failed", failed)
				return err
			}

			// Keep the interface nil when there is no broker.
			var consumer worker.Consumer
			if e.cfg.AMQPURL != "" {
				client, err := amqp.NewClient(e.cfg.AMQPURL, e.cfg.AMQPExchange, e.cfg.AMQPQueue)
				if err != nil {
					logger.Warn("AMQP unavailable, running sweeps only", log.FieldError, err)
				} else {
					defer client.Close()
					consumer = client
				}
			}

			logger.Info("Mirror worker started",
				log.FieldOperation, log.OpStartup,
				"mirror", mcfg.Type.String(),
				"interval", e.cfg.SyncInterval.String(),
				"amqp_enabled", consumer != nil)

			err = w.Run(ctx, consumer)
			logger.Info("Mirror worker stopped", log.FieldOperation, log.OpShutdown)
			return err
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "sweep pending transactions once and exit")
	return cmd
}
