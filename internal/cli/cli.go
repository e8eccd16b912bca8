// Package cli wires configuration, logging and backends into the fintrack
// commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fintrack/internal/config"
	"fintrack/internal/log"
)

// env is shared by all commands. It is filled in by the root command's
// PersistentPreRunE.
type env struct {
	envFile string
	in      io.Reader
	out     io.Writer
	errOut  io.Writer

	cfg    *config.Config
	logger *log.Logger
}

// Execute runs the fintrack command line against the process streams and
// exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree. Without a subcommand it runs the
// interactive menu.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	e := &env{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "fintrack",
		Short:         "Personal finance ledger",
		Long:          `Record income and expense transactions and review them by date range.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := e.setup(); err != nil {
				return err
			}
			cmd.SetContext(log.NewContext(cmd.Context(), e.logger))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.runMenu(cmd.Context())
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&e.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(newInitCommand(e), newMirrorCommand(e))
	return root
}

// setup loads and validates configuration and installs the logger.
func (e *env) setup() error {
	cfg, err := config.Load(e.envFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{
		Level:     level,
		Component: log.ComponentApp,
		Output:    e.errOut,
	})
	log.SetDefault(logger)

	e.cfg = cfg
	e.logger = logger
	return nil
}
