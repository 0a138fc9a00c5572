package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zimsave/zimsave_plus/internal/config"
	"github.com/zimsave/zimsave_plus/internal/infra"
	"github.com/zimsave/zimsave_plus/internal/ledger"
	"github.com/zimsave/zimsave_plus/internal/logging"
	"github.com/zimsave/zimsave_plus/internal/store"
)

// Opener returns the store the CLI reads from and a function releasing it.
type Opener func(ctx context.Context, logger *slog.Logger) (store.Store, func(), error)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	return newRoot(openFromEnv)
}

func newRoot(open Opener) *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "zimsavectl",
		Short: "Inspect and verify a ZimSave+ ledger",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level written to stderr")

	load := func(cmd *cobra.Command) (*ledger.Ledger, func(), error) {
		logger := logging.NewWithWriter(cmd.ErrOrStderr(), logLevel, "text")
		st, closeFn, err := open(cmd.Context(), logger)
		if err != nil {
			return nil, nil, err
		}
		l := ledger.New(st, logger)
		if err := l.Load(cmd.Context()); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("load ledger: %w", err)
		}
		return l, closeFn, nil
	}

	rootCmd.AddCommand(newVerifyCommand(load))
	rootCmd.AddCommand(newShowCommand(load))

	return rootCmd
}

type loader func(cmd *cobra.Command) (*ledger.Ledger, func(), error)

func openFromEnv(ctx context.Context, logger *slog.Logger) (store.Store, func(), error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	b, err := infra.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return b.Store, func() { b.Close(logger) }, nil
}
