package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"orgfees/internal/cli"
	"orgfees/internal/config"
	"orgfees/internal/log"
	"orgfees/internal/store"
)

// storeOpener opens the configured entity store.
type storeOpener func(ctx context.Context, cfg *config.Config, logger *log.Logger) (store.EntityStore, error)

type app struct {
	cfg    *config.Config
	logger *log.Logger
	open   storeOpener
}

func main() {
	cli.LoadEnvFile()
	ctx, stop := cli.ShutdownContext(log.Discard())
	defer stop()

	root := newRootCmd(cli.OpenStore)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(open storeOpener) *cobra.Command {
	a := &app{open: open}
	root := &cobra.Command{
		Use:           "orgfees-admin",
		Short:         "Administration tasks for the orgfees service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.cfg = config.Load()
			a.logger = cli.NewLogger(a.cfg, log.ComponentApp, cmd.ErrOrStderr())
			return nil
		},
	}
	root.AddCommand(a.userCmd(), a.migrateCmd(), a.configCmd())
	return root
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Inspect configuration"}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the environment configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration ok (backend %s, timezone %s)\n", a.cfg.DataBackend, a.cfg.Timezone)
			return nil
		},
	})
	return cmd
}
