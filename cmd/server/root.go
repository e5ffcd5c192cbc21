package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"id-recon/internal/platform/config"
	"id-recon/internal/platform/logger"
)

// rootOptions holds state shared by every subcommand once the persistent
// pre-run has loaded it.
type rootOptions struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "recon",
		Short: "Customer identity reconciliation service",
		Long: `recon links contact observations (email, phone number) into
consolidated customer identities.

Configuration comes from built-in defaults, then an optional YAML file,
then RECON_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = logger.New(cfg.Log.Level, cfg.Log.Format)
			slog.SetDefault(opts.logger)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newIdentifyCommand(opts))
	cmd.AddCommand(newVerifyCommand(opts))

	return cmd
}
