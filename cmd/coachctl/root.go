package main

import (
	"github.com/spf13/cobra"

	"callcoach-backend/internal/shared/config"
	"callcoach-backend/internal/shared/telemetry"
)

type commandContext struct {
	providersFile string
	cfg           *config.Config
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	if c.providersFile != "" {
		if err := setenv("PROVIDERS_FILE", c.providersFile); err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	telemetry.Init(cfg.Env, cfg.LogFormat)
	c.cfg = &cfg
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "coachctl",
		Short:         "Sales call coaching analysis CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.providersFile, "providers-file", "", "YAML provider overrides (sets PROVIDERS_FILE)")

	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newProvidersCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))

	return rootCmd
}
