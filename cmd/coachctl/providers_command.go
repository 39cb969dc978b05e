package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"callcoach-backend/internal/shared/config"
)

func newProvidersCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Show the resolved provider chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			chain, err := cfg.ResolveChain()
			if err != nil {
				return err
			}

			rows := []providerRow{newProviderRow("primary", chain.Primary)}
			if chain.Fallback != nil {
				rows = append(rows, newProviderRow("fallback", *chain.Fallback))
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"providers": rows,
					"warnings":  chain.Warnings,
				})
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ROLE\tPROVIDER\tMODEL\tMAX INPUT CHARS\tTIMEOUT")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.Role, r.Provider, r.Model, r.MaxInputChars, r.Timeout)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, w := range chain.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

type providerRow struct {
	Role          string `json:"role"`
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	MaxInputChars int    `json:"maxInputChars"`
	Timeout       string `json:"timeout"`
}

func newProviderRow(role string, p config.ProviderSettings) providerRow {
	return providerRow{
		Role:          role,
		Provider:      p.ID,
		Model:         p.Model,
		MaxInputChars: p.MaxInputChars,
		Timeout:       p.Timeout.String(),
	}
}
