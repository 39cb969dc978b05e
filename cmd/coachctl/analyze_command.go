package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"callcoach-backend/internal/bootstrap"
	"callcoach-backend/internal/coaching"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var (
		file       string
		outPath    string
		promptOnly bool
		analysis   coaching.AnalysisContext
	)

	cmd := &cobra.Command{
		Use:   "analyze [transcript-file]",
		Short: "Analyze a call transcript and print the coaching JSON",
		Long:  "Analyze reads a transcript from a file or stdin and runs it through the configured provider chain.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				file = args[0]
			}
			raw, err := readInput(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			var analysisCtx *coaching.AnalysisContext
			if analysis != (coaching.AnalysisContext{}) {
				analysisCtx = &analysis
			}

			if promptOnly {
				transcript, err := coaching.ValidateTranscript(raw)
				if err != nil {
					return err
				}
				if err := coaching.ValidateContext(analysisCtx); err != nil {
					return err
				}
				prompt := coaching.Composer(analysis)(transcript)
				fmt.Fprintln(cmd.OutOrStdout(), "=== SYSTEM ===")
				fmt.Fprintln(cmd.OutOrStdout(), prompt.System)
				fmt.Fprintln(cmd.OutOrStdout(), "=== USER ===")
				fmt.Fprintln(cmd.OutOrStdout(), prompt.User)
				return nil
			}

			orch, _, err := bootstrap.BuildOrchestrator(cmd.Context(), cfg, bootstrap.NewProvider)
			if err != nil {
				return err
			}
			svc := coaching.NewService(orch, cfg.RequestTimeout)

			start := time.Now()
			result, err := svc.Analyze(cmd.Context(), raw, analysisCtx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "provider=%s duration=%s\n", result.Meta.Provider, time.Since(start).Round(time.Millisecond))

			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				return writeJSON(f, result)
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Transcript file (default stdin)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the analysis JSON to this path")
	cmd.Flags().BoolVar(&promptOnly, "prompt-only", false, "Print the composed prompts without calling a provider")
	cmd.Flags().StringVar(&analysis.Experience, "experience", "", "Closer experience: starter, intermediate or expert")
	cmd.Flags().StringVar(&analysis.Focus, "focus", "", "Focus area: bezwaren, afsluiting, rapport or algemeen")
	cmd.Flags().StringVar(&analysis.Goal, "goal", "", "Goal: closes, tickets or gesprekken")
	return cmd
}
