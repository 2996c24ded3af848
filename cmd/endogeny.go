package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ikhwan-arief/DOAJ-Reviewer/internal/endogeny"
)

// newEndogenyCmd creates the 'endogeny' subcommand: evaluate a structured
// submission and emit the decision JSON.
func newEndogenyCmd() *cobra.Command {
	var (
		submissionPath string
		outputPath     string
	)

	cmd := &cobra.Command{
		Use:   "endogeny",
		Short: "Evaluates the insider-authorship criterion for a submission",
		Long: `Reads a structured submission (role people plus measurement units),
matches article authors against the journal's role-holders, and emits a
pass/fail/need_human_review decision with a confidence score.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(submissionPath)
			if err != nil {
				return fmt.Errorf("read submission: %w", err)
			}
			var submission endogeny.Submission
			if err := json.Unmarshal(raw, &submission); err != nil {
				return fmt.Errorf("decode submission: %w", err)
			}

			decision := endogeny.NewEvaluator(app.Logger).Evaluate(submission)

			payload, err := json.MarshalIndent(decision, "", "  ")
			if err != nil {
				return fmt.Errorf("encode decision: %w", err)
			}
			payload = append(payload, '\n')

			if outputPath == "" {
				_, err = os.Stdout.Write(payload)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(outputPath), 0o750); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			if err := os.WriteFile(outputPath, payload, 0o600); err != nil {
				return fmt.Errorf("write decision: %w", err)
			}
			app.Logger.Info("decision written",
				zap.String("path", outputPath),
				zap.String("result", string(decision.Result)),
				zap.Float64("confidence", decision.Confidence))
			return nil
		},
	}

	cmd.Flags().StringVar(&submissionPath, "submission", "", "path to the structured submission JSON")
	cmd.Flags().StringVar(&outputPath, "output", "", "path for the decision JSON (default stdout)")
	_ = cmd.MarkFlagRequired("submission")
	return cmd
}
