package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ItsMeCK/IntelligentHealth/pkg/diagnosis"
	"github.com/ItsMeCK/IntelligentHealth/pkg/workflow"
)

var ddxFlags struct {
	caseID string
}

var ddxCmd = &cobra.Command{
	Use:   "ddx",
	Short: "Generate a differential diagnosis report for a case",
	RunE:  runDDx,
}

func init() {
	f := ddxCmd.Flags()
	f.StringVar(&ddxFlags.caseID, "case", "", "Case ID (required)")

	_ = ddxCmd.MarkFlagRequired("case")
}

func runDDx(cmd *cobra.Command, _ []string) error {
	env, err := setupEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	pipeline, err := diagnosis.NewPipeline(env.client, env.store)
	if err != nil {
		return err
	}

	ctx := workflow.NewContext(cmd.Context(), workflow.WithLogger(env.logger))
	result, err := pipeline.Run(ctx, diagnosis.State{CaseID: ddxFlags.caseID},
		workflow.WithObservabilityLogger(env.logger))
	if err != nil {
		return fmt.Errorf("run diagnosis pipeline: %w", err)
	}
	if result.Err != "" {
		return fmt.Errorf("diagnosis pipeline: %s", result.Err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Report)
	return nil
}
