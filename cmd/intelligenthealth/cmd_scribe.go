package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ItsMeCK/IntelligentHealth/pkg/scribe"
	"github.com/ItsMeCK/IntelligentHealth/pkg/workflow"
)

var scribeFlags struct {
	caseID    string
	audioPath string
}

var scribeCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Generate a SOAP note from consultation audio",
	RunE:  runScribe,
}

func init() {
	f := scribeCmd.Flags()
	f.StringVar(&scribeFlags.caseID, "case", "", "Case ID (required)")
	f.StringVar(&scribeFlags.audioPath, "audio", "", "Consultation audio file (required)")

	_ = scribeCmd.MarkFlagRequired("case")
	_ = scribeCmd.MarkFlagRequired("audio")
}

func runScribe(cmd *cobra.Command, _ []string) error {
	env, err := setupEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	audio, err := os.ReadFile(scribeFlags.audioPath)
	if err != nil {
		return fmt.Errorf("read audio file: %w", err)
	}

	pipeline, err := scribe.NewPipeline(env.client, env.store)
	if err != nil {
		return err
	}

	ctx := workflow.NewContext(cmd.Context(), workflow.WithLogger(env.logger))
	result, err := pipeline.Run(ctx, scribe.State{
		CaseID:   scribeFlags.caseID,
		AudioRef: scribeFlags.audioPath,
		Audio:    audio,
	}, workflow.WithObservabilityLogger(env.logger))
	if err != nil {
		return fmt.Errorf("run scribe pipeline: %w", err)
	}
	if result.Err != "" {
		return fmt.Errorf("scribe pipeline: %s", result.Err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.FinalNote)
	return nil
}
