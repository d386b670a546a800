package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ItsMeCK/IntelligentHealth/pkg/radiology"
	"github.com/ItsMeCK/IntelligentHealth/pkg/workflow"
)

var radiologyFlags struct {
	caseID    string
	imagePath string
	resumeID  string
}

var radiologyCmd = &cobra.Command{
	Use:   "radiology",
	Short: "Analyze a medical image and produce a radiology report",
	Long: "Runs the image analysis workflow: triage, anomaly detection,\n" +
		"per-finding characterization, differential diagnosis and report synthesis.\n" +
		"Runs are checkpointed; use --resume to continue an interrupted run.",
	RunE: runRadiology,
}

func init() {
	f := radiologyCmd.Flags()
	f.StringVar(&radiologyFlags.caseID, "case", "", "Case ID (required)")
	f.StringVar(&radiologyFlags.imagePath, "image", "", "Medical image file")
	f.StringVar(&radiologyFlags.resumeID, "resume", "", "Resume an interrupted run by its run ID")

	_ = radiologyCmd.MarkFlagRequired("case")
}

func runRadiology(cmd *cobra.Command, _ []string) error {
	if radiologyFlags.imagePath == "" && radiologyFlags.resumeID == "" {
		return fmt.Errorf("either --image or --resume is required")
	}

	env, err := setupEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	cp, err := env.openCheckpoints()
	if err != nil {
		return err
	}
	defer cp.Close()

	pipeline, err := radiology.NewPipeline(env.client, env.store)
	if err != nil {
		return err
	}

	ctx := workflow.NewContext(cmd.Context(), workflow.WithLogger(env.logger))

	var result radiology.State
	if radiologyFlags.resumeID != "" {
		result, err = pipeline.Resume(ctx, cp, radiologyFlags.resumeID)
	} else {
		var image []byte
		image, err = os.ReadFile(radiologyFlags.imagePath)
		if err != nil {
			return fmt.Errorf("read image file: %w", err)
		}

		runID := uuid.New().String()
		fmt.Fprintf(cmd.OutOrStdout(), "Run ID: %s\n\n", runID)

		result, err = pipeline.Run(ctx, radiology.State{
			CaseID:   radiologyFlags.caseID,
			ImageRef: radiologyFlags.imagePath,
			Image:    image,
		},
			workflow.WithObservabilityLogger(env.logger),
			workflow.WithCheckpointing(cp),
			workflow.WithRunID(runID),
			workflow.WithPipelineName("radiology"))
	}
	if err != nil {
		return fmt.Errorf("run radiology pipeline: %w", err)
	}
	if result.Err != "" {
		return fmt.Errorf("radiology pipeline: %s", result.Err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Progress:")
	for _, p := range result.Progress {
		fmt.Fprintf(out, "  - %s\n", p)
	}
	fmt.Fprintf(out, "\n%s\n", result.FinalReport)
	return nil
}
