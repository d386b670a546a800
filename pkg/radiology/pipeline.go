// Package radiology implements the medical image analysis workflow:
// triage, anomaly detection, per-finding characterization, differential
// diagnosis, and formal report synthesis. Unlike the note and DDx
// pipelines, a failed stage degrades the run instead of ending it; only
// a failure to persist the final result is terminal.
package radiology

import (
	"encoding/json"
	"fmt"

	"github.com/ItsMeCK/IntelligentHealth/pkg/extract"
	"github.com/ItsMeCK/IntelligentHealth/pkg/llm"
	"github.com/ItsMeCK/IntelligentHealth/pkg/store"
	"github.com/ItsMeCK/IntelligentHealth/pkg/workflow"
	"github.com/ItsMeCK/IntelligentHealth/pkg/workflow/checkpoint"
)

// Pipeline runs the radiology analysis workflow.
type Pipeline struct {
	client llm.Client
	store  store.Store
	wf     *workflow.Workflow[State]
}

// NewPipeline builds and compiles the radiology workflow.
//
// Graph shape:
//
//	triage → detect → (no findings) → synthesize → END
//	                → (findings)    → characterize → differential → synthesize
func NewPipeline(client llm.Client, st store.Store) (*Pipeline, error) {
	p := &Pipeline{client: client, store: st}

	wf, err := workflow.New[State]().
		AddNode("triage", p.triage).
		AddNode("detect", p.detect).
		AddNode("characterize", p.characterize).
		AddNode("differential", p.differential).
		AddNode("synthesize", p.synthesize).
		AddEdge("triage", "detect").
		AddConditionalEdge("detect", func(_ workflow.Context, s State) string {
			if len(s.Findings) == 0 {
				return "synthesize"
			}
			return "characterize"
		}).
		AddEdge("characterize", "differential").
		AddEdge("differential", "synthesize").
		AddEdge("synthesize", workflow.END).
		SetEntry("triage").
		Compile()
	if err != nil {
		return nil, fmt.Errorf("compile radiology workflow: %w", err)
	}

	p.wf = wf
	return p, nil
}

// Run executes the workflow. Enable checkpointing with
// workflow.WithCheckpointing to make long runs resumable.
func (p *Pipeline) Run(ctx workflow.Context, state State, opts ...workflow.RunOption) (State, error) {
	return p.wf.Run(ctx, state, opts...)
}

// Resume continues an interrupted run from its latest snapshot.
func (p *Pipeline) Resume(ctx workflow.Context, cp checkpoint.Store, runID string, opts ...workflow.ResumeOption) (State, error) {
	return p.wf.Resume(ctx, cp, runID, opts...)
}

// triage classifies the image: modality, body part, diagnostic quality.
// A triage failure leaves the classification fields empty; detection
// still runs with a generic prompt.
func (p *Pipeline) triage(ctx workflow.Context, s State) (State, error) {
	ctx.Logger().Info("triaging image", "case_id", s.CaseID, "image_ref", s.ImageRef)

	prompt := "You are an expert radiologist. You will be shown a medical image.\n" +
		"Classify the image by:\n" +
		"1. Imaging modality (e.g., MRI, CT, X-ray, Ultrasound, etc.)\n" +
		"2. Body part/region (e.g., Brain, Chest, Abdomen, etc.)\n" +
		"3. Is the image of diagnostic quality? (Yes/No, with reason if No)\n" +
		"Return your answer as a JSON object with keys: 'modality', 'body_part', " +
		"'diagnostic_quality', 'comments'. Respond ONLY with valid JSON."

	resp, err := p.client.CompleteVision(ctx, llm.VisionRequest{
		Prompt: prompt,
		Image:  s.Image,
	})
	if err != nil {
		ctx.Logger().Error("image triage failed", "error", err)
		s.recordStage(store.StageTriage, fmt.Sprintf("Image triage failed: %v", err),
			map[string]any{"error": err.Error()})
		return s, nil
	}

	var result struct {
		Modality          string `json:"modality"`
		BodyPart          string `json:"body_part"`
		DiagnosticQuality string `json:"diagnostic_quality"`
		Comments          string `json:"comments"`
	}
	if err := extract.ParseJSON(resp.Content, &result); err != nil {
		ctx.Logger().Error("image triage produced invalid JSON", "error", err)
		s.recordStage(store.StageTriage, fmt.Sprintf("Image triage failed: could not parse JSON: %v", err),
			map[string]any{"error": err.Error(), "raw": resp.Content})
		return s, nil
	}

	s.Modality = result.Modality
	s.BodyPart = result.BodyPart
	s.DiagnosticQuality = result.DiagnosticQuality
	s.TriageComments = result.Comments
	s.recordStage(store.StageTriage, "Image triaged and classified.", result)
	return s, nil
}

// detect lists anomalies in the image. Any failure, including
// unparseable model output, is treated as no findings so the run
// proceeds down the no-abnormality branch.
func (p *Pipeline) detect(ctx workflow.Context, s State) (State, error) {
	ctx.Logger().Info("detecting anomalies", "case_id", s.CaseID,
		"modality", s.Modality, "body_part", s.BodyPart)

	prompt := fmt.Sprintf("You are an expert radiologist. Analyze this %s %s image. "+
		"Identify and list any potential anomalies, abnormalities, or deviations from normal anatomy. "+
		"Respond ONLY with a valid JSON array of findings. If none are found, respond with an empty array ([]). "+
		"Do not include any other text or formatting.", s.BodyPart, s.Modality)

	resp, err := p.client.CompleteVision(ctx, llm.VisionRequest{
		Prompt: prompt,
		Image:  s.Image,
	})
	if err != nil {
		ctx.Logger().Error("anomaly detection failed", "error", err)
		s.Findings = nil
		s.recordStage(store.StageAnomalyDetection, fmt.Sprintf("Anomaly detection failed: %v", err),
			map[string]any{"error": err.Error()})
		return s, nil
	}

	var findings []string
	if err := extract.ParseJSON(resp.Content, &findings); err != nil {
		ctx.Logger().Warn("anomaly detection produced invalid JSON, treating as no findings",
			"error", err)
		findings = nil
	}

	s.Findings = findings
	s.recordStage(store.StageAnomalyDetection, "Anomaly detection complete.", findings)
	return s, nil
}

const characterizationSchema = "keys: 'size_mm', 'shape_margins', 'location', 'mass_effect', 'additional_notes', all strings"

// characterize details each finding with a separate model call. Calls
// are sequential; a failed call contributes an error-tagged entry and
// the loop continues, so one bad finding never loses the others.
func (p *Pipeline) characterize(ctx workflow.Context, s State) (State, error) {
	ctx.Logger().Info("characterizing findings", "case_id", s.CaseID, "count", len(s.Findings))

	chars := make([]Characterization, 0, len(s.Findings))
	for _, finding := range s.Findings {
		prompt := fmt.Sprintf("For the finding: '%s', provide a detailed characterization including:\n"+
			"- Estimated size in millimeters\n"+
			"- Shape and margins\n"+
			"- Location within the %s\n"+
			"- Any mass effect or impact on surrounding structures",
			finding, s.BodyPart)

		raw, err := p.client.CompleteStructured(ctx, llm.StructuredRequest{
			SystemPrompt: "You are an expert radiologist.",
			Prompt:       prompt,
			Schema:       characterizationSchema,
		})
		if err != nil {
			ctx.Logger().Error("characterization failed", "finding", finding, "error", err)
			chars = append(chars, Characterization{Finding: finding, Err: err.Error()})
			continue
		}

		var char Characterization
		if err := extract.ParseJSON(string(raw), &char); err != nil {
			ctx.Logger().Error("characterization produced invalid JSON", "finding", finding, "error", err)
			chars = append(chars, Characterization{
				Finding: finding,
				Err:     fmt.Sprintf("could not parse JSON: %v", err),
			})
			continue
		}

		char.Finding = finding
		chars = append(chars, char)
	}

	s.Characterizations = chars
	s.recordStage(store.StageCharacterization, "Anomaly characterization complete.", chars)
	return s, nil
}

// differential ranks candidate diagnoses over the full characterization
// set, error-tagged entries included. A failure leaves the list empty
// and the run proceeds to synthesis.
func (p *Pipeline) differential(ctx workflow.Context, s State) (State, error) {
	ctx.Logger().Info("generating differential diagnosis", "case_id", s.CaseID)

	findingsJSON, err := json.Marshal(s.Characterizations)
	if err != nil {
		return s, fmt.Errorf("marshal characterizations: %w", err)
	}

	prompt := fmt.Sprintf("Given the following findings: %s, what are the most likely "+
		"differential diagnoses? Rank them in order of probability and provide a brief "+
		"rationale for each.", findingsJSON)

	raw, err := p.client.CompleteStructured(ctx, llm.StructuredRequest{
		SystemPrompt: "You are an expert radiologist.",
		Prompt:       prompt,
		Schema:       "JSON array of objects with keys: 'diagnosis' (string), 'probability_rank' (integer), 'rationale' (string)",
	})
	if err != nil {
		ctx.Logger().Error("differential diagnosis failed", "error", err)
		s.Differential = nil
		s.recordStage(store.StageDifferential, fmt.Sprintf("Differential diagnosis failed: %v", err),
			map[string]any{"error": err.Error()})
		return s, nil
	}

	var ddx []DifferentialEntry
	if err := extract.ParseJSON(string(raw), &ddx); err != nil {
		ctx.Logger().Error("differential diagnosis produced invalid JSON", "error", err)
		s.Differential = nil
		s.recordStage(store.StageDifferential, fmt.Sprintf("Differential diagnosis failed: could not parse JSON: %v", err),
			map[string]any{"error": err.Error(), "raw": string(raw)})
		return s, nil
	}

	s.Differential = ddx
	s.recordStage(store.StageDifferential, "Differential diagnosis complete.", ddx)
	return s, nil
}

// synthesize writes the formal report and persists the AnalysisResult.
// It runs on both branches. Persistence failure is the one terminal
// error in this pipeline: an unrecorded analysis is a lost analysis.
func (p *Pipeline) synthesize(ctx workflow.Context, s State) (State, error) {
	ctx.Logger().Info("synthesizing report", "case_id", s.CaseID)

	findingsJSON, err := json.Marshal(s.Characterizations)
	if err != nil {
		return s, fmt.Errorf("marshal characterizations: %w", err)
	}
	ddxJSON, err := json.Marshal(s.Differential)
	if err != nil {
		return s, fmt.Errorf("marshal differential: %w", err)
	}

	prompt := fmt.Sprintf("You are an expert radiologist. Synthesize a formal radiology report "+
		"using the following data:\nFindings: %s\nDifferential Diagnoses: %s\n"+
		"Structure the report with clear 'Findings' and 'Impression' sections, using "+
		"professional radiology language. Respond ONLY with valid text.",
		findingsJSON, ddxJSON)

	resp, err := p.client.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		ctx.Logger().Error("report synthesis failed", "error", err)
		s.FinalReport = fmt.Sprintf("Report synthesis failed: %v", err)
		s.recordStage(store.StageFinalReport, fmt.Sprintf("Report synthesis failed: %v", err),
			map[string]any{"error": err.Error()})
	} else {
		s.FinalReport = resp.Content
		s.recordStage(store.StageFinalReport, "Final report synthesized.", resp.Content)
	}

	if len(s.Findings) == 0 {
		s.Progress = append(s.Progress, "No significant abnormalities detected. Workflow complete.")
	} else {
		s.Progress = append(s.Progress, "Workflow complete.")
	}

	result := &store.AnalysisResult{
		CaseID:          s.CaseID,
		ImageReference:  s.ImageRef,
		Intermediate:    s.Intermediate,
		FinalReportText: s.FinalReport,
		Progress:        s.Progress,
	}
	id, err := p.store.SaveAnalysisResult(ctx, result)
	if err != nil {
		ctx.Logger().Error("saving analysis result failed", "case_id", s.CaseID, "error", err)
		s.Err = "Failed to save analysis result."
		return s, nil
	}

	s.ResultID = id
	return s, nil
}
