// Package diagnosis implements the differential diagnosis pipeline:
// everything known about a case is gathered into one context block and
// a concise DDx report is generated and saved on the case.
package diagnosis

import (
	"fmt"
	"strings"

	"github.com/ItsMeCK/IntelligentHealth/pkg/extract"
	"github.com/ItsMeCK/IntelligentHealth/pkg/llm"
	"github.com/ItsMeCK/IntelligentHealth/pkg/store"
	"github.com/ItsMeCK/IntelligentHealth/pkg/workflow"
)

// maxReportLines caps the generated report for clinical brevity.
const maxReportLines = 10

// State flows through the DDx pipeline.
type State struct {
	CaseID string `json:"case_id"`

	// Context is the assembled patient data block the report is
	// generated from.
	Context string `json:"context,omitempty"`
	Report  string `json:"report,omitempty"`

	Err      string   `json:"error,omitempty"`
	Progress []string `json:"progress,omitempty"`
}

// Pipeline runs the differential diagnosis workflow.
type Pipeline struct {
	client llm.Client
	store  store.Store
	wf     *workflow.Workflow[State]
}

// NewPipeline builds and compiles the DDx workflow.
func NewPipeline(client llm.Client, st store.Store) (*Pipeline, error) {
	p := &Pipeline{client: client, store: st}

	wf, err := workflow.New[State]().
		AddNode("gather", p.gather).
		AddNode("generate", p.generate).
		AddNode("persist", p.persist).
		AddConditionalEdge("gather", guard("generate")).
		AddConditionalEdge("generate", guard("persist")).
		AddEdge("persist", workflow.END).
		SetEntry("gather").
		Compile()
	if err != nil {
		return nil, fmt.Errorf("compile diagnosis workflow: %w", err)
	}

	p.wf = wf
	return p, nil
}

func guard(next string) workflow.RouterFunc[State] {
	return func(_ workflow.Context, s State) string {
		if s.Err != "" {
			return workflow.END
		}
		return next
	}
}

// Run executes the pipeline. Stage failures land on State.Err rather
// than the returned error; callers must check both.
func (p *Pipeline) Run(ctx workflow.Context, state State, opts ...workflow.RunOption) (State, error) {
	return p.wf.Run(ctx, state, opts...)
}

// gather assembles the patient data context: the case notes, the SOAP
// note from the consultation audio, and every uploaded report summary
// tagged by filename.
func (p *Pipeline) gather(ctx workflow.Context, s State) (State, error) {
	ctx.Logger().Info("gathering patient data", "case_id", s.CaseID)

	c, err := p.store.GetCase(ctx, s.CaseID)
	if err != nil {
		ctx.Logger().Error("case lookup failed", "case_id", s.CaseID, "error", err)
		s.Err = "Consultation not found."
		s.Progress = append(s.Progress, "Gathering patient data failed.")
		return s, nil
	}

	docs, err := p.store.ListDocuments(ctx, s.CaseID)
	if err != nil {
		ctx.Logger().Error("document listing failed", "case_id", s.CaseID, "error", err)
		s.Err = "Failed to list uploaded reports."
		s.Progress = append(s.Progress, "Gathering patient data failed.")
		return s, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Patient Notes: %s\n\n", c.Notes)
	fmt.Fprintf(&b, "SOAP Note from Consultation Audio:\n%s\n\n", c.SOAPNote)
	b.WriteString("--- Uploaded Reports Summaries ---\n")
	for _, d := range docs {
		fmt.Fprintf(&b, "Report: %s\nSummary: %s\n\n", d.Filename, d.Summary)
	}

	s.Context = b.String()
	s.Progress = append(s.Progress, "Patient data gathered.")
	return s, nil
}

func (p *Pipeline) generate(ctx workflow.Context, s State) (State, error) {
	ctx.Logger().Info("generating DDx report", "case_id", s.CaseID)

	prompt := fmt.Sprintf(`You are an expert clinical diagnostician AI. Your task is to provide a Differential Diagnosis (DDx) based on the comprehensive patient data provided.

Analyze all the information, including patient notes, SOAP notes from audio, and summaries of all uploaded reports (text and images).

CRITICAL: Your response must be EXACTLY 10 lines or fewer. Be concise and focused.

Structure your response as follows:
1.  **Primary Diagnosis:** State the most likely diagnosis.
2.  **Differential Diagnoses:** List at least two other possible diagnoses, ranked from most to least likely.
3.  **Reasoning:** For each diagnosis (primary and differential), provide a brief but clear justification based on specific evidence from the provided context.
4.  **Recommended Next Steps:** Suggest potential tests, scans, or referrals to confirm the diagnosis.

Patient Data Context:
%s`, s.Context)

	resp, err := p.client.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		ctx.Logger().Error("DDx generation failed", "error", err)
		s.Err = "Failed to generate DDx report."
		s.Progress = append(s.Progress, "DDx generation failed.")
		return s, nil
	}

	s.Report = extract.TruncateLines(resp.Content, maxReportLines)
	s.Progress = append(s.Progress, "DDx report generated.")
	return s, nil
}

func (p *Pipeline) persist(ctx workflow.Context, s State) (State, error) {
	ctx.Logger().Info("saving DDx result", "case_id", s.CaseID)

	err := p.store.SaveCaseField(ctx, s.CaseID, store.FieldDDxResult, s.Report)
	if err != nil {
		ctx.Logger().Error("saving DDx result failed", "case_id", s.CaseID, "error", err)
		if err == store.ErrNotFound {
			s.Err = "Consultation not found during save."
		} else {
			s.Err = "Failed to save DDx to database."
		}
		s.Progress = append(s.Progress, "Saving DDx result failed.")
		return s, nil
	}

	s.Progress = append(s.Progress, "DDx result saved.")
	return s, nil
}
