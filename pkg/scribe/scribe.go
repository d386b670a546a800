// Package scribe implements the clinical note pipeline: consultation
// audio is transcribed, key facts are extracted into a structured
// summary, and a concise SOAP note is composed and saved on the case.
package scribe

import (
	"fmt"
	"strings"

	"github.com/ItsMeCK/IntelligentHealth/pkg/extract"
	"github.com/ItsMeCK/IntelligentHealth/pkg/llm"
	"github.com/ItsMeCK/IntelligentHealth/pkg/store"
	"github.com/ItsMeCK/IntelligentHealth/pkg/workflow"
)

// maxNoteLines caps the composed note for clinical brevity.
const maxNoteLines = 10

// Summary is the structured extraction of a consultation transcript.
type Summary struct {
	PatientSymptoms       []string `json:"patient_symptoms"`
	DoctorObservations    []string `json:"doctor_observations"`
	PrescribedMedications []string `json:"prescribed_medications"`
	FollowUpInstructions  []string `json:"follow_up_instructions"`
}

// State flows through the note pipeline. Nodes receive it by value and
// return it with their own fields filled in; fields they do not touch
// pass through unchanged.
type State struct {
	CaseID   string `json:"case_id"`
	AudioRef string `json:"audio_ref"`
	Audio    []byte `json:"audio,omitempty"`

	Transcription string  `json:"transcription,omitempty"`
	Summary       Summary `json:"summary"`
	FinalNote     string  `json:"final_note,omitempty"`

	// Err records a stage failure. Once set, guard edges route the run
	// straight to END; downstream nodes never execute.
	Err      string   `json:"error,omitempty"`
	Progress []string `json:"progress,omitempty"`
}

// Pipeline runs the clinical note workflow.
type Pipeline struct {
	client llm.Client
	store  store.Store
	wf     *workflow.Workflow[State]
}

// NewPipeline builds and compiles the note workflow. The returned
// Pipeline is safe for concurrent use.
func NewPipeline(client llm.Client, st store.Store) (*Pipeline, error) {
	p := &Pipeline{client: client, store: st}

	wf, err := workflow.New[State]().
		AddNode("transcribe", p.transcribe).
		AddNode("structure", p.structure).
		AddNode("compose", p.compose).
		AddNode("persist", p.persist).
		AddConditionalEdge("transcribe", guard("structure")).
		AddConditionalEdge("structure", guard("compose")).
		AddConditionalEdge("compose", guard("persist")).
		AddEdge("persist", workflow.END).
		SetEntry("transcribe").
		Compile()
	if err != nil {
		return nil, fmt.Errorf("compile scribe workflow: %w", err)
	}

	p.wf = wf
	return p, nil
}

// guard routes to next unless the state carries an error, in which case
// the run ends immediately.
func guard(next string) workflow.RouterFunc[State] {
	return func(_ workflow.Context, s State) string {
		if s.Err != "" {
			return workflow.END
		}
		return next
	}
}

// Run executes the pipeline. A stage failure does not return an error:
// it is recorded on State.Err and the run completes early. Callers must
// check Err on the returned state.
func (p *Pipeline) Run(ctx workflow.Context, state State, opts ...workflow.RunOption) (State, error) {
	return p.wf.Run(ctx, state, opts...)
}

func (p *Pipeline) transcribe(ctx workflow.Context, s State) (State, error) {
	ctx.Logger().Info("transcribing consultation audio", "case_id", s.CaseID, "audio_ref", s.AudioRef)

	tr, err := p.client.Transcribe(ctx, llm.TranscriptionRequest{
		Audio:    s.Audio,
		Filename: s.AudioRef,
	})
	if err != nil {
		ctx.Logger().Error("transcription failed", "error", err)
		s.Err = "Failed to transcribe audio."
		s.Progress = append(s.Progress, "Transcription failed.")
		return s, nil
	}

	s.Transcription = tr.Text
	s.Progress = append(s.Progress, "Audio transcribed.")
	return s, nil
}

const structureSchema = "keys: 'patient_symptoms' (list of all symptoms mentioned by the patient), " +
	"'doctor_observations' (list of key observations made by the doctor), " +
	"'prescribed_medications' (list of all medications prescribed or mentioned), " +
	"'follow_up_instructions' (list of follow-up actions or appointments suggested)"

func (p *Pipeline) structure(ctx workflow.Context, s State) (State, error) {
	ctx.Logger().Info("structuring transcript", "case_id", s.CaseID)

	raw, err := p.client.CompleteStructured(ctx, llm.StructuredRequest{
		SystemPrompt: "You are an expert medical assistant. Extract key information from the " +
			"following medical consultation transcript. Respond with a JSON object matching " +
			"the specified schema.",
		Prompt: "Transcript:\n\n" + s.Transcription,
		Schema: structureSchema,
	})
	if err != nil {
		ctx.Logger().Error("structuring failed", "error", err)
		s.Err = "Failed to structure transcript."
		s.Progress = append(s.Progress, "Structuring failed.")
		return s, nil
	}

	var summary Summary
	if err := extract.ParseJSON(string(raw), &summary); err != nil {
		ctx.Logger().Error("structuring produced invalid JSON", "error", err)
		s.Err = "Failed to structure transcript."
		s.Progress = append(s.Progress, "Structuring failed.")
		return s, nil
	}

	s.Summary = summary
	s.Progress = append(s.Progress, "Transcript structured.")
	return s, nil
}

func (p *Pipeline) compose(ctx workflow.Context, s State) (State, error) {
	ctx.Logger().Info("composing SOAP note", "case_id", s.CaseID)

	prompt := fmt.Sprintf(`You are an expert clinical note writer. Your task is to generate a SOAP note from the provided structured information.
The note should be based ONLY on the information given.
If a section has no information, explicitly state that (e.g., "No specific symptoms were mentioned by the patient.").
Do not make up information or add details not present in the provided context.

CRITICAL: Your response must be EXACTLY 10 lines or fewer. Be concise and focused.

Provided Information:
- Patient Symptoms: %s
- Doctor's Observations: %s
- Prescribed Medications: %s
- Follow-up Instructions: %s

Generate the SOAP note now with clear headings for Subjective, Objective, Assessment, and Plan.`,
		strings.Join(s.Summary.PatientSymptoms, ", "),
		strings.Join(s.Summary.DoctorObservations, ", "),
		strings.Join(s.Summary.PrescribedMedications, ", "),
		strings.Join(s.Summary.FollowUpInstructions, ", "))

	resp, err := p.client.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		ctx.Logger().Error("note composition failed", "error", err)
		s.Err = "Failed to generate SOAP note."
		s.Progress = append(s.Progress, "Note composition failed.")
		return s, nil
	}

	s.FinalNote = extract.TruncateLines(resp.Content, maxNoteLines)
	s.Progress = append(s.Progress, "SOAP note generated.")
	return s, nil
}

func (p *Pipeline) persist(ctx workflow.Context, s State) (State, error) {
	ctx.Logger().Info("saving note", "case_id", s.CaseID)

	err := p.store.SaveCaseField(ctx, s.CaseID, store.FieldSOAPNote, s.FinalNote)
	if err != nil {
		ctx.Logger().Error("saving note failed", "case_id", s.CaseID, "error", err)
		if err == store.ErrNotFound {
			s.Err = "Consultation not found."
		} else {
			s.Err = "Failed to save note to database."
		}
		s.Progress = append(s.Progress, "Saving note failed.")
		return s, nil
	}

	s.Progress = append(s.Progress, "Note saved.")
	return s, nil
}
