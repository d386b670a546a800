package radiology

// Characterization describes one detected finding. A failed
// characterization call keeps its slot in the list with Err set, so the
// report still accounts for every finding.
type Characterization struct {
	Finding         string `json:"finding"`
	SizeMM          string `json:"size_mm,omitempty"`
	ShapeMargins    string `json:"shape_margins,omitempty"`
	Location        string `json:"location,omitempty"`
	MassEffect      string `json:"mass_effect,omitempty"`
	AdditionalNotes string `json:"additional_notes,omitempty"`

	Err string `json:"error,omitempty"`
}

// DifferentialEntry is one candidate diagnosis, ranked by probability.
type DifferentialEntry struct {
	Diagnosis       string `json:"diagnosis"`
	ProbabilityRank int    `json:"probability_rank"`
	Rationale       string `json:"rationale"`
}

// State flows through the radiology analysis workflow. Stage failures
// degrade the run rather than halting it: each node records what it
// could not do in Progress and Intermediate and the workflow continues
// to report synthesis.
type State struct {
	CaseID   string `json:"case_id"`
	ImageRef string `json:"image_ref"`
	Image    []byte `json:"image,omitempty"`

	Modality          string `json:"modality,omitempty"`
	BodyPart          string `json:"body_part,omitempty"`
	DiagnosticQuality string `json:"diagnostic_quality,omitempty"`
	TriageComments    string `json:"triage_comments,omitempty"`

	Findings          []string            `json:"findings,omitempty"`
	Characterizations []Characterization  `json:"characterizations,omitempty"`
	Differential      []DifferentialEntry `json:"differential,omitempty"`
	FinalReport       string              `json:"final_report,omitempty"`

	// Progress is the human-readable stage trace; Intermediate keeps
	// each stage's raw output keyed by stage name. Both are persisted
	// with the final AnalysisResult.
	Progress     []string       `json:"progress,omitempty"`
	Intermediate map[string]any `json:"intermediate,omitempty"`

	// ResultID is the persisted AnalysisResult ID, set by synthesize.
	ResultID string `json:"result_id,omitempty"`

	Err string `json:"error,omitempty"`
}

// recordStage appends a progress entry and stores the stage's output.
func (s *State) recordStage(stage, progress string, output any) {
	if s.Intermediate == nil {
		s.Intermediate = make(map[string]any)
	}
	s.Progress = append(s.Progress, progress)
	s.Intermediate[stage] = output
}
