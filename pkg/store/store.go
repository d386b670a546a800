// Package store is the persistence collaborator consumed by the
// pipelines: case records, document summaries and radiology analysis
// results.
//
// The pipelines depend only on the Store interface; the SQLite and
// in-memory implementations here are reference backends. Both are safe
// for concurrent use by independent pipeline runs.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested record doesn't exist.
var ErrNotFound = errors.New("record not found")

// Case field names accepted by SaveCaseField.
const (
	FieldSOAPNote  = "soap_note"
	FieldDDxResult = "ddx_result"
	FieldNotes     = "notes"
)

// Case is a consultation record.
type Case struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	DoctorID  string    `json:"doctor_id"`
	Notes     string    `json:"notes"`
	SOAPNote  string    `json:"soap_note"`
	DDxResult string    `json:"ddx_result"`
	CreatedAt time.Time `json:"created_at"`
}

// Document is an uploaded report attached to a case, with its
// AI-generated summary. FullText is populated only for content types
// that support text extraction; images carry a summary alone.
type Document struct {
	ID          int64     `json:"id"`
	CaseID      string    `json:"case_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Summary     string    `json:"summary"`
	FullText    string    `json:"full_text,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// HasFullText reports whether the document carries extracted text.
func (d Document) HasFullText() bool {
	return d.FullText != ""
}

// AnalysisResult is the terminal record of a radiology pipeline run:
// the full intermediate-output trace plus the final report. Written once
// by the pipeline's terminal node and never mutated afterwards.
type AnalysisResult struct {
	ID              string         `json:"id"`
	CaseID          string         `json:"case_id"`
	ImageReference  string         `json:"image_reference"`
	ReportReference string         `json:"report_reference,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	Intermediate    map[string]any `json:"intermediate_outputs"`
	FinalReportText string         `json:"final_report_text"`
	Progress        []string       `json:"progress"`
}

// Stage keys of AnalysisResult.Intermediate.
const (
	StageTriage           = "triage"
	StageAnomalyDetection = "anomalyDetection"
	StageCharacterization = "characterizations"
	StageDifferential     = "differentialDiagnosis"
	StageFinalReport      = "finalReport"
)

// Store persists cases, documents and analysis results.
type Store interface {
	// GetCase retrieves a case by ID. Returns ErrNotFound if absent.
	GetCase(ctx context.Context, id string) (*Case, error)

	// PutCase inserts or replaces a case.
	PutCase(ctx context.Context, c *Case) error

	// SaveCaseField updates one named field of a case.
	// Returns ErrNotFound if the case doesn't exist.
	SaveCaseField(ctx context.Context, caseID, field, value string) error

	// ListDocuments returns all documents for a case in upload order.
	// Returns an empty slice (not an error) if the case has none.
	ListDocuments(ctx context.Context, caseID string) ([]Document, error)

	// PutDocument attaches a document to a case and assigns its ID.
	PutDocument(ctx context.Context, d *Document) error

	// SaveAnalysisResult persists a radiology analysis result, assigning
	// an ID if the record has none. Returns the record ID.
	SaveAnalysisResult(ctx context.Context, r *AnalysisResult) (string, error)

	// GetAnalysisResult retrieves an analysis result by ID.
	// Returns ErrNotFound if absent.
	GetAnalysisResult(ctx context.Context, id string) (*AnalysisResult, error)

	// Close releases any resources.
	Close() error
}
