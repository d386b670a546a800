package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore is a Store backed by SQLite.
// Suitable for single-process production use.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) a SQLite-backed store at
// path, or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cases (
			id TEXT PRIMARY KEY,
			patient_id TEXT NOT NULL DEFAULT '',
			doctor_id TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			soap_note TEXT NOT NULL DEFAULT '',
			ddx_result TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			case_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			content_type TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			full_text TEXT NOT NULL DEFAULT '',
			uploaded_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_documents_case_id ON documents(case_id);
		CREATE TABLE IF NOT EXISTS analysis_results (
			id TEXT PRIMARY KEY,
			case_id TEXT NOT NULL,
			image_reference TEXT NOT NULL DEFAULT '',
			report_reference TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			intermediate TEXT NOT NULL DEFAULT '{}',
			final_report TEXT NOT NULL DEFAULT '',
			progress TEXT NOT NULL DEFAULT '[]'
		);
		CREATE INDEX IF NOT EXISTS idx_analysis_results_case_id ON analysis_results(case_id);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// GetCase implements Store.
func (s *SQLiteStore) GetCase(ctx context.Context, id string) (*Case, error) {
	var c Case
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, patient_id, doctor_id, notes, soap_note, ddx_result, created_at
		FROM cases WHERE id = ?
	`, id).Scan(&c.ID, &c.PatientID, &c.DoctorID, &c.Notes, &c.SOAPNote, &c.DDxResult, &createdAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &c, nil
}

// PutCase implements Store.
func (s *SQLiteStore) PutCase(ctx context.Context, c *Case) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cases (id, patient_id, doctor_id, notes, soap_note, ddx_result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			patient_id = excluded.patient_id,
			doctor_id = excluded.doctor_id,
			notes = excluded.notes,
			soap_note = excluded.soap_note,
			ddx_result = excluded.ddx_result
	`, c.ID, c.PatientID, c.DoctorID, c.Notes, c.SOAPNote, c.DDxResult,
		c.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put case: %w", err)
	}
	return nil
}

// caseColumns maps SaveCaseField names to schema columns.
// The allowlist keeps field names out of SQL.
var caseColumns = map[string]string{
	FieldSOAPNote:  "soap_note",
	FieldDDxResult: "ddx_result",
	FieldNotes:     "notes",
}

// SaveCaseField implements Store.
func (s *SQLiteStore) SaveCaseField(ctx context.Context, caseID, field, value string) error {
	col, ok := caseColumns[field]
	if !ok {
		return fmt.Errorf("unknown case field: %s", field)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE cases SET "+col+" = ? WHERE id = ?", value, caseID)
	if err != nil {
		return fmt.Errorf("save case field: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save case field: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDocuments implements Store.
func (s *SQLiteStore) ListDocuments(ctx context.Context, caseID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, filename, content_type, summary, full_text, uploaded_at
		FROM documents WHERE case_id = ? ORDER BY id
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var d Document
		var uploadedAt string
		if err := rows.Scan(&d.ID, &d.CaseID, &d.Filename, &d.ContentType, &d.Summary, &d.FullText, &uploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.UploadedAt, _ = time.Parse(time.RFC3339Nano, uploadedAt)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// PutDocument implements Store.
func (s *SQLiteStore) PutDocument(ctx context.Context, d *Document) error {
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (case_id, filename, content_type, summary, full_text, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, d.CaseID, d.Filename, d.ContentType, d.Summary, d.FullText,
		d.UploadedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	d.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}

// SaveAnalysisResult implements Store.
func (s *SQLiteStore) SaveAnalysisResult(ctx context.Context, r *AnalysisResult) (string, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	intermediate, err := json.Marshal(r.Intermediate)
	if err != nil {
		return "", fmt.Errorf("marshal intermediate outputs: %w", err)
	}
	progress, err := json.Marshal(r.Progress)
	if err != nil {
		return "", fmt.Errorf("marshal progress log: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_results
			(id, case_id, image_reference, report_reference, created_at, intermediate, final_report, progress)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.CaseID, r.ImageReference, r.ReportReference,
		r.CreatedAt.Format(time.RFC3339Nano), string(intermediate), r.FinalReportText, string(progress))
	if err != nil {
		return "", fmt.Errorf("save analysis result: %w", err)
	}
	return r.ID, nil
}

// GetAnalysisResult implements Store.
func (s *SQLiteStore) GetAnalysisResult(ctx context.Context, id string) (*AnalysisResult, error) {
	var r AnalysisResult
	var createdAt, intermediate, progress string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, case_id, image_reference, report_reference, created_at, intermediate, final_report, progress
		FROM analysis_results WHERE id = ?
	`, id).Scan(&r.ID, &r.CaseID, &r.ImageReference, &r.ReportReference, &createdAt, &intermediate, &r.FinalReportText, &progress)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis result: %w", err)
	}

	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if err := json.Unmarshal([]byte(intermediate), &r.Intermediate); err != nil {
		return nil, fmt.Errorf("unmarshal intermediate outputs: %w", err)
	}
	if err := json.Unmarshal([]byte(progress), &r.Progress); err != nil {
		return nil, fmt.Errorf("unmarshal progress log: %w", err)
	}
	return &r, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)

// TextContentTypes lists content types whose full text is extracted on
// upload. Other types (images) carry an AI summary only.
var TextContentTypes = []string{"application/pdf", "text/plain",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document"}

// IsTextContentType reports whether full-text extraction applies.
func IsTextContentType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	for _, t := range TextContentTypes {
		if ct == t {
			return true
		}
	}
	return false
}
