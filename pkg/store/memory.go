package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu        sync.RWMutex
	cases     map[string]Case
	documents map[string][]Document
	analyses  map[string]AnalysisResult
	nextDocID int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cases:     make(map[string]Case),
		documents: make(map[string][]Document),
		analyses:  make(map[string]AnalysisResult),
	}
}

// GetCase implements Store.
func (m *MemoryStore) GetCase(_ context.Context, id string) (*Case, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cases[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := c
	return &out, nil
}

// PutCase implements Store.
func (m *MemoryStore) PutCase(_ context.Context, c *Case) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	m.cases[c.ID] = *c
	return nil
}

// SaveCaseField implements Store.
func (m *MemoryStore) SaveCaseField(_ context.Context, caseID, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.cases[caseID]
	if !ok {
		return ErrNotFound
	}

	switch field {
	case FieldSOAPNote:
		c.SOAPNote = value
	case FieldDDxResult:
		c.DDxResult = value
	case FieldNotes:
		c.Notes = value
	default:
		return fmt.Errorf("unknown case field: %s", field)
	}

	m.cases[caseID] = c
	return nil
}

// ListDocuments implements Store.
func (m *MemoryStore) ListDocuments(_ context.Context, caseID string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := m.documents[caseID]
	out := make([]Document, len(docs))
	copy(out, docs)
	return out, nil
}

// PutDocument implements Store.
func (m *MemoryStore) PutDocument(_ context.Context, d *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextDocID++
	d.ID = m.nextDocID
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now().UTC()
	}
	m.documents[d.CaseID] = append(m.documents[d.CaseID], *d)
	return nil
}

// SaveAnalysisResult implements Store.
func (m *MemoryStore) SaveAnalysisResult(_ context.Context, r *AnalysisResult) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	m.analyses[r.ID] = *r
	return r.ID, nil
}

// GetAnalysisResult implements Store.
func (m *MemoryStore) GetAnalysisResult(_ context.Context, id string) (*AnalysisResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.analyses[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := r
	return &out, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
