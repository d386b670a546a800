// Package qa answers questions about a case by assembling every
// uploaded document into one context block and asking the model over
// it. There is no retrieval or ranking step; clinical cases are small
// enough that the full context fits in a single completion.
package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/ItsMeCK/IntelligentHealth/pkg/llm"
	"github.com/ItsMeCK/IntelligentHealth/pkg/store"
)

// Assembler builds the document context for a case.
type Assembler struct {
	store store.Store
}

// NewAssembler creates an Assembler over the given store.
func NewAssembler(st store.Store) *Assembler {
	return &Assembler{store: st}
}

// AssembleContext renders every document of the case into one block:
// each document's AI summary labeled by filename, with the extracted
// full text appended for text-capable content types (PDF, plain text,
// DOCX). Image documents contribute their summary only.
func (a *Assembler) AssembleContext(ctx context.Context, caseID string) (string, error) {
	docs, err := a.store.ListDocuments(ctx, caseID)
	if err != nil {
		return "", fmt.Errorf("list documents: %w", err)
	}
	if len(docs) == 0 {
		return "No reports have been uploaded for this consultation yet.", nil
	}

	sections := make([]string, 0, len(docs))
	for _, d := range docs {
		summary := d.Summary
		if summary == "" {
			summary = "No summary available."
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Report: %s\nSummary: %s", d.Filename, summary)
		if d.HasFullText() && store.IsTextContentType(d.ContentType) {
			fmt.Fprintf(&b, "\nFull Text:\n%s", d.FullText)
		}
		sections = append(sections, b.String())
	}

	return strings.Join(sections, "\n\n"), nil
}

// SummarizeReports renders the summaries-only listing, suited to broad
// questions about overall findings where full text would drown the
// answer.
func (a *Assembler) SummarizeReports(ctx context.Context, caseID string) (string, error) {
	docs, err := a.store.ListDocuments(ctx, caseID)
	if err != nil {
		return "", fmt.Errorf("list documents: %w", err)
	}
	if len(docs) == 0 {
		return "No reports have been uploaded for this consultation yet.", nil
	}

	sections := make([]string, 0, len(docs))
	for _, d := range docs {
		summary := d.Summary
		if summary == "" {
			summary = "No summary available."
		}
		sections = append(sections, fmt.Sprintf("Report: %s\nSummary: %s", d.Filename, summary))
	}

	return strings.Join(sections, "\n\n"), nil
}

// Answerer answers case questions over the assembled context.
type Answerer struct {
	client    llm.Client
	assembler *Assembler
}

// NewAnswerer creates an Answerer over the given client and store.
func NewAnswerer(client llm.Client, st store.Store) *Answerer {
	return &Answerer{client: client, assembler: NewAssembler(st)}
}

// Answer runs one completion over the case's full document context.
func (an *Answerer) Answer(ctx context.Context, caseID, question string) (string, error) {
	docContext, err := an.assembler.AssembleContext(ctx, caseID)
	if err != nil {
		return "", fmt.Errorf("assemble context: %w", err)
	}

	system := "You are an expert medical assistant. Answer the user's questions " +
		"based on the provided context from their medical reports. " +
		"If the information is not in the context, say so. " +
		"Be concise and clear.\n\n" +
		"<context>" + docContext + "</context>"

	resp, err := an.client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: system,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: question}},
	})
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}

	return resp.Content, nil
}
