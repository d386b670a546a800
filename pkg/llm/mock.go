package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockClient is a scripted Client for tests and offline runs.
// Responses are consumed in order per method; when a queue is exhausted
// the last entry repeats. Queue an error to simulate a failed call.
//
//	client := llm.NewMockClient().
//	    QueueCompletion("SUBJECTIVE: headache").
//	    QueueCompletionErr(errors.New("quota exceeded"))
//
// MockClient is safe for concurrent use and records every prompt it saw.
type MockClient struct {
	mu sync.Mutex

	completions    []mockResult[string]
	structured     []mockResult[json.RawMessage]
	visions        []mockResult[string]
	transcriptions []mockResult[string]

	completionIdx    int
	structuredIdx    int
	visionIdx        int
	transcriptionIdx int

	// Prompts records every prompt passed in, in call order.
	Prompts []string
	// Calls counts invocations per method name.
	Calls map[string]int
}

type mockResult[T any] struct {
	value T
	err   error
}

// NewMockClient creates an empty scripted client.
// Unscripted methods return an error, which pipelines treat as a
// degraded stage.
func NewMockClient() *MockClient {
	return &MockClient{Calls: make(map[string]int)}
}

// QueueCompletion scripts the next Complete response.
func (m *MockClient) QueueCompletion(content string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completions = append(m.completions, mockResult[string]{value: content})
	return m
}

// QueueCompletionErr scripts the next Complete failure.
func (m *MockClient) QueueCompletionErr(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completions = append(m.completions, mockResult[string]{err: err})
	return m
}

// QueueStructured scripts the next CompleteStructured response.
func (m *MockClient) QueueStructured(raw string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.structured = append(m.structured, mockResult[json.RawMessage]{value: json.RawMessage(raw)})
	return m
}

// QueueStructuredErr scripts the next CompleteStructured failure.
func (m *MockClient) QueueStructuredErr(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.structured = append(m.structured, mockResult[json.RawMessage]{err: err})
	return m
}

// QueueVision scripts the next CompleteVision response.
func (m *MockClient) QueueVision(content string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visions = append(m.visions, mockResult[string]{value: content})
	return m
}

// QueueVisionErr scripts the next CompleteVision failure.
func (m *MockClient) QueueVisionErr(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visions = append(m.visions, mockResult[string]{err: err})
	return m
}

// QueueTranscription scripts the next Transcribe response.
func (m *MockClient) QueueTranscription(text string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcriptions = append(m.transcriptions, mockResult[string]{value: text})
	return m
}

// QueueTranscriptionErr scripts the next Transcribe failure.
func (m *MockClient) QueueTranscriptionErr(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcriptions = append(m.transcriptions, mockResult[string]{err: err})
	return m
}

// Complete implements Client.
func (m *MockClient) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["Complete"]++
	for _, msg := range req.Messages {
		m.Prompts = append(m.Prompts, msg.Content)
	}

	r, err := next(m.completions, &m.completionIdx, "Complete")
	if err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	return &CompletionResponse{Content: r.value, Model: "mock"}, nil
}

// CompleteStructured implements Client.
func (m *MockClient) CompleteStructured(_ context.Context, req StructuredRequest) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["CompleteStructured"]++
	m.Prompts = append(m.Prompts, req.Prompt)

	r, err := next(m.structured, &m.structuredIdx, "CompleteStructured")
	if err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.value, nil
}

// CompleteVision implements Client.
func (m *MockClient) CompleteVision(_ context.Context, req VisionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["CompleteVision"]++
	m.Prompts = append(m.Prompts, req.Prompt)

	r, err := next(m.visions, &m.visionIdx, "CompleteVision")
	if err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	return &CompletionResponse{Content: r.value, Model: "mock"}, nil
}

// Transcribe implements Client.
func (m *MockClient) Transcribe(_ context.Context, _ TranscriptionRequest) (*Transcription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["Transcribe"]++

	r, err := next(m.transcriptions, &m.transcriptionIdx, "Transcribe")
	if err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	return &Transcription{Text: r.value}, nil
}

// next pops the queue at idx, repeating the final entry once exhausted.
func next[T any](queue []mockResult[T], idx *int, method string) (mockResult[T], error) {
	var zero mockResult[T]
	if len(queue) == 0 {
		return zero, fmt.Errorf("mock: no response scripted for %s", method)
	}
	i := *idx
	if i >= len(queue) {
		i = len(queue) - 1
	}
	*idx++
	return queue[i], nil
}

var _ Client = (*MockClient)(nil)
var _ Client = (*HTTPClient)(nil)
