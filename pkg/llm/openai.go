package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/ItsMeCK/IntelligentHealth/pkg/extract"
)

// Default models for the OpenAI-compatible client.
const (
	defaultChatModel       = "gpt-4o"
	defaultTranscribeModel = "whisper-1"
)

// HTTPClient talks to an OpenAI-compatible REST API.
// Construct with NewHTTPClient; the zero value is not usable.
type HTTPClient struct {
	apiKey          string
	baseURL         string
	httpClient      *http.Client
	chatModel       string
	transcribeModel string
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithBaseURL overrides the API base URL (no trailing slash).
func WithBaseURL(url string) HTTPOption {
	return func(c *HTTPClient) { c.baseURL = url }
}

// WithHTTPClient sets the underlying *http.Client, e.g. to enforce
// timeouts on the external-call boundary.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// WithChatModel sets the default chat/vision model.
func WithChatModel(model string) HTTPOption {
	return func(c *HTTPClient) { c.chatModel = model }
}

// WithTranscribeModel sets the default transcription model.
func WithTranscribeModel(model string) HTTPOption {
	return func(c *HTTPClient) { c.transcribeModel = model }
}

// NewHTTPClient creates a client for an OpenAI-compatible API.
// The API key is passed explicitly: clients are constructed per
// configuration and injected, never read from ambient globals.
func NewHTTPClient(apiKey string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		apiKey:          apiKey,
		baseURL:         "https://api.openai.com/v1",
		httpClient:      &http.Client{Timeout: 2 * time.Minute},
		chatModel:       defaultChatModel,
		transcribeModel: defaultTranscribeModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// chatRequest is the wire shape of a chat completions call.
type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	Temperature    *float64       `json:"temperature,omitempty"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

// chatMessage carries either plain text or multimodal content parts.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete implements Client.
func (c *HTTPClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	msgs := make([]chatMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, chatMessage{Role: string(RoleSystem), Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	wire := chatRequest{
		Model:     c.model(req.Model),
		Messages:  msgs,
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature != 0 {
		t := req.Temperature
		wire.Temperature = &t
	}

	return c.chat(ctx, wire)
}

// CompleteStructured implements Client.
// The schema description is appended to the system prompt and the API is
// asked for a JSON-only response; the reply is still fence-stripped and
// validated because models do not reliably honor the format request.
func (c *HTTPClient) CompleteStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, error) {
	system := req.SystemPrompt
	if system != "" {
		system += "\n"
	}
	system += "Respond ONLY with valid JSON. " + req.Schema

	wire := chatRequest{
		Model: c.model(req.Model),
		Messages: []chatMessage{
			{Role: string(RoleSystem), Content: system},
			{Role: string(RoleUser), Content: req.Prompt},
		},
		MaxTokens:      req.MaxTokens,
		ResponseFormat: map[string]any{"type": "json_object"},
	}

	resp, err := c.chat(ctx, wire)
	if err != nil {
		return nil, err
	}

	candidate, ok := extract.Extract(resp.Content)
	if !ok {
		return nil, &extract.ParseError{Raw: resp.Content, Err: fmt.Errorf("empty response")}
	}
	if !json.Valid([]byte(candidate)) {
		return nil, &extract.ParseError{Raw: resp.Content, Err: fmt.Errorf("response is not valid JSON")}
	}
	return json.RawMessage(candidate), nil
}

// CompleteVision implements Client.
func (c *HTTPClient) CompleteVision(ctx context.Context, req VisionRequest) (*CompletionResponse, error) {
	mime := req.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(req.Image))

	wire := chatRequest{
		Model: c.model(req.Model),
		Messages: []chatMessage{
			{Role: string(RoleSystem), Content: req.Prompt},
			{Role: string(RoleUser), Content: []contentPart{
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			}},
		},
		MaxTokens: req.MaxTokens,
	}

	return c.chat(ctx, wire)
}

// Transcribe implements Client.
func (c *HTTPClient) Transcribe(ctx context.Context, req TranscriptionRequest) (*Transcription, error) {
	model := req.Model
	if model == "" {
		model = c.transcribeModel
	}
	filename := req.Filename
	if filename == "" {
		filename = "audio"
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart request: %w", err)
	}
	if _, err := part.Write(req.Audio); err != nil {
		return nil, fmt.Errorf("build multipart request: %w", err)
	}
	if err := w.WriteField("model", model); err != nil {
		return nil, fmt.Errorf("build multipart request: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("build multipart request: %w", err)
	}

	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	respBody, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal transcription response: %w", err)
	}

	return &Transcription{
		Text:     result.Text,
		Duration: time.Since(start),
	}, nil
}

// chat issues a chat completions call and maps the response.
func (c *HTTPClient) chat(ctx context.Context, wire chatRequest) (*CompletionResponse, error) {
	payload, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	respBody, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("response contains no choices")
	}

	return &CompletionResponse{
		Content:      resp.Choices[0].Message.Content,
		Model:        resp.Model,
		FinishReason: resp.Choices[0].FinishReason,
		Duration:     time.Since(start),
		Usage: TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}, nil
}

// do executes the request and returns the body, converting non-2xx
// statuses into *APIError.
func (c *HTTPClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (c *HTTPClient) model(override string) string {
	if override != "" {
		return override
	}
	return c.chatModel
}
