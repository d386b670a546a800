package llm

import "time"

// CompletionRequest configures a text completion call.
type CompletionRequest struct {
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Messages     []Message `json:"messages"`

	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// StructuredRequest configures a schema-guided completion call.
type StructuredRequest struct {
	SystemPrompt string `json:"system_prompt,omitempty"`
	Prompt       string `json:"prompt"`
	// Schema describes the expected JSON shape in plain language.
	// It is appended to the system prompt; the service is additionally
	// asked for a JSON-only response.
	Schema string `json:"schema"`

	Model     string `json:"model,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// VisionRequest configures a completion call over an image.
type VisionRequest struct {
	Prompt string `json:"prompt"`
	// Image is the raw image bytes; the client handles encoding.
	Image []byte `json:"-"`
	// MIMEType of the image. Defaults to image/jpeg when empty.
	MIMEType string `json:"mime_type,omitempty"`

	Model     string `json:"model,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// TranscriptionRequest configures an audio transcription call.
type TranscriptionRequest struct {
	// Audio is the raw audio bytes.
	Audio []byte `json:"-"`
	// Filename hints the container format to the service ("visit.mp3").
	Filename string `json:"filename"`

	Model string `json:"model,omitempty"`
}

// Message is a conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role identifies the message sender.
type Role string

// Standard message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// CompletionResponse is the output of a completion call.
type CompletionResponse struct {
	Content      string        `json:"content"`
	Usage        TokenUsage    `json:"usage"`
	Model        string        `json:"model"`
	FinishReason string        `json:"finish_reason"`
	Duration     time.Duration `json:"duration"`
}

// Transcription is the output of a transcription call.
type Transcription struct {
	Text     string        `json:"text"`
	Duration time.Duration `json:"duration"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add accumulates usage from another call.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}
