package llm

import (
	"context"
	"time"
)

// represents different LLM providers
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// produces text from a prompt and reports what it consumed
type TextGenerator interface {
	GenerateText(ctx context.Context, req TextGenerationRequest) (*TextGenerationResponse, error)
	Model() string
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TextGenerationRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int  // 0 uses the generator default
	JSONOutput   bool // ask the provider for a bare JSON object where supported
}

type TextGenerationResponse struct {
	Text  string
	Model string
	Usage Usage
}

// token counts as reported by the provider
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// holds configuration for generator initialization
type Config struct {
	Provider    Provider
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	BaseURL     string // overrides the provider endpoint, used by tests
}
