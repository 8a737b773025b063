package ai

import (
	"context"
	"time"
)

// Provider is the interface for LLM completion providers backing narrative
// enrichment.
type Provider interface {
	// Complete performs a single-turn completion.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name (e.g., "anthropic")
	Name() string

	// IsAvailable checks if the provider is currently available
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest represents a completion request
type CompletionRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// CompletionResponse represents the response from a completion
type CompletionResponse struct {
	Content    string        `json:"content"`
	TokensUsed int           `json:"tokens_used"`
	Provider   string        `json:"provider"`
	Model      string        `json:"model"`
	StopReason string        `json:"stop_reason"`
	Duration   time.Duration `json:"duration"`
}

// ProviderConfig holds configuration for LLM providers
type ProviderConfig struct {
	APIKey       string
	Model        string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
	RateLimitRPM int // Requests per minute
}

// ProviderError represents an error from an LLM provider
type ProviderError struct {
	Provider  string
	Code      string
	Message   string
	Retryable bool
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Message
}

// Common error codes
const (
	ErrorCodeRateLimit      = "rate_limit"
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeAuthentication = "authentication"
	ErrorCodeServerError    = "server_error"
	ErrorCodeTimeout        = "timeout"
	ErrorCodeUnavailable    = "unavailable"
)
