package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const anthropicAPIURL = "https://api.anthropic.com/v1/messages"

const anthropicAPIVersion = "2023-06-01"

// AnthropicProvider implements Provider against the Anthropic Messages API.
type AnthropicProvider struct {
	config  *ProviderConfig
	client  *http.Client
	logger  *zap.Logger
	tracer  trace.Tracer
	limiter *rate.Limiter

	mu        sync.Mutex
	lastError error
	lastCheck time.Time
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config *ProviderConfig, logger *zap.Logger) *AnthropicProvider {
	// Convert requests per minute to per second, burst of 1
	rps := float64(config.RateLimitRPM) / 60.0
	limiter := rate.NewLimiter(rate.Limit(rps), 1)

	return &AnthropicProvider{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		logger:  logger,
		tracer:  otel.Tracer("anthropic-provider"),
		limiter: limiter,
	}
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable checks if the Anthropic API is reachable. The result is
// cached for a minute to avoid hammering the endpoint.
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	p.mu.Lock()
	if time.Since(p.lastCheck) < time.Minute && p.lastError == nil {
		p.mu.Unlock()
		return true
	}
	p.mu.Unlock()

	_, err := p.Complete(ctx, &CompletionRequest{Prompt: "ping", MaxTokens: 5})

	p.mu.Lock()
	p.lastError = err
	p.lastCheck = time.Now()
	p.mu.Unlock()

	return err == nil
}

// Complete performs a single-turn completion
func (p *AnthropicProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	startTime := time.Now()
	ctx, span := p.tracer.Start(ctx, "anthropic.messages", trace.WithAttributes(
		attribute.Int("prompt_length", len(req.Prompt)),
		attribute.String("model", p.config.Model),
	))
	defer span.End()

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, &ProviderError{
			Provider:  p.Name(),
			Code:      ErrorCodeRateLimit,
			Message:   "rate limit exceeded",
			Retryable: true,
		}
	}

	reqBody, err := json.Marshal(p.buildRequest(req))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", anthropicAPIURL, bytes.NewReader(reqBody))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.config.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return nil, &ProviderError{
			Provider:  p.Name(),
			Code:      ErrorCodeTimeout,
			Message:   err.Error(),
			Retryable: true,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleHTTPError(resp.StatusCode, body)
	}

	var msgResp anthropicResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	completion := p.convertResponse(&msgResp, time.Since(startTime))

	span.SetAttributes(
		attribute.Int("tokens_used", completion.TokensUsed),
		attribute.String("stop_reason", completion.StopReason),
	)

	p.logger.Debug("anthropic completion successful",
		zap.Int("tokens", completion.TokensUsed),
		zap.Duration("duration", completion.Duration),
		zap.String("model", completion.Model),
	)

	return completion, nil
}

// buildRequest converts a CompletionRequest to the Messages API format
func (p *AnthropicProvider) buildRequest(req *CompletionRequest) map[string]interface{} {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	body := map[string]interface{}{
		"model":      p.config.Model,
		"max_tokens": maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": req.Prompt},
		},
	}

	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	} else if p.config.Temperature > 0 {
		body["temperature"] = p.config.Temperature
	}

	return body
}

// convertResponse converts an Anthropic response to a CompletionResponse
func (p *AnthropicProvider) convertResponse(resp *anthropicResponse, duration time.Duration) *CompletionResponse {
	completion := &CompletionResponse{
		TokensUsed: resp.Usage.InputTokens + resp.Usage.OutputTokens,
		Provider:   p.Name(),
		Model:      resp.Model,
		StopReason: resp.StopReason,
		Duration:   duration,
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			completion.Content += block.Text
		}
	}

	return completion
}

// handleHTTPError converts HTTP error responses to ProviderError
func (p *AnthropicProvider) handleHTTPError(statusCode int, body []byte) error {
	var errorResp struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}

	_ = json.Unmarshal(body, &errorResp)

	provErr := &ProviderError{
		Provider:  p.Name(),
		Message:   errorResp.Error.Message,
		Retryable: false,
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		provErr.Code = ErrorCodeRateLimit
		provErr.Retryable = true
	case http.StatusUnauthorized, http.StatusForbidden:
		provErr.Code = ErrorCodeAuthentication
	case http.StatusBadRequest:
		provErr.Code = ErrorCodeInvalidRequest
	case http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		provErr.Code = ErrorCodeServerError
		provErr.Retryable = true
	default:
		provErr.Code = ErrorCodeUnavailable
	}

	p.logger.Error("anthropic API error",
		zap.Int("status_code", statusCode),
		zap.String("error_type", errorResp.Error.Type),
		zap.String("error_message", errorResp.Error.Message),
	)

	return provErr
}

// Anthropic Messages API response structures
type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}
