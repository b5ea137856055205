// Package openrouter implements relay.Provider against an OpenAI-compatible
// chat-completions endpoint, OpenRouter by default.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/relay"
)

// Defaults used when Config leaves a field empty.
const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultReferer = "https://market-segment-generator.vercel.app/"
	DefaultTimeout = 60 * time.Second
)

// Provider implements the relay Provider interface for OpenRouter.
type Provider struct {
	apiKey     string
	baseURL    string
	referer    string
	httpClient *http.Client
	name       string
}

// Config holds configuration for the OpenRouter provider.
type Config struct {
	APIKey     string
	BaseURL    string        // Optional, defaults to DefaultBaseURL
	Referer    string        // Sent as HTTP-Referer, defaults to DefaultReferer
	Timeout    time.Duration // Optional, defaults to 60s; covers reading a stream too
	HTTPClient *http.Client  // Optional, overrides Timeout
}

// New creates a new OpenRouter provider.
func New(config Config) *Provider {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Referer == "" {
		config.Referer = DefaultReferer
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	return &Provider{
		apiKey:     config.APIKey,
		baseURL:    config.BaseURL,
		referer:    config.Referer,
		httpClient: client,
		name:       "openrouter",
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// Call sends messages upstream and returns the first choice's message content.
//
// A non-2xx status yields *relay.UpstreamError, and a body that is not a chat
// completion yields *relay.ResponseFormatError. Both carry the raw body.
func (p *Provider) Call(ctx context.Context, messages []relay.Message, opts relay.Options) (*relay.ProviderResponse, error) {
	startTime := time.Now()

	resp, err := p.do(ctx, messages, opts, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.emitFailed(ctx, opts, resp.StatusCode, startTime, err.Error(), "")
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if !success(resp.StatusCode) {
		p.emitFailed(ctx, opts, resp.StatusCode, startTime, upstreamMessage(body, resp.StatusCode), string(body))
		return nil, &relay.UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var completionResp chatCompletionResponse
	if err := json.Unmarshal(body, &completionResp); err != nil {
		p.emitParseFailed(ctx, opts, "parse_error", err.Error(), string(body))
		return nil, &relay.ResponseFormatError{Reason: "body is not JSON", Body: string(body), Err: err}
	}

	if len(completionResp.Choices) == 0 || completionResp.Choices[0].Message == nil {
		p.emitParseFailed(ctx, opts, "missing_message", "no choices[0].message in response", string(body))
		return nil, &relay.ResponseFormatError{Reason: "missing choices[0].message", Body: string(body)}
	}

	duration := time.Since(startTime)
	capitan.Info(ctx, relay.UpstreamCallCompleted,
		relay.ProviderKey.Field(p.name),
		relay.ModelKey.Field(completionResp.Model),
		relay.PromptTokensKey.Field(completionResp.Usage.PromptTokens),
		relay.CompletionTokensKey.Field(completionResp.Usage.CompletionTokens),
		relay.TotalTokensKey.Field(completionResp.Usage.TotalTokens),
		relay.DurationMsKey.Field(int(duration.Milliseconds())),
		relay.HTTPStatusCodeKey.Field(resp.StatusCode),
		relay.ResponseIDKey.Field(completionResp.ID),
	)

	return &relay.ProviderResponse{
		Content: completionResp.Choices[0].Message.Content,
		Usage: relay.TokenUsage{
			Prompt:     completionResp.Usage.PromptTokens,
			Completion: completionResp.Usage.CompletionTokens,
			Total:      completionResp.Usage.TotalTokens,
		},
	}, nil
}

// Stream sends messages with streaming enabled and returns the raw upstream body.
// Frames are whatever the upstream emits; nothing is parsed or buffered.
func (p *Provider) Stream(ctx context.Context, messages []relay.Message, opts relay.Options) (io.ReadCloser, error) {
	startTime := time.Now()

	resp, err := p.do(ctx, messages, opts, true)
	if err != nil {
		return nil, err
	}

	if !success(resp.StatusCode) {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		p.emitFailed(ctx, opts, resp.StatusCode, startTime, upstreamMessage(body, resp.StatusCode), string(body))
		return nil, &relay.UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	capitan.Info(ctx, relay.UpstreamCallCompleted,
		relay.ProviderKey.Field(p.name),
		relay.ModelKey.Field(opts.Model),
		relay.DurationMsKey.Field(int(time.Since(startTime).Milliseconds())),
		relay.HTTPStatusCodeKey.Field(resp.StatusCode),
	)

	return resp.Body, nil
}

// do makes the single upstream attempt.
func (p *Provider) do(ctx context.Context, messages []relay.Message, opts relay.Options, stream bool) (*http.Response, error) {
	capitan.Info(ctx, relay.UpstreamCallStarted,
		relay.ProviderKey.Field(p.name),
		relay.ModelKey.Field(opts.Model),
		relay.MaxTokensKey.Field(opts.MaxTokens),
		relay.TemperatureKey.Field(float64(opts.Temperature)),
	)

	apiMessages := make([]message, len(messages))
	for i, msg := range messages {
		apiMessages[i] = message{Role: msg.Role, Content: msg.Content}
	}

	jsonBody, err := json.Marshal(chatCompletionRequest{
		Model:       opts.Model,
		Messages:    apiMessages,
		Stream:      stream,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("HTTP-Referer", p.referer)
	if opts.Title != "" {
		req.Header.Set("X-Title", opts.Title)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		capitan.Error(ctx, relay.UpstreamCallFailed,
			relay.ProviderKey.Field(p.name),
			relay.ModelKey.Field(opts.Model),
			relay.ErrorKey.Field(err.Error()),
			relay.ErrorTypeKey.Field(relay.KindTransport),
		)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (p *Provider) emitFailed(ctx context.Context, opts relay.Options, status int, start time.Time, msg, body string) {
	capitan.Error(ctx, relay.UpstreamCallFailed,
		relay.ProviderKey.Field(p.name),
		relay.ModelKey.Field(opts.Model),
		relay.HTTPStatusCodeKey.Field(status),
		relay.DurationMsKey.Field(int(time.Since(start).Milliseconds())),
		relay.ErrorKey.Field(msg),
		relay.ErrorTypeKey.Field(relay.KindUpstream),
		relay.ResponseKey.Field(body),
	)
}

func (p *Provider) emitParseFailed(ctx context.Context, opts relay.Options, errType, msg, body string) {
	capitan.Error(ctx, relay.ResponseParseFailed,
		relay.ProviderKey.Field(p.name),
		relay.ModelKey.Field(opts.Model),
		relay.ErrorKey.Field(msg),
		relay.ErrorTypeKey.Field(errType),
		relay.ResponseKey.Field(body),
	)
}

func success(status int) bool {
	return status >= 200 && status < 300
}

// upstreamMessage pulls error.message out of an OpenAI-style error body when there is one.
func upstreamMessage(body []byte, status int) string {
	var errorResp errorResponse
	if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
		return errorResp.Error.Message
	}
	return fmt.Sprintf("status %d", status)
}

// Request/Response types for the chat-completions API

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Stream      bool      `json:"stream"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Created int64    `json:"created"`
	Choices []choice `json:"choices"`
	Usage   usage    `json:"usage"`
}

type choice struct {
	Index        int      `json:"index"`
	Message      *message `json:"message"`
	FinishReason string   `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}
