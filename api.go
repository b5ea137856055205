// Package relay forwards templated market-research prompts to a chat-completion API.
//
// Relay renders one of three fixed prompt templates from user input, sends it upstream
// in a single call, and normalizes what comes back. Three task kinds are supported:
//
//   - GenerateSegments: rank 7 industry subsectors for fractional CFO services
//   - EnhanceSegments: deep-dive analysis of previously generated segments
//   - GenerateStrategy: targeting strategy (or a full research report) for a market
//
// Buffered tasks return a PromptResult; streaming tasks hand back the raw upstream
// byte stream. Every request emits capitan lifecycle events for logging.
//
// Basic usage:
//
//	provider := openrouter.New(openrouter.Config{APIKey: key})
//	r := relay.New(provider, relay.DefaultConfig())
//	req, _ := relay.ParsePayload(relay.TaskGenerateSegments, []byte(`{"industry":"Healthcare"}`))
//	out, _ := r.Handle(ctx, req)
//	fmt.Println(out.Result.Text)
package relay

import (
	"context"
	"io"
)

// Provider defines the interface for upstream chat-completion services.
// Implementations make exactly one HTTP attempt per call.
type Provider interface {
	// Call sends messages upstream and returns the full response content.
	Call(ctx context.Context, messages []Message, opts Options) (*ProviderResponse, error)

	// Stream sends messages upstream with streaming enabled and returns the raw body.
	// The caller owns the returned reader and must close it.
	Stream(ctx context.Context, messages []Message, opts Options) (io.ReadCloser, error)

	// Name returns the provider identifier (e.g., "openrouter")
	Name() string
}

// TokenUsage contains token counts from a provider response.
type TokenUsage struct {
	Prompt     int // Tokens used by the prompt/messages
	Completion int // Tokens used by the completion/response
	Total      int // Total tokens used
}

// ProviderResponse contains the response from an upstream provider.
type ProviderResponse struct {
	Content string     // The text response content
	Usage   TokenUsage // Token usage statistics
}

// Message represents a single chat message sent upstream.
type Message struct {
	Role    string
	Content string
}

// Role constants for message types.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Options are the per-task upstream call parameters.
type Options struct {
	Model       string  // Upstream model identifier, e.g. "google/gemini-2.0-flash-001"
	MaxTokens   int     // Completion token ceiling
	Temperature float32 // Sampling temperature
	Stream      bool    // Relay the raw upstream stream instead of a buffered result
	Title       string  // Sent upstream as the X-Title header
}

// RelayRequest flows through the pipz pipeline.
// It carries the parsed request, the rendered prompt, and whatever the terminal produced.
type RelayRequest struct {
	// Input fields
	Request PromptRequest
	Prompt  *Prompt

	// Metadata fields
	RequestID    string
	ProviderName string

	// Output fields (populated by pipeline)
	Response string        // Buffered response content
	Usage    *TokenUsage   // Token usage from a buffered response
	Body     io.ReadCloser // Raw upstream stream when streaming
	Err      error         // Classified failure recorded by the stage that produced it
}
