package relay

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MockProvider returns canned upstream responses for testing.
// It records every call so tests can assert how many upstream requests were made.
type MockProvider struct {
	name     string
	response string
	chunks   []string
	err      error
	callback func(messages []Message, opts Options) (string, error)

	mu    sync.Mutex
	calls []MockCall
}

// MockCall is one recorded provider call.
type MockCall struct {
	Messages []Message
	Options  Options
	Stream   bool
}

// NewMockProvider creates a mock that returns "Mock response".
func NewMockProvider() *MockProvider {
	return &MockProvider{name: "mock", response: "Mock response"}
}

// NewMockProviderWithResponse creates a mock that always returns response.
// Streamed calls receive the same text as a single chunk.
func NewMockProviderWithResponse(response string) *MockProvider {
	return &MockProvider{name: "mock-fixed", response: response}
}

// NewMockProviderWithError creates a mock whose every call fails with err.
func NewMockProviderWithError(err error) *MockProvider {
	return &MockProvider{name: "mock-error", err: err}
}

// NewMockProviderWithCallback creates a mock that calls a function to generate responses.
func NewMockProviderWithCallback(callback func(messages []Message, opts Options) (string, error)) *MockProvider {
	return &MockProvider{name: "mock-callback", callback: callback}
}

// WithChunks sets the pieces a streamed call yields, in order.
func (m *MockProvider) WithChunks(chunks ...string) *MockProvider {
	m.chunks = chunks
	return m
}

// Name returns the provider identifier.
func (m *MockProvider) Name() string {
	return m.name
}

// Call returns the configured response.
func (m *MockProvider) Call(_ context.Context, messages []Message, opts Options) (*ProviderResponse, error) {
	m.record(messages, opts, false)

	content, err := m.respond(messages, opts)
	if err != nil {
		return nil, err
	}
	return &ProviderResponse{
		Content: content,
		Usage:   TokenUsage{Prompt: 100, Completion: 50, Total: 150},
	}, nil
}

// Stream returns the configured chunks, or the response as one chunk.
func (m *MockProvider) Stream(_ context.Context, messages []Message, opts Options) (io.ReadCloser, error) {
	m.record(messages, opts, true)

	if m.err != nil {
		return nil, m.err
	}
	if len(m.chunks) > 0 {
		return io.NopCloser(strings.NewReader(strings.Join(m.chunks, ""))), nil
	}
	content, err := m.respond(messages, opts)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

// Calls returns a copy of all recorded calls.
func (m *MockProvider) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns the number of calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastPrompt returns the user message of the most recent call.
func (m *MockProvider) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.calls) == 0 || len(m.calls[len(m.calls)-1].Messages) == 0 {
		return ""
	}
	msgs := m.calls[len(m.calls)-1].Messages
	return msgs[len(msgs)-1].Content
}

func (m *MockProvider) respond(messages []Message, opts Options) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.callback != nil {
		return m.callback(messages, opts)
	}
	if m.response == "" {
		return "", fmt.Errorf("provider %s has no response configured", m.name)
	}
	return m.response, nil
}

func (m *MockProvider) record(messages []Message, opts Options, stream bool) {
	msgCopy := make([]Message, len(messages))
	copy(msgCopy, messages)

	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Messages: msgCopy, Options: opts, Stream: stream})
	m.mu.Unlock()
}
