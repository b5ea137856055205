// Package relaytest provides a recording chat-completions upstream for tests.
package relaytest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
)

// RecordedRequest is one request received by the fake upstream.
type RecordedRequest struct {
	Header http.Header
	Path   string
	Body   ChatRequest
	Raw    []byte
}

// ChatRequest mirrors the chat-completions request body.
type ChatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Stream      bool    `json:"stream"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
}

// Prompt returns the content of the last message.
func (r ChatRequest) Prompt() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1].Content
}

// Upstream is an httptest server that answers every request with a fixed reply
// and records what it received.
type Upstream struct {
	server *httptest.Server

	mu          sync.Mutex
	status      int
	body        string
	contentType string
	chunks      []string
	requests    []RecordedRequest
	calls       atomic.Int64
}

// NewUpstream starts a fake upstream answering 200 with an empty completion.
// Call Close when done.
func NewUpstream() *Upstream {
	u := &Upstream{
		status:      http.StatusOK,
		body:        CompletionBody(""),
		contentType: "application/json",
	}
	u.server = httptest.NewServer(http.HandlerFunc(u.serve))
	return u
}

// URL returns the base URL to configure a provider with.
func (u *Upstream) URL() string {
	return u.server.URL
}

// Close shuts the server down.
func (u *Upstream) Close() {
	u.server.Close()
}

// Respond sets the status and raw body of every following reply.
func (u *Upstream) Respond(status int, body string) *Upstream {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = status
	u.body = body
	u.chunks = nil
	u.contentType = "application/json"
	return u
}

// RespondCompletion replies 200 with a completion whose message content is content.
func (u *Upstream) RespondCompletion(content string) *Upstream {
	return u.Respond(http.StatusOK, CompletionBody(content))
}

// RespondStream replies 200 with the given SSE frames, flushing after each.
func (u *Upstream) RespondStream(frames ...string) *Upstream {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = http.StatusOK
	u.body = ""
	u.chunks = frames
	u.contentType = "text/event-stream"
	return u
}

// CallCount returns the number of requests received.
func (u *Upstream) CallCount() int {
	return int(u.calls.Load())
}

// Requests returns a copy of all recorded requests.
func (u *Upstream) Requests() []RecordedRequest {
	u.mu.Lock()
	defer u.mu.Unlock()

	reqs := make([]RecordedRequest, len(u.requests))
	copy(reqs, u.requests)
	return reqs
}

// LastRequest returns the most recent request, or false if none arrived.
func (u *Upstream) LastRequest() (RecordedRequest, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if len(u.requests) == 0 {
		return RecordedRequest{}, false
	}
	return u.requests[len(u.requests)-1], true
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.calls.Add(1)

	raw, _ := io.ReadAll(r.Body)
	var body ChatRequest
	_ = json.Unmarshal(raw, &body)

	u.mu.Lock()
	u.requests = append(u.requests, RecordedRequest{
		Header: r.Header.Clone(),
		Path:   r.URL.Path,
		Body:   body,
		Raw:    raw,
	})
	status, payload, contentType := u.status, u.body, u.contentType
	chunks := append([]string(nil), u.chunks...)
	u.mu.Unlock()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)

	if len(chunks) == 0 {
		_, _ = io.WriteString(w, payload)
		return
	}

	flusher, _ := w.(http.Flusher)
	for _, chunk := range chunks {
		_, _ = io.WriteString(w, chunk)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// CompletionBody builds a minimal chat-completion JSON body.
func CompletionBody(content string) string {
	resp := map[string]any{
		"id":      "gen-test",
		"model":   "test/model",
		"created": 1700000000,
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{
			"prompt_tokens":     100,
			"completion_tokens": 50,
			"total_tokens":      150,
		},
	}
	jsonBytes, err := json.Marshal(resp)
	if err != nil {
		return "{}"
	}
	return string(jsonBytes)
}

// SSEFrame formats one streamed delta the way chat-completions streams do.
func SSEFrame(delta string) string {
	payload, err := json.Marshal(map[string]any{
		"choices": []map[string]any{{"delta": map[string]string{"content": delta}}},
	})
	if err != nil {
		return ""
	}
	return "data: " + string(payload) + "\n\n"
}

// SSEDone is the stream terminator frame.
const SSEDone = "data: [DONE]\n\n"

// JoinFrames concatenates frames the way a client would receive them.
func JoinFrames(frames ...string) string {
	return strings.Join(frames, "")
}
