package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"
	"github.com/zoobzio/relay"
	"github.com/zoobzio/relay/openrouter"
	"github.com/zoobzio/relay/relaytest"
)

type fakeRelayer struct {
	out      *relay.Output
	err      error
	deadline bool
}

func (f *fakeRelayer) HandlePayload(ctx context.Context, _ relay.TaskKind, _ []byte) (*relay.Output, error) {
	_, f.deadline = ctx.Deadline()
	return f.out, f.err
}

func newTestRouter(r Relayer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(NewHandler(r, time.Second), []string{"http://localhost:3000"}, logger)
}

// newUpstreamRouter wires the real relay and provider against a fake upstream.
func newUpstreamRouter(upstream *relaytest.Upstream) *gin.Engine {
	provider := openrouter.New(openrouter.Config{APIKey: "test-key", BaseURL: upstream.URL()})
	return newTestRouter(relay.New(provider, relay.DefaultConfig()))
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var res ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	return res
}

func TestGenerateSegments_Success(t *testing.T) {
	upstream := relaytest.NewUpstream().RespondCompletion("1. Medical Device Distributors")
	defer upstream.Close()

	w := post(newUpstreamRouter(upstream), "/generate-segments", `{"industry":"Healthcare"}`)

	assert.Equal(t, http.StatusOK, w.Code)

	var res relay.PromptResult
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, "1. Medical Device Distributors", res.Text)

	req, _ := upstream.LastRequest()
	assert.Equal(t, "google/gemini-2.0-flash-001", req.Body.Model)
	assert.Equal(t, 5000, req.Body.MaxTokens)
	assert.Equal(t, false, req.Body.Stream)
	assert.Equal(t, "Market Segment Research", req.Header.Get("X-Title"))
	assert.Equal(t, true, strings.Contains(req.Body.Prompt(), "targeting the Healthcare industry"))
}

func TestEnhanceSegments_Success(t *testing.T) {
	upstream := relaytest.NewUpstream().RespondCompletion("Deep Dive")
	defer upstream.Close()

	w := post(newUpstreamRouter(upstream), "/api/enhance-segments", `{"industry":"Retail","segments":"1. Grocery chains\n2. Pharmacies"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"result":"Deep Dive"}`, w.Body.String())

	req, _ := upstream.LastRequest()
	assert.Equal(t, float32(1.0), req.Body.Temperature)
	assert.Equal(t, true, strings.Contains(req.Body.Prompt(), "1. Grocery chains\n2. Pharmacies"))
}

func TestRelay_UpstreamError(t *testing.T) {
	upstream := relaytest.NewUpstream().Respond(http.StatusInternalServerError, "boom")
	defer upstream.Close()

	w := post(newUpstreamRouter(upstream), "/generate-segments", `{"industry":"Healthcare"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	res := decodeError(t, w)
	assert.Equal(t, "upstream API error: 500", res.Error)
	assert.Equal(t, "boom", res.Details)
	assert.Equal(t, 1, upstream.CallCount())
}

func TestRelay_ResponseFormatError(t *testing.T) {
	upstream := relaytest.NewUpstream().Respond(http.StatusOK, "not json")
	defer upstream.Close()

	w := post(newUpstreamRouter(upstream), "/enhance-segments", `{"industry":"Retail","segments":"1. Grocery chains"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	res := decodeError(t, w)
	assert.Equal(t, true, strings.HasPrefix(res.Error, "invalid response format from upstream"))
	assert.Equal(t, "not json", res.Details)
}

func TestRelay_ValidationError(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		want string
	}{
		{"missing industry", "/generate-segments", `{}`, "industry: is required"},
		{"short segments", "/enhance-segments", `{"industry":"Retail","segments":"short"}`, "segments: must be at least 10 characters"},
		{"short segment info", "/generate-research", `{"segmentInfo":"tiny"}`, "segmentInfo: must be at least 10 characters"},
		{"malformed body", "/generate-segments", `{"industry":`, "invalid JSON payload"},
		{"empty body", "/api/generate-research", ``, "request body is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := relaytest.NewUpstream()
			defer upstream.Close()

			w := post(newUpstreamRouter(upstream), tt.path, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, decodeError(t, w).Error)
			assert.Equal(t, 0, upstream.CallCount())
		})
	}
}

func TestRelay_BodyTooLarge(t *testing.T) {
	upstream := relaytest.NewUpstream()
	defer upstream.Close()

	body := `{"industry":"Retail","segments":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	w := post(newUpstreamRouter(upstream), "/enhance-segments", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "request body too large", decodeError(t, w).Error)
	assert.Equal(t, 0, upstream.CallCount())
}

func TestRelay_LongFreeTextWithinLimit(t *testing.T) {
	upstream := relaytest.NewUpstream().RespondCompletion("ok")
	defer upstream.Close()

	segments := strings.Repeat("日", 2*relay.MaxFreeTextLength)
	w := post(newUpstreamRouter(upstream), "/enhance-segments", `{"industry":"Retail","segments":"`+segments+`"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	req, _ := upstream.LastRequest()
	assert.Equal(t, relay.MaxFreeTextLength, strings.Count(req.Body.Prompt(), "日"))
}

func TestGenerateResearch_Stream(t *testing.T) {
	frames := []string{
		relaytest.SSEFrame("SEGMENT: Dental groups"),
		relaytest.SSEFrame("\nPRIORITY: High"),
		relaytest.SSEDone,
	}
	upstream := relaytest.NewUpstream().RespondStream(frames...)
	defer upstream.Close()

	w := post(newUpstreamRouter(upstream), "/generate-research", `{"segmentInfo":"1. Dental groups and clinics"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.Equal(t, relaytest.JoinFrames(frames...), w.Body.String())

	req, _ := upstream.LastRequest()
	assert.Equal(t, true, req.Body.Stream)
	assert.Equal(t, "openai/gpt-4o-mini", req.Body.Model)
	assert.Equal(t, "Market Segment Generator", req.Header.Get("X-Title"))
}

func TestGenerateResearch_StreamUpstreamError(t *testing.T) {
	upstream := relaytest.NewUpstream().Respond(http.StatusTooManyRequests, `{"error":{"message":"Rate limit exceeded"}}`)
	defer upstream.Close()

	w := post(newUpstreamRouter(upstream), "/generate-research", `{"industry":"Fintech","targetMarket":"SMB"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	res := decodeError(t, w)
	assert.Equal(t, "upstream API error: 429", res.Error)
	assert.Equal(t, `{"error":{"message":"Rate limit exceeded"}}`, res.Details)
}

func TestRelay_TransportError(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/generate-segments", "Failed to generate segments"},
		{"/enhance-segments", "Failed to enhance segments"},
		{"/generate-research", "Failed to generate market research"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			fake := &fakeRelayer{err: errors.New("dial tcp: connection refused")}

			w := post(newTestRouter(fake), tt.path, `{}`)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			res := decodeError(t, w)
			assert.Equal(t, tt.want, res.Error)
			assert.Equal(t, "dial tcp: connection refused", res.Details)
		})
	}
}

func TestRelay_AppliesDeadline(t *testing.T) {
	fake := &fakeRelayer{out: &relay.Output{Result: &relay.PromptResult{Text: "ok"}}}

	w := post(newTestRouter(fake), "/generate-segments", `{"industry":"Retail"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, fake.deadline)
}

func TestGetSchema(t *testing.T) {
	r := newTestRouter(&fakeRelayer{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/schema/enhance-segments", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/schema+json", w.Header().Get("Content-Type"))

	var schema map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &schema)
	props := schema["properties"].(map[string]interface{})
	_, hasSegments := props["segments"]
	assert.Equal(t, true, hasSegments)
}

func TestGetSchema_UnknownTask(t *testing.T) {
	r := newTestRouter(&fakeRelayer{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/schema/generate-poems", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown task", decodeError(t, w).Error)
}

func TestGetHealth(t *testing.T) {
	r := newTestRouter(&fakeRelayer{})

	for _, path := range []string{"/health", "/api/health"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `{"status":"ok"}`, w.Body.String())
	}
}

func TestCORS(t *testing.T) {
	r := newTestRouter(&fakeRelayer{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/generate-segments", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
