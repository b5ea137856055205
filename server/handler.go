package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zoobzio/relay"
)

// DefaultRequestTimeout bounds the total handling time of one request.
const DefaultRequestTimeout = 60 * time.Second

// MaxBodyBytes caps a request body. Free text past relay.MaxFreeTextLength is
// truncated anyway; this only leaves room for multi-byte text and JSON escapes.
const MaxBodyBytes = 1 << 20

// Relayer is the part of *relay.Relay the handlers need.
type Relayer interface {
	HandlePayload(ctx context.Context, kind relay.TaskKind, raw []byte) (*relay.Output, error)
}

// Handler exposes the relay tasks over HTTP.
type Handler struct {
	relay   Relayer
	timeout time.Duration
}

// NewHandler creates a Handler. A zero timeout uses DefaultRequestTimeout.
func NewHandler(r Relayer, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Handler{relay: r, timeout: timeout}
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Register mounts every route on routes.
func (h *Handler) Register(routes gin.IRoutes) {
	for _, kind := range relay.TaskKinds() {
		routes.POST("/"+kind.String(), h.Relay(kind))
	}
	routes.GET("/schema/:task", h.GetSchema)
	routes.GET("/health", h.GetHealth)
}

// Relay returns the handler for one task.
func (h *Handler) Relay(kind relay.TaskKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "request body too large"})
				return
			}
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "could not read request body"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		out, err := h.relay.HandlePayload(ctx, kind, raw)
		if err != nil {
			writeError(c, kind, err)
			return
		}

		if out.Streaming() {
			streamOutput(c, out.Stream)
			return
		}

		c.JSON(http.StatusOK, out.Result)
	}
}

// GetSchema serves the JSON Schema of a task's request body.
func (h *Handler) GetSchema(c *gin.Context) {
	kind, ok := relay.ParseTaskKind(c.Param("task"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown task"})
		return
	}
	schema, _ := relay.PayloadSchema(kind)
	c.Data(http.StatusOK, "application/schema+json", []byte(schema))
}

// GetHealth reports liveness.
func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, kind relay.TaskKind, err error) {
	var validation *relay.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: validation.Error()})
		return
	}

	res := ErrorResponse{Error: failureMessage(kind), Details: relay.ErrorDetails(err)}
	switch relay.ErrorKind(err) {
	case relay.KindUpstream, relay.KindResponseFormat:
		res.Error = err.Error()
	default:
		res.Details = err.Error()
	}
	c.JSON(http.StatusInternalServerError, res)
}

func failureMessage(kind relay.TaskKind) string {
	switch kind {
	case relay.TaskGenerateSegments:
		return "Failed to generate segments"
	case relay.TaskEnhanceSegments:
		return "Failed to enhance segments"
	default:
		return "Failed to generate market research"
	}
}

// streamOutput copies the upstream body to the client as it arrives.
// A mid-stream upstream error ends the response; headers are already sent by then.
func streamOutput(c *gin.Context, body io.ReadCloser) {
	defer body.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := c.Writer.Write(buf[:n]); werr != nil {
				return
			}
			c.Writer.Flush()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				_ = c.Error(err)
			}
			return
		}
	}
}
