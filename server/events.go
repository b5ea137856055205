package server

import (
	"context"
	"log/slog"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/relay"
)

type eventLog struct {
	signal capitan.Signal
	msg    string
	level  slog.Level
}

var loggedEvents = []eventLog{
	{relay.RequestStarted, "relay request started", slog.LevelDebug},
	{relay.RequestCompleted, "relay request completed", slog.LevelInfo},
	{relay.RequestFailed, "relay request failed", slog.LevelError},
	{relay.StreamOpened, "relay stream opened", slog.LevelInfo},
	{relay.PromptRendered, "relay prompt rendered", slog.LevelDebug},
	{relay.UpstreamCallStarted, "upstream call started", slog.LevelDebug},
	{relay.UpstreamCallCompleted, "upstream call completed", slog.LevelInfo},
	{relay.UpstreamCallFailed, "upstream call failed", slog.LevelError},
	{relay.ResponseParseFailed, "upstream response unparsable", slog.LevelError},
}

// LogEvents writes relay lifecycle events to logger until stop is called.
// Failure events carry the raw upstream body.
func LogEvents(logger *slog.Logger) (stop func()) {
	var closers []func()
	for _, ev := range loggedEvents {
		listener := capitan.Hook(ev.signal, func(ctx context.Context, e *capitan.Event) {
			logger.Log(ctx, ev.level, ev.msg, eventAttrs(e, ev.level >= slog.LevelError)...)
		})
		closers = append(closers, func() { listener.Close() })
	}

	return func() {
		for _, c := range closers {
			c()
		}
	}
}

type stringAttr struct {
	name string
	key  interface {
		From(*capitan.Event) (string, bool)
	}
}

type intAttr struct {
	name string
	key  interface {
		From(*capitan.Event) (int, bool)
	}
}

var stringAttrs = []stringAttr{
	{"request_id", relay.RequestIDKey},
	{"task", relay.TaskKey},
	{"provider", relay.ProviderKey},
	{"model", relay.ModelKey},
	{"stream", relay.StreamKey},
	{"error", relay.ErrorKey},
	{"error_type", relay.ErrorTypeKey},
	{"response_id", relay.ResponseIDKey},
}

var intAttrs = []intAttr{
	{"http_status", relay.HTTPStatusCodeKey},
	{"duration_ms", relay.DurationMsKey},
	{"total_tokens", relay.TotalTokensKey},
}

func eventAttrs(e *capitan.Event, withBody bool) []any {
	var attrs []any
	for _, a := range stringAttrs {
		if v, ok := a.key.From(e); ok && v != "" {
			attrs = append(attrs, a.name, v)
		}
	}
	for _, a := range intAttrs {
		if v, ok := a.key.From(e); ok {
			attrs = append(attrs, a.name, v)
		}
	}
	if withBody {
		if v, ok := relay.ResponseKey.From(e); ok && v != "" {
			attrs = append(attrs, "upstream_body", v)
		}
	}
	return attrs
}
