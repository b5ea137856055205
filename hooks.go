package relay

import "github.com/zoobzio/capitan"

// Signals for hook events.
const (
	RequestStarted        = capitan.Signal("relay.request.started")
	RequestCompleted      = capitan.Signal("relay.request.completed")
	RequestFailed         = capitan.Signal("relay.request.failed")
	PromptRendered        = capitan.Signal("relay.prompt.rendered")
	StreamOpened          = capitan.Signal("relay.stream.opened")
	UpstreamCallStarted   = capitan.Signal("relay.upstream.call.started")
	UpstreamCallCompleted = capitan.Signal("relay.upstream.call.completed")
	UpstreamCallFailed    = capitan.Signal("relay.upstream.call.failed")
	ResponseParseFailed   = capitan.Signal("relay.response.failed")
)

// Keys for hook event fields.
var (
	// Request identification.
	RequestIDKey = capitan.NewStringKey("relay.request.id")
	TaskKey      = capitan.NewStringKey("relay.task")
	IndustryKey  = capitan.NewStringKey("relay.industry")
	StreamKey    = capitan.NewStringKey("relay.stream")

	// Prompt and response data.
	PromptKey   = capitan.NewStringKey("relay.prompt")
	ResponseKey = capitan.NewStringKey("relay.response")

	// Error information.
	ErrorKey     = capitan.NewStringKey("relay.error")
	ErrorTypeKey = capitan.NewStringKey("relay.error.type")

	// Provider information.
	ProviderKey    = capitan.NewStringKey("relay.provider")
	ModelKey       = capitan.NewStringKey("relay.model")
	TemperatureKey = capitan.NewFloat64Key("relay.temperature")
	MaxTokensKey   = capitan.NewIntKey("relay.max_tokens")

	// Provider metrics.
	PromptTokensKey     = capitan.NewIntKey("relay.tokens.prompt")
	CompletionTokensKey = capitan.NewIntKey("relay.tokens.completion")
	TotalTokensKey      = capitan.NewIntKey("relay.tokens.total")
	DurationMsKey       = capitan.NewIntKey("relay.duration.ms")

	// HTTP metadata.
	HTTPStatusCodeKey = capitan.NewIntKey("relay.http.status.code")
	ResponseIDKey     = capitan.NewStringKey("relay.response.id")
)
