package relay

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// Relay validates, templates, and forwards prompt requests to a Provider.
// It keeps no per-call state, so one Relay serves concurrent requests.
type Relay struct {
	pipeline     pipz.Chainable[*RelayRequest]
	providerName string
	config       Config
}

// New creates a Relay that renders prompts and calls provider once per request.
// Options wrap the pipeline in the order given.
func New(provider Provider, config Config, opts ...Option) *Relay {
	var pipeline pipz.Chainable[*RelayRequest] = pipz.NewSequence("relay",
		pipz.Apply("render-prompt", renderPrompt),
		NewTerminal(provider),
	)
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}

	return &Relay{
		pipeline:     pipeline,
		providerName: provider.Name(),
		config:       config,
	}
}

// NewTerminal creates the processor that makes the single upstream call.
// The request's Stream option picks the producer.
func NewTerminal(provider Provider) pipz.Chainable[*RelayRequest] {
	return pipz.Apply("llm-call", func(ctx context.Context, req *RelayRequest) (*RelayRequest, error) {
		messages := []Message{{Role: RoleUser, Content: req.Prompt.Render()}}

		if err := producerFor(req.Request.Options).produce(ctx, provider, req, messages); err != nil {
			req.Err = err
			return req, err
		}
		return req, nil
	})
}

func renderPrompt(_ context.Context, req *RelayRequest) (*RelayRequest, error) {
	prompt, err := BuildPrompt(req.Request)
	if err != nil {
		req.Err = err
		return req, err
	}
	req.Prompt = prompt
	return req, nil
}

// GetPipeline returns the internal pipeline for composition.
func (r *Relay) GetPipeline() pipz.Chainable[*RelayRequest] {
	return r.pipeline
}

// Config returns the task options the relay was built with.
func (r *Relay) Config() Config {
	return r.config
}

// HandlePayload parses a raw request body for kind and relays it.
func (r *Relay) HandlePayload(ctx context.Context, kind TaskKind, raw []byte) (*Output, error) {
	req, err := ParsePayload(kind, raw)
	if err != nil {
		capitan.Error(ctx, RequestFailed,
			TaskKey.Field(kind.String()),
			ProviderKey.Field(r.providerName),
			ErrorKey.Field(err.Error()),
			ErrorTypeKey.Field(ErrorKind(err)),
		)
		return nil, err
	}
	return r.Handle(ctx, req)
}

// Handle relays one parsed request.
//
// Options left unset on req are taken from the relay's Config for req.Task.
// The returned Output holds either a buffered result or the raw upstream stream;
// a streaming caller must close Output.Stream.
func (r *Relay) Handle(ctx context.Context, req PromptRequest) (*Output, error) {
	if req.Options.Model == "" {
		req.Options = r.config.For(req.Task)
	}

	requestID := uuid.New().String()
	request := &RelayRequest{
		Request:      req,
		RequestID:    requestID,
		ProviderName: r.providerName,
	}

	capitan.Info(ctx, RequestStarted,
		RequestIDKey.Field(requestID),
		TaskKey.Field(req.Task.String()),
		ProviderKey.Field(r.providerName),
		ModelKey.Field(req.Options.Model),
		IndustryKey.Field(req.Industry),
		StreamKey.Field(strconv.FormatBool(req.Options.Stream)),
		TemperatureKey.Field(float64(req.Options.Temperature)),
	)

	if _, err := r.pipeline.Process(ctx, request); err != nil {
		// Prefer the classified error over whatever wrapping the pipeline added
		if request.Err != nil {
			err = request.Err
		}
		capitan.Error(ctx, RequestFailed,
			RequestIDKey.Field(requestID),
			TaskKey.Field(req.Task.String()),
			ProviderKey.Field(r.providerName),
			ErrorKey.Field(err.Error()),
			ErrorTypeKey.Field(ErrorKind(err)),
		)
		return nil, err
	}

	if request.Body != nil {
		capitan.Info(ctx, StreamOpened,
			RequestIDKey.Field(requestID),
			TaskKey.Field(req.Task.String()),
			ProviderKey.Field(r.providerName),
		)
		return &Output{Stream: request.Body}, nil
	}

	capitan.Info(ctx, RequestCompleted,
		RequestIDKey.Field(requestID),
		TaskKey.Field(req.Task.String()),
		ProviderKey.Field(r.providerName),
		ResponseKey.Field(request.Response),
	)

	return &Output{Result: &PromptResult{Text: request.Response}}, nil
}
