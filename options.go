package relay

import (
	"context"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// Option modifies the relay pipeline.
type Option func(pipz.Chainable[*RelayRequest]) pipz.Chainable[*RelayRequest]

// WithDebug emits the rendered prompt and raw response as PromptRendered events.
// Useful for checking exactly what the model was sent.
func WithDebug() Option {
	return func(pipeline pipz.Chainable[*RelayRequest]) pipz.Chainable[*RelayRequest] {
		return pipz.Apply("debug", func(ctx context.Context, req *RelayRequest) (*RelayRequest, error) {
			processed, err := pipeline.Process(ctx, req)

			fields := []capitan.Field{
				RequestIDKey.Field(req.RequestID),
				TaskKey.Field(req.Request.Task.String()),
			}
			if req.Prompt != nil {
				fields = append(fields, PromptKey.Field(req.Prompt.Render()))
			}
			if err != nil {
				fields = append(fields, ErrorKey.Field(err.Error()))
			} else if req.Response != "" {
				fields = append(fields, ResponseKey.Field(req.Response))
			}
			capitan.Info(ctx, PromptRendered, fields...)

			return processed, err
		})
	}
}
