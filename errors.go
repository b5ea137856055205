package relay

import (
	"errors"
	"fmt"
)

// Error kinds used in envelopes and events.
const (
	KindValidation     = "validation_error"
	KindUpstream       = "upstream_error"
	KindResponseFormat = "response_format_error"
	KindTransport      = "transport_error"
)

// ValidationError reports a bad or missing input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Kind returns KindValidation.
func (*ValidationError) Kind() string { return KindValidation }

// UpstreamError reports a non-success HTTP status from the model service.
// Body is the raw upstream response, kept for diagnostics.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream API error: %d", e.StatusCode)
}

// Kind returns KindUpstream.
func (*UpstreamError) Kind() string { return KindUpstream }

// ResponseFormatError reports an upstream body that was not the expected JSON.
type ResponseFormatError struct {
	Reason string
	Body   string
	Err    error
}

func (e *ResponseFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid response format from upstream: %s: %v", e.Reason, e.Err)
	}
	return "invalid response format from upstream: " + e.Reason
}

func (e *ResponseFormatError) Unwrap() error { return e.Err }

// Kind returns KindResponseFormat.
func (*ResponseFormatError) Kind() string { return KindResponseFormat }

// ErrorKind classifies any error returned by the relay.
// Anything that is not one of the typed errors is a transport failure.
func ErrorKind(err error) string {
	var kinded interface{ Kind() string }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	return KindTransport
}

// ErrorDetails returns the raw upstream body attached to err, if any.
func ErrorDetails(err error) string {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Body
	}
	var format *ResponseFormatError
	if errors.As(err, &format) {
		return format.Body
	}
	return ""
}
