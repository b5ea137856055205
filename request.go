package relay

import "io"

// PromptRequest is one parsed relay invocation.
// Which fields are required depends on Task; see ParsePayload.
type PromptRequest struct {
	Task              TaskKind
	Industry          string
	FreeText          string // Segment text for enhance/strategy tasks
	TargetMarket      string // Research variant only
	AdditionalDetails string // Research variant only
	Options           Options
}

// PromptResult is the normalized outcome of a buffered relay.
type PromptResult struct {
	Text string `json:"result"`
}

// Output is what Handle produces: a buffered result or a raw stream, never both.
type Output struct {
	Result *PromptResult
	Stream io.ReadCloser
}

// Streaming reports whether the output is a passthrough stream.
func (o *Output) Streaming() bool {
	return o.Stream != nil
}
