package relay

import "context"

// producer turns one upstream call into the output fields of a RelayRequest.
type producer interface {
	produce(ctx context.Context, provider Provider, req *RelayRequest, messages []Message) error
}

func producerFor(opts Options) producer {
	if opts.Stream {
		return streamProducer{}
	}
	return bufferedProducer{}
}

// bufferedProducer waits for the full completion.
type bufferedProducer struct{}

func (bufferedProducer) produce(ctx context.Context, provider Provider, req *RelayRequest, messages []Message) error {
	resp, err := provider.Call(ctx, messages, req.Request.Options)
	if err != nil {
		return err
	}
	req.Response = resp.Content
	req.Usage = &resp.Usage
	return nil
}

// streamProducer hands the upstream body through untouched.
type streamProducer struct{}

func (streamProducer) produce(ctx context.Context, provider Provider, req *RelayRequest, messages []Message) error {
	body, err := provider.Stream(ctx, messages, req.Request.Options)
	if err != nil {
		return err
	}
	req.Body = body
	return nil
}
