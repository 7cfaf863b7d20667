package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/assistkit/core"
	"github.com/hupe1980/assistkit/logging"
	"github.com/hupe1980/assistkit/runsource"
)

// Config holds the credentials of a Source.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
}

// Validate reports missing credentials.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: anthropic api key is empty", core.ErrMissingCredentials)
	}
	return nil
}

// Options configure a Source.
type Options struct {
	Model       anthropic.Model
	MaxTokens   int64
	Temperature *float64
	BufferSize  int
	Logger      logging.Logger
}

// Prompt is one streamed request.
type Prompt struct {
	Text string
	// Instructions become the system prompt.
	Instructions string
	// MaxTokens overrides Options.MaxTokens when positive.
	MaxTokens int64
}

// streamAPI is the slice of the SDK a Source needs.
type streamAPI interface {
	newStreaming(ctx context.Context, params anthropic.MessageNewParams) runsource.RawIterator
}

type sdkAPI struct {
	client *anthropic.Client
}

func (a sdkAPI) newStreaming(ctx context.Context, params anthropic.MessageNewParams) runsource.RawIterator {
	return runsource.FromSDK[anthropic.MessageStreamEventUnion](a.client.Messages.NewStreaming(ctx, params))
}

// Source streams Claude responses as core events.
type Source struct {
	api  streamAPI
	opts Options
}

// NewSource validates cfg and creates a Source using the official client.
func NewSource(cfg Config, optFns ...func(o *Options)) (*Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		clientOpts = append(clientOpts, option.WithMaxRetries(cfg.MaxRetries))
	}

	client := anthropic.NewClient(clientOpts...)
	if cfg.Model != "" {
		optFns = append([]func(o *Options){func(o *Options) { o.Model = anthropic.Model(cfg.Model) }}, optFns...)
	}
	return NewSourceFromClient(&client, optFns...), nil
}

// NewSourceFromClient creates a Source from an existing client.
func NewSourceFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Source {
	return newSource(sdkAPI{client: client}, optFns...)
}

func newSource(api streamAPI, optFns ...func(o *Options)) *Source {
	opts := Options{
		Model:     anthropic.ModelClaude3_5Sonnet20241022,
		MaxTokens: 4096,
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Source{api: api, opts: opts}
}

func (s *Source) params(p Prompt) anthropic.MessageNewParams {
	maxTokens := s.opts.MaxTokens
	if p.MaxTokens > 0 {
		maxTokens = p.MaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     s.opts.Model,
		MaxTokens: maxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(p.Text))},
	}
	if p.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.Instructions}}
	}
	if s.opts.Temperature != nil {
		params.Temperature = anthropic.Float(*s.opts.Temperature)
	}
	return params
}

// Stream sends p and returns the response as an event stream.
func (s *Source) Stream(ctx context.Context, p Prompt) core.Stream {
	return runsource.Start(ctx, func(ctx context.Context, emit runsource.EmitFunc) error {
		if p.Text == "" {
			return fmt.Errorf("anthropic: prompt text is required")
		}

		it := s.api.newStreaming(ctx, s.params(p))
		defer it.Close()

		tr := &translator{}
		for it.Next() {
			for _, ev := range tr.translate(it.Raw()) {
				if err := emit(ev); err != nil {
					return err
				}
			}
		}
		if err := it.Err(); err != nil {
			return classify("stream message", err)
		}
		s.opts.Logger.Debug("anthropic.message.done", "message_id", tr.messageID, "stop_reason", tr.stopReason)
		return nil
	}, func(o *runsource.Options) {
		o.BufferSize = s.opts.BufferSize
		o.Logger = s.opts.Logger
	})
}
