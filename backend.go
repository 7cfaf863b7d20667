package assistkit

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/assistkit/core"
	"github.com/hupe1980/assistkit/runsource/anthropic"
	"github.com/hupe1980/assistkit/runsource/openai"
	"github.com/hupe1980/assistkit/session"
)

// AssistantSession is the Assistants API surface used by OpenAIBackend.
// *openai.Session implements it.
type AssistantSession interface {
	CreateAssistant(ctx context.Context, spec openai.AssistantSpec) (string, error)
	CreateThread(ctx context.Context) (string, error)
	AddMessage(ctx context.Context, threadID, text string) (string, error)
	Stream(ctx context.Context, p openai.RunParams) core.Stream
	RunAndWait(ctx context.Context, p openai.RunParams) (*openai.RunResult, error)
}

var _ AssistantSession = (*openai.Session)(nil)

// OpenAIBackend runs prompts on an assistant thread. The assistant is
// created once and shared by all conversations; each conversation gets its
// own thread.
type OpenAIBackend struct {
	session   AssistantSession
	spec      openai.AssistantSpec
	runParams openai.RunParams

	mu          sync.Mutex
	assistantID string
}

// OpenAIOptions configure an OpenAIBackend.
type OpenAIOptions struct {
	// AssistantID reuses an existing assistant instead of creating one.
	AssistantID string
	// Instructions override the assistant instructions for every run.
	Instructions string
	// AdditionalInstructions are appended to the assistant instructions.
	AdditionalInstructions string
	Temperature            *float64
	MaxCompletionTokens    int64
}

// NewOpenAIBackend creates a backend that lazily creates an assistant from
// spec.
func NewOpenAIBackend(s AssistantSession, spec openai.AssistantSpec, optFns ...func(o *OpenAIOptions)) *OpenAIBackend {
	var opts OpenAIOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &OpenAIBackend{
		session:     s,
		spec:        spec,
		assistantID: opts.AssistantID,
		runParams: openai.RunParams{
			Instructions:           opts.Instructions,
			AdditionalInstructions: opts.AdditionalInstructions,
			Temperature:            opts.Temperature,
			MaxCompletionTokens:    opts.MaxCompletionTokens,
		},
	}
}

// Name implements Backend.
func (b *OpenAIBackend) Name() string { return "openai" }

// Open implements Backend.
func (b *OpenAIBackend) Open(ctx context.Context, conv session.Conversation) (session.Conversation, error) {
	assistantID, err := b.assistant(ctx)
	if err != nil {
		return conv, err
	}
	threadID, err := b.session.CreateThread(ctx)
	if err != nil {
		return conv, err
	}
	conv.AssistantID = assistantID
	conv.ThreadID = threadID
	return conv, nil
}

func (b *OpenAIBackend) assistant(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.assistantID != "" {
		return b.assistantID, nil
	}
	id, err := b.session.CreateAssistant(ctx, b.spec)
	if err != nil {
		return "", err
	}
	b.assistantID = id
	return id, nil
}

func (b *OpenAIBackend) params(conv session.Conversation) openai.RunParams {
	p := b.runParams
	p.ThreadID = conv.ThreadID
	p.AssistantID = conv.AssistantID
	return p
}

// Send implements Backend.
func (b *OpenAIBackend) Send(ctx context.Context, conv session.Conversation, prompt string) (core.Stream, error) {
	if _, err := b.session.AddMessage(ctx, conv.ThreadID, prompt); err != nil {
		return nil, err
	}
	return b.session.Stream(ctx, b.params(conv)), nil
}

// SendAndWait implements Waiter. The assistant messages of the run are
// joined with blank lines.
func (b *OpenAIBackend) SendAndWait(ctx context.Context, conv session.Conversation, prompt string) (string, error) {
	if _, err := b.session.AddMessage(ctx, conv.ThreadID, prompt); err != nil {
		return "", err
	}
	res, err := b.session.RunAndWait(ctx, b.params(conv))
	if err != nil {
		return "", err
	}
	if res.Status != "completed" {
		return "", fmt.Errorf("assistkit: run %s ended with status %s", res.RunID, res.Status)
	}

	texts := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		if m.Role == "assistant" && m.Text != "" {
			texts = append(texts, m.Text)
		}
	}
	return strings.Join(texts, "\n\n"), nil
}

// PromptStreamer is the Messages API surface used by AnthropicBackend.
// *anthropic.Source implements it.
type PromptStreamer interface {
	Stream(ctx context.Context, p anthropic.Prompt) core.Stream
}

var _ PromptStreamer = (*anthropic.Source)(nil)

// AnthropicBackend sends every prompt as a fresh single-turn request with
// the configured instructions as system prompt.
type AnthropicBackend struct {
	source       PromptStreamer
	instructions string
}

// NewAnthropicBackend creates a stateless backend.
func NewAnthropicBackend(s PromptStreamer, instructions string) *AnthropicBackend {
	return &AnthropicBackend{source: s, instructions: instructions}
}

// Name implements Backend.
func (b *AnthropicBackend) Name() string { return "anthropic" }

// Open implements Backend.
func (b *AnthropicBackend) Open(_ context.Context, conv session.Conversation) (session.Conversation, error) {
	return conv, nil
}

// Send implements Backend.
func (b *AnthropicBackend) Send(ctx context.Context, _ session.Conversation, prompt string) (core.Stream, error) {
	return b.source.Stream(ctx, anthropic.Prompt{Text: prompt, Instructions: b.instructions}), nil
}

// SendAndWait implements Waiter by draining the stream.
func (b *AnthropicBackend) SendAndWait(ctx context.Context, conv session.Conversation, prompt string) (string, error) {
	s, err := b.Send(ctx, conv, prompt)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for ev := range s.Events() {
		if d, ok := ev.(core.TextDelta); ok {
			sb.WriteString(d.Value)
		}
	}
	if err := s.Wait(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
