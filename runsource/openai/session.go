package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/assistkit/core"
	"github.com/hupe1980/assistkit/logging"
)

// Config holds the connection settings of a Session.
type Config struct {
	APIKey       string
	BaseURL      string
	Organization string
	Model        string
	MaxRetries   int
}

// Validate fails fast when credentials are absent.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("openai: %w: api key is required", core.ErrMissingCredentials)
	}
	return nil
}

// ToolExecutor answers function calls a run is waiting for.
type ToolExecutor interface {
	Execute(ctx context.Context, call core.FunctionCall) (string, error)
}

// Options configure a Session.
type Options struct {
	// Model used for assistants that do not name one.
	Model string
	// Tools answers requires_action pauses. Without it such runs fail with
	// ErrNoToolExecutor.
	Tools ToolExecutor
	// PollInterval between status checks in RunAndWait.
	PollInterval time.Duration
	// BufferSize of stream event channels (zero: synchronous hand-off).
	BufferSize int
	Logger     logging.Logger
}

// Session is an explicitly constructed handle on the Assistants API. It is
// safe for concurrent use; every Stream call owns its own translator state.
type Session struct {
	api          runAPI
	model        string
	tools        ToolExecutor
	pollInterval time.Duration
	bufferSize   int
	logger       logging.Logger
}

// NewSession validates cfg and creates a Session using the official client.
func NewSession(cfg Config, optFns ...func(o *Options)) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(cfg.Organization))
	}
	if cfg.MaxRetries > 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(cfg.MaxRetries))
	}

	client := openai.NewClient(reqOpts...)
	if cfg.Model != "" {
		optFns = append([]func(o *Options){func(o *Options) { o.Model = cfg.Model }}, optFns...)
	}
	return NewSessionFromClient(&client, optFns...), nil
}

// NewSessionFromClient creates a Session from an existing client.
func NewSessionFromClient(client *openai.Client, optFns ...func(o *Options)) *Session {
	return newSession(sdkAPI{client: client}, optFns...)
}

func newSession(api runAPI, optFns ...func(o *Options)) *Session {
	opts := Options{
		Model:        string(openai.ChatModelGPT4o),
		PollInterval: time.Second,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Session{
		api:          api,
		model:        opts.Model,
		tools:        opts.Tools,
		pollInterval: opts.PollInterval,
		bufferSize:   opts.BufferSize,
		logger:       logging.OrNoOp(opts.Logger),
	}
}

// ToolSpec declares a tool an assistant may use.
type ToolSpec struct {
	Kind        core.ToolKind
	Name        string         // function tools only
	Description string         // function tools only
	Parameters  map[string]any // JSON schema, function tools only
}

// CodeInterpreter lets the assistant write and run code.
func CodeInterpreter() ToolSpec { return ToolSpec{Kind: core.ToolKindCodeInterpreter} }

// FileSearch lets the assistant search files attached via vector stores.
func FileSearch() ToolSpec { return ToolSpec{Kind: core.ToolKindFileSearch} }

// Function declares a function tool answered through the session's ToolExecutor.
func Function(name, description string, parameters map[string]any) ToolSpec {
	return ToolSpec{Kind: core.ToolKindFunction, Name: name, Description: description, Parameters: parameters}
}

// AssistantSpec describes an assistant to create.
type AssistantSpec struct {
	Name         string
	Description  string
	Instructions string // persona, role and goals
	Model        string // defaults to the session model
	Tools        []ToolSpec
	Temperature  *float64
	TopP         *float64
	Metadata     map[string]string // at most 16 pairs
}

// CreateAssistant creates an assistant and returns its id.
func (s *Session) CreateAssistant(ctx context.Context, spec AssistantSpec) (string, error) {
	if spec.Model == "" {
		spec.Model = s.model
	}
	if len(spec.Metadata) > 16 {
		return "", fmt.Errorf("openai: assistant metadata holds at most 16 pairs, got %d", len(spec.Metadata))
	}
	for _, t := range spec.Tools {
		if t.Kind == core.ToolKindFunction && t.Name == "" {
			return "", fmt.Errorf("openai: function tool requires a name")
		}
	}

	id, err := s.api.createAssistant(ctx, spec)
	if err != nil {
		return "", classify("create assistant", err)
	}
	s.logger.Info("openai.assistant.created", "assistant_id", id, "name", spec.Name, "model", spec.Model, "tools", len(spec.Tools))
	return id, nil
}

// CreateThread creates an empty conversation thread and returns its id.
func (s *Session) CreateThread(ctx context.Context) (string, error) {
	id, err := s.api.createThread(ctx)
	if err != nil {
		return "", classify("create thread", err)
	}
	s.logger.Debug("openai.thread.created", "thread_id", id)
	return id, nil
}

// AddMessage appends a user message to a thread and returns the message id.
func (s *Session) AddMessage(ctx context.Context, threadID, text string) (string, error) {
	if threadID == "" {
		return "", fmt.Errorf("openai: thread id is required")
	}
	id, err := s.api.addMessage(ctx, threadID, text)
	if err != nil {
		return "", classify("add message", err)
	}
	s.logger.Debug("openai.message.created", "thread_id", threadID, "message_id", id)
	return id, nil
}
