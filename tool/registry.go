package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/assistkit/core"
	"github.com/hupe1980/assistkit/logging"
	"github.com/hupe1980/assistkit/runsource/openai"
)

// RegistryOptions configure a Registry.
type RegistryOptions struct {
	Logger logging.Logger
}

// Registry holds tools by name and executes the function calls of paused
// runs. It implements openai.ToolExecutor.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger logging.Logger
}

var _ openai.ToolExecutor = (*Registry)(nil)

// NewRegistry creates a registry holding tools.
func NewRegistry(tools []Tool, optFns ...func(o *RegistryOptions)) (*Registry, error) {
	opts := RegistryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Registry{
		tools:  make(map[string]Tool, len(tools)),
		logger: logging.OrNoOp(opts.Logger),
	}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds t. Names must be unique and non-empty.
func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("tool: name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool: %q already registered", name)
	}
	r.tools[name] = t
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names lists the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Specs returns the function declarations of all tools, for assistant
// creation.
func (r *Registry) Specs() []openai.ToolSpec {
	names := r.Names()
	specs := make([]openai.ToolSpec, 0, len(names))
	for _, name := range names {
		t, _ := r.Get(name)
		specs = append(specs, openai.Function(t.Name(), t.Description(), t.Parameters()))
	}
	return specs
}

// Execute runs one function call and returns the output submitted back to
// the run. String results pass through; other results are JSON encoded.
func (r *Registry) Execute(ctx context.Context, call core.FunctionCall) (string, error) {
	t, ok := r.Get(call.Name)
	if !ok {
		return "", NewToolError(call.Name, "tool not found", CodeNotFound)
	}

	args := map[string]any{}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return "", &ToolError{Tool: call.Name, Message: "arguments are not a JSON object", Code: CodeInvalidArguments, Err: err}
		}
	}

	start := time.Now()
	r.logger.Debug("tool.call.start", "tool", call.Name, "fc_id", call.ID)

	result, err := t.Call(ctx, args)
	if err != nil {
		r.logger.Error("tool.call.error", "tool", call.Name, "fc_id", call.ID, "error", err.Error())
		return "", err
	}

	out, err := encodeResult(result)
	if err != nil {
		return "", &ToolError{Tool: call.Name, Message: err.Error(), Code: CodeExecution, Err: err}
	}
	r.logger.Info("tool.call.success", "tool", call.Name, "fc_id", call.ID, "duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

func encodeResult(result any) (string, error) {
	switch v := result.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	b, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(b), nil
}
