package cli

import (
	"context"
	"fmt"

	"github.com/hupe1980/assistkit"
	"github.com/hupe1980/assistkit/config"
	"github.com/hupe1980/assistkit/logging"
	"github.com/hupe1980/assistkit/runsource/anthropic"
	"github.com/hupe1980/assistkit/runsource/openai"
	"github.com/hupe1980/assistkit/search"
	"github.com/hupe1980/assistkit/tool"
)

// searcher is the search surface the CLI uses; *search.Client implements it.
type searcher interface {
	Search(ctx context.Context, query string, optFns ...func(o *search.Params)) (*search.Response, error)
	SearchContext(ctx context.Context, query string, optFns ...func(o *search.Params)) (string, error)
	QNASearch(ctx context.Context, query string, optFns ...func(o *search.Params)) (string, error)
}

type (
	backendFactory  func(cfg *config.Config, logger logging.Logger) (assistkit.Backend, error)
	searcherFactory func(cfg *config.Config, logger logging.Logger) (searcher, error)
)

func defaultSearcher(cfg *config.Config, logger logging.Logger) (searcher, error) {
	return search.New(cfg.Tavily.APIKey, func(o *search.Options) {
		if cfg.Tavily.BaseURL != "" {
			o.BaseURL = cfg.Tavily.BaseURL
		}
		if cfg.Tavily.Timeout > 0 {
			o.Timeout = cfg.Tavily.Timeout
		}
		o.Logger = logger
	})
}

// defaultBackend wires the configured provider. Web search is offered to
// OpenAI assistants as a function tool.
func defaultBackend(cfg *config.Config, logger logging.Logger) (assistkit.Backend, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case config.ProviderAnthropic:
		if cfg.Assistant.WebSearch {
			return nil, fmt.Errorf("web search needs the %s provider", config.ProviderOpenAI)
		}
		src, err := anthropic.NewSource(cfg.Anthropic.Source(), func(o *anthropic.Options) {
			if cfg.Anthropic.MaxTokens > 0 {
				o.MaxTokens = cfg.Anthropic.MaxTokens
			}
			o.Logger = logger
		})
		if err != nil {
			return nil, err
		}
		instructions := cfg.Assistant.Instructions
		if cfg.Assistant.RunInstructions != "" {
			instructions = cfg.Assistant.RunInstructions
		}
		return assistkit.NewAnthropicBackend(src, instructions), nil

	default:
		spec := openai.AssistantSpec{
			Name:         cfg.Assistant.Name,
			Description:  cfg.Assistant.Description,
			Instructions: cfg.Assistant.Instructions,
		}
		if cfg.Assistant.CodeInterpreter {
			spec.Tools = append(spec.Tools, openai.CodeInterpreter())
		}

		var tools openai.ToolExecutor
		if cfg.Assistant.WebSearch {
			s, err := defaultSearcher(cfg, logger)
			if err != nil {
				return nil, err
			}
			reg, err := tool.NewRegistry([]tool.Tool{tool.NewWebSearchTool(s)}, func(o *tool.RegistryOptions) {
				o.Logger = logger
			})
			if err != nil {
				return nil, err
			}
			spec.Tools = append(spec.Tools, reg.Specs()...)
			tools = reg
		}

		sess, err := openai.NewSession(cfg.OpenAI.Session(), func(o *openai.Options) {
			o.Tools = tools
			if cfg.OpenAI.PollInterval > 0 {
				o.PollInterval = cfg.OpenAI.PollInterval
			}
			o.Logger = logger
		})
		if err != nil {
			return nil, err
		}
		return assistkit.NewOpenAIBackend(sess, spec, func(o *assistkit.OpenAIOptions) {
			o.Instructions = cfg.Assistant.RunInstructions
		}), nil
	}
}
