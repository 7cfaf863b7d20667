package tool

import (
	"context"

	"github.com/hupe1980/assistkit/search"
)

// Searcher answers a question from the web.
type Searcher interface {
	QNASearch(ctx context.Context, query string, optFns ...func(o *search.Params)) (string, error)
}

// WebSearchName is the function name of the web search tool.
const WebSearchName = "web_search"

type webSearchArgs struct {
	Query string `json:"query" description:"The question to look up on the web"`
	Topic string `json:"topic,omitempty" description:"news for recent events, general otherwise" enum:"general,news"`
}

// NewWebSearchTool exposes s as a function returning a short answer.
func NewWebSearchTool(s Searcher) *FunctionTool {
	return NewFunctionToolFromStruct(
		WebSearchName,
		"Search the web and return a short answer to the query. Use it for facts newer than your training data.",
		webSearchArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)

			var opts []func(o *search.Params)
			if topic, _ := args["topic"].(string); topic == string(search.TopicNews) {
				opts = append(opts, search.WithNews(0))
			}
			return s.QNASearch(ctx, query, opts...)
		},
	)
}
