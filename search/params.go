package search

import "fmt"

// Depth selects how thoroughly the web is searched.
type Depth string

const (
	DepthBasic    Depth = "basic"
	DepthAdvanced Depth = "advanced"
)

// Topic selects the search category.
type Topic string

const (
	TopicGeneral Topic = "general"
	TopicNews    Topic = "news"
)

// Params are the per-request search settings.
type Params struct {
	SearchDepth Depth
	Topic       Topic
	// Days to search back; only sent for news searches.
	Days                     int
	MaxResults               int
	IncludeDomains           []string
	ExcludeDomains           []string
	IncludeAnswer            bool
	IncludeRawContent        bool
	IncludeImages            bool
	IncludeImageDescriptions bool
	// MaxTokens bounds SearchContext output.
	MaxTokens int
}

func defaultParams() Params {
	return Params{
		SearchDepth: DepthBasic,
		Topic:       TopicGeneral,
		Days:        3,
		MaxResults:  5,
		MaxTokens:   4000,
	}
}

func (p Params) validate() error {
	switch p.SearchDepth {
	case DepthBasic, DepthAdvanced:
	default:
		return fmt.Errorf("search: unknown search depth %q", p.SearchDepth)
	}
	switch p.Topic {
	case TopicGeneral, TopicNews:
	default:
		return fmt.Errorf("search: unknown topic %q", p.Topic)
	}
	if p.MaxResults <= 0 {
		return fmt.Errorf("search: max results must be positive")
	}
	return nil
}

type request struct {
	Query                    string   `json:"query"`
	SearchDepth              Depth    `json:"search_depth"`
	Topic                    Topic    `json:"topic"`
	Days                     int      `json:"days,omitempty"`
	MaxResults               int      `json:"max_results"`
	IncludeDomains           []string `json:"include_domains,omitempty"`
	ExcludeDomains           []string `json:"exclude_domains,omitempty"`
	IncludeAnswer            bool     `json:"include_answer"`
	IncludeRawContent        bool     `json:"include_raw_content"`
	IncludeImages            bool     `json:"include_images"`
	IncludeImageDescriptions bool     `json:"include_image_descriptions"`
}

func (p Params) request(query string) request {
	r := request{
		Query:                    query,
		SearchDepth:              p.SearchDepth,
		Topic:                    p.Topic,
		MaxResults:               p.MaxResults,
		IncludeDomains:           p.IncludeDomains,
		ExcludeDomains:           p.ExcludeDomains,
		IncludeAnswer:            p.IncludeAnswer,
		IncludeRawContent:        p.IncludeRawContent,
		IncludeImages:            p.IncludeImages || p.IncludeImageDescriptions,
		IncludeImageDescriptions: p.IncludeImageDescriptions,
	}
	if p.Topic == TopicNews {
		r.Days = p.Days
	}
	return r
}

// WithDepth sets the search depth.
func WithDepth(d Depth) func(o *Params) {
	return func(o *Params) { o.SearchDepth = d }
}

// WithNews restricts the search to news from the last days.
func WithNews(days int) func(o *Params) {
	return func(o *Params) {
		o.Topic = TopicNews
		if days > 0 {
			o.Days = days
		}
	}
}

// WithMaxResults limits the number of results.
func WithMaxResults(n int) func(o *Params) {
	return func(o *Params) { o.MaxResults = n }
}

// WithDomains sets domains to include and exclude.
func WithDomains(include, exclude []string) func(o *Params) {
	return func(o *Params) {
		o.IncludeDomains = include
		o.ExcludeDomains = exclude
	}
}

// WithMaxTokens bounds the SearchContext result.
func WithMaxTokens(n int) func(o *Params) {
	return func(o *Params) { o.MaxTokens = n }
}
