package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/assistkit/logging"
)

// DefaultBaseURL is the public Tavily endpoint.
const DefaultBaseURL = "https://api.tavily.com"

// Options configure a Client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     logging.Logger
}

// Client performs search requests. It is safe for concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

// New creates a Client. It fails with ErrMissingAPIKey when apiKey is empty.
func New(apiKey string, optFns ...func(o *Options)) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	opts := Options{
		BaseURL: DefaultBaseURL,
		Timeout: 60 * time.Second,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
		logger:  logging.OrNoOp(opts.Logger),
	}, nil
}

// Search runs a full search and returns the structured response.
func (c *Client) Search(ctx context.Context, query string, optFns ...func(o *Params)) (*Response, error) {
	p := defaultParams()
	for _, fn := range optFns {
		fn(&p)
	}
	return c.search(ctx, query, p)
}

// SearchContext returns a JSON array of {"url", "content"} objects whose
// estimated size stays within Params.MaxTokens.
func (c *Client) SearchContext(ctx context.Context, query string, optFns ...func(o *Params)) (string, error) {
	p := defaultParams()
	for _, fn := range optFns {
		fn(&p)
	}
	p.IncludeAnswer = false
	p.IncludeRawContent = false
	p.IncludeImages = false
	p.IncludeImageDescriptions = false

	resp, err := c.search(ctx, query, p)
	if err != nil {
		return "", err
	}

	sources := make([]contextSource, 0, len(resp.Results))
	for _, r := range resp.Results {
		sources = append(sources, contextSource{URL: r.URL, Content: r.Content})
	}
	return fitTokens(sources, p.MaxTokens)
}

// QNASearch returns a short answer to query. The search depth defaults to
// advanced.
func (c *Client) QNASearch(ctx context.Context, query string, optFns ...func(o *Params)) (string, error) {
	p := defaultParams()
	p.SearchDepth = DepthAdvanced
	for _, fn := range optFns {
		fn(&p)
	}
	p.IncludeAnswer = true
	p.IncludeRawContent = false
	p.IncludeImages = false
	p.IncludeImageDescriptions = false

	resp, err := c.search(ctx, query, p)
	if err != nil {
		return "", err
	}
	return resp.Answer, nil
}

func (c *Client) search(ctx context.Context, query string, p Params) (*Response, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search: query is required")
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(p.request(query))
	if err != nil {
		return nil, fmt.Errorf("search: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("search: read response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		apiErr := newAPIError(res.StatusCode, raw)
		c.logger.Warn("search.request.failed", "status", res.StatusCode, "detail", apiErr.Detail)
		return nil, apiErr
	}

	resp, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("search.request.done", "query", query, "results", len(resp.Results), "elapsed", time.Since(start).String())
	return resp, nil
}
