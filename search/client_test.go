package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const messiResponse = `{
	"query": "Who is Leo Messi?",
	"answer": "Lionel Messi is an Argentine footballer.",
	"follow_up_questions": null,
	"images": ["https://img.example/1.jpg", {"url": "https://img.example/2.jpg", "description": "Messi lifting the cup"}],
	"results": [
		{"title": "Lionel Messi - Wikipedia", "url": "https://en.wikipedia.org/wiki/Lionel_Messi", "content": "Argentine professional footballer.", "score": 0.98, "raw_content": null},
		{"title": "Messi stats", "url": "https://stats.example/messi", "content": "Goals and assists.", "score": 0.71}
	],
	"response_time": 1.42
}`

// server records the last request body and answers with status and body.
func server(t *testing.T, status int, body string, got *gjson.Result) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		if got != nil {
			*got = gjson.ParseBytes(raw)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New("tvly-test", func(o *Options) { o.BaseURL = srv.URL })
	require.NoError(t, err)
	return c
}

func TestNew_MissingAPIKey(t *testing.T) {
	_, err := New("  ")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestSearch_ParsesResponse(t *testing.T) {
	var req gjson.Result
	c := newTestClient(t, server(t, http.StatusOK, messiResponse, &req))

	resp, err := c.Search(context.Background(), "Who is Leo Messi?")
	require.NoError(t, err)

	assert.Equal(t, "Who is Leo Messi?", req.Get("query").String())
	assert.Equal(t, "basic", req.Get("search_depth").String())
	assert.Equal(t, "general", req.Get("topic").String())
	assert.False(t, req.Get("days").Exists())
	assert.Equal(t, int64(5), req.Get("max_results").Int())

	assert.Equal(t, "Lionel Messi is an Argentine footballer.", resp.Answer)
	assert.Empty(t, resp.FollowUpQuestions)
	assert.Equal(t, []Image{
		{URL: "https://img.example/1.jpg"},
		{URL: "https://img.example/2.jpg", Description: "Messi lifting the cup"},
	}, resp.Images)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Lionel Messi - Wikipedia", resp.Results[0].Title)
	assert.InDelta(t, 0.98, resp.Results[0].Score, 1e-9)
	assert.Empty(t, resp.Results[0].RawContent)
	assert.InDelta(t, 1.42, resp.ResponseTime, 1e-9)
}

func TestSearch_NewsOptions(t *testing.T) {
	var req gjson.Result
	c := newTestClient(t, server(t, http.StatusOK, `{"results":[]}`, &req))

	_, err := c.Search(context.Background(), "floods",
		WithNews(7),
		WithDepth(DepthAdvanced),
		WithMaxResults(2),
		WithDomains([]string{"bbc.com"}, []string{"example.com"}),
		func(o *Params) { o.IncludeImageDescriptions = true },
	)
	require.NoError(t, err)

	assert.Equal(t, "news", req.Get("topic").String())
	assert.Equal(t, int64(7), req.Get("days").Int())
	assert.Equal(t, "advanced", req.Get("search_depth").String())
	assert.Equal(t, int64(2), req.Get("max_results").Int())
	assert.Equal(t, "bbc.com", req.Get("include_domains.0").String())
	assert.Equal(t, "example.com", req.Get("exclude_domains.0").String())
	assert.True(t, req.Get("include_images").Bool())
	assert.True(t, req.Get("include_image_descriptions").Bool())
}

func TestSearch_InvalidParams(t *testing.T) {
	c, err := New("tvly-test")
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "")
	assert.Error(t, err)

	_, err = c.Search(context.Background(), "q", WithDepth("deep"))
	assert.Error(t, err)

	_, err = c.Search(context.Background(), "q", WithMaxResults(0))
	assert.Error(t, err)
}

func TestQNASearch(t *testing.T) {
	var req gjson.Result
	c := newTestClient(t, server(t, http.StatusOK, messiResponse, &req))

	answer, err := c.QNASearch(context.Background(), "Who is Leo Messi?", WithNews(0))
	require.NoError(t, err)
	assert.Equal(t, "Lionel Messi is an Argentine footballer.", answer)
	assert.Equal(t, "advanced", req.Get("search_depth").String())
	assert.True(t, req.Get("include_answer").Bool())
	assert.Equal(t, int64(3), req.Get("days").Int())
}

func TestSearchContext(t *testing.T) {
	var req gjson.Result
	c := newTestClient(t, server(t, http.StatusOK, messiResponse, &req))

	out, err := c.SearchContext(context.Background(), "Who is Leo Messi?")
	require.NoError(t, err)
	assert.False(t, req.Get("include_answer").Bool())

	var sources []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &sources))
	assert.Equal(t, []map[string]string{
		{"url": "https://en.wikipedia.org/wiki/Lionel_Messi", "content": "Argentine professional footballer."},
		{"url": "https://stats.example/messi", "content": "Goals and assists."},
	}, sources)
}

func TestSearchContext_TokenBudget(t *testing.T) {
	c := newTestClient(t, server(t, http.StatusOK, messiResponse, nil))

	out, err := c.SearchContext(context.Background(), "Who is Leo Messi?", WithMaxTokens(25))
	require.NoError(t, err)
	assert.Equal(t, int64(1), gjson.Get(out, "#").Int())
	assert.True(t, strings.Contains(out, "wikipedia"))
}

func TestSearch_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
		detail string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":{"error":"Unauthorized: missing or invalid API key."}}`, ErrInvalidAPIKey, "Unauthorized: missing or invalid API key."},
		{"rate limited", http.StatusTooManyRequests, `{"detail":{"error":"Too many requests"}}`, ErrUsageLimitExceeded, "Too many requests"},
		{"plan limit", 432, `{"detail":{"error":"This request exceeds your plan's set usage limit."}}`, ErrUsageLimitExceeded, "This request exceeds your plan's set usage limit."},
		{"pay as you go limit", 433, `{}`, ErrUsageLimitExceeded, ""},
		{"bad request", http.StatusBadRequest, `{"detail":"invalid topic"}`, nil, "invalid topic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, server(t, tt.status, tt.body, nil))

			_, err := c.Search(context.Background(), "q")
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.detail, apiErr.Detail)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			} else {
				assert.NotErrorIs(t, err, ErrInvalidAPIKey)
				assert.NotErrorIs(t, err, ErrUsageLimitExceeded)
			}
		})
	}
}

func TestSearch_MalformedBody(t *testing.T) {
	c := newTestClient(t, server(t, http.StatusOK, `not json`, nil))
	_, err := c.Search(context.Background(), "q")
	assert.Error(t, err)
}
