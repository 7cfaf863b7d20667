package search

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Response is a full search response.
type Response struct {
	Query             string
	Answer            string
	FollowUpQuestions []string
	Images            []Image
	Results           []Result
	ResponseTime      float64
}

// Image is a query-related image. Description is only set when image
// descriptions were requested.
type Image struct {
	URL         string
	Description string
}

// Result is one ranked web source.
type Result struct {
	Title   string
	URL     string
	Content string
	// Score is the relevance in [0, 1].
	Score      float64
	RawContent string
}

func parseResponse(raw []byte) (*Response, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("search: malformed response body")
	}
	r := gjson.ParseBytes(raw)

	resp := &Response{
		Query:        r.Get("query").String(),
		Answer:       r.Get("answer").String(),
		ResponseTime: r.Get("response_time").Float(),
	}
	r.Get("follow_up_questions").ForEach(func(_, q gjson.Result) bool {
		resp.FollowUpQuestions = append(resp.FollowUpQuestions, q.String())
		return true
	})
	// images are plain urls, or objects when descriptions were requested
	r.Get("images").ForEach(func(_, img gjson.Result) bool {
		if img.IsObject() {
			resp.Images = append(resp.Images, Image{
				URL:         img.Get("url").String(),
				Description: img.Get("description").String(),
			})
		} else {
			resp.Images = append(resp.Images, Image{URL: img.String()})
		}
		return true
	})
	r.Get("results").ForEach(func(_, res gjson.Result) bool {
		resp.Results = append(resp.Results, Result{
			Title:      res.Get("title").String(),
			URL:        res.Get("url").String(),
			Content:    res.Get("content").String(),
			Score:      res.Get("score").Float(),
			RawContent: res.Get("raw_content").String(),
		})
		return true
	})
	return resp, nil
}

type contextSource struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// estimateTokens approximates a token count at four bytes per token.
func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// fitTokens keeps leading sources while the encoded document stays within
// maxTokens.
func fitTokens(sources []contextSource, maxTokens int) (string, error) {
	kept := make([]contextSource, 0, len(sources))
	total := 0
	for _, src := range sources {
		b, err := json.Marshal(src)
		if err != nil {
			return "", fmt.Errorf("search: encode context: %w", err)
		}
		n := estimateTokens(string(b))
		if maxTokens > 0 && total+n > maxTokens {
			break
		}
		total += n
		kept = append(kept, src)
	}

	out, err := json.Marshal(kept)
	if err != nil {
		return "", fmt.Errorf("search: encode context: %w", err)
	}
	return string(out), nil
}
