package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/assistkit/search"
)

type searchFlags struct {
	depth      string
	newsDays   int
	maxResults int
	maxTokens  int
	include    []string
	exclude    []string
	answer     bool
	images     bool
	json       bool
}

func (f *searchFlags) params() []func(o *search.Params) {
	opts := []func(o *search.Params){
		search.WithDomains(f.include, f.exclude),
	}
	if f.depth != "" {
		opts = append(opts, search.WithDepth(search.Depth(f.depth)))
	}
	if f.newsDays > 0 {
		opts = append(opts, search.WithNews(f.newsDays))
	}
	if f.maxResults > 0 {
		opts = append(opts, search.WithMaxResults(f.maxResults))
	}
	if f.maxTokens > 0 {
		opts = append(opts, search.WithMaxTokens(f.maxTokens))
	}
	return opts
}

func (a *app) searchCmd() *cobra.Command {
	var f searchFlags

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the web",
	}
	cmd.PersistentFlags().StringVar(&f.depth, "depth", "", "Search depth: basic or advanced")
	cmd.PersistentFlags().IntVar(&f.newsDays, "news", 0, "Search news from the last N days")
	cmd.PersistentFlags().IntVar(&f.maxResults, "max-results", 0, "Maximum number of results (default 5)")
	cmd.PersistentFlags().StringSliceVar(&f.include, "include-domain", nil, "Only search these domains")
	cmd.PersistentFlags().StringSliceVar(&f.exclude, "exclude-domain", nil, "Never search these domains")

	full := &cobra.Command{
		Use:   "full <query>",
		Short: "Ranked results with scores",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSearcher(a.cfg, a.logger)
			if err != nil {
				return err
			}
			opts := append(f.params(), func(o *search.Params) {
				o.IncludeAnswer = f.answer
				o.IncludeImages = f.images
			})
			resp, err := s.Search(cmd.Context(), strings.Join(args, " "), opts...)
			if err != nil {
				return err
			}
			if f.json {
				out, err := jsonResponse(resp)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			}
			return printResponse(cmd, resp)
		},
	}
	full.Flags().BoolVar(&f.answer, "answer", false, "Include a short answer")
	full.Flags().BoolVar(&f.images, "images", false, "Include related images")
	full.Flags().BoolVar(&f.json, "json", false, "Print the response as JSON")

	ctxCmd := &cobra.Command{
		Use:   "context <query>",
		Short: "Sources and content as JSON, sized for a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSearcher(a.cfg, a.logger)
			if err != nil {
				return err
			}
			out, err := s.SearchContext(cmd.Context(), strings.Join(args, " "), f.params()...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	ctxCmd.Flags().IntVar(&f.maxTokens, "max-tokens", 0, "Token budget of the result (default 4000)")

	qna := &cobra.Command{
		Use:   "qna <query>",
		Short: "A single short answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSearcher(a.cfg, a.logger)
			if err != nil {
				return err
			}
			answer, err := s.QNASearch(cmd.Context(), strings.Join(args, " "), f.params()...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), answer)
			return err
		},
	}

	cmd.AddCommand(full, ctxCmd, qna)
	return cmd
}

func printResponse(cmd *cobra.Command, resp *search.Response) error {
	out := cmd.OutOrStdout()
	if resp.Answer != "" {
		fmt.Fprintf(out, "Answer: %s\n\n", resp.Answer)
	}
	for i, r := range resp.Results {
		fmt.Fprintf(out, "%d. %s (%.2f)\n   %s\n   %s\n\n", i+1, r.Title, r.Score, r.URL, r.Content)
	}
	if len(resp.Images) > 0 {
		fmt.Fprintln(out, "Images:")
		for _, img := range resp.Images {
			if img.Description != "" {
				fmt.Fprintf(out, "- %s (%s)\n", img.URL, img.Description)
				continue
			}
			fmt.Fprintf(out, "- %s\n", img.URL)
		}
	}
	if len(resp.Results) == 0 && resp.Answer == "" {
		_, err := fmt.Fprintln(out, "No results found.")
		return err
	}
	return nil
}

func jsonResponse(resp *search.Response) (string, error) {
	b, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
