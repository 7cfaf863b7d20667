package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/assistkit"
	"github.com/hupe1980/assistkit/internal/instruction"
)

type assistFlags struct {
	provider        string
	instructions    string
	runInstructions string
	vars            map[string]string
	key             string
	noStream        bool
	webSearch       bool
}

func (a *app) assistCmd() *cobra.Command {
	var f assistFlags

	cmd := &cobra.Command{
		Use:   "assist [prompt]",
		Short: "Ask the assistant and stream its reply",
		Long: `Ask the assistant and stream its reply to stdout as it is generated.

Without a prompt argument, every line read from stdin is sent as a follow-up
question in the same conversation.`,
		Example: `  assistkit assist "I need to solve the equation 3x + 11 = 14. Can you help me?"
  assistkit assist --provider anthropic --instructions "Answer in one sentence." "What is a monad?"
  assistkit assist --web-search "Who won the last Ballon d'Or?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.provider != "" {
				a.cfg.Provider = f.provider
			}
			if f.instructions != "" {
				a.cfg.Assistant.Instructions = f.instructions
			}
			if f.runInstructions != "" {
				a.cfg.Assistant.RunInstructions = f.runInstructions
			}
			if f.webSearch {
				a.cfg.Assistant.WebSearch = true
			}
			if err := a.renderInstructions(f.vars); err != nil {
				return err
			}

			backend, err := a.newBackend(a.cfg, a.logger)
			if err != nil {
				return err
			}
			client := assistkit.New(backend, func(o *assistkit.Options) { o.Logger = a.logger })

			if len(args) > 0 {
				return a.ask(cmd, client, f, strings.Join(args, " "))
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				prompt := strings.TrimSpace(scanner.Text())
				if prompt == "" {
					continue
				}
				if err := a.ask(cmd, client, f, prompt); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&f.provider, "provider", "", "Run source: openai or anthropic (overrides config)")
	cmd.Flags().StringVar(&f.instructions, "instructions", "", "Instructions for the assistant")
	cmd.Flags().StringVar(&f.runInstructions, "run-instructions", "", "Instructions for this run only, e.g. \"Please address the user as {{.name}}.\"")
	cmd.Flags().StringToStringVar(&f.vars, "var", nil, "Template values for instructions (name=value)")
	cmd.Flags().StringVar(&f.key, "conversation", "default", "Conversation key; follow-ups on the same key share a thread")
	cmd.Flags().BoolVar(&f.noStream, "no-stream", false, "Wait for the complete reply instead of streaming")
	cmd.Flags().BoolVar(&f.webSearch, "web-search", false, "Let the assistant search the web (needs TAVILY_API_KEY)")
	return cmd
}

func (a *app) renderInstructions(vars map[string]string) error {
	var err error
	if a.cfg.Assistant.Instructions, err = instruction.Render(a.cfg.Assistant.Instructions, vars); err != nil {
		return err
	}
	a.cfg.Assistant.RunInstructions, err = instruction.Render(a.cfg.Assistant.RunInstructions, vars)
	return err
}

func (a *app) ask(cmd *cobra.Command, client *assistkit.Client, f assistFlags, prompt string) error {
	out := cmd.OutOrStdout()
	if f.noStream {
		reply, err := client.AskAndWait(cmd.Context(), f.key, prompt)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "\nassistant > %s\n", reply)
		return err
	}

	if err := client.Ask(cmd.Context(), f.key, prompt, out); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out)
	return err
}
