// Package cli implements the assistkit command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/assistkit/config"
	"github.com/hupe1980/assistkit/logging"
)

// app carries state shared by all commands of one process.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger logging.Logger
	sync   func() error

	// factories, replaced in tests
	newBackend  backendFactory
	newSearcher searcherFactory
}

// Execute runs the root command against the process streams.
func Execute(ctx context.Context) error {
	return newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx)
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		stdin:       stdin,
		stdout:      stdout,
		stderr:      stderr,
		newBackend:  defaultBackend,
		newSearcher: defaultSearcher,
	}
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "assistkit",
		Short:         "Stream assistant replies and web search answers to the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.sync != nil {
				_ = a.sync()
			}
			return nil
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default ./assistkit.yaml or ~/.assistkit/assistkit.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: console, json, text (overrides config)")

	root.AddCommand(a.assistCmd())
	root.AddCommand(a.searchCmd())
	return root
}

// setup loads configuration and builds the diagnostic logger. Logs always go
// to stderr; stdout is reserved for rendered replies.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	a.cfg = cfg

	level := logging.ParseLevel(cfg.Log.Level)
	switch cfg.Log.Format {
	case "json", "text":
		a.logger = logging.NewLogger(&logging.LoggerConfig{
			Level:     level,
			Format:    cfg.Log.Format,
			Output:    cmd.ErrOrStderr(),
			Component: "assistkit",
		})
	default:
		z, err := logging.NewZapLogger(level, cfg.Log.Development)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		a.logger = z
		a.sync = z.Sync
	}
	return nil
}
