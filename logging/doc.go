// Package logging provides a minimal logging interface and adapters for assistkit.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that run sources, dispatchers and clients use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ZapAdapter wrapping a zap SugaredLogger (used by the CLI)
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	d := dispatch.New(os.Stdout, func(o *dispatch.Options) { o.Logger = logger })
//
// Log output never goes to the dispatcher's Output Sink; rendered run text and
// diagnostics stay on separate writers.
package logging
