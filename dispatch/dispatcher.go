package dispatch

import (
	"fmt"
	"io"

	"github.com/hupe1980/assistkit/core"
	"github.com/hupe1980/assistkit/logging"
)

// Markers are the block boundary texts written to the sink.
type Markers struct {
	// Text opens an assistant text block.
	Text string
	// ToolCall opens a tool call block; %s is replaced by the tool kind.
	ToolCall string
	// Output opens the output section of a code interpreter call.
	Output string
}

// DefaultMarkers render a console transcript.
var DefaultMarkers = Markers{
	Text:     "\nassistant > ",
	ToolCall: "\nassistant > %s\n",
	Output:   "\n\noutput >\n",
}

// Options configures a Dispatcher.
type Options struct {
	Markers Markers
	Logger  logging.Logger
}

// flusher is implemented by buffered sinks (e.g. *bufio.Writer).
type flusher interface {
	Flush() error
}

// Dispatcher renders the events of one stream to an Output Sink.
// It is not safe for concurrent use; a stream owns its dispatcher.
type Dispatcher struct {
	sink    io.Writer
	flusher flusher
	markers Markers
	logger  logging.Logger
	state   State
}

// New creates a Dispatcher writing to sink.
func New(sink io.Writer, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{
		Markers: DefaultMarkers,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	d := &Dispatcher{
		sink:    sink,
		markers: opts.Markers,
		logger:  logging.OrNoOp(opts.Logger),
	}
	if f, ok := sink.(flusher); ok {
		d.flusher = f
	}
	return d
}

// State returns a snapshot of the rendering state.
func (d *Dispatcher) State() State { return d.state }

// Finish moves the dispatcher to PhaseDone.
func (d *Dispatcher) Finish() { d.state.Phase = PhaseDone }

// Dispatch renders a single event. Block markers are written only for
// TextCreated and ToolCallCreated; deltas write their content verbatim.
// Unknown variants are ignored. A sink
// failure aborts the stream: the dispatcher moves to PhaseDone and returns an
// error matching core.ErrSinkWrite.
func (d *Dispatcher) Dispatch(ev core.Event) error {
	if d.state.Phase == PhaseDone {
		return core.ErrStreamDone
	}
	d.state.Phase = PhaseStreaming

	var err error
	switch e := ev.(type) {
	case core.TextCreated:
		err = d.openText()
	case core.TextDelta:
		err = d.onTextDelta(e)
	case core.ToolCallCreated:
		err = d.openToolCall(e.Tool)
	case core.ToolCallDelta:
		err = d.onToolCallDelta(e)
	default:
		d.logger.Debug("dispatch.event.ignored", "kind", kindOf(ev))
	}

	if err != nil {
		d.state.Phase = PhaseDone
		d.logger.Error("dispatch.sink.failed", "error", err.Error())
		return err
	}
	return nil
}

// Consume dispatches every event of s in arrival order and then waits for the
// stream to complete. On dispatch failure the stream is closed and the error
// returned; otherwise the stream's terminal error is returned.
func (d *Dispatcher) Consume(s core.Stream) error {
	defer d.Finish()

	d.logger.Debug("dispatch.stream.start", "stream_id", s.ID())
	for ev := range s.Events() {
		if err := d.Dispatch(ev); err != nil {
			_ = s.Close()
			return err
		}
	}

	if err := s.Wait(); err != nil {
		d.logger.Warn("dispatch.stream.failed", "stream_id", s.ID(), "error", err.Error())
		return err
	}
	d.logger.Debug("dispatch.stream.done", "stream_id", s.ID(), "text_blocks", d.state.TextBlocks, "tool_calls", d.state.ToolCalls)
	return nil
}

func (d *Dispatcher) openText() error {
	d.state.Open = BlockText
	d.state.TextBlocks++
	return d.write(d.markers.Text)
}

func (d *Dispatcher) onTextDelta(e core.TextDelta) error {
	if e.Value == "" {
		return nil
	}
	return d.write(e.Value)
}

func (d *Dispatcher) openToolCall(kind core.ToolKind) error {
	d.state.Open = BlockToolCall
	d.state.ToolCalls++
	return d.write(fmt.Sprintf(d.markers.ToolCall, kind))
}

func (d *Dispatcher) onToolCallDelta(e core.ToolCallDelta) error {
	if e.Tool != core.ToolKindCodeInterpreter || e.CodeInterpreter == nil {
		d.logger.Debug("dispatch.tool_delta.ignored", "tool", string(e.Tool))
		return nil
	}
	ci := e.CodeInterpreter
	if ci.Input != "" {
		if err := d.write(ci.Input); err != nil {
			return err
		}
	}
	if len(ci.Outputs) == 0 {
		return nil
	}

	if err := d.write(d.markers.Output); err != nil {
		return err
	}
	for _, rec := range ci.Outputs {
		logs, ok := rec.(core.LogsOutput)
		if !ok {
			continue
		}
		if err := d.write(logs.Text + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// write performs exactly one sink write and flushes buffered sinks.
func (d *Dispatcher) write(s string) error {
	n, err := io.WriteString(d.sink, s)
	if err == nil && n < len(s) {
		err = io.ErrShortWrite
	}
	if err == nil && d.flusher != nil {
		err = d.flusher.Flush()
	}
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrSinkWrite, err)
	}
	return nil
}

func kindOf(ev core.Event) string {
	if ev == nil {
		return "nil"
	}
	return string(ev.Kind())
}
