package dispatch

// Phase is the lifecycle phase of a dispatcher.
type Phase int

const (
	// PhaseIdle means no event has been dispatched yet.
	PhaseIdle Phase = iota
	// PhaseStreaming means at least one event has been dispatched.
	PhaseStreaming
	// PhaseDone is terminal; no further events are accepted.
	PhaseDone
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStreaming:
		return "streaming"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Block identifies the content block currently rendered to the sink.
type Block int

const (
	BlockNone Block = iota
	BlockText
	BlockToolCall
)

// State is the transient per-stream rendering state.
type State struct {
	Phase      Phase
	Open       Block
	TextBlocks int // Text block markers written
	ToolCalls  int // Tool call markers written
}
