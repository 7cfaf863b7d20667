package core

import "github.com/google/uuid"

// EventKind is the run-time tag of an Event variant.
type EventKind string

const (
	KindTextCreated       EventKind = "text_created"
	KindTextDelta         EventKind = "text_delta"
	KindToolCallCreated   EventKind = "tool_call_created"
	KindToolCallDelta     EventKind = "tool_call_delta"
	KindRunRequiresAction EventKind = "run_requires_action"
	KindRunStatusChanged  EventKind = "run_status_changed"
	KindUnknown           EventKind = "unknown"
)

// ToolKind is the category of side-capability a run may invoke.
type ToolKind string

const (
	ToolKindCodeInterpreter ToolKind = "code_interpreter"
	ToolKindFileSearch      ToolKind = "file_search"
	ToolKindFunction        ToolKind = "function"
)

// Event is one incremental notification emitted during a run's stream.
// Concrete variants implement the unexported isEvent marker, keeping the set
// closed; consumers dispatch with a type switch and an explicit default arm.
type Event interface {
	Kind() EventKind
	isEvent()
}

// TextCreated signals the start of a new assistant text block.
type TextCreated struct {
	MessageID string // Vendor message id (may be empty)
	Index     int    // Content index within the message
}

// Kind implements Event.
func (TextCreated) Kind() EventKind { return KindTextCreated }
func (TextCreated) isEvent()        {}

// TextDelta carries an incremental text fragment of the open text block.
type TextDelta struct {
	MessageID string
	Index     int
	Value     string
}

// Kind implements Event.
func (TextDelta) Kind() EventKind { return KindTextDelta }
func (TextDelta) isEvent()        {}

// ToolCallCreated signals a new tool invocation.
type ToolCallCreated struct {
	ID    string   // Tool call id (may arrive later on some providers)
	Index int      // Tool call index within the run step
	Tool  ToolKind // Tool kind tag
	Name  string   // Function name for function tools
}

// Kind implements Event.
func (ToolCallCreated) Kind() EventKind { return KindToolCallCreated }
func (ToolCallCreated) isEvent()        {}

// ToolCallDelta carries incremental tool-call data whose shape depends on the
// tool kind. Exactly one of CodeInterpreter / Function is set for the kinds
// that carry a payload.
type ToolCallDelta struct {
	ID              string
	Index           int
	Tool            ToolKind
	CodeInterpreter *CodeInterpreterDelta
	Function        *FunctionDelta
}

// Kind implements Event.
func (ToolCallDelta) Kind() EventKind { return KindToolCallDelta }
func (ToolCallDelta) isEvent()        {}

// CodeInterpreterDelta is the incremental payload of a code interpreter call.
type CodeInterpreterDelta struct {
	Input   string         // Incremental source code text
	Outputs []OutputRecord // Output records, once available
}

// FunctionDelta is the incremental payload of a function tool call.
type FunctionDelta struct {
	Name      string
	Arguments string // Partial JSON arguments
}

// FunctionCall is a complete function invocation requested by a run.
type FunctionCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// RunRequiresAction signals that the run is paused until the listed function
// calls are answered.
type RunRequiresAction struct {
	RunID    string
	ThreadID string
	Calls    []FunctionCall
}

// Kind implements Event.
func (RunRequiresAction) Kind() EventKind { return KindRunRequiresAction }
func (RunRequiresAction) isEvent()        {}

// RunStatusChanged reports a terminal (or otherwise notable) run status.
type RunStatusChanged struct {
	RunID  string
	Status string // completed, incomplete, cancelled, expired, ...
}

// Kind implements Event.
func (RunStatusChanged) Kind() EventKind { return KindRunStatusChanged }
func (RunStatusChanged) isEvent()        {}

// UnknownEvent wraps a vendor event the adapters do not model. It is
// forwarded so consumers can apply their own forward-compatibility policy.
type UnknownEvent struct {
	Type string // Vendor event tag
	Raw  string // Raw JSON payload, when available
}

// Kind implements Event.
func (UnknownEvent) Kind() EventKind { return KindUnknown }
func (UnknownEvent) isEvent()        {}

// NewID generates a new unique identifier for streams and correlation.
func NewID() string { return uuid.NewString() }
