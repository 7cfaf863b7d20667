package testutil

import "github.com/hupe1980/assistkit/core"

// EventBuilder provides a fluent helper for constructing event sequences in tests.
// Example:
//
//	evs := NewEventBuilder().Text("The ", "answer ").CodeCall("x=1").Logs("1").Build()
//
// Chain only the parts you need.
type EventBuilder struct {
	events []core.Event
	index  int
}

// NewEventBuilder creates an empty builder.
func NewEventBuilder() *EventBuilder { return &EventBuilder{} }

// Text appends a TextCreated followed by one TextDelta per fragment (chainable).
func (b *EventBuilder) Text(fragments ...string) *EventBuilder {
	b.events = append(b.events, core.TextCreated{Index: b.index})
	for _, f := range fragments {
		b.events = append(b.events, core.TextDelta{Index: b.index, Value: f})
	}
	b.index++
	return b
}

// Delta appends a bare TextDelta without opening a block (chainable).
func (b *EventBuilder) Delta(value string) *EventBuilder {
	b.events = append(b.events, core.TextDelta{Value: value})
	return b
}

// CodeCall appends a code interpreter ToolCallCreated and, when input is
// non-empty, an input ToolCallDelta (chainable).
func (b *EventBuilder) CodeCall(input string) *EventBuilder {
	b.events = append(b.events, core.ToolCallCreated{Tool: core.ToolKindCodeInterpreter})
	if input != "" {
		b.events = append(b.events, core.ToolCallDelta{
			Tool:            core.ToolKindCodeInterpreter,
			CodeInterpreter: &core.CodeInterpreterDelta{Input: input},
		})
	}
	return b
}

// Outputs appends a code interpreter ToolCallDelta carrying records (chainable).
func (b *EventBuilder) Outputs(records ...core.OutputRecord) *EventBuilder {
	b.events = append(b.events, core.ToolCallDelta{
		Tool:            core.ToolKindCodeInterpreter,
		CodeInterpreter: &core.CodeInterpreterDelta{Outputs: records},
	})
	return b
}

// Logs appends a code interpreter ToolCallDelta with one LogsOutput per text (chainable).
func (b *EventBuilder) Logs(texts ...string) *EventBuilder {
	records := make([]core.OutputRecord, 0, len(texts))
	for _, t := range texts {
		records = append(records, core.LogsOutput{Text: t})
	}
	return b.Outputs(records...)
}

// Add appends arbitrary events (chainable).
func (b *EventBuilder) Add(evs ...core.Event) *EventBuilder {
	b.events = append(b.events, evs...)
	return b
}

// Build returns the assembled sequence.
func (b *EventBuilder) Build() []core.Event {
	return append([]core.Event{}, b.events...)
}
