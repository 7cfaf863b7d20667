package openai

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/assistkit/core"
)

// Assistants stream event names.
const (
	eventMessageDelta   = "thread.message.delta"
	eventRunStepDelta   = "thread.run.step.delta"
	eventRequiresAction = "thread.run.requires_action"
	eventRunCompleted   = "thread.run.completed"
	eventRunIncomplete  = "thread.run.incomplete"
	eventRunCancelled   = "thread.run.cancelled"
	eventRunExpired     = "thread.run.expired"
	eventRunFailed      = "thread.run.failed"
)

// translator turns raw Assistants stream events ({"event": ..., "data": ...})
// into core events. It remembers which text contents and tool calls were
// already opened so each gets exactly one *Created event.
type translator struct {
	texts map[string]struct{}
	calls map[string]struct{}
}

func newTranslator() *translator {
	return &translator{
		texts: map[string]struct{}{},
		calls: map[string]struct{}{},
	}
}

// translate returns the core events of one raw stream event. A failed run is
// reported as *core.RunError.
func (t *translator) translate(raw string) ([]core.Event, error) {
	name := gjson.Get(raw, "event").String()
	data := gjson.Get(raw, "data")

	switch name {
	case eventMessageDelta:
		return t.messageDelta(data), nil
	case eventRunStepDelta:
		return t.stepDelta(data), nil
	case eventRequiresAction:
		return []core.Event{requiresAction(data)}, nil
	case eventRunCompleted, eventRunIncomplete, eventRunCancelled, eventRunExpired:
		return []core.Event{core.RunStatusChanged{
			RunID:  data.Get("id").String(),
			Status: strings.TrimPrefix(name, "thread.run."),
		}}, nil
	case eventRunFailed:
		return nil, &core.RunError{
			RunID:   data.Get("id").String(),
			Code:    data.Get("last_error.code").String(),
			Message: data.Get("last_error.message").String(),
		}
	default:
		return []core.Event{core.UnknownEvent{Type: name, Raw: raw}}, nil
	}
}

func (t *translator) messageDelta(data gjson.Result) []core.Event {
	msgID := data.Get("id").String()

	var out []core.Event
	data.Get("delta.content").ForEach(func(_, c gjson.Result) bool {
		if c.Get("type").String() != "text" {
			return true
		}
		idx := int(c.Get("index").Int())
		key := msgID + "/" + strconv.Itoa(idx)
		if _, seen := t.texts[key]; !seen {
			t.texts[key] = struct{}{}
			out = append(out, core.TextCreated{MessageID: msgID, Index: idx})
		}
		if v := c.Get("text.value").String(); v != "" {
			out = append(out, core.TextDelta{MessageID: msgID, Index: idx, Value: v})
		}
		return true
	})
	return out
}

func (t *translator) stepDelta(data gjson.Result) []core.Event {
	stepID := data.Get("id").String()
	details := data.Get("delta.step_details")
	if details.Get("type").String() != "tool_calls" {
		return nil
	}

	var out []core.Event
	details.Get("tool_calls").ForEach(func(_, c gjson.Result) bool {
		idx := int(c.Get("index").Int())
		kind := core.ToolKind(c.Get("type").String())
		id := c.Get("id").String()

		key := stepID + "/" + strconv.Itoa(idx)
		if _, seen := t.calls[key]; !seen {
			t.calls[key] = struct{}{}
			out = append(out, core.ToolCallCreated{
				ID:    id,
				Index: idx,
				Tool:  kind,
				Name:  c.Get("function.name").String(),
			})
		}

		delta := core.ToolCallDelta{ID: id, Index: idx, Tool: kind}
		switch kind {
		case core.ToolKindCodeInterpreter:
			if ci := codeInterpreterDelta(c.Get("code_interpreter")); ci != nil {
				delta.CodeInterpreter = ci
				out = append(out, delta)
			}
		case core.ToolKindFunction:
			fn := c.Get("function")
			if args := fn.Get("arguments").String(); args != "" {
				delta.Function = &core.FunctionDelta{Name: fn.Get("name").String(), Arguments: args}
				out = append(out, delta)
			}
		}
		return true
	})
	return out
}

func codeInterpreterDelta(ci gjson.Result) *core.CodeInterpreterDelta {
	if !ci.Exists() {
		return nil
	}
	d := &core.CodeInterpreterDelta{Input: ci.Get("input").String()}
	ci.Get("outputs").ForEach(func(_, o gjson.Result) bool {
		switch core.OutputRecordType(o.Get("type").String()) {
		case core.OutputLogs:
			d.Outputs = append(d.Outputs, core.LogsOutput{Text: o.Get("logs").String()})
		case core.OutputImage:
			d.Outputs = append(d.Outputs, core.ImageOutput{FileID: o.Get("image.file_id").String()})
		}
		return true
	})
	if d.Input == "" && len(d.Outputs) == 0 {
		return nil
	}
	return d
}

func requiresAction(data gjson.Result) core.RunRequiresAction {
	ra := core.RunRequiresAction{
		RunID:    data.Get("id").String(),
		ThreadID: data.Get("thread_id").String(),
	}
	data.Get("required_action.submit_tool_outputs.tool_calls").ForEach(func(_, c gjson.Result) bool {
		if c.Get("type").String() != string(core.ToolKindFunction) {
			return true
		}
		ra.Calls = append(ra.Calls, core.FunctionCall{
			ID:        c.Get("id").String(),
			Name:      c.Get("function.name").String(),
			Arguments: c.Get("function.arguments").String(),
		})
		return true
	})
	return ra
}
