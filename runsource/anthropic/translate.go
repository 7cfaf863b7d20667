package anthropic

import (
	"github.com/tidwall/gjson"

	"github.com/hupe1980/assistkit/core"
)

// translator maps raw Messages stream events to core events. Every content
// block is announced by content_block_start, so no dedup state is needed.
type translator struct {
	messageID  string
	stopReason string
}

func (t *translator) translate(raw string) []core.Event {
	r := gjson.Parse(raw)
	typ := r.Get("type").String()

	switch typ {
	case "message_start":
		t.messageID = r.Get("message.id").String()
		return nil
	case "content_block_start":
		return t.blockStart(r)
	case "content_block_delta":
		return t.blockDelta(r)
	case "content_block_stop", "ping":
		return nil
	case "message_delta":
		t.stopReason = r.Get("delta.stop_reason").String()
		return nil
	case "message_stop":
		return []core.Event{core.RunStatusChanged{RunID: t.messageID, Status: "completed"}}
	default:
		return []core.Event{core.UnknownEvent{Type: typ, Raw: raw}}
	}
}

func (t *translator) blockStart(r gjson.Result) []core.Event {
	idx := r.Get("index").Int()
	block := r.Get("content_block")

	switch block.Get("type").String() {
	case "text":
		out := []core.Event{core.TextCreated{MessageID: t.messageID, Index: int(idx)}}
		if v := block.Get("text").String(); v != "" {
			out = append(out, core.TextDelta{MessageID: t.messageID, Index: int(idx), Value: v})
		}
		return out
	case "tool_use", "server_tool_use":
		return []core.Event{core.ToolCallCreated{
			ID:    block.Get("id").String(),
			Index: int(idx),
			Tool:  core.ToolKindFunction,
			Name:  block.Get("name").String(),
		}}
	default:
		return []core.Event{core.UnknownEvent{Type: "content_block_start", Raw: r.Raw}}
	}
}

func (t *translator) blockDelta(r gjson.Result) []core.Event {
	idx := r.Get("index").Int()
	delta := r.Get("delta")

	switch delta.Get("type").String() {
	case "text_delta":
		v := delta.Get("text").String()
		if v == "" {
			return nil
		}
		return []core.Event{core.TextDelta{MessageID: t.messageID, Index: int(idx), Value: v}}
	case "input_json_delta":
		args := delta.Get("partial_json").String()
		if args == "" {
			return nil
		}
		return []core.Event{core.ToolCallDelta{
			Index:    int(idx),
			Tool:     core.ToolKindFunction,
			Function: &core.FunctionDelta{Arguments: args},
		}}
	default:
		// thinking and citation deltas have no rendering
		return []core.Event{core.UnknownEvent{Type: "content_block_delta", Raw: r.Raw}}
	}
}
