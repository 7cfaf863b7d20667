package anthropic

import (
	"context"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/assistkit/core"
	"github.com/hupe1980/assistkit/dispatch"
	"github.com/hupe1980/assistkit/internal/testutil"
	"github.com/hupe1980/assistkit/runsource"
)

type fakeAPI struct {
	payloads []string
	fail     error
	params   anthropic.MessageNewParams
}

func (f *fakeAPI) newStreaming(_ context.Context, params anthropic.MessageNewParams) runsource.RawIterator {
	f.params = params
	return &runsource.SliceIterator{Payloads: f.payloads, Fail: f.fail}
}

var helloStream = []string{
	`{"type":"message_start","message":{"id":"msg_01","type":"message","role":"assistant","content":[]}}`,
	`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
	`{"type":"ping"}`,
	`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`,
	`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" there"}}`,
	`{"type":"content_block_stop","index":0}`,
	`{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_1","name":"web_search","input":{}}}`,
	`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"query\":"}}`,
	`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"\"go\"}"}}`,
	`{"type":"content_block_stop","index":1}`,
	`{"type":"message_delta","delta":{"stop_reason":"tool_use"},"usage":{"output_tokens":12}}`,
	`{"type":"message_stop"}`,
}

func TestNewSource_RequiresAPIKey(t *testing.T) {
	_, err := NewSource(Config{})
	assert.ErrorIs(t, err, core.ErrMissingCredentials)

	src, err := NewSource(Config{APIKey: "sk-ant-test", Model: "claude-3-5-haiku-latest"})
	require.NoError(t, err)
	assert.Equal(t, anthropic.Model("claude-3-5-haiku-latest"), src.opts.Model)
}

func TestSource_StreamTranslatesEvents(t *testing.T) {
	api := &fakeAPI{payloads: helloStream}
	src := newSource(api)

	evs, err := runsource.Collect(src.Stream(context.Background(), Prompt{Text: "hi", Instructions: "Be brief."}))
	require.NoError(t, err)

	assert.Equal(t, []core.Event{
		core.TextCreated{MessageID: "msg_01", Index: 0},
		core.TextDelta{MessageID: "msg_01", Index: 0, Value: "Hello"},
		core.TextDelta{MessageID: "msg_01", Index: 0, Value: " there"},
		core.ToolCallCreated{ID: "toolu_1", Index: 1, Tool: core.ToolKindFunction, Name: "web_search"},
		core.ToolCallDelta{Index: 1, Tool: core.ToolKindFunction, Function: &core.FunctionDelta{Arguments: `{"query":`}},
		core.ToolCallDelta{Index: 1, Tool: core.ToolKindFunction, Function: &core.FunctionDelta{Arguments: `"go"}`}},
		core.RunStatusChanged{RunID: "msg_01", Status: "completed"},
	}, evs)

	require.Len(t, api.params.System, 1)
	assert.Equal(t, "Be brief.", api.params.System[0].Text)
	assert.Equal(t, int64(4096), api.params.MaxTokens)
}

func TestSource_StreamRendersThroughDispatcher(t *testing.T) {
	src := newSource(&fakeAPI{payloads: helloStream})

	sink := &testutil.RecordingSink{}
	err := dispatch.New(sink).Consume(src.Stream(context.Background(), Prompt{Text: "hi"}))
	require.NoError(t, err)
	assert.Equal(t, dispatch.DefaultMarkers.Text+"Hello there\nassistant > function\n", sink.String())
}

func TestSource_PromptMaxTokensOverride(t *testing.T) {
	api := &fakeAPI{}
	src := newSource(api, func(o *Options) { o.MaxTokens = 100 })

	_, err := runsource.Collect(src.Stream(context.Background(), Prompt{Text: "hi", MaxTokens: 42}))
	require.NoError(t, err)
	assert.Equal(t, int64(42), api.params.MaxTokens)
	assert.Empty(t, api.params.System)
}

func TestSource_EmptyPrompt(t *testing.T) {
	src := newSource(&fakeAPI{})
	_, err := runsource.Collect(src.Stream(context.Background(), Prompt{}))
	assert.Error(t, err)
}

func TestSource_TransportFailureIsUnavailable(t *testing.T) {
	src := newSource(&fakeAPI{payloads: helloStream[:4], fail: errors.New("connection reset by peer")})

	evs, err := runsource.Collect(src.Stream(context.Background(), Prompt{Text: "hi"}))
	assert.Len(t, evs, 2)
	assert.ErrorIs(t, err, core.ErrSourceUnavailable)

	var srcErr *core.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "anthropic", srcErr.Provider)
}

func TestTranslate_UnmodeledEvents(t *testing.T) {
	tr := &translator{}

	evs := tr.translate(`{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"hmm"}}`)
	require.Len(t, evs, 1)
	assert.Equal(t, "content_block_delta", evs[0].(core.UnknownEvent).Type)

	evs = tr.translate(`{"type":"error","error":{"type":"overloaded_error"}}`)
	require.Len(t, evs, 1)
	assert.Equal(t, "error", evs[0].(core.UnknownEvent).Type)
}
