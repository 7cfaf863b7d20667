package assistkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/assistkit/core"
	"github.com/hupe1980/assistkit/dispatch"
	"github.com/hupe1980/assistkit/internal/testutil"
	"github.com/hupe1980/assistkit/runsource/anthropic"
	"github.com/hupe1980/assistkit/runsource/openai"
	"github.com/hupe1980/assistkit/session"
)

// fakeSession is an in-memory AssistantSession.
type fakeSession struct {
	mu         sync.Mutex
	assistants int
	threads    int
	messages   map[string][]string
	runs       []openai.RunParams
	events     []core.Event
	result     *openai.RunResult
	err        error
}

func newFakeSession(events []core.Event) *fakeSession {
	return &fakeSession{messages: map[string][]string{}, events: events}
}

func (f *fakeSession) CreateAssistant(context.Context, openai.AssistantSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.assistants++
	return fmt.Sprintf("asst_%d", f.assistants), nil
}

func (f *fakeSession) CreateThread(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads++
	return fmt.Sprintf("thread_%d", f.threads), nil
}

func (f *fakeSession) AddMessage(_ context.Context, threadID, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[threadID] = append(f.messages[threadID], text)
	return "msg", nil
}

func (f *fakeSession) Stream(_ context.Context, p openai.RunParams) core.Stream {
	f.mu.Lock()
	f.runs = append(f.runs, p)
	f.mu.Unlock()
	return testutil.NewSliceStream(f.events, nil)
}

func (f *fakeSession) RunAndWait(_ context.Context, p openai.RunParams) (*openai.RunResult, error) {
	f.mu.Lock()
	f.runs = append(f.runs, p)
	f.mu.Unlock()
	return f.result, nil
}

var mathTutor = openai.AssistantSpec{
	Name:         "Math Tutor",
	Instructions: "You are a personal math tutor. Write and run code to answer math questions.",
	Tools:        []openai.ToolSpec{openai.CodeInterpreter()},
}

func TestClient_AskRendersStream(t *testing.T) {
	evs := testutil.NewEventBuilder().Text("Sure. ").CodeCall("x = (14 - 11) / 3").Logs("1.0").Build()
	fs := newFakeSession(evs)
	backend := NewOpenAIBackend(fs, mathTutor, func(o *OpenAIOptions) {
		o.Instructions = "Please address the user as Jane Doe. The user has a premium account."
	})
	c := New(backend)

	sink := &testutil.RecordingSink{}
	err := c.Ask(context.Background(), "jane", "I need to solve the equation `3x + 11 = 14`. Can you help me?", sink)
	require.NoError(t, err)

	assert.Equal(t,
		"\nassistant > Sure. \nassistant > code_interpreter\nx = (14 - 11) / 3\n\noutput >\n1.0\n",
		sink.String())

	require.Len(t, fs.runs, 1)
	assert.Equal(t, "thread_1", fs.runs[0].ThreadID)
	assert.Equal(t, "asst_1", fs.runs[0].AssistantID)
	assert.Equal(t, "Please address the user as Jane Doe. The user has a premium account.", fs.runs[0].Instructions)
}

func TestClient_ReusesConversation(t *testing.T) {
	fs := newFakeSession(testutil.NewEventBuilder().Text("ok").Build())
	store := session.NewInMemoryStore()
	c := New(NewOpenAIBackend(fs, mathTutor), func(o *Options) { o.Store = store })

	ctx := context.Background()
	require.NoError(t, c.Ask(ctx, "jane", "first", &testutil.RecordingSink{}))
	require.NoError(t, c.Ask(ctx, "jane", "second", &testutil.RecordingSink{}))
	require.NoError(t, c.Ask(ctx, "john", "hello", &testutil.RecordingSink{}))

	assert.Equal(t, 1, fs.assistants, "assistant is shared")
	assert.Equal(t, 2, fs.threads, "one thread per conversation")
	assert.Equal(t, []string{"first", "second"}, fs.messages["thread_1"])

	conv, err := store.Get("jane")
	require.NoError(t, err)
	assert.Equal(t, 2, conv.Turns)

	require.NoError(t, c.Forget("jane"))
	_, err = store.Get("jane")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestClient_ExistingAssistantID(t *testing.T) {
	fs := newFakeSession(nil)
	c := New(NewOpenAIBackend(fs, mathTutor, func(o *OpenAIOptions) { o.AssistantID = "asst_existing" }))

	require.NoError(t, c.Ask(context.Background(), "k", "hi", &testutil.RecordingSink{}))
	assert.Zero(t, fs.assistants)
	assert.Equal(t, "asst_existing", fs.runs[0].AssistantID)
}

func TestClient_OpenFailure(t *testing.T) {
	fs := newFakeSession(nil)
	fs.err = &core.SourceError{Provider: "openai", Op: "create assistant", StatusCode: 401, Unavailable: true, Err: errors.New("bad key")}
	store := session.NewInMemoryStore()
	c := New(NewOpenAIBackend(fs, mathTutor), func(o *Options) { o.Store = store })

	err := c.Ask(context.Background(), "k", "hi", &testutil.RecordingSink{})
	assert.ErrorIs(t, err, core.ErrSourceUnavailable)
	assert.Empty(t, store.Keys())
}

func TestClient_SinkFailure(t *testing.T) {
	fs := newFakeSession(testutil.NewEventBuilder().Text("a", "b", "c").Build())
	c := New(NewOpenAIBackend(fs, mathTutor))

	err := c.Ask(context.Background(), "k", "hi", &testutil.FailingSink{Accept: 1})
	assert.ErrorIs(t, err, core.ErrSinkWrite)
}

func TestClient_RequiresKey(t *testing.T) {
	c := New(NewOpenAIBackend(newFakeSession(nil), mathTutor))
	assert.Error(t, c.Ask(context.Background(), " ", "hi", &testutil.RecordingSink{}))
}

func TestClient_CustomMarkers(t *testing.T) {
	fs := newFakeSession(testutil.NewEventBuilder().Text("hi").Build())
	c := New(NewOpenAIBackend(fs, mathTutor), func(o *Options) {
		o.Markers = dispatch.Markers{Text: "\n> ", ToolCall: "\n[%s]\n", Output: "\n=>\n"}
	})

	sink := &testutil.RecordingSink{}
	require.NoError(t, c.Ask(context.Background(), "k", "hi", sink))
	assert.Equal(t, "\n> hi", sink.String())
}

func TestClient_AskAndWait(t *testing.T) {
	fs := newFakeSession(nil)
	fs.result = &openai.RunResult{RunID: "run_1", Status: "completed", Messages: []openai.Message{
		{Role: "assistant", Text: "Let me solve it."},
		{Role: "assistant", Text: "x = 1"},
	}}
	c := New(NewOpenAIBackend(fs, mathTutor))

	reply, err := c.AskAndWait(context.Background(), "k", "Solve 3x + 11 = 14")
	require.NoError(t, err)
	assert.Equal(t, "Let me solve it.\n\nx = 1", reply)

	fs.result = &openai.RunResult{RunID: "run_2", Status: "incomplete"}
	_, err = c.AskAndWait(context.Background(), "k", "again")
	assert.Error(t, err)
}

func TestClient_AskAndWaitUnsupported(t *testing.T) {
	c := New(streamOnly{})
	_, err := c.AskAndWait(context.Background(), "k", "hi")
	assert.Error(t, err)
}

func TestClient_MaxConcurrentAsks(t *testing.T) {
	c := New(streamOnly{}, func(o *Options) { o.MaxConcurrentAsks = 1 })

	release, err := c.acquire(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.acquire(ctx, "b")
	assert.ErrorIs(t, err, context.Canceled)

	release()
	release, err = c.acquire(context.Background(), "b")
	require.NoError(t, err)
	release()
}

// gateBackend holds Send on the "busy" key until release is closed.
type gateBackend struct {
	entered chan string
	release chan struct{}
}

func newGateBackend() *gateBackend {
	return &gateBackend{entered: make(chan string, 4), release: make(chan struct{})}
}

func (g *gateBackend) Name() string { return "gate" }

func (g *gateBackend) Open(_ context.Context, conv session.Conversation) (session.Conversation, error) {
	return conv, nil
}

func (g *gateBackend) Send(ctx context.Context, conv session.Conversation, _ string) (core.Stream, error) {
	if conv.Key == "busy" {
		g.entered <- conv.Key
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return testutil.NewSliceStream(nil, nil), nil
}

func lockRefs(c *Client, key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.locks[key]; ok {
		return l.refs
	}
	return 0
}

func lockCount(c *Client) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.locks)
}

func TestClient_AskOnBusyKeyHonorsContext(t *testing.T) {
	g := newGateBackend()
	c := New(g)

	first := make(chan error, 1)
	go func() { first <- c.Ask(context.Background(), "busy", "first", io.Discard) }()
	require.Equal(t, "busy", <-g.entered)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.Ask(ctx, "busy", "second", io.Discard)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, lockRefs(c, "busy"))

	close(g.release)
	require.NoError(t, <-first)
	assert.Zero(t, lockCount(c))
}

func TestClient_BusyKeyDoesNotHoldSlot(t *testing.T) {
	g := newGateBackend()
	c := New(g, func(o *Options) { o.MaxConcurrentAsks = 2 })

	first := make(chan error, 1)
	go func() { first <- c.Ask(context.Background(), "busy", "first", io.Discard) }()
	require.Equal(t, "busy", <-g.entered)

	second := make(chan error, 1)
	go func() { second <- c.Ask(context.Background(), "busy", "second", io.Discard) }()
	require.Eventually(t, func() bool { return lockRefs(c, "busy") == 2 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Ask(ctx, "other", "hi", io.Discard))

	close(g.release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)
	assert.Zero(t, lockCount(c))
}

func TestClient_ForgetWaitsForRunningAsk(t *testing.T) {
	g := newGateBackend()
	c := New(g)

	first := make(chan error, 1)
	go func() { first <- c.Ask(context.Background(), "busy", "first", io.Discard) }()
	require.Equal(t, "busy", <-g.entered)

	forgot := make(chan error, 1)
	go func() { forgot <- c.Forget("busy") }()
	require.Eventually(t, func() bool { return lockRefs(c, "busy") == 2 }, time.Second, time.Millisecond)

	close(g.release)
	require.NoError(t, <-first)
	require.NoError(t, <-forgot)

	_, err := c.opts.Store.Get("busy")
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.Zero(t, lockCount(c))
}

type streamOnly struct{}

func (streamOnly) Name() string { return "stream-only" }

func (streamOnly) Open(_ context.Context, conv session.Conversation) (session.Conversation, error) {
	return conv, nil
}

func (streamOnly) Send(context.Context, session.Conversation, string) (core.Stream, error) {
	return testutil.NewSliceStream(nil, nil), nil
}

// fakeStreamer records prompts for AnthropicBackend.
type fakeStreamer struct {
	prompts []anthropic.Prompt
	events  []core.Event
	err     error
}

func (f *fakeStreamer) Stream(_ context.Context, p anthropic.Prompt) core.Stream {
	f.prompts = append(f.prompts, p)
	return testutil.NewSliceStream(f.events, f.err)
}

func TestAnthropicBackend(t *testing.T) {
	fs := &fakeStreamer{events: testutil.NewEventBuilder().Text("Hello", " Jane").Build()}
	c := New(NewAnthropicBackend(fs, "Be brief."))

	sink := &testutil.RecordingSink{}
	require.NoError(t, c.Ask(context.Background(), "k", "hi", sink))
	assert.Equal(t, "\nassistant > Hello Jane", sink.String())

	reply, err := c.AskAndWait(context.Background(), "k", "again")
	require.NoError(t, err)
	assert.Equal(t, "Hello Jane", reply)

	require.Len(t, fs.prompts, 2)
	assert.Equal(t, anthropic.Prompt{Text: "hi", Instructions: "Be brief."}, fs.prompts[0])
}

func TestAnthropicBackend_StreamFailure(t *testing.T) {
	fs := &fakeStreamer{err: &core.SourceError{Provider: "anthropic", Unavailable: true, Err: errors.New("503")}}
	c := New(NewAnthropicBackend(fs, ""))

	_, err := c.AskAndWait(context.Background(), "k", "hi")
	assert.ErrorIs(t, err, core.ErrSourceUnavailable)
}
