// Package assistkit streams assistant replies to a terminal or any other
// io.Writer. Most applications:
//  1. Build a Backend (OpenAI Assistants or Anthropic Messages)
//  2. Create a Client via New(), optionally overriding the conversation store
//  3. Call Ask with a conversation key; follow-up questions on the same key
//     continue the same remote thread
//
// Each Ask renders its stream through a fresh dispatch.Dispatcher, so
// concurrent conversations never share rendering state.
package assistkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/hupe1980/assistkit/core"
	"github.com/hupe1980/assistkit/dispatch"
	"github.com/hupe1980/assistkit/logging"
	"github.com/hupe1980/assistkit/session"
)

// Backend opens conversations and streams replies for them.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// Open creates the remote state of a new conversation. Stateless
	// backends return conv unchanged.
	Open(ctx context.Context, conv session.Conversation) (session.Conversation, error)

	// Send appends prompt to the conversation and streams the reply.
	Send(ctx context.Context, conv session.Conversation, prompt string) (core.Stream, error)
}

// Waiter is implemented by backends that can answer without streaming.
type Waiter interface {
	SendAndWait(ctx context.Context, conv session.Conversation, prompt string) (string, error)
}

// Options configures a Client.
type Options struct {
	// Store remembers conversations (defaults to an in-memory store).
	Store session.Store

	// Markers used by the dispatcher (defaults to dispatch.DefaultMarkers).
	Markers dispatch.Markers

	// MaxConcurrentAsks bounds simultaneous Ask calls. Zero means unlimited.
	MaxConcurrentAsks int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Client is the high-level entry point. It is safe for concurrent use;
// asks on the same conversation key are serialized.
type Client struct {
	backend Backend
	opts    Options
	slots   chan struct{}

	mu    sync.Mutex
	locks map[string]*keyLock
}

// keyLock serializes asks on one conversation key. Entries live only while
// an ask holds or waits for them.
type keyLock struct {
	held chan struct{}
	refs int
}

// New creates a Client for backend.
func New(backend Backend, optFns ...func(o *Options)) *Client {
	opts := Options{
		Store:   session.NewInMemoryStore(),
		Markers: dispatch.DefaultMarkers,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	c := &Client{
		backend: backend,
		opts:    opts,
		locks:   map[string]*keyLock{},
	}
	if opts.MaxConcurrentAsks > 0 {
		c.slots = make(chan struct{}, opts.MaxConcurrentAsks)
	}
	return c
}

// Ask sends prompt within the conversation identified by key and renders the
// streamed reply to sink. The conversation is created on first use.
func (c *Client) Ask(ctx context.Context, key, prompt string, sink io.Writer) error {
	release, err := c.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()

	conv, err := c.conversation(ctx, key)
	if err != nil {
		return err
	}

	stream, err := c.backend.Send(ctx, conv, prompt)
	if err != nil {
		return err
	}
	c.opts.Logger.Debug("assistkit.ask.stream", "key", key, "backend", c.backend.Name(), "stream_id", stream.ID())

	d := dispatch.New(sink, func(o *dispatch.Options) {
		o.Markers = c.opts.Markers
		o.Logger = c.opts.Logger
	})
	consumeErr := d.Consume(stream)

	conv.Turns++
	if err := c.opts.Store.Save(conv); err != nil {
		return errors.Join(consumeErr, err)
	}
	return consumeErr
}

// AskAndWait sends prompt and returns the complete reply without streaming.
// The backend must implement Waiter.
func (c *Client) AskAndWait(ctx context.Context, key, prompt string) (string, error) {
	w, ok := c.backend.(Waiter)
	if !ok {
		return "", fmt.Errorf("assistkit: backend %s cannot answer without streaming", c.backend.Name())
	}

	release, err := c.acquire(ctx, key)
	if err != nil {
		return "", err
	}
	defer release()

	conv, err := c.conversation(ctx, key)
	if err != nil {
		return "", err
	}

	reply, err := w.SendAndWait(ctx, conv, prompt)
	if err != nil {
		return "", err
	}

	conv.Turns++
	if err := c.opts.Store.Save(conv); err != nil {
		return reply, err
	}
	return reply, nil
}

// Forget drops the conversation stored under key. It waits for a running
// ask on the same key to finish.
func (c *Client) Forget(key string) error {
	unlock, err := c.lockKey(context.Background(), key)
	if err != nil {
		return err
	}
	defer unlock()
	return c.opts.Store.Delete(key)
}

func (c *Client) conversation(ctx context.Context, key string) (session.Conversation, error) {
	conv, err := c.opts.Store.Get(key)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		return session.Conversation{}, err
	}

	conv, err = c.backend.Open(ctx, session.Conversation{Key: key})
	if err != nil {
		return session.Conversation{}, fmt.Errorf("open conversation %q: %w", key, err)
	}
	if err := c.opts.Store.Save(conv); err != nil {
		return session.Conversation{}, err
	}
	c.opts.Logger.Info("assistkit.conversation.opened", "key", key, "backend", c.backend.Name(), "assistant_id", conv.AssistantID, "thread_id", conv.ThreadID)
	return conv, nil
}

// acquire takes the per-key lock and then a concurrency slot, so asks
// queued behind a busy key do not occupy slots.
func (c *Client) acquire(ctx context.Context, key string) (func(), error) {
	unlock, err := c.lockKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if c.slots != nil {
		select {
		case c.slots <- struct{}{}:
		case <-ctx.Done():
			unlock()
			return nil, ctx.Err()
		}
	}

	return func() {
		if c.slots != nil {
			<-c.slots
		}
		unlock()
	}, nil
}

func (c *Client) lockKey(ctx context.Context, key string) (func(), error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("assistkit: conversation key is required")
	}

	c.mu.Lock()
	l, ok := c.locks[key]
	if !ok {
		l = &keyLock{held: make(chan struct{}, 1)}
		c.locks[key] = l
	}
	l.refs++
	c.mu.Unlock()

	select {
	case l.held <- struct{}{}:
	case <-ctx.Done():
		c.unref(key, l)
		return nil, ctx.Err()
	}

	return func() {
		<-l.held
		c.unref(key, l)
	}, nil
}

func (c *Client) unref(key string, l *keyLock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(c.locks, key)
	}
}
