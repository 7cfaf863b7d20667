package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/tidwall/gjson"

	"github.com/hupe1980/assistkit/core"
	"github.com/hupe1980/assistkit/runsource"
)

// RunParams configure a run of an assistant on a thread.
type RunParams struct {
	ThreadID    string
	AssistantID string
	// Instructions override the assistant's instructions for this run.
	Instructions string
	// AdditionalInstructions are appended to the assistant's instructions.
	AdditionalInstructions string
	Temperature            *float64
	TopP                   *float64
	MaxPromptTokens        int64
	MaxCompletionTokens    int64
	ParallelToolCalls      *bool
}

func (p RunParams) validate() error {
	if p.ThreadID == "" {
		return fmt.Errorf("openai: thread id is required")
	}
	if p.AssistantID == "" {
		return fmt.Errorf("openai: assistant id is required")
	}
	return nil
}

func (p RunParams) toSDK() openai.BetaThreadRunNewParams {
	params := openai.BetaThreadRunNewParams{AssistantID: p.AssistantID}
	if p.Instructions != "" {
		params.Instructions = openai.String(p.Instructions)
	}
	if p.AdditionalInstructions != "" {
		params.AdditionalInstructions = openai.String(p.AdditionalInstructions)
	}
	if p.Temperature != nil {
		params.Temperature = openai.Float(*p.Temperature)
	}
	if p.TopP != nil {
		params.TopP = openai.Float(*p.TopP)
	}
	if p.MaxPromptTokens > 0 {
		params.MaxPromptTokens = openai.Int(p.MaxPromptTokens)
	}
	if p.MaxCompletionTokens > 0 {
		params.MaxCompletionTokens = openai.Int(p.MaxCompletionTokens)
	}
	if p.ParallelToolCalls != nil {
		params.ParallelToolCalls = openai.Bool(*p.ParallelToolCalls)
	}
	return params
}

// Stream starts a streaming run and returns its event stream. Runs that
// pause for function outputs are answered through the session's
// ToolExecutor and continue on the same stream.
func (s *Session) Stream(ctx context.Context, p RunParams) core.Stream {
	return runsource.Start(ctx, func(ctx context.Context, emit runsource.EmitFunc) error {
		if err := p.validate(); err != nil {
			return err
		}

		tr := newTranslator()
		it := s.api.newStreaming(ctx, p.ThreadID, p)
		for {
			pending, err := s.pump(it, tr, emit)
			if err != nil {
				return err
			}
			if pending == nil {
				return nil
			}

			outputs, err := s.answer(ctx, *pending)
			if err != nil {
				return err
			}
			threadID := pending.ThreadID
			if threadID == "" {
				threadID = p.ThreadID
			}
			s.logger.Debug("openai.run.submit_tool_outputs", "run_id", pending.RunID, "outputs", len(outputs))
			it = s.api.submitStreaming(ctx, threadID, pending.RunID, outputs)
		}
	}, func(o *runsource.Options) {
		o.BufferSize = s.bufferSize
		o.Logger = s.logger
	})
}

// pump forwards the events of one SSE stream and returns the pending
// requires_action pause, if the stream ended on one.
func (s *Session) pump(it runsource.RawIterator, tr *translator, emit runsource.EmitFunc) (*core.RunRequiresAction, error) {
	defer it.Close()

	var pending *core.RunRequiresAction
	for it.Next() {
		evs, err := tr.translate(it.Raw())
		if err != nil {
			return nil, err
		}
		for _, ev := range evs {
			if ra, ok := ev.(core.RunRequiresAction); ok {
				pending = &ra
			}
			if err := emit(ev); err != nil {
				return nil, err
			}
		}
	}
	if err := it.Err(); err != nil {
		return nil, classify("stream run", err)
	}
	return pending, nil
}

// answer executes the function calls of a paused run. Tool failures are
// reported back to the run as error payloads rather than aborting it.
func (s *Session) answer(ctx context.Context, ra core.RunRequiresAction) ([]toolOutput, error) {
	if s.tools == nil {
		return nil, fmt.Errorf("%w (run %s, %d calls)", ErrNoToolExecutor, ra.RunID, len(ra.Calls))
	}

	outputs := make([]toolOutput, 0, len(ra.Calls))
	for _, call := range ra.Calls {
		out, err := s.tools.Execute(ctx, call)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("openai.tool.failed", "tool", call.Name, "call_id", call.ID, "error", err.Error())
			payload, _ := json.Marshal(map[string]string{"error": err.Error()})
			out = string(payload)
		}
		outputs = append(outputs, toolOutput{CallID: call.ID, Output: out})
	}
	return outputs, nil
}

// Message is a thread message as returned by RunAndWait.
type Message struct {
	ID    string
	Role  string
	RunID string
	Text  string // concatenated text contents
}

// RunResult is the outcome of a non-streaming run.
type RunResult struct {
	RunID    string
	Status   string
	Messages []Message // messages produced by the run, oldest first
}

// terminal run statuses; requires_action is handled separately.
var terminalStatuses = map[string]bool{
	"completed":  true,
	"failed":     true,
	"cancelled":  true,
	"expired":    true,
	"incomplete": true,
}

// RunAndWait creates a run without streaming, polls it until it reaches a
// terminal status and returns the assistant messages it produced. A run that
// pauses for function outputs is answered through the session's ToolExecutor
// and polled further.
func (s *Session) RunAndWait(ctx context.Context, p RunParams) (*RunResult, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	snap, err := s.api.createRun(ctx, p.ThreadID, p)
	if err != nil {
		return nil, classify("create run", err)
	}
	s.logger.Debug("openai.run.created", "run_id", snap.ID, "status", snap.Status)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for !terminalStatuses[snap.Status] {
		if snap.Status == "requires_action" {
			outputs, err := s.answer(ctx, core.RunRequiresAction{RunID: snap.ID, ThreadID: p.ThreadID, Calls: snap.Calls})
			if err != nil {
				return &RunResult{RunID: snap.ID, Status: snap.Status}, err
			}
			s.logger.Debug("openai.run.submit_tool_outputs", "run_id", snap.ID, "outputs", len(outputs))
			if snap, err = s.api.submitToolOutputs(ctx, p.ThreadID, snap.ID, outputs); err != nil {
				return nil, classify("submit tool outputs", err)
			}
			continue
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
		if snap, err = s.api.getRun(ctx, p.ThreadID, snap.ID); err != nil {
			return nil, classify("get run", err)
		}
	}

	result := &RunResult{RunID: snap.ID, Status: snap.Status}
	if snap.Status == "failed" {
		return result, &core.RunError{RunID: snap.ID, Code: snap.ErrCode, Message: snap.ErrMessage}
	}
	if snap.Status != "completed" {
		return result, nil
	}

	raws, err := s.api.listMessages(ctx, p.ThreadID, snap.ID)
	if err != nil {
		return result, classify("list messages", err)
	}
	for _, raw := range raws {
		m := parseMessage(raw)
		if m.RunID != snap.ID {
			continue
		}
		result.Messages = append(result.Messages, m)
	}
	return result, nil
}

func parseMessage(raw string) Message {
	r := gjson.Parse(raw)
	m := Message{
		ID:    r.Get("id").String(),
		Role:  r.Get("role").String(),
		RunID: r.Get("run_id").String(),
	}
	r.Get("content").ForEach(func(_, c gjson.Result) bool {
		if c.Get("type").String() == "text" {
			m.Text += c.Get("text.value").String()
		}
		return true
	})
	return m
}
