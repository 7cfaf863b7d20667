package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/tidwall/gjson"

	"github.com/hupe1980/assistkit/core"
	"github.com/hupe1980/assistkit/runsource"
)

// runSnapshot is the slice of a run's state the session acts on.
type runSnapshot struct {
	ID         string
	ThreadID   string
	Status     string
	ErrCode    string
	ErrMessage string
	// Calls are the function calls a requires_action run waits on.
	Calls []core.FunctionCall
}

func snapshotFromRaw(raw string) runSnapshot {
	r := gjson.Parse(raw)
	return runSnapshot{
		ID:         r.Get("id").String(),
		ThreadID:   r.Get("thread_id").String(),
		Status:     r.Get("status").String(),
		ErrCode:    r.Get("last_error.code").String(),
		ErrMessage: r.Get("last_error.message").String(),
		Calls:      requiresAction(r).Calls,
	}
}

// toolOutput answers one function call of a paused run.
type toolOutput struct {
	CallID string
	Output string
}

// runAPI is the subset of the Assistants API the session uses.
type runAPI interface {
	createAssistant(ctx context.Context, spec AssistantSpec) (string, error)
	createThread(ctx context.Context) (string, error)
	addMessage(ctx context.Context, threadID, text string) (string, error)
	newStreaming(ctx context.Context, threadID string, p RunParams) runsource.RawIterator
	submitStreaming(ctx context.Context, threadID, runID string, outputs []toolOutput) runsource.RawIterator
	createRun(ctx context.Context, threadID string, p RunParams) (runSnapshot, error)
	getRun(ctx context.Context, threadID, runID string) (runSnapshot, error)
	submitToolOutputs(ctx context.Context, threadID, runID string, outputs []toolOutput) (runSnapshot, error)
	// listMessages returns the raw messages of a run, oldest first.
	listMessages(ctx context.Context, threadID, runID string) ([]string, error)
}

// sdkAPI implements runAPI on the official client.
type sdkAPI struct {
	client *openai.Client
}

func (a sdkAPI) createAssistant(ctx context.Context, spec AssistantSpec) (string, error) {
	params := openai.BetaAssistantNewParams{
		Model: openai.ChatModel(spec.Model),
	}
	if spec.Name != "" {
		params.Name = openai.String(spec.Name)
	}
	if spec.Description != "" {
		params.Description = openai.String(spec.Description)
	}
	if spec.Instructions != "" {
		params.Instructions = openai.String(spec.Instructions)
	}
	if spec.Temperature != nil {
		params.Temperature = openai.Float(*spec.Temperature)
	}
	if spec.TopP != nil {
		params.TopP = openai.Float(*spec.TopP)
	}
	if len(spec.Metadata) > 0 {
		params.Metadata = spec.Metadata
	}
	for _, t := range spec.Tools {
		switch t.Kind {
		case core.ToolKindCodeInterpreter:
			params.Tools = append(params.Tools, openai.AssistantToolUnionParam{OfCodeInterpreter: &openai.CodeInterpreterToolParam{}})
		case core.ToolKindFileSearch:
			params.Tools = append(params.Tools, openai.AssistantToolUnionParam{OfFileSearch: &openai.FileSearchToolParam{}})
		case core.ToolKindFunction:
			params.Tools = append(params.Tools, openai.AssistantToolUnionParam{OfFunction: &openai.FunctionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        t.Name,
					Description: openai.String(t.Description),
					Parameters:  t.Parameters,
				},
			}})
		}
	}

	assistant, err := a.client.Beta.Assistants.New(ctx, params)
	if err != nil {
		return "", err
	}
	return assistant.ID, nil
}

func (a sdkAPI) createThread(ctx context.Context) (string, error) {
	thread, err := a.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", err
	}
	return thread.ID, nil
}

func (a sdkAPI) addMessage(ctx context.Context, threadID, text string) (string, error) {
	msg, err := a.client.Beta.Threads.Messages.New(ctx, threadID, openai.BetaThreadMessageNewParams{
		Role:    openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (a sdkAPI) newStreaming(ctx context.Context, threadID string, p RunParams) runsource.RawIterator {
	stream := a.client.Beta.Threads.Runs.NewStreaming(ctx, threadID, p.toSDK())
	return runsource.FromSDK[openai.AssistantStreamEventUnion](stream)
}

func toolOutputsParams(outputs []toolOutput) openai.BetaThreadRunSubmitToolOutputsParams {
	params := openai.BetaThreadRunSubmitToolOutputsParams{}
	for _, o := range outputs {
		params.ToolOutputs = append(params.ToolOutputs, openai.BetaThreadRunSubmitToolOutputsParamsToolOutput{
			ToolCallID: openai.String(o.CallID),
			Output:     openai.String(o.Output),
		})
	}
	return params
}

func (a sdkAPI) submitStreaming(ctx context.Context, threadID, runID string, outputs []toolOutput) runsource.RawIterator {
	stream := a.client.Beta.Threads.Runs.SubmitToolOutputsStreaming(ctx, threadID, runID, toolOutputsParams(outputs))
	return runsource.FromSDK[openai.AssistantStreamEventUnion](stream)
}

func (a sdkAPI) submitToolOutputs(ctx context.Context, threadID, runID string, outputs []toolOutput) (runSnapshot, error) {
	run, err := a.client.Beta.Threads.Runs.SubmitToolOutputs(ctx, threadID, runID, toolOutputsParams(outputs))
	if err != nil {
		return runSnapshot{}, err
	}
	return snapshotFromRun(run), nil
}

func (a sdkAPI) createRun(ctx context.Context, threadID string, p RunParams) (runSnapshot, error) {
	run, err := a.client.Beta.Threads.Runs.New(ctx, threadID, p.toSDK())
	if err != nil {
		return runSnapshot{}, err
	}
	return snapshotFromRun(run), nil
}

func (a sdkAPI) getRun(ctx context.Context, threadID, runID string) (runSnapshot, error) {
	run, err := a.client.Beta.Threads.Runs.Get(ctx, threadID, runID)
	if err != nil {
		return runSnapshot{}, err
	}
	return snapshotFromRun(run), nil
}

func (a sdkAPI) listMessages(ctx context.Context, threadID, runID string) ([]string, error) {
	pager := a.client.Beta.Threads.Messages.ListAutoPaging(ctx, threadID, openai.BetaThreadMessageListParams{
		RunID: openai.String(runID),
		Order: openai.BetaThreadMessageListParamsOrderAsc,
		Limit: openai.Int(100),
	})
	var raws []string
	for pager.Next() {
		raws = append(raws, pager.Current().RawJSON())
	}
	if err := pager.Err(); err != nil {
		return nil, err
	}
	return raws, nil
}

func snapshotFromRun(run *openai.Run) runSnapshot {
	snap := snapshotFromRaw(run.RawJSON())
	if snap.ID == "" {
		snap.ID = run.ID
		snap.ThreadID = run.ThreadID
		snap.Status = string(run.Status)
	}
	return snap
}
