package biz

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/execution-console/internal/content"
	apperrors "github.com/lk2023060901/execution-console/internal/pkg/errors"
	"github.com/lk2023060901/execution-console/internal/pkg/logger"
	"github.com/lk2023060901/execution-console/internal/router"
)

type fakeRepo struct {
	mu       sync.Mutex
	execs    map[string]*Execution
	errs     map[string]error
	newID    string
	lastReq  *ReExecuteRequest
	getCalls int
}

func (r *fakeRepo) Get(ctx context.Context, id string) (*Execution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	if err := r.errs[id]; err != nil {
		return nil, err
	}
	return r.execs[id], nil
}

func (r *fakeRepo) ReExecute(ctx context.Context, id string, req *ReExecuteRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastReq = req
	if err := r.errs[id]; err != nil {
		return "", err
	}
	return r.newID, nil
}

type messageErr string

func (e messageErr) Error() string       { return string(e) }
func (e messageErr) UserMessage() string { return string(e) }

func textMessage(role, text string) Message {
	return Message{Role: role, Content: content.TextValue(text)}
}

func TestExecution_Decode(t *testing.T) {
	raw := `{
		"identifier": "e1",
		"status": "completed",
		"created_at": "2024-05-01T10:00:00.123Z",
		"thread_id": "compext_thread_null",
		"output": {"content": [{"type": "text", "text": "done"}], "error": null},
		"thread_execution_params_template": {"name": "default", "model": "gpt-4o", "temperature": 0.7, "max_tokens": 256, "response_format": {"type": "json_object"}},
		"thread_execution_params_template_id": "t1",
		"execution_request_metadata": null,
		"execution_response_metadata": {"usage": {"total_tokens": 12}},
		"execution_time": 1.5,
		"input_messages": [
			{"role": "system", "content": "S"},
			{"role": "assistant", "content": null, "tool_calls": [{"id": "c1", "type": "function", "function": {"name": "f", "arguments": "{\"a\":1}"}}]}
		]
	}`

	var exec Execution
	require.NoError(t, json.Unmarshal([]byte(raw), &exec))

	assert.Equal(t, StatusCompleted, exec.Status)
	assert.Equal(t, 2024, exec.CreatedAt.Year())
	assert.False(t, exec.HasThread())
	assert.Equal(t, content.KindArray, exec.Output.Content.Kind())
	require.NotNil(t, exec.ParamsTemplate.Temperature)
	assert.Equal(t, 0.7, *exec.ParamsTemplate.Temperature)
	assert.False(t, HasJSON(exec.RequestMetadata))
	assert.True(t, HasJSON(exec.ResponseMetadata))
	assert.Equal(t, "f", exec.InputMessages[1].ToolCalls[0].Function.Name)
	assert.Equal(t, content.KindNull, exec.InputMessages[1].Content.Kind())
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "Completed", StatusCompleted.Label())
	assert.Equal(t, "In_progress", StatusInProgress.Label())
	assert.Equal(t, "", Status("").Label())
	assert.True(t, StatusFailed.IsTerminal())
	assert.False(t, StatusRunning.IsTerminal())
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		wantRaw string
		zero    bool
	}{
		{`"2024-05-01T10:00:00Z"`, "2024-05-01T10:00:00Z", false},
		{`"2024-05-01T10:00:00.123456"`, "2024-05-01T10:00:00.123456", false},
		{`"2024-05-01 10:00:00"`, "2024-05-01 10:00:00", false},
		{`"yesterday"`, "yesterday", true},
		{`null`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.in), &ts))
			assert.Equal(t, tt.wantRaw, ts.Raw)
			assert.Equal(t, tt.zero, ts.Time.IsZero())
		})
	}

	ts := Timestamp{Raw: "yesterday"}
	assert.Equal(t, "yesterday", ts.Display())
}

func TestMessageContent(t *testing.T) {
	call := func(name, args string) openai.ToolCall {
		return openai.ToolCall{ID: "c", Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{Name: name, Arguments: args}}
	}

	tests := []struct {
		name    string
		msg     Message
		want    string
		wantErr bool
	}{
		{
			name: "text with tool call",
			msg: Message{Role: RoleAssistant, Content: content.TextValue("hi"),
				ToolCalls: []openai.ToolCall{call("f", `{"a":1}`)}},
			want: "hi\n\nTool Call: f\nArguments:\n{\n  \"a\": 1\n}",
		},
		{
			name: "two tool calls keep order",
			msg: Message{Role: RoleAssistant, Content: content.TextValue(""),
				ToolCalls: []openai.ToolCall{call("a", `{}`), call("b", `[1]`)}},
			want: "\n\nTool Call: a\nArguments:\n{}\n\nTool Call: b\nArguments:\n[\n  1\n]",
		},
		{
			name: "null content with tool call",
			msg: Message{Role: RoleAssistant, Content: content.RawValue(json.RawMessage(`null`)),
				ToolCalls: []openai.ToolCall{call("f", `{"z":true}`)}},
			want: "\n\nTool Call: f\nArguments:\n{\n  \"z\": true\n}",
		},
		{
			name: "structured content wins over tool calls",
			msg: Message{Role: RoleUser, Content: content.RawValue(json.RawMessage(`[{"type": "text", "text": "x"}]`)),
				ToolCalls: []openai.ToolCall{call("f", `not json`)}},
			want: `[{"type":"text","text":"x"}]`,
		},
		{
			name: "arguments re-serialized",
			msg: Message{Role: RoleAssistant, Content: content.TextValue(""),
				ToolCalls: []openai.ToolCall{call("f", `{"city":"Caf\u00e9","n":1.0,"2":"x"}`)}},
			want: "\n\nTool Call: f\nArguments:\n{\n  \"2\": \"x\",\n  \"city\": \"Café\",\n  \"n\": 1\n}",
		},
		{
			name: "plain text",
			msg:  textMessage(RoleUser, "hello"),
			want: "hello",
		},
		{
			name: "malformed arguments",
			msg: Message{Role: RoleAssistant, Content: content.TextValue("hi"),
				ToolCalls: []openai.ToolCall{call("f", `{"a":`)}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MessageContent(tt.msg)
			if tt.wantErr {
				assert.True(t, apperrors.Is(err, apperrors.ErrMalformedData))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSystemPrompt(t *testing.T) {
	exec := &Execution{InputMessages: []Message{
		textMessage(RoleSystem, "S"),
		textMessage(RoleUser, "U"),
	}}

	prompt, ok := ResolveSystemPrompt(exec)
	assert.True(t, ok)
	assert.Equal(t, "S", prompt)
	assert.Equal(t, []Message{textMessage(RoleUser, "U")}, DisplayMessages(exec.InputMessages))

	exec.SystemPrompt = "explicit"
	prompt, _ = ResolveSystemPrompt(exec)
	assert.Equal(t, "explicit", prompt)

	_, ok = ResolveSystemPrompt(&Execution{InputMessages: []Message{textMessage(RoleUser, "U")}})
	assert.False(t, ok)

	multi := []Message{
		textMessage(RoleSystem, "S1"),
		textMessage(RoleUser, "U"),
		textMessage(RoleSystem, "S2"),
		textMessage(RoleAssistant, "A"),
	}
	prompt, _ = ResolveSystemPrompt(&Execution{InputMessages: multi})
	assert.Equal(t, "S1", prompt)
	assert.Len(t, DisplayMessages(multi), 2)
}

func TestViewer_Load(t *testing.T) {
	repo := &fakeRepo{
		execs: map[string]*Execution{"e1": {
			Identifier:    "e1",
			Status:        StatusCompleted,
			InputMessages: []Message{textMessage(RoleSystem, "S"), textMessage(RoleUser, "U")},
		}},
		errs: map[string]error{
			"bad":   messageErr("boom"),
			"blank": messageErr(""),
		},
	}
	v := NewViewer(repo, logger.NewNop())
	assert.Equal(t, StateLoading, v.Snapshot().State)

	snap := v.Load(context.Background(), "e1")
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, "S", snap.SystemPrompt)
	assert.Len(t, snap.Messages, 1)

	snap = v.Load(context.Background(), "bad")
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, "boom", snap.Error)
	assert.Nil(t, snap.Execution)

	snap = v.Load(context.Background(), "blank")
	assert.Equal(t, FetchFailedMessage, snap.Error)

	snap = v.Load(context.Background(), "missing")
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, "Execution not found", snap.Error)
	assert.Equal(t, 4, repo.getCalls)
}

func TestViewer_DropsStaleCompletion(t *testing.T) {
	v := NewViewer(&fakeRepo{}, logger.NewNop())

	ctx1, gen1 := v.Begin(context.Background(), "old")
	_, gen2 := v.Begin(context.Background(), "new")

	select {
	case <-ctx1.Done():
	case <-time.After(time.Second):
		t.Fatal("previous fetch was not cancelled")
	}

	assert.True(t, v.Complete(gen2, &Execution{Identifier: "new"}, nil))
	assert.False(t, v.Complete(gen1, &Execution{Identifier: "old"}, nil))

	snap := v.Snapshot()
	assert.Equal(t, "new", snap.Execution.Identifier)
	assert.Equal(t, gen2, snap.Generation)
}

func TestViewer_StaleErrorDoesNotOverwrite(t *testing.T) {
	v := NewViewer(&fakeRepo{}, logger.NewNop())

	_, gen1 := v.Begin(context.Background(), "a")
	_, gen2 := v.Begin(context.Background(), "b")
	require.True(t, v.Complete(gen2, &Execution{Identifier: "b"}, nil))
	require.False(t, v.Complete(gen1, nil, context.Canceled))

	assert.Equal(t, StateReady, v.Snapshot().State)
}

func TestExecutionUseCase_ReExecute(t *testing.T) {
	repo := &fakeRepo{newID: "e2", errs: map[string]error{"bad": errors.New("down")}}
	nav := router.NewHistory(router.ExecutionPath("demo", "e1"))
	uc := NewExecutionUseCase(repo, nav, logger.NewNop())

	temp := 0.2
	newID, err := uc.ReExecute(context.Background(), "demo", "e1", ReExecuteRequest{Model: "gpt-4o", Temperature: &temp})
	require.NoError(t, err)
	assert.Equal(t, "e2", newID)
	assert.Equal(t, "demo", repo.lastReq.Project)
	assert.Equal(t, router.ExecutionPath("demo", "e2"), nav.Current())

	_, err = uc.ReExecute(context.Background(), "demo", "bad", ReExecuteRequest{})
	assert.Error(t, err)
	assert.Equal(t, 1, nav.Calls())

	hot := 3.0
	_, err = uc.ReExecute(context.Background(), "demo", "e1", ReExecuteRequest{Temperature: &hot})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParams))

	_, err = uc.ReExecute(context.Background(), "", "e1", ReExecuteRequest{})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParams))
}

func TestExecutionUseCase_Navigation(t *testing.T) {
	nav := router.NewHistory()
	uc := NewExecutionUseCase(&fakeRepo{}, nav, logger.NewNop())

	assert.False(t, uc.OpenThread("p", &Execution{ThreadID: NullThreadID}))
	assert.True(t, uc.OpenThread("p", &Execution{ThreadID: "th1"}))
	assert.Equal(t, router.ThreadPath("p", "th1"), nav.Current())

	assert.False(t, uc.OpenTemplate("p", &Execution{}))
	assert.True(t, uc.OpenTemplate("p", &Execution{ParamsTemplateID: "t1"}))
	assert.Equal(t, router.TemplatePath("p", "t1"), nav.Current())

	uc.Back("p")
	assert.Equal(t, router.ExecutionsPath("p"), nav.Current())
	assert.Equal(t, 3, nav.Calls())

	_, err := uc.Get(context.Background(), " ")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParams))
}
