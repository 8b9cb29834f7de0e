package biz

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/lk2023060901/execution-console/internal/content"
)

// Status 执行状态
type Status string

const (
	StatusPending    Status = "pending"
	StatusRunning    Status = "running"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal 是否为终态
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Label 首字母大写的展示文本，例如 "In_progress"
func (s Status) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// NullThreadID 表示执行不属于任何会话
const NullThreadID = "compext_thread_null"

// Message roles
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
	RoleTool      = openai.ChatMessageRoleTool
)

// Execution 一次模型调用的完整记录
type Execution struct {
	Identifier       string          `json:"identifier"`
	Status           Status          `json:"status"`
	CreatedAt        Timestamp       `json:"created_at"`
	ThreadID         string          `json:"thread_id"`
	Content          string          `json:"content,omitempty"`
	Output           *Output         `json:"output,omitempty"`
	ParamsTemplate   *ParamsTemplate `json:"thread_execution_params_template,omitempty"`
	ParamsTemplateID string          `json:"thread_execution_params_template_id,omitempty"`
	RequestMetadata  json.RawMessage `json:"execution_request_metadata,omitempty"`
	ResponseMetadata json.RawMessage `json:"execution_response_metadata,omitempty"`
	ExecutionTime    float64         `json:"execution_time,omitempty"`
	SystemPrompt     string          `json:"system_prompt,omitempty"`
	InputMessages    []Message       `json:"input_messages"`
}

// HasThread 是否关联了真实的会话
func (e *Execution) HasThread() bool {
	return e.ThreadID != "" && e.ThreadID != NullThreadID
}

// Output 执行输出，Content 可以是字符串或内容块数组
type Output struct {
	Content content.Value `json:"content"`
	Error   string        `json:"error,omitempty"`
}

// ParamsTemplate 执行参数模板
type ParamsTemplate struct {
	Name                string          `json:"name"`
	Model               string          `json:"model"`
	Temperature         *float64        `json:"temperature,omitempty"`
	MaxTokens           int             `json:"max_tokens,omitempty"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
	TopP                float64         `json:"top_p,omitempty"`
	MaxOutputTokens     int             `json:"max_output_tokens,omitempty"`
	Timeout             float64         `json:"timeout,omitempty"`
	ResponseFormat      json.RawMessage `json:"response_format,omitempty"`
}

// Message 输入消息，ToolCalls 为 OpenAI 格式
type Message struct {
	Role       string            `json:"role"`
	Content    content.Value     `json:"content"`
	Name       string            `json:"name,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolCalls  []openai.ToolCall `json:"tool_calls,omitempty"`
}

// HasJSON reports whether raw holds a value other than JSON null.
func HasJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Timestamp accepts RFC 3339 and the zone-less layouts some backends emit.
// Unparseable input is kept in Raw.
type Timestamp struct {
	time.Time
	Raw string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		*t = Timestamp{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = Timestamp{Time: parsed, Raw: s}
			return nil
		}
	}
	*t = Timestamp{Raw: s}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		if t.Raw == "" {
			return []byte("null"), nil
		}
		return json.Marshal(t.Raw)
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// Display 本地时间展示，无法解析时原样返回
func (t Timestamp) Display() string {
	if t.Time.IsZero() {
		return t.Raw
	}
	return t.Time.Local().Format("2006-01-02 15:04:05")
}
