package biz

import (
	"encoding/json"
	"strings"

	"github.com/samber/lo"

	"github.com/lk2023060901/execution-console/internal/content"
	apperrors "github.com/lk2023060901/execution-console/internal/pkg/errors"
)

// MessageContent 将一条消息渲染为聊天气泡文本
//
// 结构化内容输出紧凑 JSON；否则在文本后依次追加每个工具调用及其格式化参数。
// 工具调用参数不是合法 JSON 时返回 ErrMalformedData。
func MessageContent(m Message) (string, error) {
	if m.Content.IsStructured() {
		return m.Content.Compact(), nil
	}

	var sb strings.Builder
	switch m.Content.Kind() {
	case content.KindText:
		sb.WriteString(m.Content.Text())
	case content.KindScalar:
		sb.WriteString(m.Content.Compact())
	}

	for _, call := range m.ToolCalls {
		args, err := content.Pretty(json.RawMessage(call.Function.Arguments))
		if err != nil {
			return "", apperrors.Wrapf(err, apperrors.ErrMalformedData,
				"tool call %q has invalid arguments", call.Function.Name)
		}
		sb.WriteString("\n\nTool Call: ")
		sb.WriteString(call.Function.Name)
		sb.WriteString("\nArguments:\n")
		sb.WriteString(args)
	}
	return sb.String(), nil
}

// ResolveSystemPrompt 显式 system_prompt 优先，其次第一条 system 消息
func ResolveSystemPrompt(e *Execution) (string, bool) {
	if e == nil {
		return "", false
	}
	if e.SystemPrompt != "" {
		return e.SystemPrompt, true
	}

	m, ok := lo.Find(e.InputMessages, func(m Message) bool {
		return m.Role == RoleSystem
	})
	if !ok {
		return "", false
	}

	switch m.Content.Kind() {
	case content.KindText:
		return m.Content.Text(), m.Content.Text() != ""
	case content.KindAbsent, content.KindNull:
		return "", false
	default:
		return m.Content.Compact(), true
	}
}

// DisplayMessages 去掉所有 system 消息，保持原有顺序
func DisplayMessages(msgs []Message) []Message {
	return lo.Filter(msgs, func(m Message, _ int) bool {
		return m.Role != RoleSystem
	})
}
