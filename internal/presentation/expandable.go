package presentation

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/lk2023060901/execution-console/internal/content"
)

// DefaultCollapseLines is used when ui.collapse_lines is not positive.
const DefaultCollapseLines = 6

// Collapse keeps the first n lines of text and reports how many were hidden.
func Collapse(text string, n int) (string, int) {
	if n <= 0 {
		n = DefaultCollapseLines
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= n {
		return text, 0
	}
	return strings.Join(lines[:n], "\n"), len(lines) - n
}

// MoreLines is the hint appended to a collapsed message.
func MoreLines(hidden int) string {
	return fmt.Sprintf("… (%d more lines)", hidden)
}

// Summary 折叠状态下 JSON 面板的单行摘要
func Summary(raw []byte, width int) string {
	res := gjson.ParseBytes(raw)
	switch {
	case res.IsObject():
		n := 0
		res.ForEach(func(_, _ gjson.Result) bool { n++; return true })
		return truncate(fmt.Sprintf("{…} %d keys  %s", n, content.Compact(raw)), width)
	case res.IsArray():
		return truncate(fmt.Sprintf("[…] %d items  %s", len(res.Array()), content.Compact(raw)), width)
	default:
		return truncate(content.Compact(raw), width)
	}
}

// Pluck 按 gjson 路径取子值，路径为空时返回原值
func Pluck(raw []byte, path string) ([]byte, bool) {
	if path == "" {
		return raw, true
	}
	res := gjson.GetBytes(raw, path)
	if !res.Exists() {
		return nil, false
	}
	return []byte(res.Raw), true
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
