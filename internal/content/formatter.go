package content

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Formatter renders a block list to text. Each field renders one block
// kind; a nil field skips blocks of that kind.
type Formatter struct {
	Text       func(TextBlock) string
	ToolUse    func(ToolUseBlock) string
	ToolResult func(ToolResultBlock) string
	Image      func(ImageBlock) string
	Unknown    func(UnknownBlock) string
}

// Format renders blocks in order.
func (f Formatter) Format(blocks []Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		switch b := b.(type) {
		case TextBlock:
			if f.Text != nil {
				sb.WriteString(f.Text(b))
			}
		case ToolUseBlock:
			if f.ToolUse != nil {
				sb.WriteString(f.ToolUse(b))
			}
		case ToolResultBlock:
			if f.ToolResult != nil {
				sb.WriteString(f.ToolResult(b))
			}
		case ImageBlock:
			if f.Image != nil {
				sb.WriteString(f.Image(b))
			}
		case UnknownBlock:
			if f.Unknown != nil {
				sb.WriteString(f.Unknown(b))
			}
		}
	}
	return sb.String()
}

func toolUsed(b ToolUseBlock) string {
	return "\nTool used: " + b.Name + "\nInput: " + Compact(b.Input) + "\n"
}

// OutputFormatter renders execution output: text and tool invocations only.
var OutputFormatter = Formatter{
	Text:    func(b TextBlock) string { return b.Text + "\n" },
	ToolUse: toolUsed,
}

// InputFormatter renders structured input messages.
var InputFormatter = Formatter{
	Text:       func(b TextBlock) string { return "\n" + b.Text + "\n" },
	ToolUse:    toolUsed,
	Image:      func(ImageBlock) string { return "\n[Image]\n" },
	ToolResult: func(b ToolResultBlock) string { return "\n" + Compact(b.Content) + "\n" },
}

// FormatOutput renders an execution's output content. Text is returned
// verbatim and an array of objects goes through OutputFormatter; any other
// shape yields fallback.
func FormatOutput(v Value, fallback string) string {
	switch v.Kind() {
	case KindText:
		return v.Text()
	case KindArray:
		if !allObjects(v) {
			return fallback
		}
		blocks, _ := v.Blocks()
		return OutputFormatter.Format(blocks)
	default:
		return fallback
	}
}

// FormatInput renders structured input message content.
func FormatInput(blocks []Block) string {
	return InputFormatter.Format(blocks)
}

// FormatInputValue renders a message content value in block mode: text as
// is, arrays through InputFormatter, anything else as compact JSON.
func FormatInputValue(v Value) string {
	switch v.Kind() {
	case KindText:
		return v.Text()
	case KindArray:
		blocks, _ := v.Blocks()
		return FormatInput(blocks)
	case KindAbsent, KindNull:
		return ""
	default:
		return v.Compact()
	}
}

// allObjects reports whether every element is an object or array. Arrays
// count as objects and decode to UnknownBlock.
func allObjects(v Value) bool {
	ok := true
	gjson.ParseBytes(v.Raw()).ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() && !item.IsArray() {
			ok = false
		}
		return ok
	})
	return ok
}

// DataURI returns the data URI for an inline image.
func DataURI(b ImageBlock) string {
	return "data:image/jpeg;base64," + b.Source.Data
}
