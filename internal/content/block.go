// Package content decodes tagged message content blocks and renders them
// to plain text.
package content

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Block tags as they appear on the wire.
const (
	TypeText       = "text"
	TypeToolUse    = "tool_use"
	TypeToolResult = "tool_result"
	TypeImage      = "image"
)

// Block is one tagged unit of message content. The set of implementations is
// closed: TextBlock, ToolUseBlock, ToolResultBlock, ImageBlock and
// UnknownBlock.
type Block interface {
	blockType() string
}

// TextBlock is plain text.
type TextBlock struct {
	Text string
}

// ToolUseBlock is a tool invocation requested by the model.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input json.RawMessage // nil when the field is absent
}

// ToolResultBlock carries the result of a tool invocation.
type ToolResultBlock struct {
	ToolUseID string
	Content   json.RawMessage // nil when the field is absent
	IsError   bool
}

// ImageSource describes inline image data.
type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// ImageBlock is an inline image.
type ImageBlock struct {
	Source ImageSource
}

// UnknownBlock is any element whose tag is not recognised, including
// elements that are not objects or have no string tag.
type UnknownBlock struct {
	Type string
	Raw  json.RawMessage
}

func (TextBlock) blockType() string       { return TypeText }
func (ToolUseBlock) blockType() string    { return TypeToolUse }
func (ToolResultBlock) blockType() string { return TypeToolResult }
func (ImageBlock) blockType() string      { return TypeImage }
func (b UnknownBlock) blockType() string  { return b.Type }

// DecodeBlock decodes a single element. It never fails: anything it cannot
// classify becomes an UnknownBlock holding the raw bytes.
func DecodeBlock(raw json.RawMessage) Block {
	r := gjson.ParseBytes(raw)
	if !r.IsObject() {
		return UnknownBlock{Raw: raw}
	}

	tag := r.Get("type")
	if tag.Type != gjson.String {
		return UnknownBlock{Raw: raw}
	}

	switch tag.Str {
	case TypeText:
		return TextBlock{Text: r.Get("text").String()}
	case TypeToolUse:
		return ToolUseBlock{
			ID:    r.Get("id").String(),
			Name:  r.Get("name").String(),
			Input: rawField(r, "input"),
		}
	case TypeToolResult:
		return ToolResultBlock{
			ToolUseID: r.Get("tool_use_id").String(),
			Content:   rawField(r, "content"),
			IsError:   r.Get("is_error").Bool(),
		}
	case TypeImage:
		src := r.Get("source")
		return ImageBlock{Source: ImageSource{
			Type:      src.Get("type").String(),
			MediaType: src.Get("media_type").String(),
			Data:      src.Get("data").String(),
		}}
	default:
		return UnknownBlock{Type: tag.Str, Raw: raw}
	}
}

// DecodeBlocks decodes a JSON array of blocks. ok is false when raw is not
// an array.
func DecodeBlocks(raw json.RawMessage) (blocks []Block, ok bool) {
	r := gjson.ParseBytes(raw)
	if !r.IsArray() {
		return nil, false
	}
	blocks = []Block{}
	r.ForEach(func(_, value gjson.Result) bool {
		blocks = append(blocks, DecodeBlock(json.RawMessage(value.Raw)))
		return true
	})
	return blocks, true
}

func rawField(r gjson.Result, key string) json.RawMessage {
	v := r.Get(key)
	if !v.Exists() {
		return nil
	}
	return json.RawMessage(v.Raw)
}
