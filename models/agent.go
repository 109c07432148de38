package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

const (
	BlockTypeText       = "text"
	BlockTypeToolUse    = "tool_use"
	BlockTypeToolResult = "tool_result"
)

// Turn is one role-tagged unit of conversation history. It is the element type
// of the conversation state handed back to callers between requests.
type Turn struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

// Content is either plain text or a list of content blocks. Text-only content
// is encoded on the wire as a JSON string.
type Content struct {
	Text   string
	Blocks []ContentBlock
}

type ContentBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type ToolCall struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
}

func TextContent(text string) Content {
	return Content{Text: text}
}

func BlockContent(blocks ...ContentBlock) Content {
	return Content{Blocks: blocks}
}

func NewUserTurn(text string) Turn {
	return Turn{Role: RoleUser, Content: TextContent(text)}
}

// NewAssistantTurn builds an assistant turn from its text and requested tool calls.
// A turn without tool calls keeps the plain text encoding.
func NewAssistantTurn(text string, calls []ToolCall) Turn {
	if len(calls) == 0 {
		return Turn{Role: RoleAssistant, Content: TextContent(text)}
	}
	blocks := make([]ContentBlock, 0, len(calls)+1)
	if text != "" {
		blocks = append(blocks, ContentBlock{Type: BlockTypeText, Text: text})
	}
	for _, call := range calls {
		blocks = append(blocks, ContentBlock{
			Type:  BlockTypeToolUse,
			ID:    call.ID,
			Name:  call.Name,
			Input: call.Input,
		})
	}
	return Turn{Role: RoleAssistant, Content: BlockContent(blocks...)}
}

func NewToolResultTurn(results []ToolResult) Turn {
	blocks := make([]ContentBlock, 0, len(results))
	for _, result := range results {
		blocks = append(blocks, ContentBlock{
			Type:      BlockTypeToolResult,
			ToolUseID: result.ToolCallID,
			Content:   result.Content,
		})
	}
	return Turn{Role: RoleTool, Content: BlockContent(blocks...)}
}

// PlainText concatenates the text of the turn, ignoring tool blocks.
func (t Turn) PlainText() string {
	if len(t.Content.Blocks) == 0 {
		return t.Content.Text
	}
	var buf bytes.Buffer
	for _, block := range t.Content.Blocks {
		if block.Type == BlockTypeText {
			buf.WriteString(block.Text)
		}
	}
	return buf.String()
}

func (t Turn) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, block := range t.Content.Blocks {
		if block.Type != BlockTypeToolUse {
			continue
		}
		calls = append(calls, ToolCall{ID: block.ID, Name: block.Name, Input: block.Input})
	}
	return calls
}

func (t Turn) ToolResults() []ToolResult {
	var results []ToolResult
	for _, block := range t.Content.Blocks {
		if block.Type != BlockTypeToolResult {
			continue
		}
		results = append(results, ToolResult{ToolCallID: block.ToolUseID, Content: block.Content})
	}
	return results
}

func (c Content) MarshalJSON() ([]byte, error) {
	if len(c.Blocks) == 0 {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Blocks)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = Content{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*c = Content{Text: text}
		return nil
	case '[':
		var blocks []ContentBlock
		if err := json.Unmarshal(trimmed, &blocks); err != nil {
			return err
		}
		*c = Content{Blocks: blocks}
		return nil
	default:
		return fmt.Errorf("content must be a string or an array of blocks")
	}
}

type AgentRequest struct {
	Messages          []Turn `json:"messages"`
	ConversationState []Turn `json:"conversationState,omitempty"`
}
