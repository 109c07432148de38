package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tomdro61/shop-pilot-sub000/logging"
	"github.com/tomdro61/shop-pilot-sub000/models"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

type messagesClient interface {
	NewStreaming(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) *ssestream.Stream[anthropic.MessageStreamEventUnion]
}

// AnthropicModel streams completions from the Anthropic Messages API.
type AnthropicModel struct {
	client    messagesClient
	model     string
	maxTokens int64
}

func NewAnthropicModel(apiKey, model string, maxTokens int) *AnthropicModel {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicModel{
		client:    &client.Messages,
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

func (m *AnthropicModel) Stream(ctx context.Context, req ModelRequest) (ModelStream, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: m.maxTokens,
		Messages:  toAnthropicMessages(req.Turns),
		Tools:     toAnthropicTools(req.Tools),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	logging.FromContext(ctx).Debug("anthropic request", "model", m.model, "messages", len(params.Messages), "tools", len(params.Tools))

	return newChanStream(ctx, func(ctx context.Context, emit func(ModelChunk) error) error {
		stream := m.client.NewStreaming(ctx, params)
		defer stream.Close()

		var message anthropic.Message
		for stream.Next() {
			event := stream.Current()
			if err := message.Accumulate(event); err != nil {
				return fmt.Errorf("failed to accumulate anthropic stream: %w", err)
			}

			delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			if text, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok && text.Text != "" {
				if err := emit(ModelChunk{Text: text.Text}); err != nil {
					return err
				}
			}
		}
		if err := stream.Err(); err != nil {
			return fmt.Errorf("failed to call Anthropic API: %w", err)
		}

		turn, err := fromAnthropicMessage(message)
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Debug("anthropic response", "stop_reason", message.StopReason, "tool_calls", len(turn.ToolCalls()))
		return emit(ModelChunk{Turn: &turn})
	}), nil
}

func toAnthropicMessages(turns []models.Turn) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(turns))

	for _, turn := range turns {
		switch turn.Role {
		case models.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.PlainText())))
		case models.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if text := turn.PlainText(); text != "" {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfText: &anthropic.TextBlockParam{Text: text},
				})
			}
			for _, call := range turn.ToolCalls() {
				input := call.Input
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    call.ID,
						Name:  call.Name,
						Input: input,
					},
				})
			}
			if len(blocks) == 0 {
				continue
			}
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		case models.RoleTool:
			var blocks []anthropic.ContentBlockParamUnion
			for _, result := range turn.ToolResults() {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolResult: &anthropic.ToolResultBlockParam{
						ToolUseID: result.ToolCallID,
						IsError:   anthropic.Bool(IsErrorResult(result.Content)),
						Content: []anthropic.ToolResultBlockParamContentUnion{
							{OfText: &anthropic.TextBlockParam{Text: result.Content}},
						},
					},
				})
			}
			if len(blocks) == 0 {
				continue
			}
			messages = append(messages, anthropic.NewUserMessage(blocks...))
		}
	}

	return messages
}

func toAnthropicTools(defs []ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		schema := anthropic.ToolInputSchemaParam{Properties: def.Schema.Properties}
		if len(def.Schema.Required) > 0 {
			schema.ExtraFields = map[string]any{"required": def.Schema.Required}
		}
		tools = append(tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        def.Name,
				Description: anthropic.String(def.Description),
				InputSchema: schema,
			},
		})
	}
	return tools
}

func fromAnthropicMessage(message anthropic.Message) (models.Turn, error) {
	var text string
	var calls []models.ToolCall

	for _, block := range message.Content {
		switch block := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += block.Text
		case anthropic.ToolUseBlock:
			input, err := decodeToolInput(block.Input)
			if err != nil {
				return models.Turn{}, fmt.Errorf("tool call %s has invalid input: %w", block.Name, err)
			}
			calls = append(calls, models.ToolCall{ID: block.ID, Name: block.Name, Input: input})
		}
	}

	return models.NewAssistantTurn(text, calls), nil
}

func decodeToolInput(raw []byte) (map[string]any, error) {
	input := map[string]any{}
	if len(raw) == 0 {
		return input, nil
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, err
	}
	if input == nil {
		input = map[string]any{}
	}
	return input, nil
}
