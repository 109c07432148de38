package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/tomdro61/shop-pilot-sub000/logging"
	"github.com/tomdro61/shop-pilot-sub000/models"

	"github.com/oklog/ulid/v2"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIModel streams completions from OpenAI chat models through langchaingo.
type OpenAIModel struct {
	llm       llms.Model
	maxTokens int
}

func NewOpenAIModel(apiKey, model string, maxTokens int) (*OpenAIModel, error) {
	llm, err := openai.New(openai.WithToken(apiKey), openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return &OpenAIModel{llm: llm, maxTokens: maxTokens}, nil
}

func (m *OpenAIModel) Stream(ctx context.Context, req ModelRequest) (ModelStream, error) {
	messages := toLangchainMessages(req.System, req.Turns)
	tools := toLangchainTools(req.Tools)

	logging.FromContext(ctx).Debug("openai request", "messages", len(messages), "tools", len(tools))

	return newChanStream(ctx, func(ctx context.Context, emit func(ModelChunk) error) error {
		resp, err := m.llm.GenerateContent(ctx, messages,
			llms.WithTools(tools),
			llms.WithMaxTokens(m.maxTokens),
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				if len(chunk) == 0 || isToolCallChunk(chunk) {
					return nil
				}
				return emit(ModelChunk{Text: string(chunk)})
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to call OpenAI API: %w", err)
		}
		if len(resp.Choices) == 0 {
			return ErrNoTurn
		}

		turn, err := fromLangchainChoice(resp.Choices[0])
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Debug("openai response", "stop_reason", resp.Choices[0].StopReason, "tool_calls", len(turn.ToolCalls()))
		return emit(ModelChunk{Turn: &turn})
	}), nil
}

// isToolCallChunk reports whether a streamed chunk is a serialized tool call
// list rather than assistant text.
func isToolCallChunk(chunk []byte) bool {
	trimmed := bytes.TrimSpace(chunk)
	if !bytes.HasPrefix(trimmed, []byte("[{")) {
		return false
	}
	var calls []map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &calls); err != nil || len(calls) == 0 {
		return false
	}
	_, ok := calls[0]["function"]
	return ok
}

func toLangchainMessages(system string, turns []models.Turn) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(turns)+1)
	if system != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}

	for _, turn := range turns {
		switch turn.Role {
		case models.RoleUser:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, turn.PlainText()))
		case models.RoleAssistant:
			var parts []llms.ContentPart
			if text := turn.PlainText(); text != "" {
				parts = append(parts, llms.TextContent{Text: text})
			}
			for _, call := range turn.ToolCalls() {
				args, err := json.Marshal(call.Input)
				if err != nil || call.Input == nil {
					args = []byte("{}")
				}
				parts = append(parts, llms.ToolCall{
					ID:   call.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      call.Name,
						Arguments: string(args),
					},
				})
			}
			if len(parts) == 0 {
				continue
			}
			messages = append(messages, llms.MessageContent{Role: llms.ChatMessageTypeAI, Parts: parts})
		case models.RoleTool:
			// OpenAI tool messages each answer exactly one call id.
			for _, result := range turn.ToolResults() {
				messages = append(messages, llms.MessageContent{
					Role: llms.ChatMessageTypeTool,
					Parts: []llms.ContentPart{llms.ToolCallResponse{
						ToolCallID: result.ToolCallID,
						Content:    result.Content,
					}},
				})
			}
		}
	}

	return messages
}

func toLangchainTools(defs []ToolDefinition) []llms.Tool {
	tools := make([]llms.Tool, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters(),
			},
		})
	}
	return tools
}

func fromLangchainChoice(choice *llms.ContentChoice) (models.Turn, error) {
	calls := make([]models.ToolCall, 0, len(choice.ToolCalls))
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		input, err := decodeToolInput([]byte(tc.FunctionCall.Arguments))
		if err != nil {
			return models.Turn{}, fmt.Errorf("tool call %s has invalid arguments: %w", tc.FunctionCall.Name, err)
		}
		id := tc.ID
		if id == "" {
			id = "call_" + ulid.Make().String()
		}
		calls = append(calls, models.ToolCall{ID: id, Name: tc.FunctionCall.Name, Input: input})
	}
	return models.NewAssistantTurn(choice.Content, calls), nil
}
