package agent

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tomdro61/shop-pilot-sub000/models"
)

var ErrInvalidHistory = errors.New("invalid conversation history")

// BuildHistory assembles the turns for one request. When the caller resubmits
// a conversation state, only its newest message is appended to that state;
// otherwise the messages are the whole history.
func BuildHistory(messages, state []models.Turn) []models.Turn {
	if len(state) == 0 {
		return slices.Clone(messages)
	}
	history := slices.Clone(state)
	if len(messages) > 0 {
		history = append(history, messages[len(messages)-1])
	}
	return history
}

// ValidateHistory checks that turns form a sequence the model can continue:
// every batch of tool calls is answered by the very next turn with exactly one
// result per call, and the conversation ends with a user turn.
func ValidateHistory(turns []models.Turn) error {
	if len(turns) == 0 {
		return fmt.Errorf("%w: no turns", ErrInvalidHistory)
	}

	var pending []models.ToolCall
	for i, turn := range turns {
		switch turn.Role {
		case models.RoleUser:
			if len(pending) > 0 {
				return fmt.Errorf("%w: turn %d: tool calls were not answered", ErrInvalidHistory, i)
			}
		case models.RoleAssistant:
			if len(pending) > 0 {
				return fmt.Errorf("%w: turn %d: tool calls were not answered", ErrInvalidHistory, i)
			}
			calls := turn.ToolCalls()
			if err := checkToolCalls(calls); err != nil {
				return fmt.Errorf("%w: turn %d: %v", ErrInvalidHistory, i, err)
			}
			pending = calls
		case models.RoleTool:
			if len(pending) == 0 {
				return fmt.Errorf("%w: turn %d: tool results without preceding tool calls", ErrInvalidHistory, i)
			}
			if err := checkToolResults(pending, turn.ToolResults()); err != nil {
				return fmt.Errorf("%w: turn %d: %v", ErrInvalidHistory, i, err)
			}
			pending = nil
		default:
			return fmt.Errorf("%w: turn %d: unknown role %q", ErrInvalidHistory, i, turn.Role)
		}
	}

	last := turns[len(turns)-1]
	if last.Role != models.RoleUser {
		return fmt.Errorf("%w: last turn must be a user message", ErrInvalidHistory)
	}
	if strings.TrimSpace(last.PlainText()) == "" {
		return fmt.Errorf("%w: last user message is empty", ErrInvalidHistory)
	}
	return nil
}

func checkToolCalls(calls []models.ToolCall) error {
	seen := make(map[string]bool, len(calls))
	for _, call := range calls {
		if call.ID == "" || call.Name == "" {
			return errors.New("tool call without id or name")
		}
		if seen[call.ID] {
			return fmt.Errorf("duplicate tool call id %q", call.ID)
		}
		seen[call.ID] = true
	}
	return nil
}

func checkToolResults(calls []models.ToolCall, results []models.ToolResult) error {
	if len(results) != len(calls) {
		return fmt.Errorf("expected %d tool results, got %d", len(calls), len(results))
	}
	open := make(map[string]bool, len(calls))
	for _, call := range calls {
		open[call.ID] = true
	}
	for _, result := range results {
		if !open[result.ToolCallID] {
			return fmt.Errorf("tool result for unknown or repeated call id %q", result.ToolCallID)
		}
		delete(open, result.ToolCallID)
	}
	return nil
}
