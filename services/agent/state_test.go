package agent

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/tomdro61/shop-pilot-sub000/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupTurns() []models.Turn {
	call := models.ToolCall{ID: "toolu_1", Name: "search_customers", Input: map[string]any{"query": "Rivera"}}
	return []models.Turn{
		models.NewUserTurn("Find Maria Rivera"),
		models.NewAssistantTurn("Looking her up.", []models.ToolCall{call}),
		models.NewToolResultTurn([]models.ToolResult{{ToolCallID: "toolu_1", Content: `{"count":1}`}}),
		{Role: models.RoleAssistant, Content: models.TextContent("Found Maria Rivera (ID 12).")},
	}
}

func TestBuildHistory(t *testing.T) {
	state := lookupTurns()
	next := models.NewUserTurn("What does she drive?")

	t.Run("state plus newest message", func(t *testing.T) {
		history := BuildHistory([]models.Turn{models.NewUserTurn("ignored"), next}, state)
		require.Len(t, history, len(state)+1)
		assert.Equal(t, next, history[len(history)-1])
	})

	t.Run("messages only", func(t *testing.T) {
		messages := []models.Turn{models.NewUserTurn("hi"), {Role: models.RoleAssistant, Content: models.TextContent("hello")}, next}
		assert.Equal(t, messages, BuildHistory(messages, nil))
	})

	t.Run("does not alias the caller's state", func(t *testing.T) {
		history := BuildHistory([]models.Turn{next}, state)
		history[0] = models.NewUserTurn("changed")
		assert.Equal(t, "Find Maria Rivera", state[0].PlainText())
	})
}

func TestValidateHistory(t *testing.T) {
	valid := append(lookupTurns(), models.NewUserTurn("What does she drive?"))

	twoCalls := []models.ToolCall{
		{ID: "a", Name: "get_job", Input: map[string]any{"job_id": 1}},
		{ID: "b", Name: "get_job", Input: map[string]any{"job_id": 2}},
	}

	tests := []struct {
		name    string
		turns   []models.Turn
		wantErr bool
	}{
		{name: "single user message", turns: []models.Turn{models.NewUserTurn("hi")}},
		{name: "resumed conversation", turns: valid},
		{name: "empty", turns: nil, wantErr: true},
		{name: "ends with assistant", turns: lookupTurns(), wantErr: true},
		{name: "blank last message", turns: []models.Turn{models.NewUserTurn("  ")}, wantErr: true},
		{name: "unknown role", turns: []models.Turn{{Role: "system", Content: models.TextContent("x")}, models.NewUserTurn("hi")}, wantErr: true},
		{
			name: "unanswered tool calls",
			turns: []models.Turn{
				models.NewUserTurn("jobs?"),
				models.NewAssistantTurn("", twoCalls),
				models.NewUserTurn("hello?"),
			},
			wantErr: true,
		},
		{
			name: "missing one result",
			turns: []models.Turn{
				models.NewUserTurn("jobs?"),
				models.NewAssistantTurn("", twoCalls),
				models.NewToolResultTurn([]models.ToolResult{{ToolCallID: "a", Content: "{}"}}),
				models.NewUserTurn("and?"),
			},
			wantErr: true,
		},
		{
			name: "result for wrong id",
			turns: []models.Turn{
				models.NewUserTurn("jobs?"),
				models.NewAssistantTurn("", twoCalls),
				models.NewToolResultTurn([]models.ToolResult{{ToolCallID: "a", Content: "{}"}, {ToolCallID: "c", Content: "{}"}}),
				models.NewUserTurn("and?"),
			},
			wantErr: true,
		},
		{
			name: "orphan tool turn",
			turns: []models.Turn{
				models.NewUserTurn("jobs?"),
				models.NewToolResultTurn([]models.ToolResult{{ToolCallID: "a", Content: "{}"}}),
				models.NewUserTurn("and?"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHistory(tt.turns)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidHistory)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConversationStateSurvivesTheWire(t *testing.T) {
	state := lookupTurns()

	stateJSON, err := json.Marshal(state)
	require.NoError(t, err)

	body := fmt.Sprintf(`{"messages":[{"role":"user","content":"What does she drive?"}],"conversationState":%s}`, stateJSON)

	var decoded models.AgentRequest
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))

	history := BuildHistory(decoded.Messages, decoded.ConversationState)
	require.NoError(t, ValidateHistory(history))
	require.Len(t, history, len(state)+1)
	assert.Equal(t, state[1].ToolCalls()[0].ID, history[1].ToolCalls()[0].ID)
	assert.Equal(t, `{"count":1}`, history[2].ToolResults()[0].Content)
}
