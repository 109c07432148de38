package models

const (
	EventText              = "text"
	EventToolStart         = "tool_start"
	EventToolResult        = "tool_result"
	EventConversationState = "conversation_state"
	EventError             = "error"
	EventDone              = "done"
)

// StreamEvent is one unit of the server-to-caller streaming protocol.
type StreamEvent struct {
	Type    string
	Text    string
	Tool    string
	CallID  string
	Message string
	State   []Turn
}

type TextPayload struct {
	Text string `json:"text"`
}

type ToolPayload struct {
	Tool string `json:"tool"`
	ID   string `json:"id,omitempty"`
}

type ConversationStatePayload struct {
	ConversationState []Turn `json:"conversationState"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type DonePayload struct{}

func TextEvent(text string) StreamEvent {
	return StreamEvent{Type: EventText, Text: text}
}

func ToolStartEvent(call ToolCall) StreamEvent {
	return StreamEvent{Type: EventToolStart, Tool: call.Name, CallID: call.ID}
}

func ToolResultEvent(call ToolCall) StreamEvent {
	return StreamEvent{Type: EventToolResult, Tool: call.Name, CallID: call.ID}
}

func ConversationStateEvent(turns []Turn) StreamEvent {
	return StreamEvent{Type: EventConversationState, State: turns}
}

func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Type: EventError, Message: message}
}

func DoneEvent() StreamEvent {
	return StreamEvent{Type: EventDone}
}

// Payload returns the JSON body carried in the event's data field.
func (e StreamEvent) Payload() any {
	switch e.Type {
	case EventText:
		return TextPayload{Text: e.Text}
	case EventToolStart, EventToolResult:
		return ToolPayload{Tool: e.Tool, ID: e.CallID}
	case EventConversationState:
		state := e.State
		if state == nil {
			state = []Turn{}
		}
		return ConversationStatePayload{ConversationState: state}
	case EventError:
		return ErrorPayload{Message: e.Message}
	default:
		return DonePayload{}
	}
}
