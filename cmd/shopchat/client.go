package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tomdro61/shop-pilot-sub000/eventstream"
	"github.com/tomdro61/shop-pilot-sub000/models"
)

var errStreamIncomplete = errors.New("stream ended before done event")

type chatClient struct {
	baseURL string
	token   string
	user    string
	http    *http.Client
}

// send posts one user message with the carried state and prints the reply as
// it streams. It returns the new conversation state, or state unchanged when
// the server ended the turn without one.
func (c *chatClient) send(ctx context.Context, state []models.Turn, message string, out io.Writer) ([]models.Turn, error) {
	body, err := json.Marshal(models.AgentRequest{
		Messages:          []models.Turn{models.NewUserTurn(message)},
		ConversationState: state,
	})
	if err != nil {
		return state, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.baseURL, "/")+"/agent/chat", bytes.NewReader(body))
	if err != nil {
		return state, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if c.user != "" {
		req.Header.Set("X-User-ID", c.user)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return state, fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return state, responseError(resp)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		return state, fmt.Errorf("request was not accepted: %s", readSnippet(resp.Body))
	}

	next := state
	decoder := eventstream.NewDecoder(resp.Body)
	for {
		event, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			return next, errStreamIncomplete
		}
		if err != nil {
			return next, fmt.Errorf("failed to read stream: %w", err)
		}

		switch event.Name {
		case models.EventText:
			var p models.TextPayload
			if event.Unmarshal(&p) == nil {
				fmt.Fprint(out, p.Text)
			}
		case models.EventToolStart:
			var p models.ToolPayload
			if event.Unmarshal(&p) == nil {
				fmt.Fprintf(out, "\n  [%s]\n", p.Tool)
			}
		case models.EventConversationState:
			var p models.ConversationStatePayload
			if err := event.Unmarshal(&p); err != nil {
				return state, fmt.Errorf("failed to decode conversation state: %w", err)
			}
			next = p.ConversationState
		case models.EventError:
			var p models.ErrorPayload
			if event.Unmarshal(&p) == nil {
				fmt.Fprintf(out, "\nerror: %s", p.Message)
			}
		case models.EventDone:
			fmt.Fprintln(out)
			return next, nil
		}
	}
}

func responseError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}

func readSnippet(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(data))
}
