package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomdro61/shop-pilot-sub000/eventstream"
	"github.com/tomdro61/shop-pilot-sub000/models"
)

// fakeServer echoes every message and records the carried state it was sent.
type fakeServer struct {
	received [][]models.Turn
	failNext bool
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer secret" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
		return
	}

	var req models.AgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.received = append(f.received, req.ConversationState)

	stream, _ := eventstream.NewWriter(w)
	stream.Start()
	last := req.Messages[len(req.Messages)-1]

	if f.failNext {
		f.failNext = false
		_ = stream.Send(models.EventError, models.ErrorPayload{Message: "Reached maximum tool call iterations. Please try again with a simpler request."})
		_ = stream.Send(models.EventDone, models.DonePayload{})
		return
	}

	_ = stream.Send(models.EventToolStart, models.ToolPayload{Tool: "search_customers", ID: "t1"})
	_ = stream.Send(models.EventText, models.TextPayload{Text: "echo: " + last.PlainText()})
	state := append(append(req.ConversationState, last), models.NewAssistantTurn("echo: "+last.PlainText(), nil))
	_ = stream.Send(models.EventConversationState, models.ConversationStatePayload{ConversationState: state})
	_ = stream.Send(models.EventDone, models.DonePayload{})
}

func TestSendCarriesState(t *testing.T) {
	fake := &fakeServer{}
	server := httptest.NewServer(fake)
	defer server.Close()

	client := &chatClient{baseURL: server.URL, token: "secret", http: server.Client()}
	var out bytes.Buffer

	state, err := client.send(context.Background(), nil, "find Maria", &out)
	if err != nil {
		t.Fatalf("send() failed: %v", err)
	}
	if len(state) != 2 {
		t.Fatalf("state has %d turns, expected 2", len(state))
	}
	if !strings.Contains(out.String(), "echo: find Maria") || !strings.Contains(out.String(), "[search_customers]") {
		t.Errorf("output = %q", out.String())
	}

	state, err = client.send(context.Background(), state, "and her car", &out)
	if err != nil {
		t.Fatalf("send() failed: %v", err)
	}
	if len(state) != 4 {
		t.Errorf("state has %d turns, expected 4", len(state))
	}
	if len(fake.received[1]) != 2 {
		t.Errorf("second request carried %d turns, expected 2", len(fake.received[1]))
	}
}

func TestSendKeepsStateOnError(t *testing.T) {
	fake := &fakeServer{failNext: true}
	server := httptest.NewServer(fake)
	defer server.Close()

	client := &chatClient{baseURL: server.URL, token: "secret", http: server.Client()}
	prior := []models.Turn{models.NewUserTurn("hi"), models.NewAssistantTurn("hello", nil)}
	var out bytes.Buffer

	state, err := client.send(context.Background(), prior, "do everything", &out)
	if err != nil {
		t.Fatalf("send() failed: %v", err)
	}
	if len(state) != len(prior) {
		t.Errorf("state has %d turns, expected the prior %d", len(state), len(prior))
	}
	if !strings.Contains(out.String(), "error: Reached maximum tool call iterations") {
		t.Errorf("output = %q", out.String())
	}
}

func TestSendReportsRejection(t *testing.T) {
	server := httptest.NewServer(&fakeServer{})
	defer server.Close()

	client := &chatClient{baseURL: server.URL, token: "wrong", http: server.Client()}
	_, err := client.send(context.Background(), nil, "hi", &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "Unauthorized") {
		t.Errorf("send() error = %v, expected 401 Unauthorized", err)
	}
}

func TestReplResetAndQuit(t *testing.T) {
	fake := &fakeServer{}
	server := httptest.NewServer(fake)
	defer server.Close()

	client := &chatClient{baseURL: server.URL, token: "secret", http: server.Client()}
	input := strings.NewReader("one\n\n/reset\ntwo\n/quit\nnever sent\n")
	var out bytes.Buffer

	if err := repl(context.Background(), client, time.Minute, input, &out); err != nil {
		t.Fatalf("repl() failed: %v", err)
	}
	if len(fake.received) != 2 {
		t.Fatalf("server received %d requests, expected 2", len(fake.received))
	}
	if len(fake.received[1]) != 0 {
		t.Errorf("request after /reset carried %d turns", len(fake.received[1]))
	}
	if !strings.Contains(out.String(), "conversation cleared") {
		t.Errorf("output = %q", out.String())
	}
}
