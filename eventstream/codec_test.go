package eventstream

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"
	"testing/iotest"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func mustEncode(t testing.TB, name string, payload any) []byte {
	t.Helper()
	frame, err := Encode(name, payload)
	if err != nil {
		t.Fatalf("Encode(%q) failed: %v", name, err)
	}
	return frame
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		event    string
		payload  any
		expected string
		wantErr  bool
	}{
		{
			name:     "text event",
			event:    "text",
			payload:  map[string]string{"text": "Hello"},
			expected: "event: text\ndata: {\"text\":\"Hello\"}\n\n",
		},
		{
			name:     "empty payload",
			event:    "done",
			payload:  struct{}{},
			expected: "event: done\ndata: {}\n\n",
		},
		{
			name:     "newlines in payload stay on one data line",
			event:    "text",
			payload:  map[string]string{"text": "line one\nline two"},
			expected: "event: text\ndata: {\"text\":\"line one\\nline two\"}\n\n",
		},
		{
			name:    "empty event name",
			event:   "",
			payload: struct{}{},
			wantErr: true,
		},
		{
			name:    "event name with newline",
			event:   "te\nxt",
			payload: struct{}{},
			wantErr: true,
		},
		{
			name:    "unmarshalable payload",
			event:   "text",
			payload: map[string]any{"bad": make(chan int)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := Encode(tt.event, tt.payload)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Encode() expected error, got frame %q", frame)
				}
				return
			}
			if err != nil {
				t.Fatalf("Encode() unexpected error: %v", err)
			}
			if string(frame) != tt.expected {
				t.Errorf("Encode() = %q, expected %q", frame, tt.expected)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedNames []string
		expectedRest  string
	}{
		{
			name:          "single frame",
			input:         "event: text\ndata: {\"text\":\"hi\"}\n\n",
			expectedNames: []string{"text"},
		},
		{
			name:          "partial trailing frame is returned as rest",
			input:         "event: text\ndata: {\"text\":\"hi\"}\n\nevent: done\ndata: {",
			expectedNames: []string{"text"},
			expectedRest:  "event: done\ndata: {",
		},
		{
			name:          "crlf line endings",
			input:         "event: tool_start\r\ndata: {\"tool\":\"get_job\"}\r\n\r\n",
			expectedNames: []string{"tool_start"},
		},
		{
			name:          "comment lines are ignored",
			input:         ": keep-alive\nevent: done\ndata: {}\n\n",
			expectedNames: []string{"done"},
		},
		{
			name:          "missing event name defaults to message",
			input:         "data: {\"a\":1}\n\n",
			expectedNames: []string{"message"},
		},
		{
			name:          "frame without data is skipped",
			input:         "event: ping\n\nevent: done\ndata: {}\n\n",
			expectedNames: []string{"done"},
		},
		{
			name:          "multi-line data is joined",
			input:         "event: text\ndata: {\"text\":\ndata: \"x\"}\n\n",
			expectedNames: []string{"text"},
		},
		{
			name:         "empty input",
			input:        "",
			expectedRest: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, rest := Decode([]byte(tt.input))

			names := make([]string, 0, len(events))
			for _, e := range events {
				names = append(names, e.Name)
			}
			if len(names) != len(tt.expectedNames) {
				t.Fatalf("Decode() names = %v, expected %v", names, tt.expectedNames)
			}
			for i := range names {
				if names[i] != tt.expectedNames[i] {
					t.Errorf("Decode() names[%d] = %q, expected %q", i, names[i], tt.expectedNames[i])
				}
			}
			if string(rest) != tt.expectedRest {
				t.Errorf("Decode() rest = %q, expected %q", rest, tt.expectedRest)
			}
		})
	}
}

func TestDecodeDropsMalformedEvent(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(mustEncode(t, "text", map[string]string{"text": "before"}))
	stream.WriteString("event: text\ndata: {not json}\n\n")
	stream.Write(mustEncode(t, "tool_start", map[string]string{"tool": "get_customer"}))
	stream.Write(mustEncode(t, "done", struct{}{}))

	events, rest := Decode(stream.Bytes())
	if len(rest) != 0 {
		t.Errorf("Decode() rest = %q, expected empty", rest)
	}

	expected := []string{"text", "tool_start", "done"}
	if len(events) != len(expected) {
		t.Fatalf("Decode() returned %d events, expected %d", len(events), len(expected))
	}
	for i, name := range expected {
		if events[i].Name != name {
			t.Errorf("events[%d].Name = %q, expected %q", i, events[i].Name, name)
		}
	}

	var text struct {
		Text string `json:"text"`
	}
	if err := events[0].Unmarshal(&text); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if text.Text != "before" {
		t.Errorf("first event text = %q, expected %q", text.Text, "before")
	}
}

func TestDecodeSplitAtEveryOffset(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(mustEncode(t, "text", map[string]string{"text": "Creating customer"}))
	stream.Write(mustEncode(t, "tool_start", map[string]string{"tool": "create_customer", "id": "toolu_1"}))
	stream.Write(mustEncode(t, "tool_result", map[string]string{"tool": "create_customer", "id": "toolu_1"}))
	stream.Write(mustEncode(t, "done", struct{}{}))
	whole := stream.Bytes()

	expected, _ := Decode(whole)

	for offset := 0; offset <= len(whole); offset++ {
		first, rest := Decode(append([]byte(nil), whole[:offset]...))
		second, tail := Decode(append(rest, whole[offset:]...))
		got := append(first, second...)

		if len(tail) != 0 {
			t.Fatalf("offset %d: unexpected tail %q", offset, tail)
		}
		if !reflect.DeepEqual(got, expected) {
			t.Fatalf("offset %d: decoded %v, expected %v", offset, got, expected)
		}
	}
}

func TestDecodeSplitProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	names := []string{"text", "tool_start", "tool_result", "error", "done"}

	properties.Property("splitting a stream across two reads yields the same events", prop.ForAll(
		func(texts []string, split int) bool {
			var stream bytes.Buffer
			for i, text := range texts {
				frame, err := Encode(names[i%len(names)], map[string]string{"text": text})
				if err != nil {
					return false
				}
				stream.Write(frame)
			}
			whole := stream.Bytes()
			offset := 0
			if len(whole) > 0 {
				offset = split % (len(whole) + 1)
			}

			expected, _ := Decode(whole)
			first, rest := Decode(append([]byte(nil), whole[:offset]...))
			second, tail := Decode(append(rest, whole[offset:]...))

			return len(tail) == 0 && reflect.DeepEqual(append(first, second...), expected) &&
				len(expected) == len(texts)
		},
		gen.SliceOf(gen.AnyString()),
		gen.IntRange(0, 1<<16),
	))

	properties.TestingRun(t)
}

func TestDecoderReadsOneByteAtATime(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(mustEncode(t, "text", map[string]string{"text": "Hi"}))
	stream.WriteString("event: text\ndata: nope\n\n")
	stream.Write(mustEncode(t, "done", struct{}{}))

	decoder := NewDecoder(iotest.OneByteReader(bytes.NewReader(stream.Bytes())))

	var names []string
	for {
		event, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next() failed: %v", err)
		}
		names = append(names, event.Name)
	}

	if !reflect.DeepEqual(names, []string{"text", "done"}) {
		t.Errorf("decoded names = %v, expected [text done]", names)
	}
}
