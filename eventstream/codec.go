// Package eventstream implements the named server-sent-event framing used by
// the agent chat endpoint: `event: <name>\ndata: <json>\n\n`.
package eventstream

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const defaultEventName = "message"

type Event struct {
	Name string
	Data json.RawMessage
}

// Unmarshal decodes the event's JSON data into v.
func (e Event) Unmarshal(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Encode renders one complete frame. The payload is marshalled to a single
// line of JSON so the frame never needs multi-line data fields.
func Encode(name string, payload any) ([]byte, error) {
	if name == "" || bytes.ContainsAny([]byte(name), "\r\n") {
		return nil, fmt.Errorf("invalid event name %q", name)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", name, err)
	}

	frame := make([]byte, 0, len(name)+len(data)+16)
	frame = append(frame, "event: "...)
	frame = append(frame, name...)
	frame = append(frame, "\ndata: "...)
	frame = append(frame, data...)
	frame = append(frame, "\n\n"...)
	return frame, nil
}

// Decode parses every complete frame in buf and returns the bytes of a
// trailing incomplete frame untouched, so the caller can prepend them to the
// next read. Frames whose data is not valid JSON are dropped.
func Decode(buf []byte) ([]Event, []byte) {
	var events []Event
	for {
		end, sepLen := frameBoundary(buf)
		if end < 0 {
			return events, buf
		}

		if event, ok := parseFrame(buf[:end]); ok {
			events = append(events, event)
		}
		buf = buf[end+sepLen:]
	}
}

// frameBoundary finds the first blank line, accepting LF and CRLF endings.
func frameBoundary(buf []byte) (int, int) {
	lf := bytes.Index(buf, []byte("\n\n"))
	crlf := bytes.Index(buf, []byte("\r\n\r\n"))

	switch {
	case lf < 0 && crlf < 0:
		return -1, 0
	case crlf < 0 || (lf >= 0 && lf < crlf):
		return lf, 2
	default:
		return crlf, 4
	}
}

func parseFrame(frame []byte) (Event, bool) {
	name := ""
	var data [][]byte

	for _, line := range bytes.Split(frame, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 || line[0] == ':' {
			continue
		}

		field, value, _ := bytes.Cut(line, []byte(":"))
		value = bytes.TrimPrefix(value, []byte(" "))

		switch string(field) {
		case "event":
			name = string(value)
		case "data":
			data = append(data, value)
		}
	}

	if len(data) == 0 {
		return Event{}, false
	}

	payload := bytes.Join(data, []byte("\n"))
	if !json.Valid(payload) {
		return Event{}, false
	}

	if name == "" {
		name = defaultEventName
	}

	return Event{Name: name, Data: json.RawMessage(bytes.Clone(payload))}, true
}
