package eventstream

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type nonFlushingWriter struct {
	header http.Header
}

func (w *nonFlushingWriter) Header() http.Header { return w.header }
func (w *nonFlushingWriter) Write(p []byte) (int, error) { return len(p), nil }
func (w *nonFlushingWriter) WriteHeader(int) {}

func TestWriterSend(t *testing.T) {
	recorder := httptest.NewRecorder()

	writer, err := NewWriter(recorder)
	if err != nil {
		t.Fatalf("NewWriter() failed: %v", err)
	}

	if err := writer.Send("text", map[string]string{"text": "Hi"}); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if err := writer.Send("done", struct{}{}); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}

	if recorder.Code != http.StatusOK {
		t.Errorf("status = %d, expected %d", recorder.Code, http.StatusOK)
	}
	if got := recorder.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, expected text/event-stream", got)
	}
	if got := recorder.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q, expected no-cache", got)
	}
	if !recorder.Flushed {
		t.Errorf("expected response to be flushed")
	}

	expected := "event: text\ndata: {\"text\":\"Hi\"}\n\nevent: done\ndata: {}\n\n"
	if recorder.Body.String() != expected {
		t.Errorf("body = %q, expected %q", recorder.Body.String(), expected)
	}
}

func TestNewWriterRequiresFlusher(t *testing.T) {
	_, err := NewWriter(&nonFlushingWriter{header: http.Header{}})
	if err != ErrStreamingUnsupported {
		t.Errorf("NewWriter() error = %v, expected %v", err, ErrStreamingUnsupported)
	}
}
