package eventstream

import (
	"errors"
	"net/http"
	"sync"
)

var ErrStreamingUnsupported = errors.New("streaming is unsupported by response writer")

// Writer sends frames over an HTTP response, flushing after every frame so
// text reaches the caller as soon as it is produced.
type Writer struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &Writer{w: w, flusher: flusher}, nil
}

// Start writes the event-stream headers and the 200 status line.
func (s *Writer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start()
}

func (s *Writer) start() {
	if s.started {
		return
	}
	s.started = true

	header := s.w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.flusher.Flush()
}

func (s *Writer) Send(name string, payload any) error {
	frame, err := Encode(name, payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.start()

	if _, err := s.w.Write(frame); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
