package agent

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/tomdro61/shop-pilot-sub000/models"
)

// ModelRequest is one call to the language model.
type ModelRequest struct {
	System string
	Turns  []models.Turn
	Tools  []ToolDefinition
}

// ModelChunk carries either a text fragment as it is produced or, as the last
// chunk of a stream, the completed assistant turn.
type ModelChunk struct {
	Text string
	Turn *models.Turn
}

// ModelStream yields chunks until Recv returns io.EOF.
type ModelStream interface {
	Recv() (ModelChunk, error)
	Close() error
}

type Model interface {
	Stream(ctx context.Context, req ModelRequest) (ModelStream, error)
}

// ErrNoTurn is returned when a provider stream ends without a final turn.
var ErrNoTurn = errors.New("model stream ended without a response")

type produceFunc func(ctx context.Context, emit func(ModelChunk) error) error

// chanStream runs a provider call in its own goroutine and hands chunks to
// the reader over a buffered channel.
type chanStream struct {
	ctx    context.Context
	cancel context.CancelFunc
	chunks chan ModelChunk

	errMu    sync.Mutex
	errSet   bool
	finalErr error
}

func newChanStream(ctx context.Context, produce produceFunc) *chanStream {
	cctx, cancel := context.WithCancel(ctx)
	s := &chanStream{
		ctx:    cctx,
		cancel: cancel,
		chunks: make(chan ModelChunk, 32),
	}
	go func() {
		defer close(s.chunks)
		s.setErr(produce(cctx, s.emit))
	}()
	return s
}

func (s *chanStream) Recv() (ModelChunk, error) {
	select {
	case chunk, ok := <-s.chunks:
		if ok {
			return chunk, nil
		}
		if err := s.err(); err != nil {
			return ModelChunk{}, err
		}
		return ModelChunk{}, io.EOF
	case <-s.ctx.Done():
		err := s.ctx.Err()
		s.setErr(err)
		return ModelChunk{}, err
	}
}

func (s *chanStream) Close() error {
	s.cancel()
	return nil
}

func (s *chanStream) emit(chunk ModelChunk) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	case s.chunks <- chunk:
		return nil
	}
}

func (s *chanStream) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.errSet {
		return
	}
	s.errSet = true
	s.finalErr = err
}

func (s *chanStream) err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.finalErr
}

// collect drains a stream, forwarding text fragments to onText, and returns
// the final assistant turn.
func collect(stream ModelStream, onText func(string) error) (models.Turn, error) {
	var turn *models.Turn
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.Turn{}, err
		}
		if chunk.Text != "" {
			if err := onText(chunk.Text); err != nil {
				return models.Turn{}, err
			}
		}
		if chunk.Turn != nil {
			turn = chunk.Turn
		}
	}
	if turn == nil {
		return models.Turn{}, ErrNoTurn
	}
	return *turn, nil
}
