package eventstream

import (
	"errors"
	"fmt"
	"io"
)

const (
	readChunkSize = 4096
	maxFrameBytes = 4 << 20
)

var ErrFrameTooLarge = errors.New("event stream frame exceeds size limit")

// Decoder reads frames from a byte stream that may split frames across reads.
type Decoder struct {
	source  io.Reader
	buf     []byte
	pending []Event
	err     error
}

func NewDecoder(source io.Reader) *Decoder {
	return &Decoder{source: source}
}

// Next returns the next well-formed event. It returns io.EOF once the source is
// exhausted; an incomplete trailing frame at EOF is discarded.
func (d *Decoder) Next() (Event, error) {
	for len(d.pending) == 0 {
		if d.err != nil {
			return Event{}, d.err
		}
		d.fill()
	}

	event := d.pending[0]
	d.pending = d.pending[1:]
	return event, nil
}

func (d *Decoder) fill() {
	chunk := make([]byte, readChunkSize)
	n, err := d.source.Read(chunk)
	if n > 0 {
		d.buf = append(d.buf, chunk[:n]...)
		var events []Event
		events, d.buf = Decode(d.buf)
		d.pending = append(d.pending, events...)
		if len(d.buf) > maxFrameBytes {
			d.err = fmt.Errorf("%w: %d bytes buffered", ErrFrameTooLarge, len(d.buf))
			return
		}
	}
	if err != nil {
		d.err = err
	}
}
