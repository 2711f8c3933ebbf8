// Package sink implements MessageSink (§2, §6): a line-delimited JSON writer
// for FeedMessages. A write failure here is always fatal per §7 — there is no
// partial-delivery recovery for a broken consumer pipe.
package sink

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"

	"github.com/blocksync-io/client/model"
	"github.com/pkg/errors"
)

// ErrWriteFailed wraps any failure writing or flushing a FeedMessage, the
// trigger for the exit-5 sink-failure path in §6/§7.
var ErrWriteFailed = errors.New("sink: write failed")

//go:generate mockgen -destination=./mocks/mock_sink.go -package=mocks github.com/blocksync-io/client/sink Sink

// Sink is the MessageSink interface: one FeedMessage per call, appended as a
// single JSON line.
type Sink interface {
	Write(msg model.FeedMessage) error
}

// LineSink writes one JSON line per FeedMessage to an underlying writer,
// flushing after every message so a downstream consumer sees it immediately.
type LineSink struct {
	mu  sync.Mutex
	w   *bufio.Writer
	enc *json.Encoder
}

// NewLineSink wraps w (stdout in production) in a buffered, flush-per-message
// JSON-lines writer.
func NewLineSink(w io.Writer) *LineSink {
	bw := bufio.NewWriter(w)
	return &LineSink{w: bw, enc: json.NewEncoder(bw)}
}

// Write serializes msg as one JSON line and flushes immediately. Per §5's
// backpressure rule, a slow consumer blocks here, which is how the aligner's
// tick loop backpressures into the per-synchronizer buffers.
func (s *LineSink) Write(msg model.FeedMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(msg); err != nil {
		return errors.Wrap(ErrWriteFailed, err.Error())
	}
	if err := s.w.Flush(); err != nil {
		return errors.Wrap(ErrWriteFailed, err.Error())
	}
	return nil
}
