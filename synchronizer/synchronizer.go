// Package synchronizer implements the per-extractor state machine: it owns
// one extractor's websocket subscription, buffers delta batches by height,
// detects reorgs and protocol violations, and reconnects transient
// disconnects with backoff.
package synchronizer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/blocksync-io/client/indexer"
	"github.com/blocksync-io/client/model"
)

// ErrOutOfOrder is a protocol violation: a batch arrived at a height <= the
// last delivered one without a valid reorg proof (matching parent mismatch).
var ErrOutOfOrder = errors.New("synchronizer: out-of-order batch without reorg proof")

// ErrBufferOverflow reports the per-height buffer exceeding its cap.
var ErrBufferOverflow = errors.New("synchronizer: buffer overflow")

const (
	defaultBufferCap            = 256
	defaultMaxReconnectAttempts = 10
)

// Synchronizer drives one extractor's delta subscription per §4.1.
type Synchronizer struct {
	extractorID model.ExtractorID
	client      indexer.Client
	listener    EventListener

	bufferCap            int
	maxReconnectAttempts int
	backoff              indexer.Backoff

	mu              sync.Mutex
	buffer          map[uint64]indexer.DeltaBatch
	confirmed       map[uint64]model.BlockHeader
	lastDelivered   uint64
	lastHeader      model.BlockHeader
	haveDelivered   bool
	state           model.SynchronizerState
	ended           bool
	endReason       model.EndReason
	stream          indexer.DeltaStream
	newData         chan struct{}
}

func New(extractorID model.ExtractorID, client indexer.Client) *Synchronizer {
	return &Synchronizer{
		extractorID:          extractorID,
		client:               client,
		listener:             &SelectiveListener{},
		bufferCap:            defaultBufferCap,
		maxReconnectAttempts: defaultMaxReconnectAttempts,
		backoff:              indexer.ExponentialBackoff,
		buffer:               make(map[uint64]indexer.DeltaBatch),
		confirmed:            make(map[uint64]model.BlockHeader),
		state:                model.Started(),
		newData:              make(chan struct{}, 1),
	}
}

func (s *Synchronizer) WithListener(l EventListener) *Synchronizer {
	s.listener = l
	return s
}

func (s *Synchronizer) WithBufferCap(n int) *Synchronizer {
	s.bufferCap = n
	return s
}

func (s *Synchronizer) ExtractorID() model.ExtractorID { return s.extractorID }

// Start opens the subscription, retrying transient connect failures with
// backoff, and blocks for the first delta batch, whose header is the
// extractor's current head h0. Per §4.1 this is the only place a
// ConnectError/ProtocolError can surface synchronously to the caller.
func (s *Synchronizer) Start(ctx context.Context) (model.BlockHeader, error) {
	stream, err := s.connectWithRetry(ctx, 0)
	if err != nil {
		s.setEnded(model.EndTransportFailed)
		return model.BlockHeader{}, err
	}

	batch, err := stream.Recv(ctx)
	if err != nil {
		s.setEnded(model.EndProtocolError)
		return model.BlockHeader{}, err
	}

	s.mu.Lock()
	s.stream = stream
	s.mu.Unlock()

	if ingestErr := s.ingest(batch); ingestErr != nil {
		s.setEnded(model.EndProtocolError)
		return model.BlockHeader{}, ingestErr
	}

	s.mu.Lock()
	s.state = model.Ready()
	s.mu.Unlock()
	s.listener.OnStateTransition(s.extractorID, s.State())

	go s.readLoop(ctx)

	return batch.Header, nil
}

func (s *Synchronizer) connectWithRetry(ctx context.Context, fromHeight uint64) (indexer.DeltaStream, error) {
	var wait time.Duration
	for attempt := 0; attempt <= s.maxReconnectAttempts; attempt++ {
		stream, err := s.client.Subscribe(ctx, s.extractorID, fromHeight)
		if err == nil {
			return stream, nil
		}
		if !errors.Is(err, indexer.ErrConnect) {
			return nil, err
		}

		s.listener.OnReconnect(s.extractorID, attempt+1)
		wait = s.backoff(wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, errors.New("synchronizer: exceeded max reconnect attempts")
}

func (s *Synchronizer) readLoop(ctx context.Context) {
	for {
		s.mu.Lock()
		stream := s.stream
		lastDelivered := s.lastDelivered
		s.mu.Unlock()

		batch, err := stream.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, indexer.ErrProtocol) {
				s.setEnded(model.EndProtocolError)
				return
			}

			newStream, connErr := s.connectWithRetry(ctx, lastDelivered+1)
			if connErr != nil {
				s.setEnded(model.EndTransportFailed)
				return
			}
			s.mu.Lock()
			s.stream = newStream
			s.mu.Unlock()
			continue
		}

		if ingestErr := s.ingest(batch); ingestErr != nil {
			if errors.Is(ingestErr, ErrBufferOverflow) {
				s.setEnded(model.EndBufferOverflow)
			} else {
				s.setEnded(model.EndProtocolError)
			}
			return
		}
	}
}

func (s *Synchronizer) ingest(batch indexer.DeltaBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	height := batch.Header.Height
	if s.haveDelivered {
		if prevHeader, ok := s.confirmed[height-1]; ok && prevHeader.Hash != batch.Header.ParentHash {
			// Reorg: the new batch's parent doesn't match what we previously
			// confirmed at height-1. Rewind the buffer back to the fork point.
			for h := height; h <= s.lastDelivered; h++ {
				delete(s.buffer, h)
				delete(s.confirmed, h)
			}
			s.lastDelivered = height - 1
			s.listener.OnReorg(s.extractorID, height)
		} else if height <= s.lastDelivered {
			return ErrOutOfOrder
		}
	}

	if len(s.buffer) >= s.bufferCap {
		return ErrBufferOverflow
	}

	s.buffer[height] = batch
	s.confirmed[height] = batch.Header
	if !s.haveDelivered || height > s.lastDelivered {
		s.lastDelivered = height
		s.lastHeader = batch.Header
		s.haveDelivered = true
	}

	select {
	case s.newData <- struct{}{}:
	default:
	}
	return nil
}

// Next waits at most until deadline for a batch at height expected. It never
// blocks past deadline, per §4.1.
func (s *Synchronizer) Next(ctx context.Context, expected uint64, deadline time.Time) (indexer.DeltaBatch, bool) {
	for {
		s.mu.Lock()
		if batch, ok := s.buffer[expected]; ok {
			delete(s.buffer, expected)
			s.mu.Unlock()
			return batch, true
		}
		if s.ended {
			s.mu.Unlock()
			return indexer.DeltaBatch{}, false
		}
		s.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return indexer.DeltaBatch{}, false
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return indexer.DeltaBatch{}, false
		case <-timer.C:
			return indexer.DeltaBatch{}, false
		case <-s.newData:
			timer.Stop()
		}
	}
}

// BufferDepth reports how many undelivered batches are currently buffered,
// for the aligner's buffer-depth gauge.
func (s *Synchronizer) BufferDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffer)
}

// LastDelivered reports the highest height this synchronizer has buffered or
// emitted, used by the aligner to compute Delayed(k)/Advanced(k).
func (s *Synchronizer) LastDelivered() (uint64, model.BlockHeader, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDelivered, s.lastHeader, s.haveDelivered
}

func (s *Synchronizer) State() model.SynchronizerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState records the aligner's tick-relative classification
// (Ready/Advanced/Delayed/Stale) for reporting via State(). The aligner owns
// classification because only it knows the feed-wide expected height H and
// the per-tick stale streak.
func (s *Synchronizer) SetState(state model.SynchronizerState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.listener.OnStateTransition(s.extractorID, state)
}

func (s *Synchronizer) setEnded(reason model.EndReason) {
	s.mu.Lock()
	s.ended = true
	s.endReason = reason
	s.state = model.Ended(reason)
	stream := s.stream
	s.mu.Unlock()
	if stream != nil {
		_ = stream.Close()
	}
	s.listener.OnStateTransition(s.extractorID, model.Ended(reason))
}

// Close terminates the subscription and transitions to Ended(reason).
func (s *Synchronizer) Close(reason model.EndReason) {
	s.setEnded(reason)
}

func (s *Synchronizer) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}
