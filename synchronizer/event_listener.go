package synchronizer

import "github.com/blocksync-io/client/model"

// EventListener observes state transitions and reorgs for one synchronizer,
// grounded on sync.EventListener's callback-per-concern shape. The
// Synchronizer itself invokes these callbacks at every transition; node/
// supplies the metrics-recording implementation.
type EventListener interface {
	OnReorg(extractorID model.ExtractorID, reorgedToHeight uint64)
	OnReconnect(extractorID model.ExtractorID, attempt int)
	OnStateTransition(extractorID model.ExtractorID, state model.SynchronizerState)
}

type SelectiveListener struct {
	OnReorgCb           func(extractorID model.ExtractorID, reorgedToHeight uint64)
	OnReconnectCb       func(extractorID model.ExtractorID, attempt int)
	OnStateTransitionCb func(extractorID model.ExtractorID, state model.SynchronizerState)
}

func (l *SelectiveListener) OnReorg(extractorID model.ExtractorID, reorgedToHeight uint64) {
	if l.OnReorgCb != nil {
		l.OnReorgCb(extractorID, reorgedToHeight)
	}
}

func (l *SelectiveListener) OnReconnect(extractorID model.ExtractorID, attempt int) {
	if l.OnReconnectCb != nil {
		l.OnReconnectCb(extractorID, attempt)
	}
}

func (l *SelectiveListener) OnStateTransition(extractorID model.ExtractorID, state model.SynchronizerState) {
	if l.OnStateTransitionCb != nil {
		l.OnStateTransitionCb(extractorID, state)
	}
}
