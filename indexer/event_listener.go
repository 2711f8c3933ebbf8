package indexer

import "time"

// EventListener observes indexer client activity, used to feed metrics.
type EventListener interface {
	OnResponse(path string, statusCode int, took time.Duration)
	OnReconnect(extractorID string, attempt int)
}

// SelectiveListener implements EventListener with optional per-event callbacks,
// so callers only wire up the events they care about.
type SelectiveListener struct {
	OnResponseCb   func(path string, statusCode int, took time.Duration)
	OnReconnectCb  func(extractorID string, attempt int)
}

func (l *SelectiveListener) OnResponse(path string, statusCode int, took time.Duration) {
	if l.OnResponseCb != nil {
		l.OnResponseCb(path, statusCode, took)
	}
}

func (l *SelectiveListener) OnReconnect(extractorID string, attempt int) {
	if l.OnReconnectCb != nil {
		l.OnReconnectCb(extractorID, attempt)
	}
}
