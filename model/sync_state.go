package model

// SyncStateKind is the tag of a SynchronizerState. Go has no sum type, so
// SynchronizerState follows §9's fallback encoding: a kind tag plus an optional
// numeric parameter.
type SyncStateKind string

const (
	SyncStarted  SyncStateKind = "started"
	SyncReady    SyncStateKind = "ready"
	SyncAdvanced SyncStateKind = "advanced"
	SyncDelayed  SyncStateKind = "delayed"
	SyncStale    SyncStateKind = "stale"
	SyncEnded    SyncStateKind = "ended"
)

// EndReason explains why a synchronizer transitioned to Ended.
type EndReason string

const (
	EndUpstreamClosed  EndReason = "upstream_closed"
	EndProtocolError   EndReason = "protocol_error"
	EndTransportFailed EndReason = "transport_failed"
	EndBufferOverflow  EndReason = "buffer_overflow"
	EndCancelled       EndReason = "cancelled"
)

// SynchronizerState is the health of one extractor relative to the feed-wide
// expected block height H.
type SynchronizerState struct {
	Kind   SyncStateKind `json:"kind"`
	Param  uint64        `json:"param,omitempty"`
	Reason EndReason     `json:"reason,omitempty"`
}

func Started() SynchronizerState         { return SynchronizerState{Kind: SyncStarted} }
func Ready() SynchronizerState           { return SynchronizerState{Kind: SyncReady} }
func Advanced(k uint64) SynchronizerState { return SynchronizerState{Kind: SyncAdvanced, Param: k} }
func Delayed(k uint64) SynchronizerState  { return SynchronizerState{Kind: SyncDelayed, Param: k} }
func Stale() SynchronizerState           { return SynchronizerState{Kind: SyncStale} }
func Ended(reason EndReason) SynchronizerState {
	return SynchronizerState{Kind: SyncEnded, Reason: reason}
}

// IsEnded reports whether the state machine has reached its terminal state.
func (s SynchronizerState) IsEnded() bool { return s.Kind == SyncEnded }

// IsDelayed reports whether s is Delayed, regardless of k.
func (s SynchronizerState) IsDelayed() bool { return s.Kind == SyncDelayed }
