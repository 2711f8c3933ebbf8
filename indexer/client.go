// Package indexer adapts the remote indexing service (component discovery over
// RPC, delta feed over websocket) to the IndexerClient interface the rest of the
// tree depends on. It is the only package allowed to perform raw HTTP or open a
// websocket connection.
package indexer

import (
	"context"
	"errors"

	"github.com/blocksync-io/client/model"
)

// ErrConnect is a retryable transport-level failure connecting to the indexer.
var ErrConnect = errors.New("indexer: connect failed")

// ErrProtocol is a fatal, non-retryable malformed-response failure.
var ErrProtocol = errors.New("indexer: protocol error")

// ComponentFilter scopes a ListComponents call to one extractor, optionally to an
// explicit set of component IDs (explicit admission mode, §4.2).
type ComponentFilter struct {
	ExtractorID  model.ExtractorID
	ComponentIDs []model.ComponentID // nil unless explicit mode
}

// DiscoveredComponent is one component list_components reports, together with
// the TVL the indexer currently has on file for it.
type DiscoveredComponent struct {
	Component model.Component
	TVL       float64
}

// DeltaBatch is one block's delta for one extractor, as delivered over the
// websocket subscription.
type DeltaBatch struct {
	Header model.BlockHeader
	Delta  model.Delta
}

// DeltaStream is a live subscription to one extractor's delta feed.
type DeltaStream interface {
	// Recv blocks until the next batch arrives, ctx is done, or the stream ends.
	Recv(ctx context.Context) (DeltaBatch, error)
	Close() error
}

//go:generate mockgen -destination=./mocks/mock_client.go -package=mocks github.com/blocksync-io/client/indexer Client

// Client is the IndexerClient described in spec §2.1: component discovery and
// snapshot fetch over RPC, delta feed over a persistent websocket subscription.
type Client interface {
	ListComponents(ctx context.Context, filter ComponentFilter) ([]DiscoveredComponent, error)
	FetchSnapshot(ctx context.Context, extractorID model.ExtractorID, ids []model.ComponentID) (model.Snapshot, error)
	Subscribe(ctx context.Context, extractorID model.ExtractorID, fromHeight uint64) (DeltaStream, error)
}
