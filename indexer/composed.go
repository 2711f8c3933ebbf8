package indexer

import (
	"context"

	"github.com/blocksync-io/client/model"
)

// composedClient pairs an RPCClient (discovery, snapshots) with a WSClient
// (delta feed) behind the single Client interface the rest of the tree uses.
type composedClient struct {
	rpc *RPCClient
	ws  *WSClient
}

// New returns the production Client: RPC for list_components/fetch_snapshot,
// websocket for subscribe, per §2.
func New(rpc *RPCClient, ws *WSClient) Client {
	return &composedClient{rpc: rpc, ws: ws}
}

func (c *composedClient) ListComponents(ctx context.Context, filter ComponentFilter) ([]DiscoveredComponent, error) {
	return c.rpc.ListComponents(ctx, filter)
}

func (c *composedClient) FetchSnapshot(ctx context.Context, extractorID model.ExtractorID, ids []model.ComponentID) (model.Snapshot, error) {
	return c.rpc.FetchSnapshot(ctx, extractorID, ids)
}

func (c *composedClient) Subscribe(ctx context.Context, extractorID model.ExtractorID, fromHeight uint64) (DeltaStream, error) {
	return c.ws.Subscribe(ctx, extractorID, fromHeight)
}
