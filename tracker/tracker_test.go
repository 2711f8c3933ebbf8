package tracker_test

import (
	"context"
	"testing"

	"github.com/blocksync-io/client/indexer"
	"github.com/blocksync-io/client/model"
	"github.com/blocksync-io/client/tracker"
	"github.com/blocksync-io/client/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	components map[model.ComponentID]indexer.DiscoveredComponent
	snapshots  map[model.ComponentID]model.ComponentWithState
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		components: make(map[model.ComponentID]indexer.DiscoveredComponent),
		snapshots:  make(map[model.ComponentID]model.ComponentWithState),
	}
}

func (f *fakeClient) ListComponents(_ context.Context, filter indexer.ComponentFilter) ([]indexer.DiscoveredComponent, error) {
	if filter.ComponentIDs != nil {
		out := make([]indexer.DiscoveredComponent, 0, len(filter.ComponentIDs))
		for _, id := range filter.ComponentIDs {
			out = append(out, f.components[id])
		}
		return out, nil
	}
	out := make([]indexer.DiscoveredComponent, 0, len(f.components))
	for _, c := range f.components {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeClient) FetchSnapshot(_ context.Context, _ model.ExtractorID, ids []model.ComponentID) (model.Snapshot, error) {
	snap := model.NewSnapshot()
	for _, id := range ids {
		if cs, ok := f.snapshots[id]; ok {
			snap.States[id] = cs
		}
	}
	return snap, nil
}

func (f *fakeClient) Subscribe(_ context.Context, _ model.ExtractorID, _ uint64) (indexer.DeltaStream, error) {
	return nil, nil
}

const extractorID model.ExtractorID = "uniswap_v2"

func TestInitialSnapshotSingleThreshold(t *testing.T) {
	client := newFakeClient()
	client.components["c1"] = indexer.DiscoveredComponent{Component: model.Component{ID: "c1"}, TVL: 100}
	client.components["c2"] = indexer.DiscoveredComponent{Component: model.Component{ID: "c2"}, TVL: 10}
	client.snapshots["c1"] = model.ComponentWithState{Component: model.Component{ID: "c1"}}

	tr := tracker.New(extractorID, tracker.NewSingleThresholdPolicy(50), client, utils.NewNopLogger())
	snap, err := tr.InitialSnapshot(context.Background())
	require.NoError(t, err)

	assert.Contains(t, snap.States, model.ComponentID("c1"))
	assert.NotContains(t, snap.States, model.ComponentID("c2"))
	assert.ElementsMatch(t, []model.ComponentID{"c1"}, tr.TrackedComponents())
}

func TestInitialSnapshotExplicitMode(t *testing.T) {
	client := newFakeClient()
	client.components["0xabc"] = indexer.DiscoveredComponent{Component: model.Component{ID: "0xabc"}, TVL: 0}
	client.components["0xdef"] = indexer.DiscoveredComponent{Component: model.Component{ID: "0xdef"}, TVL: 999999}
	client.snapshots["0xabc"] = model.ComponentWithState{Component: model.Component{ID: "0xabc"}}

	policy := tracker.NewExplicitPolicy([]model.ComponentID{"0xabc"})
	tr := tracker.New(extractorID, policy, client, utils.NewNopLogger())

	snap, err := tr.InitialSnapshot(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.ComponentID{"0xabc"}, tr.TrackedComponents())
	assert.Contains(t, snap.States, model.ComponentID("0xabc"))
}

// TestHysteresis exercises S3: ranged remove=95, add=100, TVL sequence
// 90,100,97,94,96,100 should admit at block 2, stay tracked at block 3,
// remove at block 4, stay untracked at block 5, and re-admit at block 6.
func TestHysteresis(t *testing.T) {
	client := newFakeClient()
	tr := tracker.New(extractorID, tracker.NewRangedPolicy(100, 95), client, utils.NewNopLogger())

	const id model.ComponentID = "c"
	tvls := []float64{90, 100, 97, 94, 96, 100}

	var admitEvents, removeEvents int
	tracked := false
	for i, tvl := range tvls {
		delta := model.NewDelta()
		if i == 0 {
			delta.NewProtocolComponents = []model.Component{{ID: id}}
		}
		delta.ComponentTVL[id] = tvl

		result, err := tr.Reconcile(context.Background(), uint64(i+1), delta)
		require.NoError(t, err)
		tr.Apply(result)

		nowTracked := containsID(tr.TrackedComponents(), id)
		if nowTracked && !tracked {
			admitEvents++
		}
		if !nowTracked && tracked {
			removeEvents++
		}
		tracked = nowTracked
	}

	assert.Equal(t, 2, admitEvents)
	assert.Equal(t, 1, removeEvents)
	assert.True(t, tracked)
}

func TestBoundaryExactlyAtThresholds(t *testing.T) {
	policy := tracker.NewRangedPolicy(100, 95)
	assert.True(t, policy.Admits("c", false, 100), "exactly at add_threshold must admit")
	assert.True(t, policy.Admits("c", true, 95), "exactly at remove_threshold must remain tracked")
	assert.False(t, policy.Admits("c", true, 94.999), "just under remove_threshold must remove")
}

func TestNewProtocolComponentDefaultsTVLToZero(t *testing.T) {
	client := newFakeClient()
	tr := tracker.New(extractorID, tracker.NewSingleThresholdPolicy(1), client, utils.NewNopLogger())

	delta := model.NewDelta()
	delta.NewProtocolComponents = []model.Component{{ID: "c9", Tokens: []common.Address{{1}}}}
	// no ComponentTVL entry for c9 — must default to 0 and therefore fail admission.

	result, err := tr.Reconcile(context.Background(), 50, delta)
	require.NoError(t, err)
	tr.Apply(result)

	assert.Empty(t, tr.TrackedComponents())
}

func TestMissingTokenMetadataIsSynthesized(t *testing.T) {
	client := newFakeClient()
	tr := tracker.New(extractorID, tracker.NewSingleThresholdPolicy(1), client, utils.NewNopLogger())

	t1 := common.Address{1}
	t2 := common.Address{2}
	delta := model.NewDelta()
	delta.NewProtocolComponents = []model.Component{{ID: "c9", Tokens: []common.Address{t1, t2}}}
	delta.ComponentTVL["c9"] = 500
	delta.NewTokens[t1] = model.TokenMetadata{Address: t1, Symbol: "T1", Decimals: 18}
	// t2 metadata deliberately missing.

	result, err := tr.Reconcile(context.Background(), 50, delta)
	require.NoError(t, err)

	assert.Contains(t, result.ProjectedDelta.NewTokens, t1)
	require.Contains(t, result.ProjectedDelta.NewTokens, t2)
	assert.Equal(t, "UNKNOWN", result.ProjectedDelta.NewTokens[t2].Symbol)
}

func TestAdmissionBeforeRemovalSameBlock(t *testing.T) {
	client := newFakeClient()
	client.snapshots["c1"] = model.ComponentWithState{Component: model.Component{ID: "c1"}}
	tr := tracker.New(extractorID, tracker.NewSingleThresholdPolicy(50), client, utils.NewNopLogger())

	delta := model.NewDelta()
	delta.NewProtocolComponents = []model.Component{{ID: "c1"}}
	delta.ComponentTVL["c1"] = 100
	delta.DeletedProtocolComponents = []model.ComponentID{"c1"}

	result, err := tr.Reconcile(context.Background(), 10, delta)
	require.NoError(t, err)

	// Admitted this block (appears once in the snapshot fetch)...
	assert.Contains(t, result.Snapshots, model.ComponentID("c1"))
	// ...then removed in the same tick (appears once in removed_components).
	assert.Contains(t, result.ToRemove, model.ComponentID("c1"))

	tr.Apply(result)
	assert.Empty(t, tr.TrackedComponents())
}

func containsID(ids []model.ComponentID, target model.ComponentID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
