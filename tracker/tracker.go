package tracker

import (
	"context"

	"github.com/blocksync-io/client/indexer"
	"github.com/blocksync-io/client/model"
	"github.com/blocksync-io/client/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// defaultSnapshotConcurrency bounds how many snapshot-fetch RPCs a single
// tracker may have in flight at once, grounded on the teacher's worker-pool
// sizing in sync.maxWorkers.
const defaultSnapshotConcurrency = 16

// ComponentTracker owns the authoritative tracked-component set and running
// TVL map for one extractor. It is the exclusive owner of that state (§5):
// no other goroutine reads or writes its maps.
type ComponentTracker struct {
	extractorID model.ExtractorID
	policy      AdmissionPolicy
	client      indexer.Client
	log         utils.SimpleLogger

	snapshots *utils.Throttler[indexer.Client]

	tracked map[model.ComponentID]struct{}
	tvl     map[model.ComponentID]float64
	static  map[model.ComponentID]model.Component
	// account correlates a component to the VM account snapshot fetched on
	// its behalf, when the protocol is VM-simulated; used to scope
	// account_updates to components the caller still tracks.
	account map[model.ComponentID]common.Address

	knownTokens map[common.Address]struct{}
}

func New(extractorID model.ExtractorID, policy AdmissionPolicy, client indexer.Client, log utils.SimpleLogger) *ComponentTracker {
	return &ComponentTracker{
		extractorID: extractorID,
		policy:      policy,
		client:      client,
		log:         log,
		snapshots:   utils.NewThrottler(defaultSnapshotConcurrency, &client),
		tracked:     make(map[model.ComponentID]struct{}),
		tvl:         make(map[model.ComponentID]float64),
		static:      make(map[model.ComponentID]model.Component),
		account:     make(map[model.ComponentID]common.Address),
		knownTokens: make(map[common.Address]struct{}),
	}
}

// TrackedComponents returns a snapshot of the currently tracked component
// IDs, for diagnostics and for building the Stale-eviction removed set.
func (t *ComponentTracker) TrackedComponents() []model.ComponentID {
	ids := make([]model.ComponentID, 0, len(t.tracked))
	for id := range t.tracked {
		ids = append(ids, id)
	}
	return ids
}

// InitialSnapshot discovers this extractor's components, admits the ones
// that pass the policy, fetches their snapshots in one batched call, and
// records them as tracked. Implements §4.3 startup step 3.
func (t *ComponentTracker) InitialSnapshot(ctx context.Context) (model.Snapshot, error) {
	filter := indexer.ComponentFilter{ExtractorID: t.extractorID}
	if t.policy.Mode == Explicit {
		filter.ComponentIDs = make([]model.ComponentID, 0, len(t.policy.ExplicitComponents))
		for id := range t.policy.ExplicitComponents {
			filter.ComponentIDs = append(filter.ComponentIDs, id)
		}
	}

	discovered, err := t.client.ListComponents(ctx, filter)
	if err != nil {
		return model.Snapshot{}, errors.Wrap(err, "list components")
	}

	var admitted []model.ComponentID
	for _, d := range discovered {
		if !t.policy.Admits(d.Component.ID, false, d.TVL) {
			continue
		}
		admitted = append(admitted, d.Component.ID)
		t.tracked[d.Component.ID] = struct{}{}
		t.tvl[d.Component.ID] = d.TVL
		t.static[d.Component.ID] = d.Component
		for _, tok := range d.Component.Tokens {
			t.knownTokens[tok] = struct{}{}
		}
	}

	if len(admitted) == 0 {
		return model.NewSnapshot(), nil
	}

	var snap model.Snapshot
	fetchErr := t.snapshots.Do(func(client *indexer.Client) error {
		s, err := (*client).FetchSnapshot(ctx, t.extractorID, admitted)
		if err != nil {
			return err
		}
		snap = s
		return nil
	})
	if fetchErr != nil {
		return model.Snapshot{}, errors.Wrap(fetchErr, "fetch initial snapshot")
	}

	for id, cs := range snap.States {
		if cs.Account != nil {
			t.account[id] = cs.Account.Address
		}
	}

	return snap, nil
}

// ReconcileResult is the outcome of folding one block's Delta through the
// admission policy, per §4.2 operation `reconcile`.
type ReconcileResult struct {
	Snapshots         map[model.ComponentID]model.ComponentWithState
	ToRemove          []model.ComponentID
	ProjectedDelta     model.Delta
	pendingTracked     map[model.ComponentID]struct{}
	pendingTVL         map[model.ComponentID]float64
	pendingStatic      map[model.ComponentID]model.Component
	pendingAccount     map[model.ComponentID]common.Address
}

// Reconcile folds one block's delta through the admission policy: it
// updates the running TVL view, computes admissions and removals, fetches
// snapshots for newly admitted components, and projects the delta onto the
// post-reconciliation tracked set. The tracker's own state is not mutated
// until Apply is called with the returned result, keeping reconcile
// side-effect-free on the tracked set itself.
func (t *ComponentTracker) Reconcile(ctx context.Context, height uint64, delta model.Delta) (ReconcileResult, error) {
	result := ReconcileResult{
		pendingTracked: make(map[model.ComponentID]struct{}, len(t.tracked)),
		pendingTVL:     make(map[model.ComponentID]float64, len(t.tvl)),
		pendingStatic:  make(map[model.ComponentID]model.Component, len(t.static)),
		pendingAccount: make(map[model.ComponentID]common.Address, len(t.account)),
	}
	for id := range t.tracked {
		result.pendingTracked[id] = struct{}{}
	}
	for id, v := range t.tvl {
		result.pendingTVL[id] = v
	}
	for id, c := range t.static {
		result.pendingStatic[id] = c
	}
	for id, a := range t.account {
		result.pendingAccount[id] = a
	}

	// Step 1: update the running TVL map — only for components already
	// tracked/known or freshly introduced this block.
	for id, tvl := range delta.ComponentTVL {
		if _, known := result.pendingTVL[id]; known {
			result.pendingTVL[id] = tvl
		}
	}

	// New components introduced this block, with their static metadata
	// recorded regardless of admission (I3: reported but maybe not admitted).
	for _, comp := range delta.NewProtocolComponents {
		result.pendingStatic[comp.ID] = comp
		if _, ok := delta.ComponentTVL[comp.ID]; ok {
			result.pendingTVL[comp.ID] = delta.ComponentTVL[comp.ID]
		} else if _, known := result.pendingTVL[comp.ID]; !known {
			result.pendingTVL[comp.ID] = 0
		}
	}

	// Step 2: newly admitted = currently-untracked crossing admission, plus
	// admissible new_protocol_components.
	var newlyAdmitted []model.ComponentID
	for _, comp := range delta.NewProtocolComponents {
		if _, alreadyTracked := result.pendingTracked[comp.ID]; alreadyTracked {
			continue
		}
		if t.policy.Admits(comp.ID, false, result.pendingTVL[comp.ID]) {
			newlyAdmitted = append(newlyAdmitted, comp.ID)
		}
	}
	// Previously-seen-but-untracked components (e.g. ones that failed
	// admission in an earlier block) are re-evaluated every block using the
	// running TVL map, so they can cross into admission later (hysteresis).
	for id := range result.pendingStatic {
		if _, alreadyTracked := result.pendingTracked[id]; alreadyTracked {
			continue
		}
		if containsComponent(newlyAdmitted, id) {
			continue
		}
		if t.policy.Admits(id, false, result.pendingTVL[id]) {
			newlyAdmitted = append(newlyAdmitted, id)
		}
	}

	for _, id := range newlyAdmitted {
		result.pendingTracked[id] = struct{}{}
	}

	// Step 3: removals = tracked components crossing the removal side, plus
	// anything the protocol deleted outright.
	var toRemove []model.ComponentID
	for id := range t.tracked {
		if containsComponent(newlyAdmitted, id) {
			continue
		}
		if !t.policy.Admits(id, true, result.pendingTVL[id]) {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range delta.DeletedProtocolComponents {
		if !containsComponent(toRemove, id) {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		delete(result.pendingTracked, id)
		delete(result.pendingAccount, id)
	}
	result.ToRemove = toRemove

	// Step 4: fetch snapshots for newly admitted components only.
	if len(newlyAdmitted) > 0 {
		var snap model.Snapshot
		fetchErr := t.snapshots.Do(func(client *indexer.Client) error {
			s, err := (*client).FetchSnapshot(ctx, t.extractorID, newlyAdmitted)
			if err != nil {
				return err
			}
			snap = s
			return nil
		})
		if fetchErr != nil {
			return ReconcileResult{}, errors.Wrap(fetchErr, "fetch snapshot for newly admitted components")
		}
		result.Snapshots = snap.States
		for id, cs := range snap.States {
			if cs.Account != nil {
				result.pendingAccount[id] = cs.Account.Address
			}
		}
	}

	// Step 5: project delta onto tracked ∪ newly_admitted \ removed.
	postSet := make(map[model.ComponentID]struct{}, len(result.pendingTracked))
	for id := range result.pendingTracked {
		postSet[id] = struct{}{}
	}

	projected := model.NewDelta()
	for id, attrs := range delta.StateUpdates {
		if _, ok := postSet[id]; ok {
			projected.StateUpdates[id] = attrs
		}
	}
	for id, bals := range delta.ComponentBalances {
		if _, ok := postSet[id]; ok {
			projected.ComponentBalances[id] = bals
		}
	}
	for id, v := range delta.ComponentTVL {
		if _, ok := postSet[id]; ok {
			projected.ComponentTVL[id] = v
		}
	}
	for _, comp := range delta.NewProtocolComponents {
		if _, ok := postSet[comp.ID]; ok {
			projected.NewProtocolComponents = append(projected.NewProtocolComponents, comp)
		}
	}
	projected.DeletedProtocolComponents = toRemove
	for addr, meta := range delta.NewTokens {
		projected.NewTokens[addr] = meta
		t.knownTokens[addr] = struct{}{}
	}
	// I5: every token referenced by a new component must appear in
	// new_tokens the first time it's seen. Per the SUPPLEMENTED FEATURES
	// decision, a missing entry is synthesized as unknown rather than
	// treated as a fatal ProtocolError, so one absent metadata record from
	// upstream can't take down an otherwise-healthy synchronizer.
	for _, comp := range delta.NewProtocolComponents {
		for _, tok := range comp.Tokens {
			if _, known := t.knownTokens[tok]; known {
				continue
			}
			if _, present := projected.NewTokens[tok]; present {
				continue
			}
			t.log.Warnw("synthesizing unknown token metadata", "extractor", t.extractorID, "token", tok, "component", comp.ID)
			projected.NewTokens[tok] = model.TokenMetadata{Address: tok, Symbol: "UNKNOWN", Decimals: 0}
			t.knownTokens[tok] = struct{}{}
		}
	}

	for addr, upd := range delta.AccountUpdates {
		if accountBelongsToTrackedComponent(addr, result.pendingAccount, postSet) {
			projected.AccountUpdates[addr] = upd
		}
	}

	result.ProjectedDelta = projected
	return result, nil
}

func accountBelongsToTrackedComponent(addr common.Address, accountOf map[model.ComponentID]common.Address, tracked map[model.ComponentID]struct{}) bool {
	for id, a := range accountOf {
		if a != addr {
			continue
		}
		if _, ok := tracked[id]; ok {
			return true
		}
	}
	return false
}

func containsComponent(ids []model.ComponentID, target model.ComponentID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

// Apply commits a Reconcile result to the tracker's owned state. Per §5, the
// tracked set and TVL map are mutated only here, by the single goroutine
// that owns this tracker.
func (t *ComponentTracker) Apply(result ReconcileResult) {
	t.tracked = result.pendingTracked
	t.tvl = result.pendingTVL
	t.static = result.pendingStatic
	t.account = result.pendingAccount
	for _, comp := range result.ProjectedDelta.NewProtocolComponents {
		for _, tok := range comp.Tokens {
			t.knownTokens[tok] = struct{}{}
		}
	}
}

// Clone returns a deep copy of the tracker's observable state that shares no
// maps with the original.
func (t *ComponentTracker) Clone() (*ComponentTracker, error) {
	clone := &ComponentTracker{
		extractorID: t.extractorID,
		policy:      t.policy,
		client:      t.client,
		log:         t.log,
		snapshots:   t.snapshots,
		tracked:     make(map[model.ComponentID]struct{}, len(t.tracked)),
		tvl:         make(map[model.ComponentID]float64, len(t.tvl)),
		static:      make(map[model.ComponentID]model.Component, len(t.static)),
		account:     make(map[model.ComponentID]common.Address, len(t.account)),
		knownTokens: make(map[common.Address]struct{}, len(t.knownTokens)),
	}
	if err := copier.CopyWithOption(&clone.tracked, &t.tracked, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	if err := copier.CopyWithOption(&clone.static, &t.static, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	for id, v := range t.tvl {
		clone.tvl[id] = v
	}
	for id, a := range t.account {
		clone.account[id] = a
	}
	for tok := range t.knownTokens {
		clone.knownTokens[tok] = struct{}{}
	}
	return clone, nil
}
