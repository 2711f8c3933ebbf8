// Package aligner implements BlockAligner (§4.3): the top-level coordinator
// that picks the next expected block height, waits up to block_time for every
// synchronizer to deliver it, classifies laggards, merges their
// ComponentTrackers' output into one FeedMessage per tick, and hands it to a
// MessageSink.
package aligner

import (
	"context"
	"time"

	"github.com/blocksync-io/client/feed"
	"github.com/blocksync-io/client/indexer"
	"github.com/blocksync-io/client/model"
	"github.com/blocksync-io/client/sink"
	"github.com/blocksync-io/client/synchronizer"
	"github.com/blocksync-io/client/tracker"
	"github.com/blocksync-io/client/utils"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ErrAllSourcesEnded is returned by Run when no live synchronizer remains and
// at least one of them ended abnormally (error or chronic staleness),
// matching §7's exit-4 condition.
var ErrAllSourcesEnded = errors.New("aligner: all sources ended or stale")

// ErrSinkFailure wraps a MessageSink write failure, §7's exit-5 condition.
var ErrSinkFailure = errors.New("aligner: sink failure")

// Metrics is the optional observability hook for BlockAligner's per-tick
// loop. Defined here rather than imported from node/ so aligner never
// depends on the wiring package that constructs it.
type Metrics interface {
	ObserveTick(d time.Duration)
	SetBufferDepth(id model.ExtractorID, depth int)
	SetTrackedComponents(id model.ExtractorID, n int)
	IncAdmitted(id model.ExtractorID, n int)
	IncRemoved(id model.ExtractorID, n int)
	IncDelayed(id model.ExtractorID)
	IncStaleDrop(id model.ExtractorID)
}

type noopMetrics struct{}

func (noopMetrics) ObserveTick(time.Duration)                   {}
func (noopMetrics) SetBufferDepth(model.ExtractorID, int)       {}
func (noopMetrics) SetTrackedComponents(model.ExtractorID, int) {}
func (noopMetrics) IncAdmitted(model.ExtractorID, int)          {}
func (noopMetrics) IncRemoved(model.ExtractorID, int)           {}
func (noopMetrics) IncDelayed(model.ExtractorID)                {}
func (noopMetrics) IncStaleDrop(model.ExtractorID)              {}

const (
	defaultBlockTime   = 12 * time.Second
	defaultStaleBlocks = 5
)

// extractor bundles one extractor's synchronizer and tracker, plus the
// aligner-owned bookkeeping that decides Delayed->Stale transitions. The
// delayed streak lives here, not on the Synchronizer, because only the
// aligner knows the feed-wide expected height H a streak is measured against.
type extractor struct {
	id           model.ExtractorID
	sync         *synchronizer.Synchronizer
	tracker      *tracker.ComponentTracker
	delayedRun   int
	staleDropped bool
}

// BlockAligner is the singleton feed coordinator described in §4.3.
type BlockAligner struct {
	extractors  []*extractor
	sink        sink.Sink
	blockTime   time.Duration
	staleBlocks int
	noState     bool
	quota       int
	log         utils.SimpleLogger
	metrics     Metrics
	messages    *feed.Feed[model.FeedMessage]

	// pendingSnapshots holds each extractor's initial_snapshot result (§4.3
	// startup step 3) until the very first tick, which attaches them to its
	// StateSyncMessage before being cleared.
	pendingSnapshots []model.Snapshot
}

// New builds a BlockAligner that writes to sink, applying defaults for
// block_time (12s) and stale_blocks (5). Extractors are registered
// afterwards with AddExtractor.
func New(sink sink.Sink, log utils.SimpleLogger) *BlockAligner {
	return &BlockAligner{
		sink:        sink,
		blockTime:   defaultBlockTime,
		staleBlocks: defaultStaleBlocks,
		log:         log,
		metrics:     noopMetrics{},
		messages:    feed.New[model.FeedMessage](),
	}
}

// Subscribe returns a subscription to the FeedMessages this aligner writes
// to its sink, letting a caller (a future RPC server, a test) observe the
// feed without coupling to the tick loop itself. The subscription buffers one
// message and keeps the newest: a subscriber that has not read the previous
// message when the next one is sent loses the older one.
func (a *BlockAligner) Subscribe() *feed.Subscription[model.FeedMessage] {
	return a.messages.SubscribeKeepLast()
}

// WithMetrics attaches an observability hook; nil restores the no-op default.
func (a *BlockAligner) WithMetrics(m Metrics) *BlockAligner {
	if m == nil {
		m = noopMetrics{}
	}
	a.metrics = m
	return a
}

func (a *BlockAligner) WithBlockTime(d time.Duration) *BlockAligner {
	a.blockTime = d
	return a
}

func (a *BlockAligner) WithStaleBlocks(n int) *BlockAligner {
	a.staleBlocks = n
	return a
}

func (a *BlockAligner) WithNoState(noState bool) *BlockAligner {
	a.noState = noState
	return a
}

// WithQuota causes Run to exit cleanly after emitting exactly n FeedMessages,
// implementing §6's `-n` option. n <= 0 means unlimited.
func (a *BlockAligner) WithQuota(n int) *BlockAligner {
	a.quota = n
	return a
}

// AddExtractor registers one extractor's synchronizer/tracker pair. Must be
// called before Run.
func (a *BlockAligner) AddExtractor(id model.ExtractorID, sync *synchronizer.Synchronizer, tr *tracker.ComponentTracker) {
	a.extractors = append(a.extractors, &extractor{id: id, sync: sync, tracker: tr})
}

// Run drives startup (§4.3 steps 1-3) then the per-tick loop until exit per
// §4.3's exit conditions or ctx cancellation.
func (a *BlockAligner) Run(ctx context.Context) error {
	h0, err := a.startup(ctx)
	if err != nil {
		return err
	}

	h := h0
	emitted := 0
	for {
		if a.quota > 0 && emitted >= a.quota {
			return nil
		}
		if a.allDone() {
			return a.finalExitError()
		}

		select {
		case <-ctx.Done():
			a.cancelAll()
			_ = a.emitTick(ctx, h, true)
			return nil
		default:
		}

		msg, err := a.tick(ctx, h)
		if err != nil {
			return err
		}
		if err := a.write(msg); err != nil {
			return err
		}
		emitted++
		h++
	}
}

// startup implements §4.3 steps 1-3: start every synchronizer in parallel,
// compute H0 = max(h0_i), then fetch every tracker's initial snapshot at H0.
func (a *BlockAligner) startup(ctx context.Context) (uint64, error) {
	headers := make([]model.BlockHeader, len(a.extractors))
	// Start gets ctx itself: each synchronizer's reader goroutine keeps the
	// context it was started with, and an errgroup-derived context is
	// cancelled as soon as Wait returns.
	var g errgroup.Group
	for i, ex := range a.extractors {
		i, ex := i, ex
		g.Go(func() error {
			h, err := ex.sync.Start(ctx)
			if err != nil {
				return errors.Wrapf(err, "start synchronizer %s", ex.id)
			}
			headers[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var h0 uint64
	for _, h := range headers {
		if h.Height > h0 {
			h0 = h.Height
		}
	}

	snapG, snapCtx := errgroup.WithContext(ctx)
	snapshots := make([]model.Snapshot, len(a.extractors))
	for i, ex := range a.extractors {
		i, ex := i, ex
		snapG.Go(func() error {
			snap, err := ex.tracker.InitialSnapshot(snapCtx)
			if err != nil {
				return errors.Wrapf(err, "initial snapshot for %s", ex.id)
			}
			snapshots[i] = snap
			return nil
		})
	}
	if err := snapG.Wait(); err != nil {
		return 0, err
	}

	a.pendingSnapshots = snapshots
	return h0, nil
}

// tick implements per-tick loop steps 1-4 of §4.3: compute the deadline, poll
// every non-ended synchronizer in parallel, classify each, reconcile through
// its tracker, and assemble one FeedMessage.
func (a *BlockAligner) tick(ctx context.Context, h uint64) (model.FeedMessage, error) {
	tickStart := time.Now()
	defer func() { a.metrics.ObserveTick(time.Since(tickStart)) }()

	deadline := tickStart.Add(a.blockTime)
	msg := model.NewFeedMessage()

	type outcome struct {
		ex    *extractor
		batch indexer.DeltaBatch
		got   bool
	}
	outcomes := make([]outcome, len(a.extractors))

	g, gctx := errgroup.WithContext(ctx)
	for i, ex := range a.extractors {
		i, ex := i, ex
		if ex.sync.Ended() || ex.staleDropped {
			continue
		}
		g.Go(func() error {
			batch, ok := ex.sync.Next(gctx, h, deadline)
			outcomes[i] = outcome{ex: ex, batch: batch, got: ok}
			a.metrics.SetBufferDepth(ex.id, ex.sync.BufferDepth())
			return nil
		})
	}
	_ = g.Wait()

	for i, ex := range a.extractors {
		// Stale-dropped extractors are absent from every subsequent
		// FeedMessage (S2): they were reported once, on the tick they
		// crossed into Stale, and never again.
		if ex.staleDropped {
			continue
		}
		if ex.sync.Ended() {
			msg.SyncStates[ex.id] = ex.sync.State()
			continue
		}

		o := outcomes[i]
		switch {
		case o.got:
			ex.delayedRun = 0
			smsg, err := a.reconcileTick(ctx, ex, o.batch)
			if err != nil {
				return model.FeedMessage{}, err
			}
			if last, _, have := ex.sync.LastDelivered(); have && last > h {
				smsg.State = model.Advanced(last - h)
			} else {
				smsg.State = model.Ready()
			}
			ex.sync.SetState(smsg.State)
			a.attachStartupSnapshot(i, &smsg)
			msg.SyncStates[ex.id] = smsg.State
			msg.StateMsgs[ex.id] = smsg

		default:
			last, header, have := ex.sync.LastDelivered()
			var k uint64
			if have && last < h {
				k = h - last
			} else {
				k = 1
			}
			ex.delayedRun++

			if ex.delayedRun >= a.staleBlocks {
				ex.staleDropped = true
				a.metrics.IncStaleDrop(ex.id)
				state := model.Stale()
				ex.sync.SetState(state)
				msg.SyncStates[ex.id] = state
				staleMsg := model.StateSyncMessage{
					Header:            header,
					RemovedComponents: ex.tracker.TrackedComponents(),
					State:             state,
				}
				a.attachStartupSnapshot(i, &staleMsg)
				msg.StateMsgs[ex.id] = staleMsg
				continue
			}

			state := model.Delayed(k)
			a.metrics.IncDelayed(ex.id)
			ex.sync.SetState(state)
			msg.SyncStates[ex.id] = state
			delayedMsg := model.StateSyncMessage{
				Header: header,
				State:  state,
			}
			a.attachStartupSnapshot(i, &delayedMsg)
			msg.StateMsgs[ex.id] = delayedMsg
		}
	}

	a.applyLightMode(&msg)
	return msg, nil
}

// reconcileTick folds a delivered batch through its tracker and builds the
// StateSyncMessage for this tick, per §4.3 step 3's "Ready" branch.
func (a *BlockAligner) reconcileTick(ctx context.Context, ex *extractor, batch indexer.DeltaBatch) (model.StateSyncMessage, error) {
	result, err := ex.tracker.Reconcile(ctx, batch.Header.Height, batch.Delta)
	if err != nil {
		return model.StateSyncMessage{}, errors.Wrapf(err, "reconcile %s at height %d", ex.id, batch.Header.Height)
	}
	ex.tracker.Apply(result)

	if len(result.Snapshots) > 0 {
		a.metrics.IncAdmitted(ex.id, len(result.Snapshots))
	}
	if len(result.ToRemove) > 0 {
		a.metrics.IncRemoved(ex.id, len(result.ToRemove))
	}
	a.metrics.SetTrackedComponents(ex.id, len(ex.tracker.TrackedComponents()))

	delta := result.ProjectedDelta
	return model.StateSyncMessage{
		Header:            batch.Header,
		Snapshots:         result.Snapshots,
		Deltas:            &delta,
		RemovedComponents: result.ToRemove,
	}, nil
}

// attachStartupSnapshot merges the extractor's initial_snapshot (if not yet
// consumed) into its first emitted StateSyncMessage, per §4.3 startup step 3.
func (a *BlockAligner) attachStartupSnapshot(i int, msg *model.StateSyncMessage) {
	if a.pendingSnapshots == nil || i >= len(a.pendingSnapshots) {
		return
	}
	snap := a.pendingSnapshots[i]
	if snap.States == nil {
		return
	}
	if msg.Snapshots == nil {
		msg.Snapshots = make(map[model.ComponentID]model.ComponentWithState, len(snap.States))
	}
	for id, cs := range snap.States {
		msg.Snapshots[id] = cs
	}
	a.pendingSnapshots[i] = model.Snapshot{}
}

// applyLightMode implements §6's --no-state: snapshots, state_updates and
// account_updates are suppressed, everything else is untouched.
func (a *BlockAligner) applyLightMode(msg *model.FeedMessage) {
	if !a.noState {
		return
	}
	for id, smsg := range msg.StateMsgs {
		smsg.Snapshots = nil
		if smsg.Deltas != nil {
			smsg.Deltas.StateUpdates = nil
			smsg.Deltas.AccountUpdates = nil
		}
		msg.StateMsgs[id] = smsg
	}
}

// allDone reports whether every extractor has either ended or been dropped
// for chronic staleness, the §4.3 exit condition.
func (a *BlockAligner) allDone() bool {
	for _, ex := range a.extractors {
		if !ex.sync.Ended() && !ex.staleDropped {
			return false
		}
	}
	return true
}

// finalExitError implements §7's distinction between a clean end-of-stream
// (exit 0) and an abnormal one (exit 4, ErrAllSourcesEnded): any staleness
// drop or any Ended reason other than upstream close counts as abnormal.
func (a *BlockAligner) finalExitError() error {
	for _, ex := range a.extractors {
		if ex.staleDropped {
			return ErrAllSourcesEnded
		}
		if ex.sync.State().Reason != model.EndUpstreamClosed {
			return ErrAllSourcesEnded
		}
	}
	return nil
}

// cancelAll transitions every non-ended synchronizer to Ended(Cancelled), per
// §5's cancellation contract.
func (a *BlockAligner) cancelAll() {
	for _, ex := range a.extractors {
		if !ex.sync.Ended() {
			ex.sync.Close(model.EndCancelled)
		}
	}
}

// emitTick builds and writes one final FeedMessage reflecting cancellation
// state; errors are logged, not propagated, since the process is already
// shutting down.
func (a *BlockAligner) emitTick(ctx context.Context, h uint64, final bool) error {
	msg := model.NewFeedMessage()
	for _, ex := range a.extractors {
		msg.SyncStates[ex.id] = ex.sync.State()
	}
	if err := a.write(msg); err != nil && final {
		a.log.Warnw("final flush on cancellation failed", "error", err)
	}
	return nil
}

// write hands msg to the sink, classifying any failure as ErrSinkFailure per
// §7's exit-5 condition.
func (a *BlockAligner) write(msg model.FeedMessage) error {
	a.messages.Send(msg)
	if err := a.sink.Write(msg); err != nil {
		return errors.Wrap(ErrSinkFailure, err.Error())
	}
	return nil
}
