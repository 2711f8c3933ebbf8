// Package node wires the synchronizer/tracker/aligner/sink machinery
// described by §4 into one runnable process, mirroring the composition-root
// shape of the teacher's node.Node: a Config decoded from the CLI, a
// constructor that builds every collaborator, and a Run that blocks until
// the aligner exits or the context is cancelled.
package node

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/blocksync-io/client/aligner"
	"github.com/blocksync-io/client/config"
	"github.com/blocksync-io/client/indexer"
	"github.com/blocksync-io/client/metrics"
	"github.com/blocksync-io/client/model"
	"github.com/blocksync-io/client/sink"
	"github.com/blocksync-io/client/synchronizer"
	"github.com/blocksync-io/client/tracker"
	"github.com/blocksync-io/client/utils"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc"
)

// Node bundles one configured BlockAligner, the logger it was built with, and
// an optional metrics HTTP server, matching the teacher's thin Node wrapper
// around its own service list.
type Node struct {
	cfg        *config.Config
	aligner    *aligner.BlockAligner
	log        utils.Logger
	metricsSrv *http.Server
}

// New decodes cfg into one RPC client, one WS client, and one
// Synchronizer/ComponentTracker pair per configured extractor, wires them
// into a BlockAligner, and returns the runnable Node. A cfg.Validate failure
// wraps config.ErrInvalid (§7, exit 2); a log-dir or logger failure does not
// and so maps to exit 3. Connection setup itself is deferred to Run/Start,
// which also surfaces as exit 3. level and
// levelOverrides come from parsing LOG_LEVEL (§6's environment contract).
func New(cfg *config.Config, version string, level utils.LogLevel, levelOverrides map[string]utils.LogLevel) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var out io.Writer
	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create log-dir")
		}
		logFile, err := os.OpenFile(filepath.Join(cfg.LogDir, "blocksync.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, errors.Wrap(err, "open log file")
		}
		out = logFile
	}
	log, err := utils.NewZapLogger(level, out)
	if err != nil {
		return nil, errors.Wrap(err, "create logger")
	}
	log = log.WithOverrides(levelOverrides)

	f := metrics.PrometheusFactory(nil)

	rpcClient := indexer.NewRPCClient(cfg.TychoRPCURL, log.Named("indexer")).
		WithUserAgent(fmt.Sprintf("blocksync/%s", version)).
		WithListener(makeIndexerMetrics(f))
	wsClient := indexer.NewWSClient(cfg.TychoWSURL)
	client := indexer.New(rpcClient, wsClient)

	defaultPolicy := tracker.NewRangedPolicy(cfg.AddThreshold(), cfg.RemoveThreshold())
	syncListener := makeSynchronizerMetrics(f)
	am := makeAlignerMetrics(f)

	a := aligner.New(sink.NewLineSink(os.Stdout), log).
		WithMetrics(am).
		WithNoState(cfg.NoState).
		WithQuota(cfg.Quota)
	if cfg.BlockTime > 0 {
		a = a.WithBlockTime(cfg.BlockTime)
	}
	if cfg.StaleBlocks > 0 {
		a = a.WithStaleBlocks(cfg.StaleBlocks)
	}

	for _, spec := range config.ParseExtractorSpecs(cfg.Exchanges) {
		extractorID := model.ExtractorID(spec.Name)
		policy := defaultPolicy
		if spec.Explicit() {
			policy = tracker.NewExplicitPolicy([]model.ComponentID{model.ComponentID(spec.ExplicitComponent)})
		}

		syncer := synchronizer.New(extractorID, client).WithListener(syncListener)
		tr := tracker.New(extractorID, policy, client, log.Named(string(extractorID)))
		a.AddExtractor(extractorID, syncer, tr)
	}

	n := &Node{cfg: cfg, aligner: a, log: log}
	if cfg.Metrics {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.PrometheusHandler(nil))
		n.metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	}
	return n, nil
}

// Run blocks until the aligner reaches one of §4.3's exit conditions or ctx
// is cancelled, logging the outcome the way the teacher's Node.Run logs
// service errors before returning. When --metrics is set, the Prometheus
// handler runs alongside it under the same panic-safe conc.WaitGroup the
// teacher's Node.Run fans its services out with. The aligner exiting shuts
// the metrics server down; a metrics server failure is only logged and
// leaves the aligner running.
func (n *Node) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var alignerErr error
	wg := conc.NewWaitGroup()

	if n.metricsSrv != nil {
		wg.Go(func() {
			<-ctx.Done()
			_ = n.metricsSrv.Close()
		})
		wg.Go(func() {
			if err := n.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				n.log.Errorw("metrics server failed", "err", err)
			}
		})
	}

	start := time.Now()
	wg.Go(func() {
		alignerErr = n.aligner.Run(ctx)
		n.log.Infow("blocksync run finished", "elapsed", time.Since(start), "err", alignerErr)
		cancel()
	})

	wg.Wait()
	return alignerErr
}
