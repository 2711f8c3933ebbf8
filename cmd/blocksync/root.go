package main

import (
	"os"

	"github.com/blocksync-io/client/config"
	"github.com/blocksync-io/client/metrics"
	"github.com/blocksync-io/client/node"
	"github.com/blocksync-io/client/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Version string

const (
	configF             = "config"
	exchangeF           = "exchange"
	minTVLF             = "min-tvl"
	addTVLThresholdF    = "add-tvl-threshold"
	removeTVLThresholdF = "remove-tvl-threshold"
	blockTimeF          = "block-time"
	tychoRPCURLF        = "tycho-rpc-url"
	tychoWSURLF         = "tycho-ws-url"
	quotaF              = "quota"
	noStateF            = "no-state"
	logDirF             = "log-dir"
	staleBlocksF        = "stale-blocks"
	metricsF            = "metrics"
	metricsAddrF        = "metrics-addr"

	defaultConfig = ""

	configFlagUsage = "YAML configuration file; flags override values it sets."
	exchangeFlagUsage = "Register an extractor as <name[:component_id]>; repeatable. " +
		"The optional :component_id switches that extractor to explicit single-component mode."
	minTVLFlagUsage = "Single-threshold TVL admission; mutually exclusive with " +
		"--add-tvl-threshold/--remove-tvl-threshold."
	addTVLThresholdFlagUsage = "Ranged-admission TVL floor a component must reach to be tracked. " +
		"Requires --remove-tvl-threshold, and add >= remove."
	removeTVLThresholdFlagUsage = "Ranged-admission TVL floor below which a tracked component is dropped."
	blockTimeFlagUsage          = "Per-tick barrier timeout (e.g. \"12s\")."
	tychoRPCURLFlagUsage        = "Indexer RPC endpoint for list_components/fetch_snapshot."
	tychoWSURLFlagUsage         = "Indexer websocket endpoint for the delta subscription."
	quotaFlagUsage              = "Emit exactly this many FeedMessages then exit 0. <= 0 means unlimited."
	noStateFlagUsage            = "Light mode: suppress snapshots, state_updates and account_updates."
	logDirFlagUsage             = "Directory for the log sink; stdout remains FeedMessages only."
	staleBlocksFlagUsage        = "Consecutive missed ticks before a source is classified Stale and dropped."
	metricsFlagUsage            = "Expose a Prometheus /metrics endpoint on --metrics-addr."
	metricsAddrFlagUsage        = "Address the Prometheus handler listens on when --metrics is set."
)

var cfgFile string

// NewCmd builds the blocksync root command, binding its flags through viper
// into a config.Config exactly as cmd/juno/juno.go binds node.Config, then
// runs the resulting node until it exits or ctx is cancelled.
func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "blocksync [flags]",
		Short:   "Multi-source block-aligned synchronizer for a remote indexing service.",
		Version: Version,
	}

	cmd.Flags().StringVar(&cfgFile, configF, defaultConfig, configFlagUsage)
	cmd.Flags().StringArray(exchangeF, nil, exchangeFlagUsage)
	cmd.Flags().Float64(minTVLF, 0, minTVLFlagUsage)
	cmd.Flags().Float64(addTVLThresholdF, 0, addTVLThresholdFlagUsage)
	cmd.Flags().Float64(removeTVLThresholdF, 0, removeTVLThresholdFlagUsage)
	cmd.Flags().Duration(blockTimeF, config.DefaultBlockTime, blockTimeFlagUsage)
	cmd.Flags().String(tychoRPCURLF, "http://"+config.DefaultHost, tychoRPCURLFlagUsage)
	cmd.Flags().String(tychoWSURLF, "ws://"+config.DefaultHost, tychoWSURLFlagUsage)
	cmd.Flags().IntP(quotaF, "n", 0, quotaFlagUsage)
	cmd.Flags().Bool(noStateF, false, noStateFlagUsage)
	cmd.Flags().String(logDirF, "", logDirFlagUsage)
	cmd.Flags().Int(staleBlocksF, config.DefaultStaleBlocks, staleBlocksFlagUsage)
	cmd.Flags().Bool(metricsF, false, metricsFlagUsage)
	cmd.Flags().String(metricsAddrF, config.DefaultMetricsAddr, metricsAddrFlagUsage)

	// --min-tvl and --add/remove-tvl-threshold are only "set" as far as
	// config.Config cares when the user actually passed them: all three
	// default to the zero value 0, which validator's pointer fields must
	// distinguish from "not provided". decodeConfig below maps that for us.
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		v := viper.New()
		if cfgFile != "" {
			v.SetConfigType("yaml")
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
		}
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		cfg, err := decodeConfig(cmd, v)
		if err != nil {
			return err
		}

		level, overrides, err := utils.ParseLevelOverrides(os.Getenv("LOG_LEVEL"))
		if err != nil {
			return err
		}

		if cfg.Metrics {
			metrics.Enable()
		}

		n, err := node.New(cfg, Version, level, overrides)
		if err != nil {
			return err
		}

		return n.Run(cmd.Context())
	}

	return cmd
}

// decodeConfig unmarshals viper's bound flags into a config.Config exactly
// as cmd/juno/juno.go unmarshals node.Config, then patches the three TVL
// pointer fields: they default to the zero value 0 at the flag level, which
// is a meaningful threshold and can't double as "the user didn't pass this",
// so only Changed flags populate them.
func decodeConfig(cmd *cobra.Command, v *viper.Viper) (*config.Config, error) {
	cfg := new(config.Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	// v.Unmarshal always populates these from the flags' zero-value
	// defaults; clear them so only a flag the user actually passed survives.
	cfg.MinTVL, cfg.AddTVLThreshold, cfg.RemoveTVLThreshold = nil, nil, nil

	if cmd.Flags().Changed(minTVLF) {
		val := v.GetFloat64(minTVLF)
		cfg.MinTVL = &val
	}
	if cmd.Flags().Changed(addTVLThresholdF) {
		val := v.GetFloat64(addTVLThresholdF)
		cfg.AddTVLThreshold = &val
	}
	if cmd.Flags().Changed(removeTVLThresholdF) {
		val := v.GetFloat64(removeTVLThresholdF)
		cfg.RemoveTVLThreshold = &val
	}

	return cfg, nil
}
