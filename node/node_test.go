package node_test

import (
	"testing"
	"time"

	"github.com/blocksync-io/client/config"
	"github.com/blocksync-io/client/node"
	"github.com/blocksync-io/client/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Ptr(f float64) *float64 { return &f }

func validConfig() *config.Config {
	return &config.Config{
		Exchanges:   []string{"uniswap_v2", "uniswap_v3:0xabc"},
		MinTVL:      float64Ptr(1000),
		BlockTime:   12 * time.Second,
		TychoRPCURL: "http://" + config.DefaultHost,
		TychoWSURL:  "ws://" + config.DefaultHost,
		StaleBlocks: config.DefaultStaleBlocks,
		MetricsAddr: config.DefaultMetricsAddr,
	}
}

func TestNewWiresExtractorsWithoutDialing(t *testing.T) {
	n, err := node.New(validConfig(), "test", utils.INFO, nil)
	require.NoError(t, err)
	assert.NotNil(t, n)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Exchanges = nil
	_, err := node.New(cfg, "test", utils.INFO, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestNewAcceptsLevelOverrides(t *testing.T) {
	n, err := node.New(validConfig(), "test", utils.INFO, map[string]utils.LogLevel{"uniswap_v2": utils.DEBUG})
	require.NoError(t, err)
	assert.NotNil(t, n)
}

func TestNewWiresMetricsServerWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Metrics = true
	cfg.MetricsAddr = "localhost:0"
	n, err := node.New(cfg, "test", utils.INFO, nil)
	require.NoError(t, err)
	assert.NotNil(t, n)
}
