// Package config translates the command surface of §6 into a validated
// Config, mirroring how node.Config is decoded and validated in the teacher.
package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// ErrInvalid wraps every Validate failure, the single sentinel main() checks
// with errors.Is to map a configuration problem onto §7's exit code 2.
var ErrInvalid = errors.New("config: invalid configuration")

// ExtractorSpec is one parsed --exchange entry: a name, and, in explicit
// mode, the single component ID it tracks regardless of TVL.
type ExtractorSpec struct {
	Name              string `mapstructure:"-"`
	ExplicitComponent string `mapstructure:"-"`
}

// Explicit reports whether this extractor was registered in explicit
// single-component mode (§6, S6).
func (s ExtractorSpec) Explicit() bool { return s.ExplicitComponent != "" }

// Config is the fully decoded, validated command surface (§6).
type Config struct {
	Exchanges []string `mapstructure:"exchange" validate:"required,min=1"`

	MinTVL             *float64 `mapstructure:"min-tvl"`
	AddTVLThreshold    *float64 `mapstructure:"add-tvl-threshold"`
	RemoveTVLThreshold *float64 `mapstructure:"remove-tvl-threshold"`

	BlockTime time.Duration `mapstructure:"block-time" validate:"gte=0"`

	TychoRPCURL string `mapstructure:"tycho-rpc-url" validate:"required"`
	TychoWSURL  string `mapstructure:"tycho-ws-url" validate:"required"`

	Quota   int    `mapstructure:"quota"`
	NoState bool   `mapstructure:"no-state"`
	LogDir  string `mapstructure:"log-dir"`

	StaleBlocks int `mapstructure:"stale-blocks" validate:"gte=1"`

	Metrics     bool   `mapstructure:"metrics"`
	MetricsAddr string `mapstructure:"metrics-addr" validate:"required"`
}

const (
	DefaultHost        = "localhost:4242"
	DefaultBlockTime   = 12 * time.Second
	DefaultStaleBlocks = 5
	DefaultMetricsAddr = "localhost:9090"
)

// ParseExtractorSpecs splits each --exchange <name[:component_id]> entry into
// its name and optional explicit component ID, per §6.
func ParseExtractorSpecs(raw []string) []ExtractorSpec {
	specs := make([]ExtractorSpec, 0, len(raw))
	for _, r := range raw {
		if name, component, found := strings.Cut(r, ":"); found {
			specs = append(specs, ExtractorSpec{Name: name, ExplicitComponent: component})
		} else {
			specs = append(specs, ExtractorSpec{Name: r})
		}
	}
	return specs
}

// Validate enforces §6's TVL-option mutual exclusion and §9's "exactly one
// admission policy" invariant. A non-nil error here is always a
// configuration error (exit 2), never a partial startup.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}

	rangedSet := c.AddTVLThreshold != nil || c.RemoveTVLThreshold != nil
	if c.MinTVL != nil && rangedSet {
		return errors.Wrap(ErrInvalid, "--min-tvl is mutually exclusive with --add-tvl-threshold/--remove-tvl-threshold")
	}
	if rangedSet && (c.AddTVLThreshold == nil || c.RemoveTVLThreshold == nil) {
		return errors.Wrap(ErrInvalid, "--add-tvl-threshold and --remove-tvl-threshold must both be set")
	}
	if rangedSet && *c.AddTVLThreshold < *c.RemoveTVLThreshold {
		return errors.Wrap(ErrInvalid, "--add-tvl-threshold must be >= --remove-tvl-threshold")
	}

	for _, raw := range c.Exchanges {
		if raw == "" {
			return errors.Wrap(ErrInvalid, "empty --exchange value")
		}
	}

	return nil
}

// AddThreshold and RemoveThreshold resolve the configured admission mode
// into one (add, remove) pair, treating --min-tvl as the degenerate ranged
// case where add == remove (§9).
func (c *Config) AddThreshold() float64 {
	if c.AddTVLThreshold != nil {
		return *c.AddTVLThreshold
	}
	if c.MinTVL != nil {
		return *c.MinTVL
	}
	return 0
}

func (c *Config) RemoveThreshold() float64 {
	if c.RemoveTVLThreshold != nil {
		return *c.RemoveTVLThreshold
	}
	if c.MinTVL != nil {
		return *c.MinTVL
	}
	return 0
}
