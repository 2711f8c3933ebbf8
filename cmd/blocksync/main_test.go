package main

import (
	"errors"
	"testing"

	"github.com/blocksync-io/client/aligner"
	"github.com/blocksync-io/client/config"
	"github.com/blocksync-io/client/sink"
	"github.com/stretchr/testify/assert"
)

func TestExitCodeMapsSentinels(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"config invalid", config.ErrInvalid, 2},
		{"all sources ended", aligner.ErrAllSourcesEnded, 4},
		{"aligner sink failure", aligner.ErrSinkFailure, 5},
		{"sink write failed", sink.ErrWriteFailed, 5},
		{"unclassified error", errors.New("connection refused"), 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exitCode(tc.err))
		})
	}
}
