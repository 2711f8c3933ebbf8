package sink_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/blocksync-io/client/model"
	"github.com/blocksync-io/client/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteEmitsOneJSONLine(t *testing.T) {
	var buf bytes.Buffer
	s := sink.NewLineSink(&buf)

	msg := model.NewFeedMessage()
	msg.SyncStates["uniswap_v2"] = model.Ready()

	require.NoError(t, s.Write(msg))
	require.NoError(t, s.Write(msg))

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 2)

	var decoded model.FeedMessage
	require.NoError(t, json.Unmarshal(lines[0], &decoded))
	assert.Equal(t, model.Ready(), decoded.SyncStates["uniswap_v2"])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestWriteFailurePropagatesErrWriteFailed(t *testing.T) {
	s := sink.NewLineSink(failingWriter{})
	err := s.Write(model.NewFeedMessage())
	require.Error(t, err)
	assert.True(t, errors.Is(err, sink.ErrWriteFailed))
}
