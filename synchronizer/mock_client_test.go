package synchronizer_test

import (
	"context"
	"testing"

	"github.com/blocksync-io/client/indexer"
	"github.com/blocksync-io/client/indexer/mocks"
	"github.com/blocksync-io/client/model"
	"github.com/blocksync-io/client/synchronizer"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// oneShotStream hands back a single batch, then blocks until ctx is done.
type oneShotStream struct {
	batch indexer.DeltaBatch
	sent  bool
}

func (s *oneShotStream) Recv(ctx context.Context) (indexer.DeltaBatch, error) {
	if !s.sent {
		s.sent = true
		return s.batch, nil
	}
	<-ctx.Done()
	return indexer.DeltaBatch{}, ctx.Err()
}

func (s *oneShotStream) Close() error { return nil }

func TestStartUsesMockClientSubscribe(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	header := model.BlockHeader{Height: 10}
	stream := &oneShotStream{batch: indexer.DeltaBatch{Header: header, Delta: model.NewDelta()}}

	client.EXPECT().
		Subscribe(gomock.Any(), model.ExtractorID("uniswap_v2"), uint64(0)).
		Return(stream, nil)

	s := synchronizer.New("uniswap_v2", client)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got, err := s.Start(ctx)
	require.NoError(t, err)
	require.Equal(t, header, got)
}
