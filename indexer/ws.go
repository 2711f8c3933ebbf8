package indexer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blocksync-io/client/model"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/pkg/errors"
)

// WSClient implements the delta-feed half of Client over a persistent websocket
// connection, one per subscribed extractor, grounded on the teacher's
// l1.Client.Run pattern of a dedicated reader loop per subscription.
type WSClient struct {
	url string
}

func NewWSClient(url string) *WSClient {
	return &WSClient{url: url}
}

type subscribeRequest struct {
	ExtractorID model.ExtractorID `json:"extractor_id"`
	FromHeight  uint64            `json:"from_height"`
}

// wsDeltaBatch is the wire shape of one message on the delta subscription.
type wsDeltaBatch struct {
	Header model.BlockHeader `json:"header"`
	Delta  model.Delta       `json:"delta"`
}

type wsDeltaStream struct {
	conn *websocket.Conn
}

func (c *WSClient) Subscribe(ctx context.Context, extractorID model.ExtractorID, fromHeight uint64) (DeltaStream, error) {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return nil, errors.Wrap(ErrConnect, err.Error())
	}

	if err := wsjson.Write(ctx, conn, subscribeRequest{ExtractorID: extractorID, FromHeight: fromHeight}); err != nil {
		conn.Close(websocket.StatusInternalError, "subscribe request failed")
		return nil, errors.Wrap(ErrConnect, err.Error())
	}

	return &wsDeltaStream{conn: conn}, nil
}

func (s *wsDeltaStream) Recv(ctx context.Context) (DeltaBatch, error) {
	var batch wsDeltaBatch
	_, data, err := s.conn.Read(ctx)
	if err != nil {
		return DeltaBatch{}, errors.Wrap(ErrConnect, err.Error())
	}
	if err := json.Unmarshal(data, &batch); err != nil {
		return DeltaBatch{}, errors.Wrap(ErrProtocol, fmt.Sprintf("malformed delta batch: %s", err))
	}
	return DeltaBatch{Header: batch.Header, Delta: batch.Delta}, nil
}

func (s *wsDeltaStream) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "")
}
