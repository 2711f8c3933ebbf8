package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/blocksync-io/client/model"
	"github.com/blocksync-io/client/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// RPCClient implements the discovery/snapshot half of Client over plain HTTP
// JSON RPC, grounded on clients/feeder.Client's retry-with-backoff GET loop.
type RPCClient struct {
	url        string
	httpClient *http.Client
	backoff    Backoff
	maxRetries int
	maxWait    time.Duration
	minWait    time.Duration
	log        utils.SimpleLogger
	userAgent  string
	listener   EventListener
}

func NewRPCClient(url string, log utils.SimpleLogger) *RPCClient {
	return &RPCClient{
		url:        url,
		httpClient: http.DefaultClient,
		backoff:    ExponentialBackoff,
		maxRetries: 10,
		maxWait:    30 * time.Second,
		minWait:    100 * time.Millisecond,
		log:        log,
		listener:   &SelectiveListener{},
	}
}

func (c *RPCClient) WithListener(l EventListener) *RPCClient {
	c.listener = l
	return c
}

func (c *RPCClient) WithUserAgent(ua string) *RPCClient {
	c.userAgent = ua
	return c
}

func (c *RPCClient) WithHTTPClient(h *http.Client) *RPCClient {
	c.httpClient = h
	return c
}

type listComponentsRequest struct {
	ExtractorID  model.ExtractorID   `json:"extractor_id"`
	ComponentIDs []model.ComponentID `json:"component_ids,omitempty"`
}

type listComponentsResponse struct {
	Components []DiscoveredComponent `json:"components"`
}

func (c *RPCClient) ListComponents(ctx context.Context, filter ComponentFilter) ([]DiscoveredComponent, error) {
	req := listComponentsRequest{ExtractorID: filter.ExtractorID, ComponentIDs: filter.ComponentIDs}
	var resp listComponentsResponse
	if err := c.postJSON(ctx, "/v1/list_components", req, &resp); err != nil {
		return nil, err
	}
	return resp.Components, nil
}

type fetchSnapshotRequest struct {
	ExtractorID model.ExtractorID   `json:"extractor_id"`
	ComponentIDs []model.ComponentID `json:"component_ids"`
}

func (c *RPCClient) FetchSnapshot(ctx context.Context, extractorID model.ExtractorID, ids []model.ComponentID) (model.Snapshot, error) {
	req := fetchSnapshotRequest{ExtractorID: extractorID, ComponentIDs: ids}
	var snap model.Snapshot
	if err := c.postJSON(ctx, "/v1/fetch_snapshot", req, &snap); err != nil {
		return model.Snapshot{}, err
	}
	if snap.States == nil {
		snap.States = make(map[model.ComponentID]model.ComponentWithState)
	}
	if snap.VMAccounts == nil {
		snap.VMAccounts = make(map[common.Address]model.ContractData)
	}
	return snap, nil
}

// postJSON performs one "POST" request with retries, adaptive backoff and
// jittered wait, mirroring clients/feeder.Client.get.
func (c *RPCClient) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	wait := time.Duration(0)
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		start := time.Now()
		res, err := c.httpClient.Do(req)
		if err == nil {
			c.listener.OnResponse(path, res.StatusCode, time.Since(start))
		}
		if err != nil {
			lastErr = errors.Wrap(err, "indexer rpc request")
			wait = c.nextWait(wait)
			c.log.Debugw("indexer rpc request failed, retrying", "path", path, "err", err, "wait", wait)
			continue
		}

		if res.StatusCode == http.StatusOK {
			defer res.Body.Close()
			if out == nil {
				io.Copy(io.Discard, res.Body) //nolint:errcheck
				return nil
			}
			return json.NewDecoder(res.Body).Decode(out)
		}

		data, _ := io.ReadAll(res.Body)
		res.Body.Close()
		lastErr = fmt.Errorf("indexer rpc %s: status %d: %s", path, res.StatusCode, string(data))
		if res.StatusCode >= 400 && res.StatusCode < 500 {
			return errors.Wrap(ErrProtocol, lastErr.Error())
		}
		wait = c.nextWait(wait)
	}
	return errors.Wrap(ErrConnect, lastErr.Error())
}

func (c *RPCClient) nextWait(wait time.Duration) time.Duration {
	if wait < c.minWait {
		return c.minWait
	}
	next := c.backoff(wait)
	if next > c.maxWait {
		return c.maxWait
	}
	return next
}
