package model

import "github.com/ethereum/go-ethereum/common"

// AccountUpdate carries absolute new storage values for one account, plus
// optional code/balance overrides when the protocol's VM state changed them.
type AccountUpdate struct {
	Storage map[common.Hash]common.Hash `json:"storage"`
	Code    hexBytes                    `json:"code,omitempty"`
	Balance *common.Hash                `json:"balance,omitempty"`
}

// Delta is one extractor's per-block change set. Every value it carries is
// authoritative and absolute: deltas are never computed from snapshots.
type Delta struct {
	StateUpdates              map[ComponentID]Attributes                  `json:"state_updates"`
	AccountUpdates            map[common.Address]AccountUpdate            `json:"account_updates"`
	NewProtocolComponents     []Component                                 `json:"new_protocol_components"`
	DeletedProtocolComponents []ComponentID                               `json:"deleted_protocol_components"`
	NewTokens                 map[common.Address]TokenMetadata            `json:"new_tokens"`
	ComponentBalances         map[ComponentID]map[common.Address]hexBytes `json:"component_balances"`
	ComponentTVL              map[ComponentID]float64                    `json:"component_tvl"`
}

// NewDelta returns a delta with every map initialized, never nil, so a consumer
// can always range over its fields without a nil check.
func NewDelta() Delta {
	return Delta{
		StateUpdates:      make(map[ComponentID]Attributes),
		AccountUpdates:    make(map[common.Address]AccountUpdate),
		NewTokens:         make(map[common.Address]TokenMetadata),
		ComponentBalances: make(map[ComponentID]map[common.Address]hexBytes),
		ComponentTVL:      make(map[ComponentID]float64),
	}
}

// Empty reports whether the delta carries no state changes (no state_updates
// and no account_updates).
func (d Delta) Empty() bool {
	return len(d.StateUpdates) == 0 && len(d.AccountUpdates) == 0
}
