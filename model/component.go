package model

import "github.com/ethereum/go-ethereum/common"

// Component is the static part of a trackable unit: a pool, pair or vault.
type Component struct {
	ID             ComponentID       `json:"id"`
	Tokens         []common.Address  `json:"tokens"`
	StaticAttrs    Attributes        `json:"static_attrs"`
	ProtocolSystem ExtractorID       `json:"protocol_system"`
}

// ComponentState is a component's dynamic, per-block mutable state.
type ComponentState struct {
	Attributes Attributes `json:"attributes"`
}

// ContractData is a VM account snapshot, only present for VM-simulated protocols.
type ContractData struct {
	Address       common.Address            `json:"address"`
	Code          hexBytes                  `json:"code"`
	Storage       map[common.Hash]common.Hash `json:"storage"`
	NativeBalance common.Hash               `json:"native_balance"`
	Nonce         uint64                    `json:"nonce"`
}

// ComponentWithState bundles a component's static definition with its current
// dynamic state and, for VM-simulated protocols, its account snapshot.
type ComponentWithState struct {
	Component Component       `json:"component"`
	State     ComponentState  `json:"state"`
	Account   *ContractData   `json:"account,omitempty"`
}

// TokenMetadata describes a token referenced by a component.
type TokenMetadata struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
}
