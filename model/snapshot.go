package model

import "github.com/ethereum/go-ethereum/common"

// Snapshot is the full current state of a set of components at a given block,
// attached to a StateSyncMessage the first time those components are tracked.
type Snapshot struct {
	States     map[ComponentID]ComponentWithState `json:"states"`
	VMAccounts map[common.Address]ContractData    `json:"vm_accounts"`
}

// NewSnapshot returns an empty snapshot ready for population.
func NewSnapshot() Snapshot {
	return Snapshot{
		States:     make(map[ComponentID]ComponentWithState),
		VMAccounts: make(map[common.Address]ContractData),
	}
}

// Empty reports whether the snapshot carries no state at all: no component
// states and no VM accounts.
func (s Snapshot) Empty() bool {
	return len(s.States) == 0 && len(s.VMAccounts) == 0
}
