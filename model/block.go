package model

import "github.com/ethereum/go-ethereum/common"

// BlockHeader identifies a block an extractor has delivered state for. Headers
// with the same Height across extractors on the same chain are expected to agree
// on Hash; the aligner does not compare them, so a disagreement is neither
// logged nor treated as a fault.
type BlockHeader struct {
	Height     uint64      `json:"height"`
	Hash       common.Hash `json:"hash"`
	ParentHash common.Hash `json:"parent_hash"`
	Timestamp  uint64      `json:"timestamp"`
	Chain      ChainTag    `json:"chain"`
}
