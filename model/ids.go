// Package model defines the wire-level data model shared by every extractor: the
// component/state/delta shapes an IndexerClient produces and a BlockAligner merges
// into a FeedMessage.
package model

// ExtractorID names an upstream source, e.g. "uniswap_v3". Unique within a session.
type ExtractorID string

// ComponentID identifies a tracked unit (pool, pair, vault) within one extractor's
// namespace. (ExtractorID, ComponentID) is globally unique.
type ComponentID string

// ChainTag names the chain an extractor's blocks belong to.
type ChainTag string
