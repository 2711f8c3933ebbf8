// Package tracker implements the per-extractor TVL admission policy and the
// tracked-component bookkeeping that decides, block by block, which
// components are admitted into or removed from the emitted feed.
package tracker

import "github.com/blocksync-io/client/model"

// AdmissionMode selects how ComponentTracker admits components. Exactly one
// mode is active per extractor; single-threshold admission has no mode of its
// own and is expressed as Ranged with equal thresholds.
type AdmissionMode int

const (
	// Explicit tracks only a caller-supplied, fixed set of components and
	// ignores TVL entirely.
	Explicit AdmissionMode = iota
	// Ranged admits a component once its TVL reaches addThreshold and only
	// removes it once TVL falls below removeThreshold, giving hysteresis in
	// the [removeThreshold, addThreshold) band.
	Ranged
)

// AdmissionPolicy implements the exactly-one-active admission rule. A
// single-threshold policy is represented as Ranged with Add == Remove, per
// the spec's equivalence.
type AdmissionPolicy struct {
	Mode               AdmissionMode
	AddThreshold       float64
	RemoveThreshold    float64
	ExplicitComponents map[model.ComponentID]struct{}
}

// NewExplicitPolicy tracks exactly the given components regardless of TVL.
func NewExplicitPolicy(ids []model.ComponentID) AdmissionPolicy {
	set := make(map[model.ComponentID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return AdmissionPolicy{Mode: Explicit, ExplicitComponents: set}
}

// NewSingleThresholdPolicy admits/removes at one TVL threshold, modeled as
// the degenerate case of ranged admission where add == remove.
func NewSingleThresholdPolicy(minTVL float64) AdmissionPolicy {
	return AdmissionPolicy{Mode: Ranged, AddThreshold: minTVL, RemoveThreshold: minTVL}
}

// NewRangedPolicy admits at or above addThreshold and removes below
// removeThreshold, keeping everything in between as-is (hysteresis).
func NewRangedPolicy(addThreshold, removeThreshold float64) AdmissionPolicy {
	return AdmissionPolicy{Mode: Ranged, AddThreshold: addThreshold, RemoveThreshold: removeThreshold}
}

// Admits reports whether a component currently in state `tracked`, with
// current TVL `tvl`, should be tracked after this evaluation. For Explicit
// mode the id is checked against the fixed set and tvl is ignored.
func (p AdmissionPolicy) Admits(id model.ComponentID, tracked bool, tvl float64) bool {
	if p.Mode == Explicit {
		_, ok := p.ExplicitComponents[id]
		return ok
	}
	if tracked {
		return !(tvl < p.RemoveThreshold)
	}
	return tvl >= p.AddThreshold
}
