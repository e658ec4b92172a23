// Package blockchain sequences sealed blocks plus the single pre-confirmed
// buffer, and owns the per-block ThinStateDiff bookkeeping (spec.md §4.2).
package blockchain

import "time"

// ProductionModeKind selects how the chain advances from one block to the
// next. It is fixed at startup and never changes at runtime.
type ProductionModeKind int

const (
	ModeTransaction ProductionModeKind = iota
	ModeDemand
	ModeInterval
)

// ProductionMode configures block sealing behavior.
type ProductionMode struct {
	Kind     ProductionModeKind
	Interval time.Duration // only meaningful when Kind == ModeInterval
}

func Transaction() ProductionMode { return ProductionMode{Kind: ModeTransaction} }
func Demand() ProductionMode      { return ProductionMode{Kind: ModeDemand} }
func Interval(d time.Duration) ProductionMode {
	return ProductionMode{Kind: ModeInterval, Interval: d}
}
