package tangle

import (
	"math"
	"time"
)

// defaultPruningCushion is the spec's literal 50 ms constant (§4.6 step 6,
// §9 open question).
const defaultPruningCushion = 50 * time.Millisecond

// PruningCushion decides how far before the pruning watermark history may
// still be required, given the Time Machine's current knowledge. It
// exists because spec §9 flags the 50 ms constant as "a known workaround
// for an edge case where snapshots immediately at the boundary are not
// available" rather than guessing at a fix.
//
// Cushion(watermark) returns the time before which RemoveHistoryBefore
// may safely be called.
type PruningCushion interface {
	Cushion(watermark float64) float64
}

// FixedCushion reproduces the spec's original behavior: always subtract a
// fixed duration from the watermark, regardless of what snapshots the
// Time Machine actually holds.
type FixedCushion time.Duration

func (c FixedCushion) Cushion(watermark float64) float64 {
	return watermark - float64(time.Duration(c).Milliseconds())
}

// NearestSnapshotCushion represents option (b) from spec §9: instead of a
// blind fixed offset, ask the Time Machine for the nearest snapshot at or
// before the watermark and prune only up to that point, so pruning never
// discards history the Time Machine cannot actually answer a rollback
// query against. Lookup is supplied by the caller since the exact
// snapshot-enumeration shape is a Time Machine implementation detail.
type NearestSnapshotCushion struct {
	// NearestSnapshotAtOrBefore returns the latest snapshot time at or
	// before t, or ok=false if the Time Machine holds no such snapshot
	// (in which case pruning should not advance at all).
	NearestSnapshotAtOrBefore func(t float64) (float64, bool)
}

func (c NearestSnapshotCushion) Cushion(watermark float64) float64 {
	if c.NearestSnapshotAtOrBefore == nil {
		return math.Inf(-1)
	}
	if snap, ok := c.NearestSnapshotAtOrBefore(watermark); ok {
		return snap
	}
	// No snapshot exists at or before the watermark yet: pruning must
	// not advance at all rather than guess a cutoff.
	return math.Inf(-1)
}
