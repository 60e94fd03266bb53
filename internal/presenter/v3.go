package presenter

import (
	"github.com/vantagewealth/summary/internal/ledger"
	"github.com/vantagewealth/summary/internal/metrics"
	"github.com/vantagewealth/summary/internal/snapshot"
)

// applyV3 differs from V1 only in how the fee total was sourced upstream (a
// fixed initial page rather than the full lifetime set); the presented shape
// is the V1 one.
func applyV3(summary Summary, snap *snapshot.Snapshot, led ledger.Set, set metrics.Set) {
	applyV1(summary, snap, led, set)
}
