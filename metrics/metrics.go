// Package metrics exposes instrumentation hooks for the tile extract
// builder. Install a delegate before building to receive readings; without
// one, instrumentation is a no-op.
package metrics

import (
	"sync/atomic"

	"github.com/heyvito/tilex/internal/metrics"
)

var hasDelegate atomic.Bool

// InstallDelegate registers del as the process-wide metrics sink. Only the
// first call has any effect.
func InstallDelegate(del *Delegates) {
	if hasDelegate.Swap(true) {
		return
	}
	go metrics.Dispatch(del)
}

type Delegates struct {
	Builder BuilderInstrumentationDelegate
}

func (d *Delegates) Dispatch(kind metrics.MetricKind, value float64) {
	switch kind {
	case metrics.BuilderTilesDiscovered:
		d.Builder.TilesDiscovered(value)
	case metrics.BuilderPackTiming:
		d.Builder.PackTiming(value)
	case metrics.BuilderBytesPacked:
		d.Builder.BytesPacked(value)
	case metrics.BuilderIndexEntries:
		d.Builder.IndexEntries(value)
	case metrics.BuilderPatchTiming:
		d.Builder.PatchTiming(value)
	case metrics.BuilderTrafficTiming:
		d.Builder.TrafficTiming(value)
	case metrics.BuilderTrafficBytes:
		d.Builder.TrafficBytes(value)
	case metrics.BuilderFailures:
		d.Builder.Failures(value)
	}
}

// BuilderInstrumentationDelegate receives readings emitted by the extract
// builder. Timings are expressed in microseconds, sizes in bytes.
type BuilderInstrumentationDelegate interface {
	TilesDiscovered(v float64)
	PackTiming(v float64)
	BytesPacked(v float64)
	IndexEntries(v float64)
	PatchTiming(v float64)
	TrafficTiming(v float64)
	TrafficBytes(v float64)
	Failures(v float64)
}
