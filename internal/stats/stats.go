// Package stats provides instrumentation counter primitives used by
// [CodeGen] to report compilation-time metrics. CodeGen records one of
// them: the number of hooks declared per field.
package stats

import (
	"math"
	"sync/atomic"
)

// atomicFloat64 is an atomic float64 variable. Lock-free counters are
// overkill for a single-threaded-per-compilation code generator, but
// [CodeGen] stats may be merged across several concurrently-running
// compilations sharing a profile, so they still need to be safe to update
// from more than one goroutine.
type atomicFloat64 atomic.Uint64

func (x *atomicFloat64) load() float64 {
	return math.Float64frombits((*atomic.Uint64)(x).Load())
}

func (x *atomicFloat64) add(delta float64) (new float64) {
retry:
	old := x.load()
	new = old + delta
	if !(*atomic.Uint64)(x).CompareAndSwap(math.Float64bits(old), math.Float64bits(new)) {
		goto retry
	}
	return new
}

// Mean tracks an average statistic.
//
// The zero value is ready to use. Concurrent writes are safe, but calling
// [Mean.Get] concurrently with other operations may result in torn reads (and
// thus inaccuracy).
type Mean struct {
	total, samples atomicFloat64
}

// Record records a sample.
func (m *Mean) Record(sample float64) {
	m.total.add(sample)
	m.samples.add(1)
}

// Get returns the mean value of this statistic.
func (m *Mean) Get() float64 {
	total, samples := m.total.load(), m.samples.load()
	if samples == 0 {
		return 0
	}
	return total / samples
}

// Merge adds all of the samples from that to m.
func (m *Mean) Merge(that *Mean) {
	m.total.add(that.total.load())
	m.samples.add(that.samples.load())
}
