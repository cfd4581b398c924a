package router

import (
	"math"
	"sync"
)

const (
	// historyCapacity bounds LatencyHistory to the most recent N samples.
	historyCapacity = 100
	// estimateWindow is how many of the most recent samples feed the
	// latency estimate used during scoring.
	estimateWindow = 10
)

// ring is a per-model bounded ring buffer of observed latencies, guarded by
// its own mutex so updates to different models never contend
// (SPEC_FULL.md §5).
type ring struct {
	mu      sync.Mutex
	samples []float64 // append-only up to historyCapacity, then a sliding window
}

func newRing() *ring {
	return &ring{samples: make([]float64, 0, historyCapacity)}
}

// record appends an observed latency, dropping the oldest sample once the
// buffer exceeds historyCapacity. Non-positive or non-finite samples are
// rejected silently by the caller before record is invoked.
func (r *ring) record(sample float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples = append(r.samples, sample)
	if len(r.samples) > historyCapacity {
		r.samples = r.samples[len(r.samples)-historyCapacity:]
	}
}

// estimate returns the arithmetic mean of the most recent up-to-ten
// samples, or false if the buffer is empty.
func (r *ring) estimate() (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.samples)
	if n == 0 {
		return 0, false
	}
	start := n - estimateWindow
	if start < 0 {
		start = 0
	}
	window := r.samples[start:]

	total := 0.0
	for _, s := range window {
		total += s
	}
	return total / float64(len(window)), true
}

// latencyHistory is a concurrent map of per-model ring buffers.
type latencyHistory struct {
	buffers sync.Map // model id -> *ring
}

func newLatencyHistory() *latencyHistory {
	return &latencyHistory{}
}

func (h *latencyHistory) ringFor(modelID string) *ring {
	if v, ok := h.buffers.Load(modelID); ok {
		return v.(*ring)
	}
	v, _ := h.buffers.LoadOrStore(modelID, newRing())
	return v.(*ring)
}

// Record appends an observed latency sample for modelID. Non-positive or
// non-finite samples are rejected silently, per SPEC_FULL.md §4.4.
func (h *latencyHistory) Record(modelID string, observedMS float64) {
	if !isValidSample(observedMS) {
		return
	}
	h.ringFor(modelID).record(observedMS)
}

// Estimate returns the current latency estimate for modelID: the mean of
// the most recent up-to-ten samples, or (0, false) if none exist yet.
func (h *latencyHistory) Estimate(modelID string) (float64, bool) {
	return h.ringFor(modelID).estimate()
}

func isValidSample(v float64) bool {
	if v <= 0 {
		return false
	}
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
