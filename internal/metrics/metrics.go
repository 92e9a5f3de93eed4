// Package metrics tracks per-stage pipeline latency and rejection counters.
// Grounded directly on the teacher's internal/trading/metrics.go: the same
// fixed-size ring buffer + bubble-sort percentile shape, the same
// atomic-counter idiom, relabeled from the teacher's (parse/resolve/quote/
// sign/send) trade stages to this pipeline's own (lookup/score/validate/
// guard/size/emit) stages.
package metrics

import (
	"sync"
	"sync/atomic"
)

const ringSize = 100

// Pipeline tracks per-stage latency and outcome counters for the decision
// pipeline.
type Pipeline struct {
	samples   []int64
	sampleIdx int
	mu        sync.Mutex

	totalCandidates atomic.Int64
	emitted         atomic.Int64
	rejected        atomic.Int64

	lastLookupMs   atomic.Int64
	lastScoreMs    atomic.Int64
	lastValidateMs atomic.Int64
	lastGuardMs    atomic.Int64
	lastSizeMs     atomic.Int64
	lastEmitMs     atomic.Int64
	lastTotalMs    atomic.Int64

	mu2              sync.Mutex
	rejectionCounts  map[string]int64
}

// NewPipeline creates an empty pipeline metrics tracker.
func NewPipeline() *Pipeline {
	return &Pipeline{
		samples:         make([]int64, ringSize),
		rejectionCounts: make(map[string]int64),
	}
}

// RecordCandidate records one pipeline pass with its per-stage latency
// breakdown (all in milliseconds) and outcome.
func (p *Pipeline) RecordCandidate(emitted bool, lookupMs, scoreMs, validateMs, guardMs, sizeMs, emitMs int64) {
	totalMs := lookupMs + scoreMs + validateMs + guardMs + sizeMs + emitMs

	p.mu.Lock()
	p.samples[p.sampleIdx%len(p.samples)] = totalMs
	p.sampleIdx++
	p.mu.Unlock()

	p.totalCandidates.Add(1)
	if emitted {
		p.emitted.Add(1)
	} else {
		p.rejected.Add(1)
	}

	p.lastLookupMs.Store(lookupMs)
	p.lastScoreMs.Store(scoreMs)
	p.lastValidateMs.Store(validateMs)
	p.lastGuardMs.Store(guardMs)
	p.lastSizeMs.Store(sizeMs)
	p.lastEmitMs.Store(emitMs)
	p.lastTotalMs.Store(totalMs)
}

// RecordRejection increments the counter for a rejection kind (e.g.
// "FeesTooHigh", "RateLimited").
func (p *Pipeline) RecordRejection(kind string) {
	p.mu2.Lock()
	defer p.mu2.Unlock()
	p.rejectionCounts[kind]++
}

// RejectionCounts returns a snapshot of rejection counts by kind.
func (p *Pipeline) RejectionCounts() map[string]int64 {
	p.mu2.Lock()
	defer p.mu2.Unlock()
	out := make(map[string]int64, len(p.rejectionCounts))
	for k, v := range p.rejectionCounts {
		out[k] = v
	}
	return out
}

// P50/P95/P99 return the given percentile of total per-candidate latency.
func (p *Pipeline) P50() int64 { return p.percentile(50) }
func (p *Pipeline) P95() int64 { return p.percentile(95) }
func (p *Pipeline) P99() int64 { return p.percentile(99) }

func (p *Pipeline) percentile(pct int) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := p.sampleIdx
	if count > len(p.samples) {
		count = len(p.samples)
	}
	if count == 0 {
		return 0
	}

	sorted := make([]int64, count)
	copy(sorted, p.samples[:count])
	for i := 0; i < len(sorted)-1; i++ {
		for j := 0; j < len(sorted)-i-1; j++ {
			if sorted[j] > sorted[j+1] {
				sorted[j], sorted[j+1] = sorted[j+1], sorted[j]
			}
		}
	}

	idx := (pct * count) / 100
	if idx >= count {
		idx = count - 1
	}
	return sorted[idx]
}

// Stats returns aggregate outcome counters.
func (p *Pipeline) Stats() (total, emitted, rejected int64) {
	return p.totalCandidates.Load(), p.emitted.Load(), p.rejected.Load()
}

// LastBreakdown returns the most recent candidate's per-stage latency.
func (p *Pipeline) LastBreakdown() (lookup, score, validate, guard, size, emit, total int64) {
	return p.lastLookupMs.Load(),
		p.lastScoreMs.Load(),
		p.lastValidateMs.Load(),
		p.lastGuardMs.Load(),
		p.lastSizeMs.Load(),
		p.lastEmitMs.Load(),
		p.lastTotalMs.Load()
}
