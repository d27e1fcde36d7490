package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	mu                  sync.Mutex
	estimations         map[string]uint64
	estimationLatencyMs uint64
	snapshotRuns        uint64
}

func New() *Collector {
	return &Collector{estimations: make(map[string]uint64)}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// ObserveEstimation counts estimation runs by outcome code.
func (c *Collector) ObserveEstimation(code string, duration time.Duration) {
	c.mu.Lock()
	c.estimations[code]++
	c.mu.Unlock()
	atomic.AddUint64(&c.estimationLatencyMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RecordSnapshotRun() {
	atomic.AddUint64(&c.snapshotRuns, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	byOutcome := make(map[string]uint64, len(c.estimations))
	var runs uint64
	for code, n := range c.estimations {
		byOutcome[code] = n
		runs += n
	}
	c.mu.Unlock()
	estAvg := float64(0)
	if runs > 0 {
		estAvg = float64(atomic.LoadUint64(&c.estimationLatencyMs)) / float64(runs)
	}

	return map[string]any{
		"requestsTotal":           total,
		"errorsTotal":             errs,
		"rateLimitedTotal":        limited,
		"avgDurationMs":           avg,
		"totalDurationMs":         totalMs,
		"estimationsTotal":        runs,
		"estimationsByOutcome":    byOutcome,
		"estimationAvgDurationMs": estAvg,
		"snapshotRunsTotal":       atomic.LoadUint64(&c.snapshotRuns),
	}
}
