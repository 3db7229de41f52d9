package ingest

import (
	"sync"
	"time"
)

// identifyCooldown mirrors Discord's per-bucket identify rate limit: one
// identify every 5 seconds within a given max_concurrency bucket.
const identifyCooldown = 5 * time.Second

// identifyGate enforces the gateway's identify concurrency bucketing
// without the teacher's ConcurrencyLimiter/BucketStore types, which this
// repo has nothing equivalent to reconstruct from. Shards are bucketed by
// shard_id % max_concurrency, matching Discord's own bucketing rule, and
// each bucket is serialised to one identify per identifyCooldown.
type identifyGate struct {
	concurrency int
	mu          []sync.Mutex
	last        []time.Time
}

func newIdentifyGate(concurrency int) *identifyGate {
	if concurrency < 1 {
		concurrency = 1
	}
	return &identifyGate{
		concurrency: concurrency,
		mu:          make([]sync.Mutex, concurrency),
		last:        make([]time.Time, concurrency),
	}
}

// wait blocks until shardID's bucket is clear to send an identify.
func (g *identifyGate) wait(shardID int) {
	bucket := shardID % g.concurrency
	g.mu[bucket].Lock()
	defer g.mu[bucket].Unlock()

	if elapsed := time.Since(g.last[bucket]); elapsed < identifyCooldown {
		time.Sleep(identifyCooldown - elapsed)
	}
	g.last[bucket] = time.Now()
}
