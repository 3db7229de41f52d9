// Package ratelimit implements the bucket registry: per-(token, bucket)
// rate-limit state learned from Discord's response headers, plus the
// (method, path) -> bucket mapping used to look that state up for requests
// that haven't completed yet.
package ratelimit

import (
	"sync"
	"time"
)

// RateLimit is the live permit/accounting state for one (token, bucket)
// pair. Semaphore is replaced wholesale (never resized) whenever Limit
// changes, per the spec's note that in-flight holders keep their own
// reference to the old semaphore.
type RateLimit struct {
	mu        sync.Mutex
	semaphore chan struct{}
	Limit     int
	Remaining int
	Reset     time.Time
}

// newRateLimit builds a fresh, single-permit bucket — the state an unknown
// (token, bucket) pair starts in before any response has taught the
// registry its real limit.
func newRateLimit() *RateLimit {
	sem := make(chan struct{}, 1)
	sem <- struct{}{}
	return &RateLimit{semaphore: sem, Limit: 1, Remaining: 1}
}

// Acquire blocks until a permit is available on the bucket's *current*
// semaphore, snapshotted at call time so replacement by a concurrent
// update never deadlocks the acquirer.
func (r *RateLimit) Acquire() {
	r.mu.Lock()
	sem := r.semaphore
	r.mu.Unlock()
	<-sem
}

// Release returns a permit to the semaphore instance that was active at
// Acquire time, which may no longer be the bucket's current semaphore —
// that's fine, the stale semaphore simply drains and is garbage collected.
func (r *RateLimit) Release() {
	r.mu.Lock()
	sem := r.semaphore
	r.mu.Unlock()
	select {
	case sem <- struct{}{}:
	default:
	}
}

// Snapshot is a point-in-time read used by the governor to decide whether
// to sleep before acquiring a permit.
type Snapshot struct {
	Remaining int
	Reset     time.Time
}

// Snapshot returns the bucket's current remaining/reset without acquiring.
func (r *RateLimit) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{Remaining: r.Remaining, Reset: r.Reset}
}

// Update applies a learned limit/remaining/reset triple from a response,
// replacing the semaphore if limit changed so the new permit count takes
// effect for every acquirer after this call.
func (r *RateLimit) Update(limit, remaining int, reset time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit != r.Limit || r.semaphore == nil {
		permits := limit / 2
		if permits < 1 {
			permits = 1
		}
		sem := make(chan struct{}, permits)
		for i := 0; i < permits; i++ {
			sem <- struct{}{}
		}
		r.semaphore = sem
	}

	r.Limit = limit
	r.Remaining = remaining
	r.Reset = reset
}

type bucketKey struct {
	method string
	path   string
}

// Registry is the process-wide bucket map: token -> bucket-id -> RateLimit,
// plus the auxiliary (method, canonical path) -> bucket-id map.
type Registry struct {
	mu         sync.Mutex
	byBucket   map[string]map[string]*RateLimit // token -> bucket -> state
	bucketByOp map[bucketKey]string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byBucket:   make(map[string]map[string]*RateLimit),
		bucketByOp: make(map[bucketKey]string),
	}
}

// Lookup resolves the RateLimit for a (token, method, canonicalPath)
// triple, creating a fresh one if the bucket is unknown or the op has never
// been seen before.
func (r *Registry) Lookup(token, method, canonicalPath string) *RateLimit {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.bucketByOp[bucketKey{method, canonicalPath}]
	if !ok {
		// Unknown op: key the placeholder state directly off the path so
		// concurrent requests to the *same* unlearned endpoint still
		// serialise against one semaphore instead of each getting their own.
		bucket = "unknown:" + method + ":" + canonicalPath
	}

	perToken, ok := r.byBucket[token]
	if !ok {
		perToken = make(map[string]*RateLimit)
		r.byBucket[token] = perToken
	}

	rl, ok := perToken[bucket]
	if !ok {
		rl = newRateLimit()
		perToken[bucket] = rl
	}

	return rl
}

// Learn records the (method, path) -> bucket mapping and applies the
// learned limit/remaining/reset to the (token, bucket) state, migrating any
// state that had been keyed under the unknown-bucket placeholder.
func (r *Registry) Learn(token, method, canonicalPath, bucket string, limit, remaining int, reset time.Time) {
	r.mu.Lock()

	key := bucketKey{method, canonicalPath}
	previousBucket, hadMapping := r.bucketByOp[key]
	r.bucketByOp[key] = bucket

	perToken, ok := r.byBucket[token]
	if !ok {
		perToken = make(map[string]*RateLimit)
		r.byBucket[token] = perToken
	}

	rl, ok := perToken[bucket]
	if !ok {
		placeholder := "unknown:" + method + ":" + canonicalPath
		if hadMapping {
			placeholder = previousBucket
		}
		if existing, found := perToken[placeholder]; found {
			rl = existing
			delete(perToken, placeholder)
		} else {
			rl = newRateLimit()
		}
		perToken[bucket] = rl
	}

	r.mu.Unlock()

	rl.Update(limit, remaining, reset)
}
