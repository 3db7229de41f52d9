package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCreatesFreshSinglePermitBucket(t *testing.T) {
	registry := NewRegistry()
	rl := registry.Lookup("Bot X", "GET", "/channels/:id/messages")

	snap := rl.Snapshot()
	assert.Equal(t, 1, rl.Limit)
	assert.Equal(t, 1, snap.Remaining)
}

func TestAcquireBlocksBeyondPermitCount(t *testing.T) {
	registry := NewRegistry()
	rl := registry.Lookup("Bot X", "GET", "/channels/:id/messages")
	rl.Update(10, 9, time.Now().Add(5*time.Second)) // 10/2 = 5 permits

	acquired := 0
	for i := 0; i < 5; i++ {
		done := make(chan struct{})
		go func() {
			rl.Acquire()
			close(done)
		}()
		select {
		case <-done:
			acquired++
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("permit %d should have been immediately available", i)
		}
	}
	require.Equal(t, 5, acquired)

	blocked := make(chan struct{})
	go func() {
		rl.Acquire()
		close(blocked)
	}()

	select {
	case <-blocked:
		t.Fatal("6th acquire should have blocked: only 5 permits were issued")
	case <-time.After(50 * time.Millisecond):
	}

	rl.Release()

	select {
	case <-blocked:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("6th acquire should have unblocked after a release")
	}
}

func TestUpdateReplacesSemaphoreOnLimitChange(t *testing.T) {
	registry := NewRegistry()
	rl := registry.Lookup("Bot X", "GET", "/guilds/:id")

	rl.Acquire() // drains the single starting permit

	// Learning a new limit must hand out fresh permits on the new
	// semaphore rather than require the stale one to be released first.
	rl.Update(20, 19, time.Now().Add(time.Second))

	done := make(chan struct{})
	go func() {
		rl.Acquire()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("acquiring on the replaced semaphore should not block on the old one")
	}
}

func TestLearnMigratesStateFromUnknownPlaceholder(t *testing.T) {
	registry := NewRegistry()

	first := registry.Lookup("Bot X", "POST", "/channels/:id/messages")
	registry.Learn("Bot X", "POST", "/channels/:id/messages", "bucketA", 5, 4, time.Now().Add(time.Second))

	second := registry.Lookup("Bot X", "POST", "/channels/:id/messages")
	assert.Same(t, first, second, "learning a bucket for a previously-unknown op should reuse the same state, not discard it")
	assert.Equal(t, 5, second.Limit)
}
