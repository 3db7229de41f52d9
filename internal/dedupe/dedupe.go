// Package dedupe implements the duplicate suppressor: a create-only claim
// against the KV store that collapses identical events delivered by more
// than one shard within a short window.
package dedupe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/sandwich-relay/sandwich/internal/kvstore"
)

const claimTTL = 10 * time.Second

// webhooksUpdate bypasses the claim entirely: every shard that sees one
// publishes, per the spec's dedupe-bypass rule.
const webhooksUpdate = "WEBHOOKS_UPDATE"

// Suppressor claims event fingerprints against a KV store.
type Suppressor struct {
	store *kvstore.Store
}

// New builds a Suppressor backed by the given store.
func New(store *kvstore.Store) *Suppressor {
	return &Suppressor{store: store}
}

// Claim reports whether the caller is the first to observe an event with
// this (eventType, data) pair within the claim window. For WEBHOOKS_UPDATE
// it always returns true without touching the store.
func (s *Suppressor) Claim(ctx context.Context, eventType string, data json.RawMessage) (bool, error) {
	if eventType == webhooksUpdate {
		return true, nil
	}

	hash, err := Fingerprint(data)
	if err != nil {
		return false, fmt.Errorf("dedupe: fingerprint: %w", err)
	}

	key := fmt.Sprintf("discord:event:%s:%x", eventType, hash)

	claimed, err := s.store.ClaimOnce(ctx, key, claimTTL)
	if err != nil {
		return false, fmt.Errorf("dedupe: claim %s: %w", key, err)
	}

	return claimed, nil
}

// Fingerprint computes a deterministic, non-cryptographic hash of a JSON
// payload. The payload is first decoded and re-encoded through a sorted-key
// map so that two shards emitting semantically identical events — but
// serialised with different key orders — hash identically. This resolves
// the spec's open question about hash stability in favour of canonicalising
// rather than trusting the source's field order.
func Fingerprint(data json.RawMessage) (uint64, error) {
	canonical, err := canonicalize(data)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(canonical), nil
}

// canonicalize decodes arbitrary JSON into dynamic Go values and re-encodes
// it; encoding/json always emits object keys in sorted order, which gives
// us byte-stable output regardless of the input's original key ordering.
func canonicalize(data json.RawMessage) ([]byte, error) {
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("canonicalize: unmarshal: %w", err)
	}

	out, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: marshal: %w", err)
	}

	return out, nil
}
