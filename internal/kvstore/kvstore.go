// Package kvstore wraps the Redis client used for everything the spec calls
// "the KV store": cached entity documents (RedisJSON), dedupe claims,
// per-guild index sets, sharded emoji sets, and the discord_events stream.
//
// Every mutation belonging to a single cache_and_publish call is buffered on
// one Tx (a thin wrapper over redis.Pipeliner) and flushed exactly once,
// matching the write discipline in spec.md §4.2.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is typed access to the subset of Redis/RedisJSON commands the cache
// pipeline, dedupe suppressor and event publisher need.
type Store struct {
	rdb *redis.Client
}

// New parses a redis:// URL and verifies connectivity with a 5s timeout,
// mirroring the teacher's eager Ping-on-construct pattern (state.go).
func New(ctx context.Context, url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("kvstore: parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("kvstore: ping redis: %w", err)
	}

	return &Store{rdb: rdb}, nil
}

// NewFromClient wraps an already-constructed client without pinging it.
func NewFromClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Client returns the underlying client for operations this package does not
// wrap.
func (s *Store) Client() *redis.Client {
	return s.rdb
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// ClaimOnce sets key to "1" with the given TTL using create-only (NX)
// semantics. It reports true iff this call was the one that created the
// key — i.e. the caller is the first claimant.
func (s *Store) ClaimOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("kvstore: claim %s: %w", key, err)
	}
	return ok, nil
}

// Exists reports whether a key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("kvstore: exists %s: %w", key, err)
	}
	return n > 0, nil
}

// GetCounter returns the current value of a plain integer counter key,
// defaulting to 0 if absent (discord_guilds / discord_users).
func (s *Store) GetCounter(ctx context.Context, key string) (int64, error) {
	v, err := s.rdb.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("kvstore: get counter %s: %w", key, err)
	}
	return v, nil
}

// JSONGet fetches the document's "$" root and decodes it into dst. It
// reports found=false (no error) when the key is absent.
func (s *Store) JSONGet(ctx context.Context, key string, dst interface{}) (found bool, err error) {
	raw, err := s.rdb.Do(ctx, "JSON.GET", key, "$").Text()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("kvstore: json.get %s: %w", key, err)
	}

	if raw == "" {
		return false, nil
	}

	// RedisJSON returns the root path wrapped in an array: `[{...}]`.
	var wrapped [1]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
		return false, fmt.Errorf("kvstore: unmarshal json.get envelope %s: %w", key, err)
	}

	if err := json.Unmarshal(wrapped[0], dst); err != nil {
		return false, fmt.Errorf("kvstore: unmarshal json.get value %s: %w", key, err)
	}

	return true, nil
}

// JSONGetPath fetches a single JSON-path value from a document. It reports
// found=false (no error) when the key or the path is absent or null.
func (s *Store) JSONGetPath(ctx context.Context, key, path string, dst interface{}) (found bool, err error) {
	raw, err := s.rdb.Do(ctx, "JSON.GET", key, path).Text()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("kvstore: json.get %s %s: %w", key, path, err)
	}

	if raw == "" || raw == "[]" {
		return false, nil
	}

	var wrapped [1]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
		return false, fmt.Errorf("kvstore: unmarshal json.get envelope %s %s: %w", key, path, err)
	}

	if string(wrapped[0]) == "null" {
		return false, nil
	}

	if err := json.Unmarshal(wrapped[0], dst); err != nil {
		return false, fmt.Errorf("kvstore: unmarshal json.get value %s %s: %w", key, path, err)
	}

	return true, nil
}

// SMembers returns every member of a set key.
func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("kvstore: smembers %s: %w", key, err)
	}
	return members, nil
}

// Tx buffers a batch of commands belonging to a single event's
// cache_and_publish call and flushes them atomically with Exec.
type Tx struct {
	pipe redis.Pipeliner
}

// Begin starts a new buffered transaction.
func (s *Store) Begin() *Tx {
	return &Tx{pipe: s.rdb.TxPipeline()}
}

// JSONSet buffers a JSON.SET at the given path. An empty condition disables
// conditional semantics; pass "XX" or "NX" to match RedisJSON's SetOptions.
func (t *Tx) JSONSet(key, path string, value interface{}, condition string) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kvstore: marshal json.set value %s %s: %w", key, path, err)
	}

	args := []interface{}{"JSON.SET", key, path, string(encoded)}
	if condition != "" {
		args = append(args, condition)
	}

	t.pipe.Do(context.Background(), args...)
	return nil
}

// JSONMSetField is one (path, value) pair in a multi-field JSON.MSET call.
type JSONMSetField struct {
	Path  string
	Value interface{}
}

// JSONMSet buffers a single JSON.MSET applying every field to the same key,
// matching the pipeline.json_mset calls in the cache handlers.
func (t *Tx) JSONMSet(key string, fields []JSONMSetField) error {
	args := make([]interface{}, 0, 2+3*len(fields))
	args = append(args, "JSON.MSET")

	for _, f := range fields {
		encoded, err := json.Marshal(f.Value)
		if err != nil {
			return fmt.Errorf("kvstore: marshal json.mset value %s %s: %w", key, f.Path, err)
		}
		args = append(args, key, f.Path, string(encoded))
	}

	t.pipe.Do(context.Background(), args...)
	return nil
}

// SAdd buffers adding members to a set.
func (t *Tx) SAdd(key string, members ...string) {
	if len(members) == 0 {
		return
	}
	anyMembers := make([]interface{}, len(members))
	for i, m := range members {
		anyMembers[i] = m
	}
	t.pipe.SAdd(context.Background(), key, anyMembers...)
}

// SRem buffers removing members from a set.
func (t *Tx) SRem(key string, members ...string) {
	if len(members) == 0 {
		return
	}
	anyMembers := make([]interface{}, len(members))
	for i, m := range members {
		anyMembers[i] = m
	}
	t.pipe.SRem(context.Background(), key, anyMembers...)
}

// Del buffers deleting one or more keys.
func (t *Tx) Del(keys ...string) {
	if len(keys) == 0 {
		return
	}
	t.pipe.Del(context.Background(), keys...)
}

// Expire buffers setting a TTL on a key.
func (t *Tx) Expire(key string, ttl time.Duration) {
	t.pipe.Expire(context.Background(), key, ttl)
}

// Persist buffers clearing a key's TTL, used when a member document
// transitions to the application's own, never-expiring entry.
func (t *Tx) Persist(key string) {
	t.pipe.Persist(context.Background(), key)
}

// XAddTrimmed buffers appending one stream entry with a single "data" field
// and requests an exact MINID trim, matching the publisher's trim policy.
func (t *Tx) XAddTrimmed(stream string, data []byte, minID string) {
	t.pipe.XAdd(context.Background(), &redis.XAddArgs{
		Stream: stream,
		ID:     "*",
		MinID:  minID,
		Approx: false,
		Values: map[string]interface{}{"data": data},
	})
}

// Exec flushes every buffered command as a single pipeline round-trip.
func (t *Tx) Exec(ctx context.Context) error {
	_, err := t.pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return fmt.Errorf("kvstore: pipeline exec: %w", err)
	}
	return nil
}
