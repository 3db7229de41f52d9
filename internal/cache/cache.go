// Package cache implements the cache coherence engine: per-event-type
// handlers that read, deep-merge and write cached entity documents, fan out
// composite events into synthetic sub-events, and maintain the per-guild
// index sets used for cascade deletes.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sandwich-relay/sandwich/internal/dedupe"
	"github.com/sandwich-relay/sandwich/internal/kvstore"
	"github.com/sandwich-relay/sandwich/internal/publisher"
)

// Outcome tags how a single event was handled, for the orchestrator's log
// line.
type Outcome int

// Outcome values. The zero value is OutcomeError.
const (
	OutcomeError Outcome = iota
	OutcomeDuplicate
	OutcomeCached
	OutcomeUnsupported
	OutcomePublished
)

// String renders the outcome the way it appears in log lines.
func (o Outcome) String() string {
	switch o {
	case OutcomeDuplicate:
		return "Duplicate"
	case OutcomeCached:
		return "Cached"
	case OutcomeUnsupported:
		return "Unsupported"
	case OutcomePublished:
		return "Published"
	default:
		return "Error"
	}
}

// ignoredTypes are envelopes ingestion never hands to the cache engine.
var ignoredTypes = map[string]bool{
	"":        true,
	"READY":   true,
	"RESUMED": true,
	"UNKNOWN": true,
}

// Engine dispatches gateway events into cached documents.
type Engine struct {
	store      *kvstore.Store
	suppressor *dedupe.Suppressor
	publisher  *publisher.Publisher
	selfUserID string
	log        zerolog.Logger
}

// New builds an Engine. selfUserID is the bot's own user id (see
// SelfUserID), used to exempt the bot's own member document from TTL
// expiry.
func New(store *kvstore.Store, suppressor *dedupe.Suppressor, pub *publisher.Publisher, selfUserID string, log zerolog.Logger) *Engine {
	return &Engine{store: store, suppressor: suppressor, publisher: pub, selfUserID: selfUserID, log: log}
}

// Process runs the full suppress -> cache -> publish pipeline for one
// gateway event. eventJSON is the full envelope (op, s, t, d) re-encoded
// from the received frame, used verbatim for stream publication; eventType
// and data are its decoded `t`/`d` fields.
func (e *Engine) Process(ctx context.Context, eventJSON []byte, eventType string, data json.RawMessage) (Outcome, error) {
	if ignoredTypes[eventType] || len(data) == 0 {
		return OutcomeUnsupported, nil
	}

	claimed, err := e.suppressor.Claim(ctx, eventType, data)
	if err != nil {
		return OutcomeError, err
	}
	if !claimed {
		return OutcomeDuplicate, nil
	}

	tx := e.store.Begin()

	supported, err := e.dispatch(ctx, tx, eventType, data)
	if err != nil {
		return OutcomeError, fmt.Errorf("cache: dispatch %s: %w", eventType, err)
	}

	published := e.publisher.ShouldPublish(eventType)
	if published {
		e.publisher.Enqueue(tx, eventJSON, time.Now())
	}

	if err := tx.Exec(ctx); err != nil {
		return OutcomeError, fmt.Errorf("cache: flush %s: %w", eventType, err)
	}

	switch {
	case published:
		return OutcomePublished, nil
	case supported:
		return OutcomeCached, nil
	default:
		return OutcomeUnsupported, nil
	}
}

// dispatch routes one decoded event to its handler. It returns
// supported=false for any type the cache engine has no opinion about,
// matching the spec's "any other t" fallthrough.
func (e *Engine) dispatch(ctx context.Context, tx *kvstore.Tx, eventType string, data json.RawMessage) (bool, error) {
	switch eventType {
	case "MESSAGE_CREATE":
		return true, e.handleMessage(ctx, tx, data, true)
	case "MESSAGE_UPDATE":
		return true, e.handleMessage(ctx, tx, data, false)
	case "MESSAGE_DELETE":
		return true, e.handleMessageDelete(ctx, tx, data)
	case "GUILD_CREATE", "GUILD_UPDATE":
		return true, e.handleGuildUpsert(ctx, tx, data)
	case "GUILD_DELETE":
		return true, e.handleGuildDelete(ctx, tx, data)
	case "GUILD_ROLE_CREATE", "GUILD_ROLE_UPDATE":
		return true, e.handleRoleUpsert(ctx, tx, data)
	case "GUILD_ROLE_DELETE":
		return true, e.handleRoleDelete(ctx, tx, data)
	case "GUILD_EMOJIS_UPDATE":
		return true, e.handleEmojisUpdate(ctx, tx, data)
	case "CHANNEL_CREATE", "CHANNEL_UPDATE", "THREAD_CREATE", "THREAD_UPDATE":
		return true, e.handleChannelUpsert(ctx, tx, data)
	case "CHANNEL_DELETE", "THREAD_DELETE":
		return true, e.handleChannelDelete(ctx, tx, data)
	case "THREAD_LIST_SYNC":
		return true, e.handleThreadListSync(ctx, tx, data)
	case "GUILD_MEMBER_UPDATE":
		return true, e.handleMemberUpdateEvent(ctx, tx, data)
	case "MESSAGE_REACTION_ADD":
		return e.handleReactionAdd(ctx, tx, data)
	case "WEBHOOKS_UPDATE":
		// No cache mutation; the event is published downstream by the
		// publisher stage regardless of this handler's verdict.
		return true, nil
	default:
		return false, nil
	}
}
