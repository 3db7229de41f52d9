// Package docstore declares the narrow read interface the query API needs
// over the persistent proxied-message store. The store's own schema and
// its Mongo driver are out of scope for this repository (see spec.md §1,
// "Out of scope: ... the persistent document store's schema detail beyond
// what the cache pipeline reads/writes") — callers wire in a concrete
// implementation; this package only pins down the contract C9 depends on.
package docstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no message matches the lookup.
var ErrNotFound = errors.New("docstore: message not found")

// Message is the proxied-message metadata the query API returns. It is
// distinct from the redacted gateway cache entry at discord:message:{id}:
// this is the durable record written by the proxying pipeline, content and
// all, which lives entirely outside this repository's scope.
type Message struct {
	ChannelID  string    `json:"channel_id"`
	GuildID    string    `json:"guild_id,omitempty"`
	OriginalID string    `json:"original_id"`
	ProxyID    string    `json:"proxy_id"`
	AuthorID   string    `json:"author_id"`
	WebhookID  string    `json:"webhook_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store is the read path over the proxied-message store.
type Store interface {
	// FindMessage looks up a message in channelID whose proxy id or
	// original id equals messageID. Returns ErrNotFound if absent.
	FindMessage(ctx context.Context, channelID, messageID string) (*Message, error)
}
