// Package publisher appends selected gateway events to the durable
// discord_events stream, trimming entries older than 20 seconds so the
// stream never grows unbounded.
package publisher

import (
	"fmt"
	"time"

	"github.com/sandwich-relay/sandwich/internal/kvstore"
)

const (
	stream     = "discord_events"
	trimWindow = 20 * time.Second
)

// published is the exact set of event types that reach the stream.
var published = map[string]bool{
	"MESSAGE_CREATE":       true,
	"MESSAGE_UPDATE":       true,
	"MESSAGE_REACTION_ADD": true,
	"WEBHOOKS_UPDATE":      true,
}

// Publisher buffers stream appends onto the caller's transaction.
type Publisher struct{}

// New builds a Publisher. It carries no state of its own — trimming is
// computed fresh from the wall clock on every call.
func New() *Publisher {
	return &Publisher{}
}

// ShouldPublish reports whether eventType belongs to the published set.
func (p *Publisher) ShouldPublish(eventType string) bool {
	return published[eventType]
}

// Enqueue buffers one XADD of the full event envelope, requesting an exact
// MINID trim at now-20s so the stream only ever holds a short recent tail.
func (p *Publisher) Enqueue(tx *kvstore.Tx, eventJSON []byte, now time.Time) {
	minID := fmt.Sprintf("%d-0", now.Add(-trimWindow).UnixMilli())
	tx.XAddTrimmed(stream, eventJSON, minID)
}
