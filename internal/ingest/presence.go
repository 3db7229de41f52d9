package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/sandwich-relay/sandwich/internal/discord"
)

const (
	presenceInterval = 10 * time.Second
	guildCounterKey  = "discord_guilds"
	userCounterKey   = "discord_users"
)

// runPresenceLoop refreshes every shard's presence text from the cached
// guild/user counters whenever either one changes.
func (m *Manager) runPresenceLoop(ctx context.Context) {
	ticker := time.NewTicker(presenceInterval)
	defer ticker.Stop()

	var lastGuilds, lastUsers int64 = -1, -1

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		guilds, err := m.store.GetCounter(ctx, guildCounterKey)
		if err != nil {
			m.log.Warn().Err(err).Msg("failed to read guild counter")
			continue
		}
		users, err := m.store.GetCounter(ctx, userCounterKey)
		if err != nil {
			m.log.Warn().Err(err).Msg("failed to read user counter")
			continue
		}

		if guilds == lastGuilds && users == lastUsers {
			continue
		}
		lastGuilds, lastUsers = guilds, users

		text := fmt.Sprintf("/help | %d servers, %d users", guilds, users)
		for _, s := range m.shards {
			s.sendPresence(ctx, text)
		}
	}
}

// sendPresence pushes a presence update to this shard's connection; it is
// a best-effort send and is silently skipped while the shard is between
// connections.
func (s *shard) sendPresence(ctx context.Context, text string) {
	s.wsMutex.Lock()
	connected := s.wsConn != nil
	s.wsMutex.Unlock()
	if !connected {
		return
	}

	status := discord.UpdateStatusData{
		Status: "online",
		Game:   &discord.Game{Name: text, Type: 0},
	}
	if err := s.writeJSON(ctx, discord.OpPresenceUpdate, status); err != nil {
		s.manager.log.Debug().Int("shard", s.id).Err(err).Msg("failed to send presence update")
	}
}
