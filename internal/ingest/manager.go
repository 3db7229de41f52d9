// Package ingest implements the ingestion orchestrator: it fetches the
// gateway metadata for a bot token, spawns one shard per shard id, wires
// every qualifying dispatch into the cache coherence engine, and keeps a
// presence string updated from the cached guild/user counters.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/sandwich-relay/sandwich/internal/cache"
	"github.com/sandwich-relay/sandwich/internal/discord"
	"github.com/sandwich-relay/sandwich/internal/egress"
	"github.com/sandwich-relay/sandwich/internal/kvstore"
)

// Manager owns the full set of shards for a single bot token.
type Manager struct {
	token    string
	governor *egress.Governor
	store    *kvstore.Store
	engine   *cache.Engine
	log      zerolog.Logger

	gatewayURL   string
	shardCount   int
	shards       []*shard
	identifyGate *identifyGate
}

// New builds a Manager. The governor is used in-process to fetch
// /gateway/bot through the same rate-limited path the egress binary
// exposes over HTTP, rather than looping a request back over the network.
func New(token string, governor *egress.Governor, store *kvstore.Store, engine *cache.Engine, log zerolog.Logger) *Manager {
	return &Manager{
		token:    token,
		governor: governor,
		store:    store,
		engine:   engine,
		log:      log,
	}
}

// Start fetches gateway metadata, computes the shard count, spawns every
// shard, and blocks until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) error {
	bot, err := m.fetchGatewayBot(ctx)
	if err != nil {
		return fmt.Errorf("fetch gateway bot: %w", err)
	}

	m.gatewayURL = bot.URL
	m.shardCount = resolveShardCount(bot.Shards)
	concurrency := bot.SessionLimit.MaxConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	m.identifyGate = newIdentifyGate(concurrency)

	m.log.Info().
		Int("shards", m.shardCount).
		Int("max_concurrency", concurrency).
		Int("sessions_remaining", bot.SessionLimit.Remaining).
		Msg("starting shards")

	m.shards = make([]*shard, m.shardCount)
	for id := 0; id < m.shardCount; id++ {
		s := &shard{manager: m, id: id, count: m.shardCount}
		m.shards[id] = s
		go s.run(ctx)
	}

	go m.runPresenceLoop(ctx)

	<-ctx.Done()
	return nil
}

// resolveShardCount rounds recommended shard counts above 63 up to the
// nearest multiple of 16, matching Discord's large-bot sharding rule.
func resolveShardCount(recommended int) int {
	if recommended < 1 {
		recommended = 1
	}
	if recommended > 63 {
		recommended = int(math.Ceil(float64(recommended)/16)) * 16
	}
	return recommended
}

func (m *Manager) fetchGatewayBot(ctx context.Context) (*discord.GatewayBotResponse, error) {
	header := http.Header{}
	header.Set("Authorization", m.token)

	status, _, body, err := m.governor.Forward(ctx, m.token, http.MethodGet, "/api/v10/gateway/bot", header, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("gateway/bot returned status %d: %s", status, body)
	}

	var bot discord.GatewayBotResponse
	if err := json.Unmarshal(body, &bot); err != nil {
		return nil, fmt.Errorf("decode gateway/bot response: %w", err)
	}
	return &bot, nil
}
