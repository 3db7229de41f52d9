package ingest

// Gateway intents bitmask values relevant to this service. Only the
// intents the cache pipeline actually consumes are requested.
const (
	intentGuilds          = 1 << 0
	intentGuildEmojis     = 1 << 3
	intentGuildWebhooks   = 1 << 5
	intentGuildMessages   = 1 << 9
	intentGuildReactions  = 1 << 10
	intentMessageContent  = 1 << 15
)

const identifyIntents = intentGuilds | intentGuildEmojis | intentGuildWebhooks |
	intentGuildMessages | intentGuildReactions | intentMessageContent

// ignoredDispatchTypes are never handed to the cache engine.
var ignoredDispatchTypes = map[string]bool{
	"READY":   true,
	"RESUMED": true,
	"UNKNOWN": true,
	"":        true,
}
