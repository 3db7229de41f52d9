package discord

import "encoding/json"

// Gateway opcodes relevant to shard bookkeeping.
const (
	OpDispatch            = 0
	OpHeartbeat           = 1
	OpIdentify            = 2
	OpPresenceUpdate      = 3
	OpVoiceStateUpdate    = 4
	OpResume              = 6
	OpReconnect           = 7
	OpRequestGuildMembers = 8
	OpInvalidSession      = 9
	OpHello               = 10
	OpHeartbeatACK        = 11
)

// Event is the envelope every gateway payload arrives in.
type Event struct {
	Operation int             `json:"op"`
	Sequence  int64           `json:"s"`
	Type      string          `json:"t"`
	RawData   json.RawMessage `json:"d"`
}

// Hello is the data sent in the Hello event.
type Hello struct {
	HeartbeatIntervalMS int `json:"heartbeat_interval"`
}

// Ready stores the websocket READY payload.
type Ready struct {
	Version         int                 `json:"v"`
	SessionID       string              `json:"session_id"`
	ResumeGatewayURL string             `json:"resume_gateway_url"`
	User            *User               `json:"user"`
	Guilds          []*UnavailableGuild `json:"guilds"`
	Shard           *[2]int             `json:"shard,omitempty"`
}

// Identify is the payload sent to authenticate a shard connection.
type Identify struct {
	Token          string             `json:"token"`
	Properties     IdentifyProperties `json:"properties"`
	LargeThreshold int                `json:"large_threshold,omitempty"`
	Compress       bool               `json:"compress,omitempty"`
	Shard          *[2]int            `json:"shard,omitempty"`
	Presence       *UpdateStatusData  `json:"presence,omitempty"`
	Intents        int                `json:"intents"`
}

// IdentifyProperties describes the connecting client to the gateway.
type IdentifyProperties struct {
	OS      string `json:"$os"`
	Browser string `json:"$browser"`
	Device  string `json:"$device"`
}

// ResumeData is the payload sent to resume a dropped session.
type ResumeData struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Sequence  int64  `json:"seq"`
}

// UpdateStatusData represents a presence update.
type UpdateStatusData struct {
	Since  *int64 `json:"since"`
	Game   *Game  `json:"game,omitempty"`
	AFK    bool   `json:"afk"`
	Status string `json:"status"`
}

// Game is the "playing ..." activity attached to a presence update.
type Game struct {
	Name string `json:"name"`
	Type int    `json:"type"`
	URL  string `json:"url,omitempty"`
}

// ChannelPinsUpdate stores data for a CHANNEL_PINS_UPDATE event.
type ChannelPinsUpdate struct {
	LastPinTimestamp string `json:"last_pin_timestamp,omitempty"`
	ChannelID        string `json:"channel_id"`
	GuildID          string `json:"guild_id,omitempty"`
}

// GuildBanAdd is the data for a GUILD_BAN_ADD event.
type GuildBanAdd struct {
	User    *User  `json:"user"`
	GuildID string `json:"guild_id"`
}

// GuildBanRemove is the data for a GUILD_BAN_REMOVE event.
type GuildBanRemove struct {
	User    *User  `json:"user"`
	GuildID string `json:"guild_id"`
}

// GuildRoleCreate is the data for a GUILD_ROLE_CREATE event.
type GuildRoleCreate struct {
	Role    *Role  `json:"role"`
	GuildID string `json:"guild_id"`
}

// GuildRoleUpdate is the data for a GUILD_ROLE_UPDATE event.
type GuildRoleUpdate struct {
	Role    *Role  `json:"role"`
	GuildID string `json:"guild_id"`
}

// GuildRoleDelete is the data for a GUILD_ROLE_DELETE event.
type GuildRoleDelete struct {
	RoleID  string `json:"role_id"`
	GuildID string `json:"guild_id"`
}

// GuildEmojisUpdate is the data for a GUILD_EMOJIS_UPDATE event.
type GuildEmojisUpdate struct {
	GuildID string   `json:"guild_id"`
	Emojis  []*Emoji `json:"emojis"`
}

// GuildMembersChunk is the data for a GUILD_MEMBERS_CHUNK event.
type GuildMembersChunk struct {
	GuildID string    `json:"guild_id"`
	Members []*Member `json:"members"`
	Nonce   string    `json:"nonce,omitempty"`
}

// GuildIntegrationsUpdate is the data for a GUILD_INTEGRATIONS_UPDATE event.
type GuildIntegrationsUpdate struct {
	GuildID string `json:"guild_id"`
}

// MessageDeleteBulk is the data for a MESSAGE_DELETE_BULK event.
type MessageDeleteBulk struct {
	IDs       []string `json:"ids"`
	ChannelID string   `json:"channel_id"`
	GuildID   string   `json:"guild_id,omitempty"`
}

// WebhooksUpdate is the data for a WEBHOOKS_UPDATE event.
type WebhooksUpdate struct {
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id"`
}

// TypingStart is the data for a TYPING_START event.
type TypingStart struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	GuildID   string `json:"guild_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ThreadListSync is the data for a THREAD_LIST_SYNC event, sent when a shard
// gains visibility into a batch of threads it did not previously have
// cached (e.g. on permission changes).
type ThreadListSync struct {
	GuildID    string     `json:"guild_id"`
	ChannelIDs []string   `json:"channel_ids,omitempty"`
	Threads    []*Channel `json:"threads"`
}

// VoiceServerUpdate is the data for a VOICE_SERVER_UPDATE event.
type VoiceServerUpdate struct {
	Token    string `json:"token"`
	GuildID  string `json:"guild_id"`
	Endpoint string `json:"endpoint"`
}
