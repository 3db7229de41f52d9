// Package discord holds the wire types for Discord gateway payloads and
// cached entities. Every struct here is a plain JSON document: none of them
// know how to save or load themselves — that is the cache engine's job.
package discord

// Timestamp stores an ISO8601 timestamp as sent by the Discord API.
type Timestamp string

// ChannelType enumerates the known channel kinds.
type ChannelType int

// Channel type constants, in API order.
const (
	ChannelTypeGuildText ChannelType = iota
	ChannelTypeDM
	ChannelTypeGuildVoice
	ChannelTypeGroupDM
	ChannelTypeGuildCategory
	ChannelTypeGuildNews
	ChannelTypeGuildStore
	_
	_
	_
	ChannelTypeGuildNewsThread
	ChannelTypeGuildPublicThread
	ChannelTypeGuildPrivateThread
)

// MessageType enumerates the known message kinds.
type MessageType int

// Message type constants, in API order.
const (
	MessageTypeDefault MessageType = iota
	MessageTypeRecipientAdd
	MessageTypeRecipientRemove
	MessageTypeCall
	MessageTypeChannelNameChange
	MessageTypeChannelIconChange
	MessageTypeChannelPinnedMessage
	MessageTypeGuildMemberJoin
)

// VerificationLevel is the guild's member verification requirement.
type VerificationLevel int

// ExplicitContentFilterLevel is the guild's explicit-content scan setting.
type ExplicitContentFilterLevel int

// User stores all data for an individual Discord user.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Avatar        string `json:"avatar"`
	Discriminator string `json:"discriminator"`
	MFAEnabled    bool   `json:"mfa_enabled,omitempty"`
	Bot           bool   `json:"bot,omitempty"`
	PublicFlags   int    `json:"public_flags,omitempty"`
}

// Member stores user information scoped to a single guild.
type Member struct {
	GuildID      string    `json:"guild_id,omitempty"`
	JoinedAt     Timestamp `json:"joined_at"`
	Nick         string    `json:"nick,omitempty"`
	Deaf         bool      `json:"deaf"`
	Mute         bool      `json:"mute"`
	User         *User     `json:"user,omitempty"`
	Roles        []string  `json:"roles"`
	PremiumSince Timestamp `json:"premium_since,omitempty"`
	Pending      bool      `json:"pending,omitempty"`
}

// Role stores a guild member role and its permission bitmask.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Managed     bool   `json:"managed"`
	Mentionable bool   `json:"mentionable"`
	Hoist       bool   `json:"hoist"`
	Color       int    `json:"color"`
	Position    int    `json:"position"`
	Permissions int64  `json:"permissions"`
}

// Emoji stores a custom guild emoji.
type Emoji struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Roles         []string `json:"roles,omitempty"`
	Managed       bool     `json:"managed,omitempty"`
	RequireColons bool     `json:"require_colons,omitempty"`
	Animated      bool     `json:"animated,omitempty"`
	Available     bool     `json:"available,omitempty"`
}

// PermissionOverwrite is a channel-scoped permission override.
type PermissionOverwrite struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Deny  int64  `json:"deny"`
	Allow int64  `json:"allow"`
}

// Channel holds all data for a single Discord channel. Threads reuse this
// same struct, matching the API's own representation.
type Channel struct {
	ID                   string                 `json:"id"`
	GuildID              string                 `json:"guild_id,omitempty"`
	Name                 string                 `json:"name,omitempty"`
	Topic                string                 `json:"topic,omitempty"`
	Type                 ChannelType            `json:"type"`
	LastMessageID        string                 `json:"last_message_id,omitempty"`
	NSFW                 bool                   `json:"nsfw,omitempty"`
	Icon                 string                 `json:"icon,omitempty"`
	Position             int                    `json:"position,omitempty"`
	Bitrate              int                    `json:"bitrate,omitempty"`
	ParentID             string                 `json:"parent_id,omitempty"`
	RateLimitPerUser     int                    `json:"rate_limit_per_user,omitempty"`
	PermissionOverwrites []*PermissionOverwrite `json:"permission_overwrites,omitempty"`
	ThreadMetadata       *ThreadMetadata        `json:"thread_metadata,omitempty"`
}

// ThreadMetadata carries the extra fields the API attaches to thread
// channels (archived state, auto-archive duration).
type ThreadMetadata struct {
	Archived            bool      `json:"archived"`
	AutoArchiveDuration int       `json:"auto_archive_duration"`
	ArchiveTimestamp    Timestamp `json:"archive_timestamp"`
	Locked              bool      `json:"locked,omitempty"`
}

// Guild holds all data related to a specific Discord guild.
type Guild struct {
	ID                          string                      `json:"id"`
	Name                        string                      `json:"name"`
	Icon                        string                      `json:"icon"`
	OwnerID                     string                      `json:"owner_id"`
	JoinedAt                    Timestamp                   `json:"joined_at,omitempty"`
	Splash                      string                      `json:"splash,omitempty"`
	AfkTimeout                  int                         `json:"afk_timeout"`
	MemberCount                 int                         `json:"member_count,omitempty"`
	VerificationLevel           VerificationLevel           `json:"verification_level"`
	Large                       bool                        `json:"large,omitempty"`
	DefaultMessageNotifications int                         `json:"default_message_notifications"`
	Roles                       []*Role                     `json:"roles"`
	Emojis                      []*Emoji                    `json:"emojis"`
	Members                     []*Member                   `json:"members,omitempty"`
	Channels                    []*Channel                  `json:"channels,omitempty"`
	Threads                     []*Channel                  `json:"threads,omitempty"`
	Unavailable                 bool                        `json:"unavailable,omitempty"`
	ExplicitContentFilter       ExplicitContentFilterLevel  `json:"explicit_content_filter"`
	Features                    []string                    `json:"features,omitempty"`
	SystemChannelID             string                      `json:"system_channel_id,omitempty"`
	Description                 string                      `json:"description,omitempty"`
	Banner                      string                      `json:"banner,omitempty"`
	PremiumTier                 int                         `json:"premium_tier"`
	PremiumSubscriptionCount    int                         `json:"premium_subscription_count,omitempty"`
}

// UnavailableGuild is sent in the GUILD_DELETE payload and in the READY
// payload's initial guild list.
type UnavailableGuild struct {
	ID          string `json:"id"`
	Unavailable bool   `json:"unavailable"`
}

// MessageAttachment stores data for a message attachment.
type MessageAttachment struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	ProxyURL string `json:"proxy_url"`
	Filename string `json:"filename"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Size     int    `json:"size"`
}

// MessageEmbed stores data for a single message embed.
type MessageEmbed struct {
	URL         string                 `json:"url,omitempty"`
	Type        string                 `json:"type,omitempty"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	Timestamp   string                 `json:"timestamp,omitempty"`
	Color       int                    `json:"color,omitempty"`
	Footer      *MessageEmbedFooter    `json:"footer,omitempty"`
	Image       *MessageEmbedImage     `json:"image,omitempty"`
	Thumbnail   *MessageEmbedImage     `json:"thumbnail,omitempty"`
	Author      *MessageEmbedAuthor    `json:"author,omitempty"`
	Fields      []*MessageEmbedField   `json:"fields,omitempty"`
}

// MessageEmbedFooter is a part of a MessageEmbed.
type MessageEmbedFooter struct {
	Text    string `json:"text,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

// MessageEmbedImage is a part of a MessageEmbed (also used for thumbnails).
type MessageEmbedImage struct {
	URL    string `json:"url,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// MessageEmbedAuthor is a part of a MessageEmbed.
type MessageEmbedAuthor struct {
	URL     string `json:"url,omitempty"`
	Name    string `json:"name,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

// MessageEmbedField is a part of a MessageEmbed.
type MessageEmbedField struct {
	Name   string `json:"name,omitempty"`
	Value  string `json:"value,omitempty"`
	Inline bool   `json:"inline,omitempty"`
}

// MessageReactions holds an aggregate reaction count for a message.
type MessageReactions struct {
	Count int    `json:"count"`
	Me    bool   `json:"me"`
	Emoji *Emoji `json:"emoji"`
}

// Message stores all data related to a specific Discord message.
type Message struct {
	ID              string               `json:"id"`
	ChannelID       string               `json:"channel_id"`
	GuildID         string               `json:"guild_id,omitempty"`
	Content         string               `json:"content"`
	Timestamp       Timestamp            `json:"timestamp"`
	EditedTimestamp Timestamp            `json:"edited_timestamp,omitempty"`
	MentionRoles    []string             `json:"mention_roles"`
	TTS             bool                 `json:"tts"`
	MentionEveryone bool                 `json:"mention_everyone"`
	Author          *User                `json:"author"`
	Attachments     []*MessageAttachment `json:"attachments"`
	Embeds          []*MessageEmbed      `json:"embeds"`
	Mentions        []*User              `json:"mentions"`
	Reactions       []*MessageReactions  `json:"reactions,omitempty"`
	Pinned          bool                 `json:"pinned"`
	Type            MessageType          `json:"type"`
	WebhookID       string               `json:"webhook_id,omitempty"`
	Member          *Member              `json:"member,omitempty"`
	Flags           int                  `json:"flags,omitempty"`
}

// MessageReaction stores the data for a single reaction toggle event.
type MessageReaction struct {
	UserID    string `json:"user_id"`
	MessageID string `json:"message_id"`
	Emoji     Emoji  `json:"emoji"`
	ChannelID string `json:"channel_id"`
	GuildID   string `json:"guild_id,omitempty"`
}

// VoiceState stores the voice connection state of a guild member.
type VoiceState struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	GuildID   string `json:"guild_id"`
	Suppress  bool   `json:"suppress"`
	SelfMute  bool   `json:"self_mute"`
	SelfDeaf  bool   `json:"self_deaf"`
	Mute      bool   `json:"mute"`
	Deaf      bool   `json:"deaf"`
}

// GatewayBotResponse is the response body of GET /gateway/bot.
type GatewayBotResponse struct {
	URL             string        `json:"url"`
	Shards          int           `json:"shards"`
	SessionLimit    SessionLimits `json:"session_start_limit"`
}

// SessionLimits carries the gateway's identify-budget figures.
type SessionLimits struct {
	Total          int `json:"total"`
	Remaining      int `json:"remaining"`
	ResetAfterMS   int `json:"reset_after"`
	MaxConcurrency int `json:"max_concurrency"`
}
