package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sandwich-relay/sandwich/internal/jsonmerge"
	"github.com/sandwich-relay/sandwich/internal/kvstore"
)

const (
	messageTTL = 3600 * time.Second
	userTTL    = 86400 * time.Second
	memberTTL  = 600 * time.Second
	deletedTTL = 86400 * time.Second
)

// getDoc reads the "data" field of a cached envelope document, reporting
// found=false if the key is absent.
func (e *Engine) getDoc(ctx context.Context, key string) (map[string]interface{}, bool, error) {
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}

	found, err := e.store.JSONGet(ctx, key, &envelope)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	return envelope.Data, true, nil
}

// mergeInto reads the existing document at key, deep-merges update into it
// (or takes update as-is if the key is absent), and buffers the write. When
// ttl is zero, no expiry is (re)issued — the caller manages TTL transitions
// explicitly where the spec calls for one.
func (e *Engine) mergeInto(ctx context.Context, tx *kvstore.Tx, key string, update map[string]interface{}, meta []string, ttl time.Duration) error {
	existing, found, err := e.getDoc(ctx, key)
	if err != nil {
		return err
	}

	if found {
		merged := jsonmerge.MergeMaps(existing, update)
		fields := []kvstore.JSONMSetField{
			{Path: "$.data", Value: merged},
			{Path: "$.deleted", Value: false},
			{Path: "$.error", Value: 0},
		}
		if meta != nil {
			fields = append(fields, kvstore.JSONMSetField{Path: "$.meta", Value: meta})
		}
		if err := tx.JSONMSet(key, fields); err != nil {
			return err
		}
	} else {
		envelope := map[string]interface{}{"data": update, "meta": meta, "deleted": false, "error": 0}
		if err := tx.JSONSet(key, "$", envelope, ""); err != nil {
			return err
		}
	}

	if ttl > 0 {
		tx.Expire(key, ttl)
	}

	return nil
}

// popArray removes key from m and returns its array value, if any.
func popArray(m map[string]interface{}, key string) []interface{} {
	v, ok := m[key]
	delete(m, key)
	if !ok {
		return nil
	}
	arr, _ := v.([]interface{})
	return arr
}

// emojiShard distributes an emoji id across the 10 sharded global sets.
func emojiShard(id string) uint64 {
	n, _ := strconv.ParseUint(id, 10, 64)
	return n % 10
}

// handleMessage implements MESSAGE_CREATE and MESSAGE_UPDATE: redact,
// merge, and fan out to update_user/update_member plus the parent
// channel's last_message_id (create only).
func (e *Engine) handleMessage(ctx context.Context, tx *kvstore.Tx, data json.RawMessage, isCreate bool) error {
	var msg map[string]interface{}
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("handleMessage: unmarshal: %w", err)
	}

	msg["content"] = ""
	msg["attachments"] = []interface{}{}
	msg["embeds"] = []interface{}{}

	id, _ := msg["id"].(string)
	guildID, _ := msg["guild_id"].(string)
	channelID, _ := msg["channel_id"].(string)

	key := fmt.Sprintf("discord:message:%s", id)
	if err := e.mergeInto(ctx, tx, key, msg, nil, messageTTL); err != nil {
		return err
	}

	author, _ := msg["author"].(map[string]interface{})
	if author != nil {
		if err := e.updateUser(ctx, tx, author); err != nil {
			return err
		}
	}

	if member, ok := msg["member"].(map[string]interface{}); ok {
		if author != nil {
			member["user"] = author
		}
		member["guild_id"] = guildID
		if err := e.updateMember(ctx, tx, member); err != nil {
			return err
		}
	}

	if isCreate && guildID != "" && channelID != "" {
		chanKey := fmt.Sprintf("discord:channel:%s", channelID)
		_, found, err := e.getDoc(ctx, chanKey)
		if err != nil {
			return err
		}
		if found {
			if err := tx.JSONMSet(chanKey, []kvstore.JSONMSetField{
				{Path: "$.data.last_message_id", Value: id},
			}); err != nil {
				return err
			}
		}
	}

	return nil
}

// handleMessageDelete flips deleted and replaces data with the delete
// payload, refreshing the TTL.
func (e *Engine) handleMessageDelete(ctx context.Context, tx *kvstore.Tx, data json.RawMessage) error {
	var msg map[string]interface{}
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("handleMessageDelete: unmarshal: %w", err)
	}

	id, _ := msg["id"].(string)
	key := fmt.Sprintf("discord:message:%s", id)

	if err := tx.JSONMSet(key, []kvstore.JSONMSetField{
		{Path: "$.deleted", Value: true},
		{Path: "$.data", Value: msg},
	}); err != nil {
		return err
	}

	tx.Expire(key, messageTTL)
	return nil
}

// handleGuildUpsert implements GUILD_CREATE/GUILD_UPDATE: strips the four
// embedded-array fields (plus threads), merges the remainder into the guild
// document, then re-dispatches each element as a synthetic sub-event with
// guild_id injected.
func (e *Engine) handleGuildUpsert(ctx context.Context, tx *kvstore.Tx, data json.RawMessage) error {
	var guild map[string]interface{}
	if err := json.Unmarshal(data, &guild); err != nil {
		return fmt.Errorf("handleGuildUpsert: unmarshal: %w", err)
	}

	guildID, _ := guild["id"].(string)

	channels := popArray(guild, "channels")
	threads := popArray(guild, "threads")
	emojis := popArray(guild, "emojis")
	members := popArray(guild, "members")
	roles := popArray(guild, "roles")

	key := fmt.Sprintf("discord:guild:%s", guildID)
	if err := e.mergeInto(ctx, tx, key, guild, []string{"channels", "emojis", "members", "roles"}, 0); err != nil {
		return err
	}

	for _, raw := range channels {
		if cm, ok := raw.(map[string]interface{}); ok {
			cm["guild_id"] = guildID
			if err := e.handleChannelUpsertMap(ctx, tx, cm); err != nil {
				return err
			}
		}
	}

	for _, raw := range threads {
		if tm, ok := raw.(map[string]interface{}); ok {
			tm["guild_id"] = guildID
			if err := e.handleChannelUpsertMap(ctx, tx, tm); err != nil {
				return err
			}
		}
	}

	if len(emojis) > 0 {
		if err := e.handleEmojisUpdateMap(ctx, tx, guildID, emojis); err != nil {
			return err
		}
	}

	for _, raw := range members {
		if mm, ok := raw.(map[string]interface{}); ok {
			mm["guild_id"] = guildID
			if err := e.updateMember(ctx, tx, mm); err != nil {
				return err
			}
		}
	}

	for _, raw := range roles {
		if rm, ok := raw.(map[string]interface{}); ok {
			if err := e.handleRoleUpsertMap(ctx, tx, guildID, rm); err != nil {
				return err
			}
		}
	}

	return nil
}

// handleGuildDelete cascades a guild removal across every child document
// referenced by its index sets, issuing the whole deletion as one buffered
// pipeline flush.
func (e *Engine) handleGuildDelete(ctx context.Context, tx *kvstore.Tx, data json.RawMessage) error {
	var guild struct {
		ID          string `json:"id"`
		Unavailable bool   `json:"unavailable"`
	}
	if err := json.Unmarshal(data, &guild); err != nil {
		return fmt.Errorf("handleGuildDelete: unmarshal: %w", err)
	}

	if guild.Unavailable {
		return nil
	}

	channelsSet := fmt.Sprintf("discord:guild:%s:channels", guild.ID)
	rolesSet := fmt.Sprintf("discord:guild:%s:roles", guild.ID)
	membersSet := fmt.Sprintf("discord:guild:%s:members", guild.ID)
	emojisSet := fmt.Sprintf("discord:guild:%s:emojis", guild.ID)

	keysToDelete := []string{fmt.Sprintf("discord:guild:%s", guild.ID)}

	channelIDs, err := e.store.SMembers(ctx, channelsSet)
	if err != nil {
		return err
	}
	for _, id := range channelIDs {
		keysToDelete = append(keysToDelete, fmt.Sprintf("discord:channel:%s", id))
	}

	roleIDs, err := e.store.SMembers(ctx, rolesSet)
	if err != nil {
		return err
	}
	for _, id := range roleIDs {
		keysToDelete = append(keysToDelete, fmt.Sprintf("discord:role:%s", id))
	}

	memberIDs, err := e.store.SMembers(ctx, membersSet)
	if err != nil {
		return err
	}
	for _, id := range memberIDs {
		keysToDelete = append(keysToDelete, fmt.Sprintf("discord:member:%s:%s", guild.ID, id))
	}

	// Individual emoji documents never existed (see the open question on
	// GUILD_EMOJIS_UPDATE preserved in SPEC_FULL.md) — only the sharded
	// membership needs clearing.
	emojiIDs, err := e.store.SMembers(ctx, emojisSet)
	if err != nil {
		return err
	}
	for _, id := range emojiIDs {
		tx.SRem(fmt.Sprintf("discord_emojis:%d", emojiShard(id)), id)
	}

	keysToDelete = append(keysToDelete, channelsSet, rolesSet, membersSet, emojisSet)
	tx.Del(keysToDelete...)

	return nil
}

// handleRoleUpsert implements GUILD_ROLE_CREATE/UPDATE, whose payload is
// {role, guild_id}.
func (e *Engine) handleRoleUpsert(ctx context.Context, tx *kvstore.Tx, data json.RawMessage) error {
	var payload struct {
		Role    map[string]interface{} `json:"role"`
		GuildID string                 `json:"guild_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("handleRoleUpsert: unmarshal: %w", err)
	}
	return e.handleRoleUpsertMap(ctx, tx, payload.GuildID, payload.Role)
}

func (e *Engine) handleRoleUpsertMap(ctx context.Context, tx *kvstore.Tx, guildID string, role map[string]interface{}) error {
	id, _ := role["id"].(string)
	key := fmt.Sprintf("discord:role:%s", id)

	if err := e.mergeInto(ctx, tx, key, role, nil, 0); err != nil {
		return err
	}

	tx.SAdd(fmt.Sprintf("discord:guild:%s:roles", guildID), id)
	return nil
}

// handleRoleDelete flips deleted, drops the role from its guild's index
// set, and sets the soft-delete TTL.
func (e *Engine) handleRoleDelete(ctx context.Context, tx *kvstore.Tx, data json.RawMessage) error {
	var payload struct {
		RoleID  string `json:"role_id"`
		GuildID string `json:"guild_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("handleRoleDelete: unmarshal: %w", err)
	}

	key := fmt.Sprintf("discord:role:%s", payload.RoleID)
	if err := tx.JSONMSet(key, []kvstore.JSONMSetField{{Path: "$.deleted", Value: true}}); err != nil {
		return err
	}
	tx.Expire(key, deletedTTL)
	tx.SRem(fmt.Sprintf("discord:guild:%s:roles", payload.GuildID), payload.RoleID)

	return nil
}

// handleEmojisUpdate implements GUILD_EMOJIS_UPDATE: full replacement of
// both the per-guild set and the sharded global sets.
func (e *Engine) handleEmojisUpdate(ctx context.Context, tx *kvstore.Tx, data json.RawMessage) error {
	var payload struct {
		GuildID string          `json:"guild_id"`
		Emojis  []interface{}   `json:"emojis"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("handleEmojisUpdate: unmarshal: %w", err)
	}
	return e.handleEmojisUpdateMap(ctx, tx, payload.GuildID, payload.Emojis)
}

func (e *Engine) handleEmojisUpdateMap(ctx context.Context, tx *kvstore.Tx, guildID string, emojis []interface{}) error {
	setKey := fmt.Sprintf("discord:guild:%s:emojis", guildID)

	priorIDs, err := e.store.SMembers(ctx, setKey)
	if err != nil {
		return err
	}
	for _, id := range priorIDs {
		tx.SRem(fmt.Sprintf("discord_emojis:%d", emojiShard(id)), id)
	}
	tx.Del(setKey)

	if len(emojis) == 0 {
		return nil
	}

	ids := make([]string, 0, len(emojis))
	for _, raw := range emojis {
		em, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if id, ok := em["id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}

	tx.SAdd(setKey, ids...)
	for _, id := range ids {
		tx.SAdd(fmt.Sprintf("discord_emojis:%d", emojiShard(id)), id)
	}

	return nil
}

// handleChannelUpsert implements CHANNEL_CREATE/UPDATE and
// THREAD_CREATE/UPDATE.
func (e *Engine) handleChannelUpsert(ctx context.Context, tx *kvstore.Tx, data json.RawMessage) error {
	var channel map[string]interface{}
	if err := json.Unmarshal(data, &channel); err != nil {
		return fmt.Errorf("handleChannelUpsert: unmarshal: %w", err)
	}
	return e.handleChannelUpsertMap(ctx, tx, channel)
}

func (e *Engine) handleChannelUpsertMap(ctx context.Context, tx *kvstore.Tx, channel map[string]interface{}) error {
	id, _ := channel["id"].(string)
	guildID, _ := channel["guild_id"].(string)
	key := fmt.Sprintf("discord:channel:%s", id)

	_, found, err := e.getDoc(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		channel["__plural_last_webhook"] = float64(0)
	}

	if err := e.mergeInto(ctx, tx, key, channel, nil, 0); err != nil {
		return err
	}

	if guildID != "" {
		tx.SAdd(fmt.Sprintf("discord:guild:%s:channels", guildID), id)
	}

	return nil
}

// handleChannelDelete implements CHANNEL_DELETE/THREAD_DELETE: flip
// deleted, drop the index entry, 86400s TTL.
func (e *Engine) handleChannelDelete(ctx context.Context, tx *kvstore.Tx, data json.RawMessage) error {
	var channel struct {
		ID      string `json:"id"`
		GuildID string `json:"guild_id"`
	}
	if err := json.Unmarshal(data, &channel); err != nil {
		return fmt.Errorf("handleChannelDelete: unmarshal: %w", err)
	}

	key := fmt.Sprintf("discord:channel:%s", channel.ID)
	if err := tx.JSONMSet(key, []kvstore.JSONMSetField{{Path: "$.deleted", Value: true}}); err != nil {
		return err
	}
	tx.Expire(key, deletedTTL)

	if channel.GuildID != "" {
		tx.SRem(fmt.Sprintf("discord:guild:%s:channels", channel.GuildID), channel.ID)
	}

	return nil
}

// handleThreadListSync fans every thread out as a synthetic THREAD_CREATE.
func (e *Engine) handleThreadListSync(ctx context.Context, tx *kvstore.Tx, data json.RawMessage) error {
	var payload struct {
		GuildID string                   `json:"guild_id"`
		Threads []map[string]interface{} `json:"threads"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("handleThreadListSync: unmarshal: %w", err)
	}

	for _, thread := range payload.Threads {
		thread["guild_id"] = payload.GuildID
		if err := e.handleChannelUpsertMap(ctx, tx, thread); err != nil {
			return err
		}
	}

	return nil
}

// handleMemberUpdateEvent implements GUILD_MEMBER_UPDATE, whose payload is
// itself a member document.
func (e *Engine) handleMemberUpdateEvent(ctx context.Context, tx *kvstore.Tx, data json.RawMessage) error {
	var member map[string]interface{}
	if err := json.Unmarshal(data, &member); err != nil {
		return fmt.Errorf("handleMemberUpdateEvent: unmarshal: %w", err)
	}
	return e.updateMember(ctx, tx, member)
}

// handleReactionAdd dispatches to update_member when the reaction payload
// carries an embedded member, per the spec's conditional fan-out.
func (e *Engine) handleReactionAdd(ctx context.Context, tx *kvstore.Tx, data json.RawMessage) (bool, error) {
	var payload struct {
		GuildID string                 `json:"guild_id"`
		Member  map[string]interface{} `json:"member"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return false, fmt.Errorf("handleReactionAdd: unmarshal: %w", err)
	}

	if payload.Member == nil {
		return true, nil
	}

	payload.Member["guild_id"] = payload.GuildID
	if err := e.updateMember(ctx, tx, payload.Member); err != nil {
		return false, err
	}

	return true, nil
}

// updateUser implements update_user: merge-or-create at
// discord:user:{id}, always refreshing the 86400s TTL.
func (e *Engine) updateUser(ctx context.Context, tx *kvstore.Tx, user map[string]interface{}) error {
	id, _ := user["id"].(string)
	if id == "" {
		return nil
	}

	key := fmt.Sprintf("discord:user:%s", id)
	if err := e.mergeInto(ctx, tx, key, user, []string{}, 0); err != nil {
		return err
	}
	tx.Expire(key, userTTL)

	return nil
}

// updateMember implements update_member: extract and update the embedded
// user (if any), strip it from the member document, then merge-or-create
// at discord:member:{guild}:{user}. The application's own member document
// never expires; every other member is capped at 600s.
func (e *Engine) updateMember(ctx context.Context, tx *kvstore.Tx, member map[string]interface{}) error {
	guildID, _ := member["guild_id"].(string)

	var userID string
	if userRaw, ok := member["user"]; ok {
		if user, ok := userRaw.(map[string]interface{}); ok {
			if err := e.updateUser(ctx, tx, user); err != nil {
				return err
			}
			userID, _ = user["id"].(string)
		}
		delete(member, "user")
	} else if uid, ok := member["user_id"].(string); ok {
		userID = uid
	}

	if userID == "" {
		return nil
	}

	key := fmt.Sprintf("discord:member:%s:%s", guildID, userID)
	if err := e.mergeInto(ctx, tx, key, member, []string{}, 0); err != nil {
		return err
	}

	if guildID != "" {
		tx.SAdd(fmt.Sprintf("discord:guild:%s:members", guildID), userID)
	}

	if e.selfUserID != "" && userID == e.selfUserID {
		tx.Persist(key)
	} else {
		tx.Expire(key, memberTTL)
	}

	return nil
}
