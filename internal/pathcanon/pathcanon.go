// Package pathcanon maps concrete Discord API request paths to canonical
// bucket templates, the same way the egress governor's bucket lookup and
// trace span names need them.
package pathcanon

import (
	"regexp"
	"strings"
)

const apiPrefix = "/api/v10"

type pattern struct {
	match   *regexp.Regexp
	replace string
}

// patterns is evaluated in order; the first match wins. IDs are matched as
// bare digit runs since snowflakes are always numeric in the wire format.
var patterns = []pattern{
	{regexp.MustCompile(`^/channels/\d+/messages/\d+/reactions/[^/]+/[^/]+$`), "/channels/:id/messages/:id/reactions/:emoji/:user"},
	{regexp.MustCompile(`^/channels/\d+/messages/\d+/reactions/[^/]+$`), "/channels/:id/messages/:id/reactions/:emoji"},
	{regexp.MustCompile(`^/channels/\d+/messages/\d+/reactions$`), "/channels/:id/messages/:id/reactions"},
	{regexp.MustCompile(`^/channels/\d+/messages/\d+/crosspost$`), "/channels/:id/messages/:id/crosspost"},
	{regexp.MustCompile(`^/channels/\d+/messages/bulk-delete$`), "/channels/:id/messages/bulk-delete"},
	{regexp.MustCompile(`^/channels/\d+/messages/\d+$`), "/channels/:id/messages/:id"},
	{regexp.MustCompile(`^/channels/\d+/messages$`), "/channels/:id/messages"},
	{regexp.MustCompile(`^/channels/\d+/pins/\d+$`), "/channels/:id/pins/:id"},
	{regexp.MustCompile(`^/channels/\d+/pins$`), "/channels/:id/pins"},
	{regexp.MustCompile(`^/channels/\d+/permissions/\d+$`), "/channels/:id/permissions/:id"},
	{regexp.MustCompile(`^/channels/\d+/invites$`), "/channels/:id/invites"},
	{regexp.MustCompile(`^/channels/\d+/typing$`), "/channels/:id/typing"},
	{regexp.MustCompile(`^/channels/\d+/webhooks$`), "/channels/:id/webhooks"},
	{regexp.MustCompile(`^/channels/\d+/threads$`), "/channels/:id/threads"},
	{regexp.MustCompile(`^/channels/\d+/thread-members/\d+$`), "/channels/:id/thread-members/:id"},
	{regexp.MustCompile(`^/channels/\d+/thread-members$`), "/channels/:id/thread-members"},
	{regexp.MustCompile(`^/channels/\d+$`), "/channels/:id"},
	{regexp.MustCompile(`^/guilds/\d+/members/\d+/roles/\d+$`), "/guilds/:id/members/:id/roles/:id"},
	{regexp.MustCompile(`^/guilds/\d+/members/\d+$`), "/guilds/:id/members/:id"},
	{regexp.MustCompile(`^/guilds/\d+/members$`), "/guilds/:id/members"},
	{regexp.MustCompile(`^/guilds/\d+/roles/\d+$`), "/guilds/:id/roles/:id"},
	{regexp.MustCompile(`^/guilds/\d+/roles$`), "/guilds/:id/roles"},
	{regexp.MustCompile(`^/guilds/\d+/bans/\d+$`), "/guilds/:id/bans/:id"},
	{regexp.MustCompile(`^/guilds/\d+/bans$`), "/guilds/:id/bans"},
	{regexp.MustCompile(`^/guilds/\d+/channels$`), "/guilds/:id/channels"},
	{regexp.MustCompile(`^/guilds/\d+/emojis/\d+$`), "/guilds/:id/emojis/:id"},
	{regexp.MustCompile(`^/guilds/\d+/emojis$`), "/guilds/:id/emojis"},
	{regexp.MustCompile(`^/guilds/\d+/invites$`), "/guilds/:id/invites"},
	{regexp.MustCompile(`^/guilds/\d+/webhooks$`), "/guilds/:id/webhooks"},
	{regexp.MustCompile(`^/guilds/\d+/preview$`), "/guilds/:id/preview"},
	{regexp.MustCompile(`^/guilds/\d+$`), "/guilds/:id"},
	{regexp.MustCompile(`^/webhooks/\d+/[^/]+/messages/@original$`), "/webhooks/:id/:token/messages/@original"},
	{regexp.MustCompile(`^/webhooks/\d+/[^/]+/messages/\d+$`), "/webhooks/:id/:token/messages/:id"},
	{regexp.MustCompile(`^/webhooks/\d+/[^/]+$`), "/webhooks/:id/:token"},
	{regexp.MustCompile(`^/webhooks/\d+$`), "/webhooks/:id"},
	{regexp.MustCompile(`^/users/1/guilds/\d+$`), "/users/1/guilds/:id"},
	{regexp.MustCompile(`^/users/1/channels$`), "/users/1/channels"},
	{regexp.MustCompile(`^/users/\d+$`), "/users/:id"},
	{regexp.MustCompile(`^/invites/[^/]+$`), "/invites/:code"},
}

// Canonicalize strips the API version prefix, substitutes the literal "@me"
// placeholder with a stable digit so it groups with numeric user ids, then
// matches the stripped path against the ordered pattern table. The first
// match wins; no match returns the stripped path unchanged, which keeps the
// function idempotent (canon(canon(p)) == canon(p)).
func Canonicalize(path string) string {
	stripped := strings.TrimPrefix(path, apiPrefix)
	stripped = strings.ReplaceAll(stripped, "@me", "1")

	for _, p := range patterns {
		if p.match.MatchString(stripped) {
			return p.replace
		}
	}

	return stripped
}
