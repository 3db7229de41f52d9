package pathcanon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeKnownPaths(t *testing.T) {
	cases := map[string]string{
		"/api/v10/channels/123456/messages/789":     "/channels/:id/messages/:id",
		"/api/v10/channels/123456/messages":         "/channels/:id/messages",
		"/api/v10/guilds/1/members/2":               "/guilds/:id/members/:id",
		"/api/v10/guilds/1/members/2/roles/3":       "/guilds/:id/members/:id/roles/:id",
		"/api/v10/users/@me/guilds/1":               "/users/1/guilds/:id",
		"/api/v10/webhooks/1/abc":                   "/webhooks/:id/:token",
		"/api/v10/invites/xyz123":                   "/invites/:code",
	}

	for input, want := range cases {
		assert.Equal(t, want, Canonicalize(input), "input: %s", input)
	}
}

func TestCanonicalizeUnknownPathFallsThrough(t *testing.T) {
	assert.Equal(t, "/some/unmapped/route", Canonicalize("/api/v10/some/unmapped/route"))
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	paths := []string{
		"/api/v10/channels/123456/messages/789",
		"/api/v10/guilds/1/members/2",
		"/api/v10/some/unmapped/route",
	}

	for _, p := range paths {
		once := Canonicalize(p)
		twice := Canonicalize(once)
		assert.Equal(t, once, twice, "canon(canon(p)) must equal canon(p) for %s", p)
	}
}
