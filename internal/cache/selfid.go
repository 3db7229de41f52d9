package cache

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// SelfUserID recovers the bot's own user id from its token. A bot token's
// first dot-delimited segment is the bot's user id, base64-encoded without
// padding.
func SelfUserID(botToken string) (string, error) {
	segment, _, found := strings.Cut(botToken, ".")
	if !found || segment == "" {
		return "", fmt.Errorf("cache: malformed bot token")
	}

	decoded, err := base64.RawStdEncoding.DecodeString(segment)
	if err != nil {
		return "", fmt.Errorf("cache: decode bot token id segment: %w", err)
	}

	return string(decoded), nil
}
