package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmojiShardIsStableModTen(t *testing.T) {
	assert.Equal(t, uint64(0), emojiShard("100"))
	assert.Equal(t, uint64(5), emojiShard("105"))
	assert.Equal(t, uint64(9), emojiShard("999999999999999999"))
}

func TestEmojiShardOnUnparsableIDDefaultsToZero(t *testing.T) {
	assert.Equal(t, uint64(0), emojiShard("not-a-number"))
}

func TestPopArrayRemovesKeyAndReturnsValue(t *testing.T) {
	m := map[string]interface{}{
		"id":       "1",
		"channels": []interface{}{map[string]interface{}{"id": "10"}},
	}

	channels := popArray(m, "channels")

	assert.Len(t, channels, 1)
	_, stillPresent := m["channels"]
	assert.False(t, stillPresent)
}

func TestPopArrayOnMissingKeyReturnsNil(t *testing.T) {
	m := map[string]interface{}{"id": "1"}
	assert.Nil(t, popArray(m, "roles"))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "Duplicate", OutcomeDuplicate.String())
	assert.Equal(t, "Published", OutcomePublished.String())
	assert.Equal(t, "Error", OutcomeError.String())
}
