package dedupe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintCanonicalizesKeyOrder(t *testing.T) {
	a := json.RawMessage(`{"id":"999","guild_id":"1"}`)
	b := json.RawMessage(`{"guild_id":"1","id":"999"}`)

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)

	assert.Equal(t, fa, fb, "semantically identical payloads with different key order must hash identically")
}

func TestFingerprintDistinguishesDifferentPayloads(t *testing.T) {
	a := json.RawMessage(`{"id":"999"}`)
	b := json.RawMessage(`{"id":"1000"}`)

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)

	assert.NotEqual(t, fa, fb)
}

func TestFingerprintIsDeterministicAcrossCalls(t *testing.T) {
	data := json.RawMessage(`{"a":1,"b":[1,2,3],"c":{"d":"e"}}`)

	first, err := Fingerprint(data)
	require.NoError(t, err)
	second, err := Fingerprint(data)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
