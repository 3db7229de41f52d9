package cache

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfUserIDDecodesFirstSegment(t *testing.T) {
	id := base64.RawStdEncoding.EncodeToString([]byte("123456789012345678"))
	token := id + ".GVVy2g.someHmacSegment"

	got, err := SelfUserID(token)
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678", got)
}

func TestSelfUserIDRejectsTokenWithoutDot(t *testing.T) {
	_, err := SelfUserID("notoken")
	assert.Error(t, err)
}

func TestSelfUserIDRejectsUndecodableSegment(t *testing.T) {
	_, err := SelfUserID("!!!not-base64!!!.rest")
	assert.Error(t, err)
}
