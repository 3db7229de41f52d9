package jsonmerge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergePreservesUntouchedKeys(t *testing.T) {
	base := map[string]interface{}{"a": 1.0, "b": map[string]interface{}{"x": 1.0, "y": 2.0}}
	update := map[string]interface{}{"b": map[string]interface{}{"x": 99.0}}

	merged := MergeMaps(base, update)

	assert.Equal(t, 1.0, merged["a"])
	b, ok := merged["b"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 99.0, b["x"])
	assert.Equal(t, 2.0, b["y"])
}

func TestMergeNullErasesKey(t *testing.T) {
	base := map[string]interface{}{"a": 1.0, "b": 2.0}
	update := map[string]interface{}{"b": nil}

	merged := MergeMaps(base, update)

	assert.Equal(t, 1.0, merged["a"])
	val, present := merged["b"]
	assert.True(t, present)
	assert.Nil(t, val)
}

func TestMergeArrayReplacesWholesale(t *testing.T) {
	base := map[string]interface{}{"tags": []interface{}{"a", "b", "c"}}
	update := map[string]interface{}{"tags": []interface{}{"z"}}

	merged := MergeMaps(base, update)

	assert.Equal(t, []interface{}{"z"}, merged["tags"])
}

func TestMergeNilBaseTakesUpdate(t *testing.T) {
	result := Merge(nil, map[string]interface{}{"a": 1.0})
	assert.Equal(t, map[string]interface{}{"a": 1.0}, result)
}

func TestMergeIsAssociativeOverObjects(t *testing.T) {
	a := map[string]interface{}{"x": 1.0, "y": 1.0}
	b := map[string]interface{}{"y": 2.0, "z": 2.0}
	c := map[string]interface{}{"z": 3.0, "w": 3.0}

	left := MergeMaps(MergeMaps(a, b), c)
	right := MergeMaps(a, MergeMaps(b, c))

	assert.Equal(t, left, right)
}

func TestRedactionIsIdempotent(t *testing.T) {
	redact := func(d map[string]interface{}) map[string]interface{} {
		out := make(map[string]interface{}, len(d))
		for k, v := range d {
			out[k] = v
		}
		out["content"] = ""
		out["attachments"] = []interface{}{}
		out["embeds"] = []interface{}{}
		return out
	}

	msg := map[string]interface{}{"id": "999", "content": "hello", "attachments": []interface{}{"a"}, "embeds": []interface{}{"b"}}

	first := redact(msg)
	second := redact(first)

	assert.Equal(t, first, second)
}
