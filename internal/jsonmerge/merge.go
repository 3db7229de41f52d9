// Package jsonmerge implements the deep-merge semantics the cache coherence
// engine applies to cached entity documents.
//
// Given a cached value B and an update U:
//   - if both are objects, merge key by key, recursing on shared keys and
//     preserving keys only present in B;
//   - if U is null, the result is null (explicit deletion);
//   - if B is null and U is not, the result is U;
//   - otherwise U replaces B wholesale (arrays are never element-merged).
package jsonmerge

// Merge performs the deep merge described above over dynamic JSON values
// (as produced by encoding/json's map[string]interface{} decoding).
func Merge(base, update interface{}) interface{} {
	baseObj, baseIsObj := base.(map[string]interface{})
	updateObj, updateIsObj := update.(map[string]interface{})

	if baseIsObj && updateIsObj {
		merged := make(map[string]interface{}, len(baseObj)+len(updateObj))
		for k, v := range baseObj {
			merged[k] = v
		}

		for k, v := range updateObj {
			if existing, ok := merged[k]; ok {
				merged[k] = Merge(existing, v)
			} else {
				merged[k] = v
			}
		}

		return merged
	}

	if update == nil {
		return nil
	}

	if base == nil {
		return update
	}

	return update
}

// MergeMaps is a typed convenience wrapper over Merge for the common case of
// merging two JSON objects (the cache engine never merges a bare scalar or
// array at the document root).
func MergeMaps(base, update map[string]interface{}) map[string]interface{} {
	merged := Merge(interfaceOf(base), interfaceOf(update))
	if m, ok := merged.(map[string]interface{}); ok {
		return m
	}
	return nil
}

func interfaceOf(m map[string]interface{}) interface{} {
	if m == nil {
		return nil
	}
	return m
}
