package doctable

import (
	"encoding/json"
	"reflect"
)

// JSON merge patch semantics (RFC 7386): objects merge recursively, a null
// value deletes the field, everything else replaces. The "changed" results
// let callers skip journal writes for patches that do not modify anything.

func decodeValue(raw json.RawMessage) (interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	return value, nil
}

// normalizeValue rewrites a patch of any origin (decoded request body,
// raw bytes, already-normalized maps) into the plain map/slice/scalar
// shapes the merge works on.
func normalizeValue(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case json.RawMessage:
		var decoded interface{}
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil, err
		}
		return normalizeValue(decoded)
	case map[string]interface{}:
		normalized := make(map[string]interface{}, len(v))
		for key, item := range v {
			nv, err := normalizeValue(item)
			if err != nil {
				return nil, err
			}
			normalized[key] = nv
		}
		return normalized, nil
	case []interface{}:
		normalized := make([]interface{}, len(v))
		for i, item := range v {
			nv, err := normalizeValue(item)
			if err != nil {
				return nil, err
			}
			normalized[i] = nv
		}
		return normalized, nil
	default:
		return v, nil
	}
}

func applyMergePatch(original interface{}, patch interface{}) (interface{}, bool, error) {
	switch p := patch.(type) {
	case map[string]interface{}:
		originalMap, isMap := original.(map[string]interface{})

		result := make(map[string]interface{}, len(originalMap)+len(p))
		for k, v := range originalMap {
			result[k] = cloneValue(v)
		}

		// An object patch over a non-object value replaces it, even when
		// the patch has no members.
		changed := !isMap
		for k, item := range p {
			if item == nil {
				if _, exists := result[k]; exists {
					delete(result, k)
					changed = true
				}
				continue
			}

			var originalValue interface{}
			if originalMap != nil {
				originalValue = originalMap[k]
			}

			mergedValue, valueChanged, err := applyMergePatch(originalValue, item)
			if err != nil {
				return nil, false, err
			}

			if originalMap == nil {
				changed = true
			} else if _, exists := originalMap[k]; !exists || valueChanged {
				changed = true
			}

			result[k] = mergedValue
		}

		return result, changed, nil
	case []interface{}:
		cloned := cloneArray(p)
		if current, ok := original.([]interface{}); ok {
			if reflect.DeepEqual(current, cloned) {
				return cloned, false, nil
			}
		}
		return cloned, true, nil
	default:
		if reflect.DeepEqual(original, p) {
			return cloneValue(p), false, nil
		}
		return cloneValue(p), true, nil
	}
}

// createMergeDiff produces the minimal merge patch that rewrites original
// into modified, for the journal.
func createMergeDiff(original interface{}, modified interface{}) (interface{}, bool) {
	switch o := original.(type) {
	case map[string]interface{}:
		modifiedMap, ok := modified.(map[string]interface{})
		if !ok {
			if reflect.DeepEqual(original, modified) {
				return nil, false
			}
			return cloneValue(modified), true
		}

		diff := make(map[string]interface{})
		changed := false

		for k := range o {
			if _, exists := modifiedMap[k]; !exists {
				diff[k] = nil
				changed = true
			}
		}

		for k, mv := range modifiedMap {
			ov, exists := o[k]
			if !exists {
				diff[k] = cloneValue(mv)
				changed = true
				continue
			}

			if om, ok := ov.(map[string]interface{}); ok {
				if mm, ok := mv.(map[string]interface{}); ok {
					subDiff, subChanged := createMergeDiff(om, mm)
					if subChanged {
						diff[k] = subDiff
						changed = true
					}
					continue
				}
			}

			if !reflect.DeepEqual(ov, mv) {
				diff[k] = cloneValue(mv)
				changed = true
			}
		}

		if !changed {
			return nil, false
		}
		return diff, true
	default:
		if reflect.DeepEqual(original, modified) {
			return nil, false
		}
		return cloneValue(modified), true
	}
}

func cloneValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		cloned := make(map[string]interface{}, len(v))
		for k, item := range v {
			cloned[k] = cloneValue(item)
		}
		return cloned
	case []interface{}:
		return cloneArray(v)
	case json.RawMessage:
		if v == nil {
			return nil
		}
		cloned := make(json.RawMessage, len(v))
		copy(cloned, v)
		return cloned
	default:
		return v
	}
}

func cloneArray(values []interface{}) []interface{} {
	if values == nil {
		return nil
	}
	cloned := make([]interface{}, len(values))
	for i, item := range values {
		cloned[i] = cloneValue(item)
	}
	return cloned
}
