package document

import (
	"fmt"

	"github.com/emosbaugh/yaml"
)

// MergeError indicates the merge walked into a node the policy cannot
// handle. The policy is total over well-formed Documents, so hitting one
// means an invariant was violated upstream, not that the user's input is
// wrong.
type MergeError struct {
	Path string
	Kind Kind
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge invariant violated at %s (unexpected %s node)", pathOrRoot(e.Path), e.Kind)
}

// Merge combines base with overlay and returns a new Document. Mappings
// merge recursively with the union of their keys, base key order first and
// overlay-only keys appended in overlay order. Sequences concatenate, base
// first. Scalars and mismatched kinds resolve to the overlay value. A nil
// overlay value leaves the base value untouched. Neither input is mutated.
//
// Merging more than two documents is a left-to-right fold of this function.
func Merge(base, overlay Document) (Document, error) {
	merged, err := mergeValues(base.root, overlay.root, "")
	if err != nil {
		return Document{}, err
	}
	return Document{root: merged}, nil
}

func mergeValues(base, overlay interface{}, at string) (interface{}, error) {
	if overlay == nil {
		return deepCopy(base), nil
	}
	if base == nil {
		return deepCopy(overlay), nil
	}

	baseMap, baseIsMap := base.(yaml.MapSlice)
	overlayMap, overlayIsMap := overlay.(yaml.MapSlice)
	if baseIsMap && overlayIsMap {
		return mergeMaps(baseMap, overlayMap, at)
	}

	baseSeq, baseIsSeq := base.([]interface{})
	overlaySeq, overlayIsSeq := overlay.([]interface{})
	if baseIsSeq && overlayIsSeq {
		merged := make([]interface{}, 0, len(baseSeq)+len(overlaySeq))
		for _, elem := range baseSeq {
			merged = append(merged, deepCopy(elem))
		}
		for _, elem := range overlaySeq {
			merged = append(merged, deepCopy(elem))
		}
		return merged, nil
	}

	// scalar vs scalar, or kind mismatch: overlay wins wholesale
	return deepCopy(overlay), nil
}

func mergeMaps(base, overlay yaml.MapSlice, at string) (yaml.MapSlice, error) {
	merged := make(yaml.MapSlice, 0, len(base)+len(overlay))

	overlayKeys := map[interface{}]bool{}
	for _, item := range overlay {
		if overlayKeys[item.Key] {
			return nil, &MergeError{Path: fmt.Sprintf("%s.%v", at, item.Key), Kind: KindMapping}
		}
		overlayKeys[item.Key] = true
	}

	baseKeys := map[interface{}]bool{}
	for _, item := range base {
		if baseKeys[item.Key] {
			return nil, &MergeError{Path: fmt.Sprintf("%s.%v", at, item.Key), Kind: KindMapping}
		}
		baseKeys[item.Key] = true

		if overlayValue, ok := getValueAt(overlay, item.Key); ok {
			mergedValue, err := mergeValues(item.Value, overlayValue, fmt.Sprintf("%s.%v", at, item.Key))
			if err != nil {
				return nil, err
			}
			merged = append(merged, yaml.MapItem{Key: item.Key, Value: mergedValue})
			continue
		}
		merged = append(merged, yaml.MapItem{Key: item.Key, Value: deepCopy(item.Value)})
	}

	for _, item := range overlay {
		if !baseKeys[item.Key] {
			merged = append(merged, yaml.MapItem{Key: item.Key, Value: deepCopy(item.Value)})
		}
	}

	return merged, nil
}

func getValueAt(m yaml.MapSlice, key interface{}) (interface{}, bool) {
	for _, item := range m {
		if item.Key == key {
			return item.Value, true
		}
	}
	return nil, false
}

func deepCopy(v interface{}) interface{} {
	switch node := v.(type) {
	case yaml.MapSlice:
		out := make(yaml.MapSlice, 0, len(node))
		for _, item := range node {
			out = append(out, yaml.MapItem{Key: item.Key, Value: deepCopy(item.Value)})
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(node))
		for _, elem := range node {
			out = append(out, deepCopy(elem))
		}
		return out
	default:
		return node
	}
}
