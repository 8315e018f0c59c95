// Package audit computes structural diffs for history log entries. The
// output is advisory: transition legality never depends on it.
package audit

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// FieldChange holds the before/after values at one path.
type FieldChange struct {
	OldValue any `json:"oldValue"`
	NewValue any `json:"newValue"`
}

// Diff compares two ticket-shaped values field by field and returns a flat
// map from dotted/indexed paths ("flightClasses.0.price.adult") to changes.
// Primitives compare by value; arrays of unequal length report one coarse
// whole-array entry; equal-length arrays recurse by index; objects recurse
// over the union of keys. Inputs are normalized through JSON so structs,
// maps and pointers all flatten the same way.
func Diff(oldValue, newValue any) map[string]FieldChange {
	changes := make(map[string]FieldChange)
	walk("", normalize(oldValue), normalize(newValue), changes)
	return changes
}

// normalize round-trips v through JSON into maps, slices and primitives.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func walk(path string, oldValue, newValue any, changes map[string]FieldChange) {
	oldMap, oldIsMap := oldValue.(map[string]any)
	newMap, newIsMap := newValue.(map[string]any)
	if oldIsMap && newIsMap {
		for key := range unionKeys(oldMap, newMap) {
			walk(join(path, key), oldMap[key], newMap[key], changes)
		}
		return
	}

	oldArr, oldIsArr := oldValue.([]any)
	newArr, newIsArr := newValue.([]any)
	if oldIsArr && newIsArr {
		if len(oldArr) != len(newArr) {
			changes[path] = FieldChange{OldValue: oldValue, NewValue: newValue}
			return
		}
		for i := range oldArr {
			walk(join(path, fmt.Sprintf("%d", i)), oldArr[i], newArr[i], changes)
		}
		return
	}

	if !reflect.DeepEqual(oldValue, newValue) {
		changes[path] = FieldChange{OldValue: oldValue, NewValue: newValue}
	}
}

func unionKeys(a, b map[string]any) map[string]struct{} {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	return keys
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
