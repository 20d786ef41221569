package schemavalidator

import "reflect"

// deepEqual compares two values decoded from JSON (float64/string/bool/
// map[string]any/[]any/nil), which reflect.DeepEqual handles correctly
// since both sides of every comparison in this package originate from
// the same decoder.
func deepEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
