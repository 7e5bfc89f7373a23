package ir

import "reflect"

// StructuralEqual compares two IR values field-by-field. Most IR structs
// are plain value types (slices and pointers to comparable leaves), so
// reflect.DeepEqual gives a correct answer here; it is used instead of
// hand-rolling an Equal method per struct, which would just restate the
// field list a second time.
func StructuralEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
