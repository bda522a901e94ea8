// ABOUTME: Column assignments produced by sparse entity patches
// ABOUTME: Each patch maps only its set fields to (column, value) pairs
package models

// Assignment is a single column write produced by a patch.
type Assignment struct {
	Column string
	Value  interface{}
}

// assign appends a column write when v is set.
func assign[T any](out []Assignment, column string, v *T) []Assignment {
	if v == nil {
		return out
	}
	return append(out, Assignment{Column: column, Value: *v})
}

// assignOptional is like assign, but an empty string is written as NULL.
func assignOptional(out []Assignment, column string, v *string) []Assignment {
	if v == nil {
		return out
	}
	if *v == "" {
		return append(out, Assignment{Column: column, Value: nil})
	}
	return append(out, Assignment{Column: column, Value: *v})
}
