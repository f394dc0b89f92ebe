package step

import "maps"

// RunState is the mutable mapping shared by every step of exactly one run.
// It is created empty at run start and discarded at run end, and is never
// shared across runs. No locking is required: the sequencer guarantees
// strictly sequential step execution within a run
type RunState struct {
	values map[string]any
}

// NewRunState creates an empty run state
func NewRunState() *RunState {
	return &RunState{values: map[string]any{}}
}

// Get returns the value stored under key, if present
func (s *RunState) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key, replacing any previous value
func (s *RunState) Set(key string, value any) {
	s.values[key] = value
}

// Delete removes key from the state
func (s *RunState) Delete(key string) {
	delete(s.values, key)
}

// Len returns the number of stored keys
func (s *RunState) Len() int {
	return len(s.values)
}

// Snapshot returns a shallow copy of the state mapping
func (s *RunState) Snapshot() map[string]any {
	return maps.Clone(s.values)
}

// Merge stores every entry of values into the state
func (s *RunState) Merge(values map[string]any) {
	maps.Copy(s.values, values)
}
