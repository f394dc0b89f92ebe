package util

// Set tracks membership for comparable values
type Set[K comparable] map[K]struct{}

// SetOf builds a set from the given elements
func SetOf[K comparable](elements ...K) Set[K] {
	s := make(Set[K], len(elements))
	for _, elem := range elements {
		s.Add(elem)
	}
	return s
}

// Add inserts an element; inserting an existing element is a no-op
func (s Set[K]) Add(key K) {
	s[key] = struct{}{}
}

// Contains reports whether the element is present
func (s Set[K]) Contains(key K) bool {
	_, exists := s[key]
	return exists
}
