package mapview

import "sync"

// Selection tracks the single highlighted city.
type Selection struct {
	mu sync.Mutex
	id string
}

// Select highlights id and returns the id whose highlight was cleared, or ""
// when nothing was selected before. Selecting the current city again is a
// no-op and returns "".
func (s *Selection) Select(id string) (previous string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == id {
		return ""
	}
	previous, s.id = s.id, id
	return previous
}

// Clear removes the highlight and returns the id that had it.
func (s *Selection) Clear() (previous string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, s.id = s.id, ""
	return previous
}

// Selected returns the highlighted id.
func (s *Selection) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}
