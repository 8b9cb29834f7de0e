package router

import "sync"

// Navigator moves the application to a route. With replace set the current
// history entry is overwritten instead of a new one being pushed.
type Navigator interface {
	Navigate(path string, replace bool)
}

// History is an in-memory Navigator that records every visited route.
type History struct {
	mu      sync.RWMutex
	entries []string
	calls   int
}

func NewHistory(initial ...string) *History {
	return &History{entries: append([]string(nil), initial...)}
}

func (h *History) Navigate(path string, replace bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.calls++
	if replace && len(h.entries) > 0 {
		h.entries[len(h.entries)-1] = path
		return
	}
	h.entries = append(h.entries, path)
}

// Back pops the current entry and returns the new current route.
func (h *History) Back() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) < 2 {
		return "", false
	}
	h.entries = h.entries[:len(h.entries)-1]
	return h.entries[len(h.entries)-1], true
}

// Current returns the current route or "" before any navigation.
func (h *History) Current() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.entries) == 0 {
		return ""
	}
	return h.entries[len(h.entries)-1]
}

// Entries returns a copy of the history stack.
func (h *History) Entries() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return append([]string(nil), h.entries...)
}

// Calls returns how many times Navigate was invoked.
func (h *History) Calls() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.calls
}
