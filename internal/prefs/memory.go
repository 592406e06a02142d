package prefs

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/prefscreen/internal/prefs/notify"
)

// MemoryStore is an in-memory Store. It is the value layer underneath
// FileStore and the store used by tests.
type MemoryStore struct {
	mu       sync.RWMutex
	values   map[string]any
	notifier *notify.Notifier
	closed   bool
}

// NewMemoryStore creates a store seeded with initial values.
func NewMemoryStore(initial map[string]any) *MemoryStore {
	s := &MemoryStore{
		values:   make(map[string]any, len(initial)),
		notifier: notify.New(),
	}
	for k, v := range initial {
		if nv, err := normalize(v); err == nil {
			s.values[k] = nv
		}
	}
	return s
}

// Get returns the value for key and whether it is present.
func (s *MemoryStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key. Observers are notified only when the stored
// value actually changes.
func (s *MemoryStore) Set(key string, value any) error {
	_, err := s.set(key, value, "set")
	return err
}

func (s *MemoryStore) set(key string, value any, source string) (bool, error) {
	if key == "" {
		return false, ErrInvalidKey
	}
	nv, err := normalize(value)
	if err != nil {
		return false, fmt.Errorf("setting %s: %w", key, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrClosed
	}
	old, existed := s.values[key]
	if existed && old == nv {
		s.mu.Unlock()
		return false, nil
	}
	s.values[key] = nv
	s.mu.Unlock()

	s.notifier.NotifySet(key, old, nv, source)
	return true, nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *MemoryStore) Delete(key string) error {
	_, err := s.delete(key, "delete")
	return err
}

func (s *MemoryStore) delete(key, source string) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrClosed
	}
	old, existed := s.values[key]
	if !existed {
		s.mu.Unlock()
		return false, nil
	}
	delete(s.values, key)
	s.mu.Unlock()

	s.notifier.NotifyDelete(key, old, source)
	return true, nil
}

// Replace swaps the whole value set and emits a single reload change when
// anything differs.
func (s *MemoryStore) Replace(values map[string]any, source string) bool {
	next := make(map[string]any, len(values))
	for k, v := range values {
		if nv, err := normalize(v); err == nil {
			next[k] = nv
		}
	}

	s.mu.Lock()
	if s.closed || equalValues(s.values, next) {
		s.mu.Unlock()
		return false
	}
	s.values = next
	s.mu.Unlock()

	s.notifier.NotifyReload(source)
	return true
}

// OnChange registers an observer for every change.
func (s *MemoryStore) OnChange(observer notify.Observer) Subscription {
	return s.notifier.Subscribe(observer)
}

// Observers returns the number of registered observers.
func (s *MemoryStore) Observers() int {
	return s.notifier.Len()
}

// Keys returns all keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of all values.
func (s *MemoryStore) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Close drops all observers. Further writes return ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.notifier.Close()
	return nil
}

func equalValues(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || av != bv {
			return false
		}
	}
	return true
}

var _ Store = (*MemoryStore)(nil)
