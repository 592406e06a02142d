// Package notify provides change notification for preference updates.
//
// The notify package implements an observer pattern that allows components
// to subscribe to preference changes and receive callbacks when values
// are modified. Delivery is synchronous on the goroutine that reports the
// change, in subscription order.
package notify

import (
	"sort"
	"sync"
)

// ChangeType represents the type of preference change.
type ChangeType int

const (
	// ChangeSet indicates a value was set or updated.
	ChangeSet ChangeType = iota

	// ChangeDelete indicates a value was deleted.
	ChangeDelete

	// ChangeReload indicates the entire preference file was reloaded.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeDelete:
		return "delete"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change represents a preference change event.
type Change struct {
	// Key is the preference key that changed.
	// Empty for reload events.
	Key string

	// Type is the type of change.
	Type ChangeType

	// OldValue is the previous value (may be nil).
	OldValue any

	// NewValue is the new value (may be nil for deletes).
	NewValue any

	// Source identifies where the change came from.
	Source string
}

// Observer is called when preference changes occur.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	key      string
	notifier *Notifier
	once     sync.Once
}

// Cancel removes this subscription. It is safe to call Cancel more than once.
func (s *Subscription) Cancel() {
	if s == nil || s.notifier == nil {
		return
	}
	s.once.Do(func() {
		s.notifier.unsubscribe(s.id)
	})
}

// Key returns the key this subscription is filtered on, or "" for all keys.
func (s *Subscription) Key() string {
	return s.key
}

type entry struct {
	key      string
	observer Observer
}

// Notifier manages preference change subscriptions.
type Notifier struct {
	mu sync.RWMutex

	// Observers by subscription ID; key "" receives all changes.
	observers map[uint64]entry

	// Next subscription ID
	nextID uint64

	// Closed flag for idempotent Close
	closed bool
}

// New creates a new Notifier.
func New() *Notifier {
	return &Notifier{
		observers: make(map[uint64]entry),
	}
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	return n.SubscribeKey("", observer)
}

// SubscribeKey registers an observer for changes to a single key.
// Reload events are delivered to every observer regardless of key.
func (n *Notifier) SubscribeKey(key string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.observers[id] = entry{key: key, observer: observer}

	return &Subscription{
		id:       id,
		key:      key,
		notifier: n,
	}
}

// Len returns the number of active subscriptions.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.observers)
}

// Notify sends a change notification to all relevant observers.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}

	ids := make([]uint64, 0, len(n.observers))
	for id, e := range n.observers {
		if e.key == "" || change.Type == ChangeReload || e.key == change.Key {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	observers := make([]Observer, len(ids))
	for i, id := range ids {
		observers[i] = n.observers[id].observer
	}
	n.mu.RUnlock()

	// Call observers outside the lock so they may subscribe or cancel.
	for _, obs := range observers {
		obs(change)
	}
}

// NotifySet is a convenience method for set changes.
func (n *Notifier) NotifySet(key string, oldValue, newValue any, source string) {
	n.Notify(Change{
		Key:      key,
		Type:     ChangeSet,
		OldValue: oldValue,
		NewValue: newValue,
		Source:   source,
	})
}

// NotifyDelete is a convenience method for delete changes.
func (n *Notifier) NotifyDelete(key string, oldValue any, source string) {
	n.Notify(Change{
		Key:      key,
		Type:     ChangeDelete,
		OldValue: oldValue,
		Source:   source,
	})
}

// NotifyReload is a convenience method for reload events.
func (n *Notifier) NotifyReload(source string) {
	n.Notify(Change{
		Type:   ChangeReload,
		Source: source,
	})
}

// Close stops delivery and drops every subscription. It is safe to call
// Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = true
	n.observers = make(map[uint64]entry)
}

// unsubscribe removes an observer by ID.
func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.observers, id)
}
