// Package prefs provides persisted key/value preferences with change
// notification.
//
// A Store is shared by the whole settings UI. Values are plain Go values
// (string, int64, float64, bool) keyed by the setting key. Observers
// registered through OnChange are called synchronously, after the value
// has been committed, on the goroutine that made the change.
package prefs

import (
	"errors"
	"fmt"

	"github.com/dshills/prefscreen/internal/prefs/notify"
)

// Errors returned by preference stores.
var (
	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("preference store closed")

	// ErrInvalidKey indicates an empty preference key.
	ErrInvalidKey = errors.New("invalid preference key")

	// ErrUnsupportedType indicates a value that cannot be persisted.
	ErrUnsupportedType = errors.New("unsupported preference value type")
)

// Subscription is the handle returned by Store.OnChange.
type Subscription interface {
	// Cancel stops delivery to the observer. Safe to call more than once.
	Cancel()
}

// Store is the persistence contract the settings core depends on.
type Store interface {
	// Get returns the value for key and whether it is present.
	Get(key string) (any, bool)

	// Set stores value under key and notifies observers when it changed.
	Set(key string, value any) error

	// OnChange registers an observer for every change.
	OnChange(observer notify.Observer) Subscription
}

// GetString returns the string value for key. Non-string values are
// formatted with %v; absent keys return "", false.
func GetString(s Store, key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok || v == nil {
		return "", false
	}
	if str, ok := v.(string); ok {
		return str, true
	}
	return fmt.Sprintf("%v", v), true
}

// GetBool returns the boolean value for key, or false when absent or not
// a boolean.
func GetBool(s Store, key string) bool {
	v, ok := s.Get(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// normalize converts value into one of the persisted value types.
func normalize(value any) (any, error) {
	switch v := value.(type) {
	case string, bool, int64, float64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case float32:
		return float64(v), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, value)
	}
}
