// Package screen defines the static tree of settings screens.
//
// A Tree is loaded once at startup and never mutated. Each Screen holds an
// ordered list of Settings; link settings open other screens. Exactly one
// screen, the root, has the empty key.
package screen

import (
	"errors"
	"fmt"
)

// RootKey is the key of the root screen.
const RootKey = ""

// Errors describing malformed definitions. Both are configuration errors:
// callers abort screen construction instead of rendering nothing.
var (
	// ErrScreenNotFound indicates no screen matches a key.
	ErrScreenNotFound = errors.New("screen not found")

	// ErrInvalidDefinition indicates the screen definitions are malformed.
	ErrInvalidDefinition = errors.New("invalid screen definition")
)

// NotFoundError is returned by Resolve for unknown keys.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	if e.Key == RootKey {
		return "screen not found: <root>"
	}
	return fmt.Sprintf("screen not found: %s", e.Key)
}

// Is implements error matching for NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrScreenNotFound
}

// DefinitionError describes a validation failure in screen definitions.
type DefinitionError struct {
	Screen  string
	Setting string
	Message string
}

func (e *DefinitionError) Error() string {
	screen := e.Screen
	if screen == RootKey {
		screen = "<root>"
	}
	if e.Setting != "" {
		return fmt.Sprintf("screen %s, setting %s: %s", screen, e.Setting, e.Message)
	}
	return fmt.Sprintf("screen %s: %s", screen, e.Message)
}

// Is implements error matching for DefinitionError.
func (e *DefinitionError) Is(target error) bool {
	return target == ErrInvalidDefinition
}

// Screen is an ordered, named group of settings.
type Screen struct {
	// Key identifies the screen; RootKey for the root.
	Key string

	// Title is the display title.
	Title string

	// Settings in render order.
	Settings []*Setting
}

// IsRoot reports whether this is the root screen.
func (s *Screen) IsRoot() bool {
	return s.Key == RootKey
}

// Setting returns the setting with key, or nil when it is not on this screen.
func (s *Screen) Setting(key string) *Setting {
	for _, st := range s.Settings {
		if st.Key == key {
			return st
		}
	}
	return nil
}

// Tree is the immutable set of screens.
type Tree struct {
	screens map[string]*Screen
	order   []string
}

// NewTree validates screens and builds a tree.
func NewTree(screens []*Screen) (*Tree, error) {
	t := &Tree{screens: make(map[string]*Screen, len(screens))}
	for _, s := range screens {
		if _, dup := t.screens[s.Key]; dup {
			if s.Key == RootKey {
				return nil, &DefinitionError{Screen: s.Key, Message: "more than one root screen"}
			}
			return nil, &DefinitionError{Screen: s.Key, Message: "duplicate screen key"}
		}
		t.screens[s.Key] = s
		t.order = append(t.order, s.Key)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Resolve returns the screen with key.
func (t *Tree) Resolve(key string) (*Screen, error) {
	if s, ok := t.screens[key]; ok {
		return s, nil
	}
	return nil, &NotFoundError{Key: key}
}

// Root returns the root screen.
func (t *Tree) Root() *Screen {
	return t.screens[RootKey]
}

// Keys returns screen keys in definition order.
func (t *Tree) Keys() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Parent returns the key of the first screen that links to key.
func (t *Tree) Parent(key string) (string, bool) {
	for _, k := range t.order {
		for _, st := range t.screens[k].Settings {
			if st.Kind == KindLink && st.Target == key {
				return k, true
			}
		}
	}
	return "", false
}

func (t *Tree) validate() error {
	if _, ok := t.screens[RootKey]; !ok {
		return &DefinitionError{Screen: RootKey, Message: "no root screen"}
	}

	for _, k := range t.order {
		s := t.screens[k]
		seen := make(map[string]bool, len(s.Settings))
		for _, st := range s.Settings {
			if st.Key == "" {
				return &DefinitionError{Screen: k, Message: "setting without key"}
			}
			if seen[st.Key] {
				return &DefinitionError{Screen: k, Setting: st.Key, Message: "duplicate setting key"}
			}
			seen[st.Key] = true

			switch st.Kind {
			case KindLink:
				if st.Target == RootKey {
					return &DefinitionError{Screen: k, Setting: st.Key, Message: "link to root screen"}
				}
				if _, ok := t.screens[st.Target]; !ok {
					return &DefinitionError{Screen: k, Setting: st.Key, Message: fmt.Sprintf("link target %q does not exist", st.Target)}
				}
			case KindChoice:
				if st.Default != nil && !st.Dynamic {
					if err := st.Validate(st.Default); err != nil {
						return &DefinitionError{Screen: k, Setting: st.Key, Message: "default not among entries"}
					}
				}
			}
		}
	}
	return nil
}
