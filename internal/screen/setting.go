package screen

import (
	"errors"
	"fmt"
)

// ErrInvalidValue indicates a value that does not fit a setting.
var ErrInvalidValue = errors.New("invalid setting value")

// Kind is the kind of a setting.
type Kind uint8

const (
	// KindChoice selects one identifier from a ChoiceList.
	KindChoice Kind = iota
	// KindText holds free text.
	KindText
	// KindBoolean holds a switch.
	KindBoolean
	// KindNumeric holds a number.
	KindNumeric
	// KindLink opens another screen.
	KindLink
	// KindAction runs an external action and stores nothing.
	KindAction
)

// String returns the kind name used in definition files.
func (k Kind) String() string {
	switch k {
	case KindChoice:
		return "choice"
	case KindText:
		return "text"
	case KindBoolean:
		return "boolean"
	case KindNumeric:
		return "numeric"
	case KindLink:
		return "link"
	case KindAction:
		return "action"
	default:
		return "unknown"
	}
}

// ParseKind parses a kind name.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "choice":
		return KindChoice, true
	case "text":
		return KindText, true
	case "boolean", "bool":
		return KindBoolean, true
	case "numeric", "number":
		return KindNumeric, true
	case "link", "screen":
		return KindLink, true
	case "action":
		return KindAction, true
	default:
		return 0, false
	}
}

// Stored reports whether settings of this kind persist a value.
func (k Kind) Stored() bool {
	return k != KindLink && k != KindAction
}

// Choice is one selectable entry of a ChoiceList.
type Choice struct {
	Label string
	Value string
}

// ChoiceList is an ordered list of choices. Labels and values are parallel.
type ChoiceList []Choice

// Labels returns the labels in order.
func (l ChoiceList) Labels() []string {
	out := make([]string, len(l))
	for i, c := range l {
		out[i] = c.Label
	}
	return out
}

// Values returns the identifiers in order.
func (l ChoiceList) Values() []string {
	out := make([]string, len(l))
	for i, c := range l {
		out[i] = c.Value
	}
	return out
}

// IndexOf returns the index of value, or -1.
func (l ChoiceList) IndexOf(value string) int {
	for i, c := range l {
		if c.Value == value {
			return i
		}
	}
	return -1
}

// LabelFor returns the label of value and whether it matched.
func (l ChoiceList) LabelFor(value string) (string, bool) {
	if i := l.IndexOf(value); i >= 0 {
		return l[i].Label, true
	}
	return "", false
}

// Setting is the static definition of a single configurable item.
type Setting struct {
	// Key is unique within its screen and is also the preference key.
	Key string

	// Kind selects how the value is edited and summarized.
	Kind Kind

	// Title is the display title.
	Title string

	// Default is the value used when nothing is stored.
	Default any

	// Entries is the static ChoiceList for choice settings.
	Entries ChoiceList

	// Dynamic marks choice settings whose entries come from the
	// resource catalog instead of Entries.
	Dynamic bool

	// Target is the screen opened by a link setting.
	Target string

	// Min and Max bound numeric settings (nil means unbounded).
	Min *float64
	Max *float64

	// Secret marks text whose value must be masked when displayed.
	Secret bool
}

// Validate checks if a value may be stored for this setting. Dynamic
// choice settings accept any string, since their entries are only known
// at activation time.
func (s *Setting) Validate(value any) error {
	switch s.Kind {
	case KindChoice:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s expects string, got %T", ErrInvalidValue, s.Key, value)
		}
		if !s.Dynamic && s.Entries.IndexOf(str) < 0 {
			return fmt.Errorf("%w: %s must be one of %v", ErrInvalidValue, s.Key, s.Entries.Values())
		}
	case KindText:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%w: %s expects string, got %T", ErrInvalidValue, s.Key, value)
		}
	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: %s expects boolean, got %T", ErrInvalidValue, s.Key, value)
		}
	case KindNumeric:
		f, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("%w: %s expects number, got %T", ErrInvalidValue, s.Key, value)
		}
		if s.Min != nil && f < *s.Min {
			return fmt.Errorf("%w: %s value %v is less than minimum %v", ErrInvalidValue, s.Key, value, *s.Min)
		}
		if s.Max != nil && f > *s.Max {
			return fmt.Errorf("%w: %s value %v is greater than maximum %v", ErrInvalidValue, s.Key, value, *s.Max)
		}
	default:
		return fmt.Errorf("%w: %s (%s) stores no value", ErrInvalidValue, s.Key, s.Kind)
	}
	return nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
