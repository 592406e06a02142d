package screen

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

//go:embed screens.toml
var defaultDefinitions []byte

type treeDoc struct {
	Screens []screenDoc `toml:"screen"`
}

type screenDoc struct {
	Key      string       `toml:"key"`
	Title    string       `toml:"title"`
	Settings []settingDoc `toml:"setting"`
}

type settingDoc struct {
	Key     string     `toml:"key"`
	Kind    string     `toml:"kind"`
	Title   string     `toml:"title"`
	Default any        `toml:"default"`
	Target  string     `toml:"target"`
	Dynamic bool       `toml:"dynamic"`
	Secret  bool       `toml:"secret"`
	Min     *float64   `toml:"min"`
	Max     *float64   `toml:"max"`
	Entries []entryDoc `toml:"entry"`
}

type entryDoc struct {
	Label string `toml:"label"`
	Value string `toml:"value"`
}

// Default returns the built-in settings tree.
func Default() (*Tree, error) {
	return Load(bytes.NewReader(defaultDefinitions))
}

// MustDefault returns the built-in tree and panics if it is malformed.
func MustDefault() *Tree {
	t, err := Default()
	if err != nil {
		panic(err)
	}
	return t
}

// LoadFile reads screen definitions from a TOML file.
func LoadFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening screen definitions %s: %w", path, err)
	}
	defer f.Close()

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Load reads screen definitions from TOML.
func Load(r io.Reader) (*Tree, error) {
	var doc treeDoc
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&doc); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			line, col := derr.Position()
			return nil, fmt.Errorf("%w: line %d, column %d: %s", ErrInvalidDefinition, line, col, derr.Error())
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	screens := make([]*Screen, 0, len(doc.Screens))
	for _, sd := range doc.Screens {
		s := &Screen{Key: sd.Key, Title: sd.Title}
		for _, std := range sd.Settings {
			st, err := std.build(sd.Key)
			if err != nil {
				return nil, err
			}
			s.Settings = append(s.Settings, st)
		}
		screens = append(screens, s)
	}
	return NewTree(screens)
}

func (d settingDoc) build(screenKey string) (*Setting, error) {
	kind, ok := ParseKind(d.Kind)
	if !ok {
		return nil, &DefinitionError{Screen: screenKey, Setting: d.Key, Message: fmt.Sprintf("unknown kind %q", d.Kind)}
	}

	st := &Setting{
		Key:     d.Key,
		Kind:    kind,
		Title:   d.Title,
		Default: d.Default,
		Dynamic: d.Dynamic,
		Target:  d.Target,
		Min:     d.Min,
		Max:     d.Max,
		Secret:  d.Secret,
	}
	if kind == KindLink && st.Target == "" {
		st.Target = d.Key
	}
	for _, e := range d.Entries {
		st.Entries = append(st.Entries, Choice{Label: e.Label, Value: e.Value})
	}
	return st, nil
}
