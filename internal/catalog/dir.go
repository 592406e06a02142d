package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ManifestName is the manifest file inside a pack directory.
const ManifestName = "pack.toml"

// MapExt is the extension of a bare map pack file.
const MapExt = ".map"

// DefaultStoreURL is where new packs can be downloaded.
const DefaultStoreURL = "https://www.cyclestreets.net/mobile/offline-maps/"

// Manifest describes a pack directory.
type Manifest struct {
	// Name is the display name.
	Name string `toml:"name"`

	// Map is the map file, relative to the pack directory.
	Map string `toml:"map"`
}

// Launcher opens a URL in the user's environment.
type Launcher func(url string) error

// Option configures a Dir catalog.
type Option func(*Dir)

// WithLauncher overrides how the store URL is opened.
func WithLauncher(l Launcher) Option {
	return func(d *Dir) {
		d.launch = l
	}
}

// WithStoreURL overrides the URL opened by RequestAcquisition.
func WithStoreURL(url string) Option {
	return func(d *Dir) {
		d.storeURL = url
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dir) {
		if l != nil {
			d.log = l
		}
	}
}

// Dir discovers packs in a directory. Each entry is either a bare
// "<name>.map" file or a directory holding a pack.toml manifest. Entries
// are reported in directory-listing order.
type Dir struct {
	fsys     fs.FS
	root     string
	launch   Launcher
	storeURL string
	log      *slog.Logger
}

// NewDir creates a catalog over the directory at root.
func NewDir(root string, opts ...Option) *Dir {
	return NewFS(os.DirFS(root), root, opts...)
}

// NewFS creates a catalog over fsys. Identifiers are joined onto root.
func NewFS(fsys fs.FS, root string, opts ...Option) *Dir {
	d := &Dir{
		fsys:     fsys,
		root:     root,
		launch:   OpenURL,
		storeURL: DefaultStoreURL,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Root returns the scanned directory.
func (d *Dir) Root() string {
	return d.root
}

// Available scans the directory. Unreadable or malformed entries are
// skipped; a missing directory yields no packs.
func (d *Dir) Available() []Resource {
	entries, err := fs.ReadDir(d.fsys, ".")
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			d.log.Warn("scanning map packs", "dir", d.root, "error", err)
		}
		return nil
	}

	var out []Resource
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		if e.IsDir() {
			r, err := d.readManifest(name)
			if err != nil {
				d.log.Debug("skipping map pack", "entry", name, "error", err)
				continue
			}
			out = append(out, r)
			continue
		}

		if filepath.Ext(name) == MapExt {
			out = append(out, Resource{
				Label:      labelFromFile(name),
				Identifier: filepath.Join(d.root, name),
			})
		}
	}
	return out
}

func (d *Dir) readManifest(dir string) (Resource, error) {
	data, err := fs.ReadFile(d.fsys, dir+"/"+ManifestName)
	if err != nil {
		return Resource{}, err
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return Resource{}, fmt.Errorf("parsing %s: %w", ManifestName, err)
	}
	if m.Map == "" {
		return Resource{}, fmt.Errorf("%s: missing map", ManifestName)
	}
	if m.Name == "" {
		m.Name = labelFromFile(dir)
	}
	return Resource{
		Label:      m.Name,
		Identifier: filepath.Join(d.root, dir, m.Map),
	}, nil
}

// RequestAcquisition opens the map store. Failures are logged only.
func (d *Dir) RequestAcquisition() {
	if d.launch == nil {
		return
	}
	if err := d.launch(d.storeURL); err != nil {
		d.log.Warn("opening map store", "url", d.storeURL, "error", err)
	}
}

// labelFromFile turns "greater-london.map" into "Greater London".
func labelFromFile(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	return cases.Title(language.Und, cases.NoLower).String(strings.Join(words, " "))
}

// OpenURL opens url with the platform's default handler without waiting
// for it to exit.
func OpenURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait() //nolint:errcheck // reaped only
	return nil
}

var _ Catalog = (*Dir)(nil)
