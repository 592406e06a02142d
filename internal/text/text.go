// Package text resolves the localized strings shown in setting summaries
// and prompts.
package text

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key names a localized string.
type Key string

// String keys used by the settings core.
const (
	SignedIn   Key = "settings_signed_in"
	Awaiting   Key = "settings_awaiting"
	NoMapPacks Key = "settings_no_map_packs"
	Yes        Key = "yes"
	No         Key = "no"
)

var translations = map[language.Tag]map[Key]string{
	language.English: {
		SignedIn:   "Signed in",
		Awaiting:   "Awaiting verification",
		NoMapPacks: "There are no offline map packs installed. Would you like to download one?",
		Yes:        "Yes",
		No:         "No",
	},
	language.German: {
		SignedIn:   "Angemeldet",
		Awaiting:   "Warte auf Bestätigung",
		NoMapPacks: "Es sind keine Offline-Kartenpakete installiert. Möchten Sie eines herunterladen?",
		Yes:        "Ja",
		No:         "Nein",
	},
}

var (
	builder = newBuilder()

	// English first: it is the matcher's default.
	supported = []language.Tag{language.English, language.German}
	matcher   = language.NewMatcher(supported)
)

func newBuilder() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, strs := range translations {
		for k, s := range strs {
			// Only fails for malformed messages, which are static here.
			_ = b.SetString(tag, string(k), s)
		}
	}
	return b
}

// Localizer resolves keys for one language.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Localizer for tag. Unsupported languages fall back to
// English.
func New(tag language.Tag) *Localizer {
	_, idx, conf := matcher.Match(tag)
	matched := supported[idx]
	if conf == language.No {
		matched = language.English
	}
	return &Localizer{
		tag:     matched,
		printer: message.NewPrinter(matched, message.Catalog(builder)),
	}
}

// FromEnv picks the language from LC_ALL, LC_MESSAGES or LANG.
func FromEnv() *Localizer {
	for _, v := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if tag, ok := parsePOSIX(os.Getenv(v)); ok {
			return New(tag)
		}
	}
	return New(language.English)
}

// Tag returns the resolved language.
func (l *Localizer) Tag() language.Tag {
	return l.tag
}

// String returns the localized text for key. Unknown keys render as
// the key itself.
func (l *Localizer) String(key Key) string {
	return l.printer.Sprintf(string(key))
}

// parsePOSIX converts "de_DE.UTF-8" into a language tag.
func parsePOSIX(s string) (language.Tag, bool) {
	if s == "" || s == "C" || s == "POSIX" {
		return language.Und, false
	}
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return language.Und, false
	}
	return tag, true
}
