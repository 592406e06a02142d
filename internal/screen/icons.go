package screen

// Icon identifies a material icon and the glyph used to draw it in a
// terminal.
type Icon struct {
	Name  string
	Glyph rune
}

// IconState distinguishes the three outcomes of an icon lookup.
type IconState uint8

const (
	// IconAbsent means the key is not in the icon table.
	IconAbsent IconState = iota
	// IconNone means the key is in the table and explicitly has no icon.
	IconNone
	// IconPresent means the key maps to an icon.
	IconPresent
)

// IconLookup is the result of IconFor.
type IconLookup struct {
	state IconState
	icon  Icon
}

// State returns which of the three outcomes this lookup is.
func (l IconLookup) State() IconState {
	return l.state
}

// Icon returns the icon when one is present.
func (l IconLookup) Icon() (Icon, bool) {
	return l.icon, l.state == IconPresent
}

var (
	iconMap         = Icon{Name: "map", Glyph: '▦'}
	iconDirections  = Icon{Name: "directions", Glyph: '➤'}
	iconNavigation  = Icon{Name: "navigation", Glyph: '▲'}
	iconLocation    = Icon{Name: "edit_location", Glyph: '⌖'}
	iconAccount     = Icon{Name: "account_circle", Glyph: '◉'}
	iconInfoOutline = Icon{Name: "info_outline", Glyph: 'ⓘ'}
)

// settingsIcons is process-wide read-only configuration. A nil entry means
// the setting is known and deliberately has no icon.
var settingsIcons = map[string]*Icon{
	"screen-maps-display":        &iconMap,
	"mapstyle":                   nil,
	"mapfile":                    nil,
	"confirm-new-route":          nil,
	"screen-routing-preferences": &iconDirections,
	"routetype":                  nil,
	"speed":                      nil,
	"units":                      nil,
	"screen-liveride":            &iconNavigation,
	"nearing-turn-distance":      nil,
	"offtrack-distance":          nil,
	"replan-distance":            nil,
	"screen-locations":           &iconLocation,
	"screen-account":             &iconAccount,
	"cyclestreets-account":       nil,
	"username":                   nil,
	"password":                   nil,
	"uploadsize":                 nil,
	"screen-about":               &iconInfoOutline,
}

// IconFor looks up the icon for a setting key.
func IconFor(settingKey string) IconLookup {
	icon, ok := settingsIcons[settingKey]
	switch {
	case !ok:
		return IconLookup{state: IconAbsent}
	case icon == nil:
		return IconLookup{state: IconNone}
	default:
		return IconLookup{state: IconPresent, icon: *icon}
	}
}
