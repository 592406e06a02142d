package reconcile

import (
	"github.com/dshills/prefscreen/internal/account"
	"github.com/dshills/prefscreen/internal/screen"
	"github.com/dshills/prefscreen/internal/text"
)

// RefreshMapStyleChoice resets the stored map style to the fallback when
// the offline style is selected but no map pack is installed. This is the
// only correction of a stored value made by the engine.
func (e *Engine) RefreshMapStyleChoice() {
	if e.index[e.cfg.MapStyleKey] == nil {
		return
	}
	if e.stringValue(e.cfg.MapStyleKey) != e.cfg.OfflineStyle {
		return
	}
	if len(e.catalog.Available()) > 0 {
		return
	}

	e.log.Info("offline maps selected but no map packs available; using fallback style",
		"fallback", e.cfg.FallbackStyle)
	if err := e.store.Set(e.cfg.MapStyleKey, e.cfg.FallbackStyle); err != nil {
		e.log.Warn("resetting map style", "error", err)
	}
}

// RefreshChoiceList replaces the choices of a dynamic choice setting with
// the installed packs, in catalog order.
func (e *Engine) RefreshChoiceList(key string) {
	n := e.index[key]
	if n == nil || n.Setting.Kind != screen.KindChoice {
		return
	}

	resources := e.catalog.Available()
	choices := make(screen.ChoiceList, len(resources))
	for i, r := range resources {
		choices[i] = screen.Choice{Label: r.Label, Value: r.Identifier}
	}
	n.Choices = choices
	e.changed(key)
}

// RefreshSummary recomputes the summary for key. Choice settings show the
// label of the stored value (empty when unmatched) and text settings show
// the stored text; other kinds keep their summary. Keys not on the active
// screen are ignored. A map style refresh also re-applies the map file
// availability rule.
func (e *Engine) RefreshSummary(key string) {
	n := e.index[key]
	if n == nil {
		return
	}

	switch n.Setting.Kind {
	case screen.KindChoice:
		label, _ := n.Choices.LabelFor(e.stringValue(key))
		n.Summary = label
	case screen.KindText:
		n.Summary = e.stringValue(key)
	}
	e.changed(key)

	if key == e.cfg.MapStyleKey {
		e.RefreshDependentAvailability(e.stringValue(key))
	}
}

// RefreshDependentAvailability enables the map file setting only when
// style is the offline style. A disabled map file keeps its summary. With
// no packs installed the setting stays disabled and the user is offered a
// download. Otherwise the stored pack is selected, or the first pack when
// the stored one is not installed.
func (e *Engine) RefreshDependentAvailability(style string) {
	n := e.index[e.cfg.MapFileKey]
	if n == nil {
		return
	}
	defer e.changed(n.Setting.Key)

	enabled := style == e.cfg.OfflineStyle
	n.Enabled = enabled
	if !enabled {
		return
	}

	if len(n.Choices) == 0 {
		n.Enabled = false
		if e.prompt != nil {
			e.prompt.Confirm(e.text.String(text.NoMapPacks), e.catalog.RequestAcquisition)
		}
		return
	}

	index := n.Choices.IndexOf(e.stringValue(n.Setting.Key))
	if index == -1 {
		index = 0
	}

	if err := e.store.Set(n.Setting.Key, n.Choices[index].Value); err != nil {
		e.log.Warn("selecting map file", "error", err)
	}
	n.Summary = n.Choices[index].Label
}

// RefreshAccountSummary shows signed-in, awaiting-verification, or nothing.
func (e *Engine) RefreshAccountSummary() {
	n := e.index[e.cfg.AccountKey]
	if n == nil {
		return
	}

	switch account.StatusOf(e.oracle) {
	case account.StatusSignedIn:
		n.Summary = e.text.String(text.SignedIn)
	case account.StatusPending:
		n.Summary = e.text.String(text.Awaiting)
	default:
		n.Summary = ""
	}
	e.changed(n.Setting.Key)
}
