package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/prefscreen/internal/reconcile"
	"github.com/dshills/prefscreen/internal/screen"
)

// HandleKey applies one key press. A pending prompt takes every key until
// it is answered, then an active edit, then list navigation.
func (v *View) HandleKey(ev *tcell.EventKey) {
	v.dirty = true

	if ev.Key() == tcell.KeyCtrlC {
		v.quit = true
		return
	}

	switch {
	case len(v.prompts) > 0:
		v.handlePromptKey(ev)
	case v.editing != nil:
		v.handleEditKey(ev)
	default:
		v.handleListKey(ev)
	}
}

func (v *View) handlePromptKey(ev *tcell.EventKey) {
	p := v.prompts[0]

	var accepted bool
	switch ev.Key() {
	case tcell.KeyEnter:
		accepted = true
	case tcell.KeyEscape:
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'y', 'Y', 'j', 'J':
			accepted = true
		case 'n', 'N':
		default:
			return
		}
	default:
		return
	}

	v.prompts = v.prompts[1:]
	if accepted && p.onYes != nil {
		p.onYes()
	}
}

func (v *View) handleEditKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		v.editing = nil
	case tcell.KeyEnter:
		v.commitEdit()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if n := len(v.editing.buffer); n > 0 {
			v.editing.buffer = v.editing.buffer[:n-1]
		}
	case tcell.KeyRune:
		v.editing.buffer = append(v.editing.buffer, ev.Rune())
	}
}

func (v *View) handleListKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyUp:
		v.move(-1)
	case tcell.KeyDown:
		v.move(1)
	case tcell.KeyEnter, tcell.KeyRight:
		v.activateSelected()
	case tcell.KeyEscape, tcell.KeyLeft, tcell.KeyBackspace, tcell.KeyBackspace2:
		v.back()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'k':
			v.move(-1)
		case 'j':
			v.move(1)
		case 'l':
			v.activateSelected()
		case 'h':
			v.back()
		case ' ':
			v.toggleSelected()
		case 'q':
			v.quit = true
		}
	}
}

func (v *View) move(delta int) {
	n := len(v.engine.Nodes())
	if n == 0 {
		return
	}
	v.cursor = (v.cursor + delta + n) % n
	v.status = ""
}

// back pops a screen; at the root it quits.
func (v *View) back() {
	if v.nav == nil || !v.nav.Back() {
		v.quit = true
	}
}

func (v *View) selected() (reconcile.Node, bool) {
	nodes := v.engine.Nodes()
	if v.cursor < 0 || v.cursor >= len(nodes) {
		return reconcile.Node{}, false
	}
	return nodes[v.cursor], true
}

func (v *View) activateSelected() {
	n, ok := v.selected()
	if !ok {
		return
	}
	st := n.Setting

	if !n.Enabled {
		v.status = st.Title + " is unavailable"
		return
	}

	switch st.Kind {
	case screen.KindLink:
		if v.nav == nil {
			return
		}
		if err := v.nav.EnterScreen(st.Target); err != nil {
			v.log.Error("opening screen", "target", st.Target, "error", err)
			v.status = err.Error()
		}
	case screen.KindChoice:
		v.cycleChoice(n)
	case screen.KindBoolean:
		v.toggleSelected()
	case screen.KindText, screen.KindNumeric:
		v.beginEdit(n)
	case screen.KindAction:
		if fn := v.actions[st.Key]; fn != nil {
			fn()
			return
		}
		v.status = st.Title + " is not available here"
	}
}

// cycleChoice selects the entry after the current one, wrapping.
func (v *View) cycleChoice(n reconcile.Node) {
	if len(n.Choices) == 0 {
		return
	}
	current, _ := v.engine.Value(n.Setting.Key)
	s, _ := current.(string)
	next := (n.Choices.IndexOf(s) + 1) % len(n.Choices)
	v.set(n.Setting.Key, n.Choices[next].Value)
}

func (v *View) toggleSelected() {
	n, ok := v.selected()
	if !ok || n.Setting.Kind != screen.KindBoolean || !n.Enabled {
		return
	}
	current, _ := v.engine.Value(n.Setting.Key)
	b, _ := current.(bool)
	v.set(n.Setting.Key, !b)
}

func (v *View) beginEdit(n reconcile.Node) {
	e := &edit{key: n.Setting.Key, kind: n.Setting.Kind}
	if !n.Setting.Secret {
		if cur, ok := v.engine.Value(n.Setting.Key); ok && cur != nil {
			e.buffer = []rune(fmt.Sprint(cur))
		}
	}
	v.editing = e
}

func (v *View) commitEdit() {
	e := v.editing
	v.editing = nil

	raw := strings.TrimSpace(string(e.buffer))
	if e.kind != screen.KindNumeric {
		v.set(e.key, raw)
		return
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		v.status = fmt.Sprintf("%q is not a number", raw)
		return
	}
	v.set(e.key, f)
}

func (v *View) set(key string, value any) {
	if err := v.engine.Set(key, value); err != nil {
		v.log.Warn("updating preference", "key", key, "error", err)
		v.status = err.Error()
		return
	}
	v.status = ""
}
