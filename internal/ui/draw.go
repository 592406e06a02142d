package ui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/prefscreen/internal/reconcile"
	"github.com/dshills/prefscreen/internal/screen"
	"github.com/dshills/prefscreen/internal/text"
)

const (
	listTop     = 2
	titleColumn = 4
	titleWidth  = 30
	maskRune    = '•'
)

var (
	styleNormal   = tcell.StyleDefault
	styleHeader   = tcell.StyleDefault.Bold(true)
	styleDisabled = tcell.StyleDefault.Dim(true)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleModal    = tcell.StyleDefault.Reverse(true)
)

// Draw renders the active screen, any pending prompt and the status line.
func (v *View) Draw() {
	v.dirty = false
	v.scr.Clear()
	v.scr.HideCursor()

	width, height := v.scr.Size()

	if s := v.engine.Screen(); s != nil {
		title := s.Title
		if title == "" {
			title = "Settings"
		}
		drawText(v.scr, 0, 0, width, styleHeader, title)
	}

	for i, n := range v.engine.Nodes() {
		y := listTop + i
		if y >= height-1 {
			break
		}
		v.drawNode(y, width, n, i == v.cursor)
	}

	if v.editing != nil {
		v.drawEdit(width, height)
	} else if v.status != "" {
		drawText(v.scr, 0, height-1, width, styleStatus, v.status)
	}

	if len(v.prompts) > 0 {
		v.drawPrompt(width, height, v.prompts[0])
	}

	v.scr.Show()
}

func (v *View) drawNode(y, width int, n reconcile.Node, selected bool) {
	style := styleNormal
	if !n.Enabled {
		style = styleDisabled
	}
	if selected {
		style = style.Reverse(true)
		for x := 0; x < width; x++ {
			v.scr.SetContent(x, y, ' ', nil, style)
		}
	}

	if n.Icon != nil {
		v.scr.SetContent(1, y, n.Icon.Glyph, nil, style)
	}
	drawText(v.scr, titleColumn, y, titleColumn+titleWidth, style, n.Setting.Title)

	right := titleColumn + titleWidth + 1
	drawText(v.scr, right, y, width, style, v.describe(n))
}

// describe is the text shown next to a setting's title.
func (v *View) describe(n reconcile.Node) string {
	st := n.Setting
	switch st.Kind {
	case screen.KindBoolean:
		cur, _ := v.engine.Value(st.Key)
		if b, _ := cur.(bool); b {
			return "[x]"
		}
		return "[ ]"
	case screen.KindText:
		if st.Secret {
			return strings.Repeat(string(maskRune), uniseg.GraphemeClusterCount(n.Summary))
		}
		return n.Summary
	case screen.KindLink:
		if n.Summary != "" {
			return n.Summary + " ›"
		}
		return "›"
	default:
		return n.Summary
	}
}

func (v *View) drawEdit(width, height int) {
	e := v.editing
	value := string(e.buffer)
	if st := v.engine.Screen().Setting(e.key); st != nil && st.Secret {
		value = strings.Repeat(string(maskRune), len(e.buffer))
	}
	x := drawText(v.scr, 0, height-1, width, styleHeader, e.key+": ")
	x = drawText(v.scr, x, height-1, width, styleNormal, value)
	v.scr.ShowCursor(x, height-1)
}

func (v *View) drawPrompt(width, height int, p prompt) {
	buttons := "[" + v.text.String(text.Yes) + "]  [" + v.text.String(text.No) + "]"

	boxWidth := max(uniseg.StringWidth(p.message), uniseg.StringWidth(buttons)) + 4
	if boxWidth > width {
		boxWidth = width
	}
	left := (width - boxWidth) / 2
	top := height/2 - 2

	for y := top; y < top+4; y++ {
		for x := left; x < left+boxWidth; x++ {
			v.scr.SetContent(x, y, ' ', nil, styleModal)
		}
	}
	drawText(v.scr, left+2, top+1, left+boxWidth, styleModal, p.message)
	drawText(v.scr, left+2, top+2, left+boxWidth, styleModal, buttons)
}

// drawText writes s from column x, clipped at limit, and returns the column
// after the last cell written. Each grapheme cluster occupies its display
// width.
func drawText(scr tcell.Screen, x, y, limit int, style tcell.Style, s string) int {
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		runes := g.Runes()
		w := g.Width()
		if w == 0 {
			continue
		}
		if x+w > limit {
			break
		}
		scr.SetContent(x, y, runes[0], runes[1:], style)
		x += w
	}
	return x
}
