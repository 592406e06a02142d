package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/text/language"

	"github.com/dshills/prefscreen/internal/catalog"
	"github.com/dshills/prefscreen/internal/nav"
	"github.com/dshills/prefscreen/internal/prefs"
	"github.com/dshills/prefscreen/internal/reconcile"
	"github.com/dshills/prefscreen/internal/screen"
	"github.com/dshills/prefscreen/internal/text"
)

type harness struct {
	scr     tcell.SimulationScreen
	store   *prefs.MemoryStore
	catalog *catalog.Static
	engine  *reconcile.Engine
	view    *View
	nav     *nav.Controller
}

func newHarness(t *testing.T, values map[string]any, resources []catalog.Resource, opts ...Option) *harness {
	t.Helper()

	scr := tcell.NewSimulationScreen("UTF-8")
	if err := scr.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(scr.Fini)
	scr.SetSize(80, 24)

	en := text.New(language.English)
	h := &harness{
		scr:     scr,
		store:   prefs.NewMemoryStore(values),
		catalog: &catalog.Static{Resources: resources},
	}
	h.engine = reconcile.New(h.store, h.catalog,
		reconcile.WithLocalizer(en),
		reconcile.WithPrompter(reconcile.PrompterFunc(func(msg string, onYes func()) {
			h.view.Confirm(msg, onYes)
		})),
		reconcile.WithRedraw(func(key string) { h.view.Invalidate(key) }),
	)
	h.view = New(scr, h.engine, append([]Option{WithLocalizer(en)}, opts...)...)

	c, err := nav.New(screen.MustDefault(), h.view)
	if err != nil {
		t.Fatalf("nav.New: %v", err)
	}
	h.nav = c
	h.view.Attach(c)
	return h
}

func (h *harness) press(keys ...tcell.Key) {
	for _, k := range keys {
		h.view.HandleKey(tcell.NewEventKey(k, 0, tcell.ModNone))
	}
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.view.HandleKey(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
}

func (h *harness) row(y int) string {
	h.view.Draw()
	cells, w, _ := h.scr.GetContents()
	var b strings.Builder
	for x := 0; x < w; x++ {
		c := cells[y*w+x]
		if len(c.Runes) == 0 {
			b.WriteByte(' ')
			continue
		}
		b.WriteString(string(c.Runes))
	}
	return strings.TrimRight(b.String(), " ")
}

func (h *harness) screenText() string {
	_, _, height := h.scr.GetContents()
	rows := make([]string, height)
	for y := range rows {
		rows[y] = h.row(y)
	}
	return strings.Join(rows, "\n")
}

func (h *harness) enter(t *testing.T, cursor int, want string) {
	t.Helper()
	h.view.cursor = cursor
	h.press(tcell.KeyEnter)
	if got := h.engine.Screen().Key; got != want {
		t.Fatalf("active screen = %q, want %q", got, want)
	}
}

func TestRootDrawn(t *testing.T) {
	h := newHarness(t, nil, nil)

	if got := h.row(0); got != "Settings" {
		t.Errorf("header = %q, want Settings", got)
	}
	if got := h.row(listTop); !strings.Contains(got, "Maps display") {
		t.Errorf("first row = %q, want Maps display", got)
	}
	if got := h.row(listTop + 5); !strings.Contains(got, "About") {
		t.Errorf("last row = %q, want About", got)
	}
}

func TestEnterAndBackRestoresCursor(t *testing.T) {
	h := newHarness(t, nil, nil)

	h.press(tcell.KeyDown, tcell.KeyDown)
	h.press(tcell.KeyEnter)
	if got := h.engine.Screen().Key; got != "screen-liveride" {
		t.Fatalf("active screen = %q, want screen-liveride", got)
	}
	if h.view.Transition().Direction != nav.DirectionForward {
		t.Errorf("transition = %v, want forward", h.view.Transition().Direction)
	}
	if h.view.Cursor() != 0 {
		t.Errorf("cursor on new screen = %d, want 0", h.view.Cursor())
	}

	h.press(tcell.KeyEscape)
	if !h.engine.Screen().IsRoot() {
		t.Fatal("Escape did not return to root")
	}
	if h.view.Cursor() != 2 {
		t.Errorf("cursor after back = %d, want 2", h.view.Cursor())
	}
	if h.view.quit {
		t.Error("back from sub-screen quit the view")
	}
}

func TestBackAtRootQuits(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.press(tcell.KeyEscape)
	if !h.view.quit {
		t.Error("Escape at root did not quit")
	}
}

func TestCycleChoice(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.enter(t, 0, "screen-maps-display")

	h.press(tcell.KeyEnter)
	if v, _ := h.store.Get("mapstyle"); v != "osm" {
		t.Errorf("mapstyle = %v, want osm", v)
	}
	if got := h.row(listTop); !strings.Contains(got, "OpenStreetMap") {
		t.Errorf("map style row = %q", got)
	}
}

func TestOfflineStyleWithoutPacksPrompts(t *testing.T) {
	h := newHarness(t, map[string]any{"mapstyle": "osm"}, nil)
	h.enter(t, 0, "screen-maps-display")

	h.press(tcell.KeyEnter)
	if !h.view.Prompting() {
		t.Fatal("selecting offline maps without packs did not prompt")
	}
	if !strings.Contains(h.screenText(), "[Yes]  [No]") {
		t.Error("prompt buttons not drawn")
	}

	h.typeText("y")
	if h.view.Prompting() {
		t.Error("prompt still pending after answer")
	}
	if h.catalog.Requests != 1 {
		t.Errorf("acquisition requests = %d, want 1", h.catalog.Requests)
	}
}

func TestDeclinedPromptDoesNotAcquire(t *testing.T) {
	h := newHarness(t, map[string]any{"mapstyle": "osm"}, nil)
	h.enter(t, 0, "screen-maps-display")

	h.press(tcell.KeyEnter)
	h.press(tcell.KeyDown) // ignored while prompting
	h.typeText("n")

	if h.catalog.Requests != 0 {
		t.Errorf("acquisition requests = %d, want 0", h.catalog.Requests)
	}
	if h.view.Cursor() != 0 {
		t.Errorf("cursor moved during prompt: %d", h.view.Cursor())
	}
}

func TestDisabledSettingIsNotEditable(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.enter(t, 0, "screen-maps-display")

	h.press(tcell.KeyDown, tcell.KeyEnter)
	if got := h.view.Status(); got != "Offline map is unavailable" {
		t.Errorf("status = %q", got)
	}
	if _, ok := h.store.Get("mapfile"); ok {
		t.Error("disabled map file was written")
	}
}

func TestToggleBoolean(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.enter(t, 0, "screen-maps-display")

	h.press(tcell.KeyDown, tcell.KeyDown)
	h.typeText(" ")
	if v, _ := h.store.Get("confirm-new-route"); v != false {
		t.Errorf("confirm-new-route = %v, want false", v)
	}
	if got := h.row(listTop + 2); !strings.Contains(got, "[ ]") {
		t.Errorf("boolean row = %q", got)
	}
}

func TestSecretMasked(t *testing.T) {
	h := newHarness(t, map[string]any{"username": "alice", "password": "hunter2"}, nil)
	h.enter(t, 4, "screen-account")
	if got := h.row(listTop); !strings.Contains(got, "Signed in") {
		t.Errorf("account row = %q, want Signed in", got)
	}
	h.enter(t, 0, "cyclestreets-account")

	if got := h.row(listTop); !strings.Contains(got, "alice") {
		t.Errorf("username row = %q", got)
	}
	got := h.row(listTop + 1)
	if strings.Contains(got, "hunter2") || !strings.Contains(got, "•••••••") {
		t.Errorf("password row = %q, want masked", got)
	}
}

func TestEditText(t *testing.T) {
	h := newHarness(t, map[string]any{"username": "alice"}, nil)
	h.enter(t, 4, "screen-account")
	h.enter(t, 0, "cyclestreets-account")

	h.press(tcell.KeyEnter)
	if h.view.editing == nil || string(h.view.editing.buffer) != "alice" {
		t.Fatalf("edit buffer = %+v", h.view.editing)
	}
	h.press(tcell.KeyBackspace2, tcell.KeyBackspace2, tcell.KeyBackspace2)
	h.typeText("ex")
	h.press(tcell.KeyEnter)

	if v, _ := h.store.Get("username"); v != "alex" {
		t.Errorf("username = %v, want alex", v)
	}
	if got := h.row(listTop); !strings.Contains(got, "alex") {
		t.Errorf("username row = %q", got)
	}
}

func TestEditCancelled(t *testing.T) {
	h := newHarness(t, map[string]any{"username": "alice"}, nil)
	h.enter(t, 4, "screen-account")
	h.enter(t, 0, "cyclestreets-account")

	h.press(tcell.KeyEnter)
	h.typeText("zzz")
	h.press(tcell.KeyEscape)

	if v, _ := h.store.Get("username"); v != "alice" {
		t.Errorf("username = %v, want alice", v)
	}
	if h.engine.Screen().Key != "cyclestreets-account" {
		t.Error("Escape during edit navigated back")
	}
}

func TestActionHandler(t *testing.T) {
	var ran int
	h := newHarness(t, nil, nil, WithAction("edit-locations", func() { ran++ }))
	h.enter(t, 3, "screen-locations")

	h.press(tcell.KeyEnter)
	if ran != 1 {
		t.Errorf("action ran %d times, want 1", ran)
	}
}

func TestRunQuit(t *testing.T) {
	h := newHarness(t, nil, nil)

	errc := make(chan error, 1)
	go func() { errc <- h.view.Run(context.Background()) }()

	if err := h.scr.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)); err != nil {
		t.Fatalf("PostEvent: %v", err)
	}

	select {
	case err := <-errc:
		if !errors.Is(err, ErrQuit) {
			t.Errorf("Run() = %v, want ErrQuit", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestRunCancelled(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- h.view.Run(ctx) }()
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}
