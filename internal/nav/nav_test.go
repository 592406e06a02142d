package nav

import (
	"errors"
	"testing"

	"github.com/dshills/prefscreen/internal/screen"
)

type presentCall struct {
	from, to string
	fromNil  bool
	t        Transition
}

type recorder struct {
	calls []presentCall
}

func (r *recorder) Present(from, to *screen.Screen, t Transition) {
	c := presentCall{to: to.Key, t: t, fromNil: from == nil}
	if from != nil {
		c.from = from.Key
	}
	r.calls = append(r.calls, c)
}

func (r *recorder) last() presentCall {
	return r.calls[len(r.calls)-1]
}

func newTestController(t *testing.T) (*Controller, *recorder) {
	t.Helper()
	rec := &recorder{}
	c, err := New(screen.MustDefault(), rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, rec
}

func TestNewDisplaysRoot(t *testing.T) {
	c, rec := newTestController(t)

	if c.Depth() != 1 {
		t.Fatalf("Depth() = %d, want 1", c.Depth())
	}
	top := c.Top()
	if top.Key != screen.RootKey || top.Undoable {
		t.Errorf("Top() = %+v, want non-undoable root", top)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("Present called %d times, want 1", len(rec.calls))
	}
	call := rec.calls[0]
	if !call.fromNil || call.to != screen.RootKey {
		t.Errorf("initial present = %+v", call)
	}
	if call.t.Enter != EffectFade || call.t.Direction != DirectionInitial {
		t.Errorf("initial transition = %+v, want fade", call.t)
	}
}

func TestNewWithoutRoot(t *testing.T) {
	tree := resolverFunc(func(key string) (*screen.Screen, error) {
		return nil, &screen.NotFoundError{Key: key}
	})
	_, err := New(tree, nil)
	if !errors.Is(err, screen.ErrScreenNotFound) {
		t.Errorf("New() error = %v, want ErrScreenNotFound", err)
	}
}

func TestBackAtRoot(t *testing.T) {
	c, rec := newTestController(t)

	if c.Back() {
		t.Error("Back() at root = true, want false")
	}
	if c.Depth() != 1 || len(rec.calls) != 1 {
		t.Errorf("Back() at root changed state: depth %d, presents %d", c.Depth(), len(rec.calls))
	}
}

func TestEnterThenBackIsInverse(t *testing.T) {
	c, rec := newTestController(t)
	before := c.Frames()

	if err := c.EnterScreen("screen-maps-display"); err != nil {
		t.Fatalf("EnterScreen: %v", err)
	}
	if c.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", c.Depth())
	}
	if top := c.Top(); top.Key != "screen-maps-display" || !top.Undoable {
		t.Errorf("Top() = %+v", top)
	}
	forward := rec.last()

	if !c.Back() {
		t.Fatal("Back() = false, want true")
	}
	backward := rec.last()

	after := c.Frames()
	if len(after) != len(before) || after[0] != before[0] {
		t.Errorf("Frames() after round trip = %+v, want %+v", after, before)
	}
	if c.Displayed().Key != screen.RootKey {
		t.Errorf("Displayed() = %q, want root", c.Displayed().Key)
	}
	if forward.from != backward.to || forward.to != backward.from {
		t.Errorf("forward %+v and backward %+v are not mirrored", forward, backward)
	}
	if backward.t != forward.t.Reverse() {
		t.Errorf("backward transition = %+v, want %+v", backward.t, forward.t.Reverse())
	}
}

func TestNestedTransitionsReverse(t *testing.T) {
	c, rec := newTestController(t)

	if err := c.EnterScreen("screen-account"); err != nil {
		t.Fatal(err)
	}
	if err := c.EnterScreen("cyclestreets-account"); err != nil {
		t.Fatal(err)
	}
	forward := rec.last()
	if forward.t.Enter != EffectSlideInFromEnd || forward.t.Exit != EffectSlideOutToStart {
		t.Errorf("nested forward = %+v", forward.t)
	}

	c.Back()
	backward := rec.last()
	if backward.t != forward.t.Reverse() {
		t.Errorf("nested backward = %+v, want %+v", backward.t, forward.t.Reverse())
	}

	c.Back()
	toRoot := rec.last()
	if toRoot.t.Enter != EffectFade {
		t.Errorf("returning to root enter = %v, want fade", toRoot.t.Enter)
	}
	if c.Back() {
		t.Error("Back() after unwinding = true")
	}
}

func TestEnterUnknownScreen(t *testing.T) {
	c, rec := newTestController(t)

	err := c.EnterScreen("screen-nope")
	if !errors.Is(err, screen.ErrScreenNotFound) {
		t.Errorf("EnterScreen() error = %v, want ErrScreenNotFound", err)
	}
	if c.Depth() != 1 || len(rec.calls) != 1 {
		t.Errorf("failed enter changed state: depth %d, presents %d", c.Depth(), len(rec.calls))
	}
}

func TestEnterRootRejected(t *testing.T) {
	c, rec := newTestController(t)
	if err := c.EnterScreen("screen-account"); err != nil {
		t.Fatal(err)
	}
	before := c.Frames()
	presents := len(rec.calls)

	if err := c.EnterScreen(screen.RootKey); !errors.Is(err, ErrRootEntry) {
		t.Fatalf("EnterScreen(root) error = %v, want ErrRootEntry", err)
	}
	after := c.Frames()
	if len(after) != len(before) || after[len(after)-1] != before[len(before)-1] {
		t.Errorf("Frames() = %+v, want %+v", after, before)
	}
	if len(rec.calls) != presents {
		t.Error("rejected root entry presented a screen")
	}
	for i, f := range after {
		if (i == 0) == f.Undoable {
			t.Errorf("frame %d = %+v; only the bottom frame may be non-undoable", i, f)
		}
		if i > 0 && f.Key == screen.RootKey {
			t.Errorf("root key above the bottom frame at %d", i)
		}
	}
}

func TestExactlyOneDisplayed(t *testing.T) {
	var shown int
	p := PresenterFunc(func(from, to *screen.Screen, _ Transition) {
		if from != nil {
			shown--
		}
		shown++
		if shown != 1 {
			t.Errorf("%d screens displayed after switch to %q", shown, to.Key)
		}
	})

	c, err := New(screen.MustDefault(), p)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"screen-account", "cyclestreets-account"} {
		if err := c.EnterScreen(key); err != nil {
			t.Fatal(err)
		}
	}
	for c.Back() {
	}
	if c.Displayed() == nil || !c.Displayed().IsRoot() {
		t.Error("root not displayed after unwinding")
	}
}

func TestReset(t *testing.T) {
	c, rec := newTestController(t)

	if c.Reset() {
		t.Error("Reset() at root = true")
	}
	_ = c.EnterScreen("screen-account")
	_ = c.EnterScreen("cyclestreets-account")
	if !c.Reset() {
		t.Fatal("Reset() = false")
	}
	if c.Depth() != 1 || rec.last().to != screen.RootKey || rec.last().from != "cyclestreets-account" {
		t.Errorf("after Reset depth %d, last present %+v", c.Depth(), rec.last())
	}
}

func TestClose(t *testing.T) {
	c, _ := newTestController(t)
	c.Close()
	c.Close()

	if !c.Closed() || c.Displayed() != nil || c.Depth() != 0 {
		t.Error("Close did not tear down")
	}
	if err := c.EnterScreen("screen-account"); !errors.Is(err, ErrClosed) {
		t.Errorf("EnterScreen after Close = %v, want ErrClosed", err)
	}
	if c.Back() {
		t.Error("Back after Close = true")
	}
}

func TestEffectReverse(t *testing.T) {
	for _, e := range []Effect{EffectNone, EffectFade, EffectSlideInFromEnd, EffectSlideOutToEnd, EffectSlideInFromStart, EffectSlideOutToStart} {
		if got := e.Reverse().Reverse(); got != e {
			t.Errorf("%v reversed twice = %v", e, got)
		}
	}
}

type resolverFunc func(string) (*screen.Screen, error)

func (f resolverFunc) Resolve(key string) (*screen.Screen, error) { return f(key) }
