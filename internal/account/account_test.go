package account

import (
	"testing"

	"github.com/dshills/prefscreen/internal/prefs"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name   string
		oracle Oracle
		want   Status
	}{
		{"nil", nil, StatusSignedOut},
		{"signed out", Fixed{}, StatusSignedOut},
		{"signed in", Fixed{OK: true}, StatusSignedIn},
		{"pending", Fixed{Pending: true}, StatusPending},
		{"ok wins", Fixed{OK: true, Pending: true}, StatusSignedIn},
	}

	for _, tt := range tests {
		if got := StatusOf(tt.oracle); got != tt.want {
			t.Errorf("%s: StatusOf = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestStoreOracle(t *testing.T) {
	store := prefs.NewMemoryStore(nil)
	o := StoreOracle{Store: store}

	if o.AccountOK() || o.AccountPending() {
		t.Fatal("empty store reported an account")
	}

	_ = store.Set(KeyUsername, "rider")
	if o.AccountOK() {
		t.Error("username alone reported OK")
	}

	_ = store.Set(KeyPassword, "secret")
	if !o.AccountOK() {
		t.Error("credentials did not report OK")
	}

	_ = store.Set(KeyPending, true)
	if o.AccountOK() || !o.AccountPending() {
		t.Error("pending flag not honoured")
	}
	if StatusOf(o) != StatusPending {
		t.Errorf("StatusOf = %v, want pending", StatusOf(o))
	}
}

func TestAffects(t *testing.T) {
	for _, k := range []string{KeyUsername, KeyPassword, KeyPending} {
		if !Affects(k) {
			t.Errorf("Affects(%q) = false", k)
		}
	}
	if Affects("units") {
		t.Error("Affects(units) = true")
	}
}
