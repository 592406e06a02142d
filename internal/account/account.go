// Package account reports the sign-in status shown on the account setting.
package account

import (
	"github.com/dshills/prefscreen/internal/prefs"
)

// Preference keys read by StoreOracle.
const (
	KeyUsername = "username"
	KeyPassword = "password"
	KeyPending  = "account-pending"
)

// Affects reports whether a change to key can change the account status
// derived by StoreOracle.
func Affects(key string) bool {
	return key == KeyUsername || key == KeyPassword || key == KeyPending
}

// Oracle answers account status questions.
type Oracle interface {
	// AccountOK reports a signed-in, verified account.
	AccountOK() bool

	// AccountPending reports an account awaiting verification.
	AccountPending() bool
}

// Status is the three-way account state.
type Status uint8

const (
	// StatusSignedOut covers signed-out and unknown.
	StatusSignedOut Status = iota
	// StatusSignedIn is a verified account.
	StatusSignedIn
	// StatusPending is awaiting verification.
	StatusPending
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSignedIn:
		return "signed_in"
	case StatusPending:
		return "pending"
	default:
		return "signed_out"
	}
}

// StatusOf collapses an oracle into exactly one Status. A verified
// account wins over a pending flag.
func StatusOf(o Oracle) Status {
	switch {
	case o == nil:
		return StatusSignedOut
	case o.AccountOK():
		return StatusSignedIn
	case o.AccountPending():
		return StatusPending
	default:
		return StatusSignedOut
	}
}

// StoreOracle derives status from stored credentials.
type StoreOracle struct {
	Store prefs.Store
}

// AccountOK reports stored credentials with no pending verification.
func (o StoreOracle) AccountOK() bool {
	user, _ := prefs.GetString(o.Store, KeyUsername)
	pass, _ := prefs.GetString(o.Store, KeyPassword)
	return user != "" && pass != "" && !o.AccountPending()
}

// AccountPending reports a registration awaiting verification.
func (o StoreOracle) AccountPending() bool {
	return prefs.GetBool(o.Store, KeyPending)
}

// Fixed is an Oracle with fixed answers.
type Fixed struct {
	OK      bool
	Pending bool
}

// AccountOK returns f.OK.
func (f Fixed) AccountOK() bool { return f.OK }

// AccountPending returns f.Pending.
func (f Fixed) AccountPending() bool { return f.Pending }
