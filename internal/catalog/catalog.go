// Package catalog discovers installed offline map packs.
//
// A Catalog answers "which packs are available right now" as an ordered
// list of (label, identifier) pairs and can ask the surrounding
// environment to obtain more. The settings core treats the order returned
// by Available as authoritative.
package catalog

// Resource is one discoverable option pack.
type Resource struct {
	// Label is the display name.
	Label string

	// Identifier is the value persisted when the pack is selected.
	Identifier string
}

// Catalog is the resource discovery contract.
type Catalog interface {
	// Available returns the currently installed packs.
	Available() []Resource

	// RequestAcquisition asks the environment to obtain more packs.
	// It does not wait for the outcome.
	RequestAcquisition()
}

// Static is a fixed Catalog.
type Static struct {
	Resources []Resource

	// OnAcquire is called by RequestAcquisition when set.
	OnAcquire func()

	// Requests counts RequestAcquisition calls.
	Requests int
}

// Available returns a copy of the fixed resources.
func (s *Static) Available() []Resource {
	out := make([]Resource, len(s.Resources))
	copy(out, s.Resources)
	return out
}

// RequestAcquisition records the request.
func (s *Static) RequestAcquisition() {
	s.Requests++
	if s.OnAcquire != nil {
		s.OnAcquire()
	}
}

var _ Catalog = (*Static)(nil)
