// Package rotator hands out local network interfaces in round-robin order.
//
// The pool is split into an active and a blocked sequence. Interfaces only
// move between the two, so their union always equals the configured list.
package rotator

import (
	"slices"
	"sync"

	"github.com/elsbrock/smartproxy/internal/log"
)

// Rotator is safe for concurrent use.
type Rotator struct {
	mu      sync.Mutex
	active  []string
	blocked []string
	cursor  int
}

// New creates a Rotator over a copy of interfaces, all of them active.
func New(interfaces []string) *Rotator {
	return &Rotator{
		active:  slices.Clone(interfaces),
		blocked: []string{},
	}
}

// Next returns the next active interface, or false when none is active.
func (r *Rotator) Next() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.active) == 0 {
		return "", false
	}
	iface := r.active[r.cursor]
	r.cursor = (r.cursor + 1) % len(r.active)
	return iface, true
}

// Block removes iface from the rotation. Blocking an interface that is not
// active is a no-op.
func (r *Rotator) Block(iface string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slices.Index(r.active, iface)
	if idx < 0 {
		return
	}
	r.active = slices.Delete(r.active, idx, idx+1)
	r.blocked = append(r.blocked, iface)

	// Entries after idx shifted left by one; keep pointing at the same neighbour.
	if idx < r.cursor {
		r.cursor--
	}
	r.normalize()

	log.Debug("rotator").
		Str("interface", iface).
		Int("active", len(r.active)).
		Msg("Interface blocked")
}

// Unblock returns iface to the tail of the active sequence. Unblocking an
// interface that is not blocked is a no-op.
func (r *Rotator) Unblock(iface string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slices.Index(r.blocked, iface)
	if idx < 0 {
		return
	}
	r.blocked = slices.Delete(r.blocked, idx, idx+1)
	r.active = append(r.active, iface)
	r.normalize()

	log.Debug("rotator").
		Str("interface", iface).
		Int("active", len(r.active)).
		Msg("Interface unblocked")
}

// Active returns a copy of the active sequence in rotation order.
func (r *Rotator) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.active)
}

// Blocked returns a copy of the blocked sequence.
func (r *Rotator) Blocked() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.blocked)
}

// Len returns the total number of interfaces, active and blocked.
func (r *Rotator) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active) + len(r.blocked)
}

// normalize keeps the cursor a valid index into active. Callers hold mu.
func (r *Rotator) normalize() {
	if len(r.active) == 0 {
		r.cursor = 0
		return
	}
	r.cursor %= len(r.active)
}
