package api

import (
	"sync"

	"github.com/paulmach/orb"

	"github.com/banshee-data/raster.viewer/internal/geo"
	"github.com/banshee-data/raster.viewer/internal/session"
)

// View is the session.Surface behind the HTTP API. The session loop writes
// to it; handlers read it.
type View struct {
	mu       sync.RWMutex
	outline  *geo.SquareWindow
	preview  *orb.Bound
	slots    map[session.Slot]session.SlotState
	snapshot session.Snapshot
	revision uint64
}

// NewView returns an empty view with every slot idle.
func NewView() *View {
	v := &View{slots: make(map[session.Slot]session.SlotState)}
	for _, slot := range []session.Slot{session.SlotA, session.SlotB, session.SlotScatter} {
		v.slots[slot] = session.SlotState{Slot: slot, Phase: session.Idle}
	}
	return v
}

// DrawOutline implements session.Surface.
func (v *View) DrawOutline(w geo.SquareWindow, preview orb.Bound) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.outline = &w
	v.preview = &preview
	v.revision++
}

// ClearOutline implements session.Surface.
func (v *View) ClearOutline() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.outline = nil
	v.preview = nil
	v.revision++
}

// RenderSlot implements session.Surface.
func (v *View) RenderSlot(st session.SlotState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.slots[st.Slot] = st
	v.revision++
}

// Publish implements session.Surface.
func (v *View) Publish(sn session.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.snapshot = sn
}

// Slot returns what slot currently shows.
func (v *View) Slot(slot session.Slot) session.SlotState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.slots[slot]
}

// Outline returns the drawn window and its preview bounds, or nils when no
// outline is shown.
func (v *View) Outline() (*geo.SquareWindow, *orb.Bound) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.outline, v.preview
}

// Snapshot returns the most recently published session state.
func (v *View) Snapshot() session.Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snapshot
}

// Revision increases on every visible change.
func (v *View) Revision() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.revision
}
