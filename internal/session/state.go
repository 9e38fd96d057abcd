package session

import (
	"time"

	"github.com/banshee-data/raster.viewer/internal/rstats"
)

// Slot names one logical result area. At most one request is current per
// slot; results for any other request id are discarded.
type Slot string

const (
	SlotA       Slot = "A"
	SlotB       Slot = "B"
	SlotScatter Slot = "scatter"
)

// LayerSlots are the slots a raster layer can be selected into.
var LayerSlots = []Slot{SlotA, SlotB}

// ParseSlot accepts "A", "B" (any case) and "scatter".
func ParseSlot(s string) (Slot, bool) {
	switch s {
	case "A", "a":
		return SlotA, true
	case "B", "b":
		return SlotB, true
	case "scatter":
		return SlotScatter, true
	}
	return "", false
}

// Phase is the lifecycle position of a slot.
type Phase string

const (
	Idle    Phase = "idle"
	Loading Phase = "loading"
	Success Phase = "success"
	Failed  Phase = "failed"
)

// SlotState is what a slot currently shows. RequestID 0 means no request is
// current, so every in-flight result for the slot will be discarded.
type SlotState struct {
	Slot      Slot                 `json:"slot"`
	Phase     Phase                `json:"phase"`
	RequestID uint64               `json:"request_id"`
	LayerID   string               `json:"layer_id,omitempty"`
	LayerIDY  string               `json:"layer_id_y,omitempty"`
	Area      *rstats.AreaStats    `json:"area,omitempty"`
	Scatter   *rstats.ScatterStats `json:"scatter,omitempty"`
	Message   string               `json:"message,omitempty"`
	StartedAt time.Time            `json:"started_at,omitempty"`
	UpdatedAt time.Time            `json:"updated_at,omitempty"`
}

func (st *SlotState) reset() {
	*st = SlotState{Slot: st.Slot, LayerID: st.LayerID}
}
