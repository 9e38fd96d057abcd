package session

import (
	"github.com/paulmach/orb"

	"github.com/banshee-data/raster.viewer/internal/rstats"
	"github.com/banshee-data/raster.viewer/internal/style"
)

// Event is an input to Session.Handle.
type Event interface {
	isEvent()
}

// Click samples a window centred on the clicked point.
type Click struct {
	Center orb.Point
}

// SetEdge changes the window edge length. The outline is redrawn; samples
// are refreshed on the next click.
type SetEdge struct {
	EdgeKm float64
}

// SelectLayer puts a raster into slot A or B. An empty LayerID clears the
// slot. Preset is the saved style for the layer, if any.
type SelectLayer struct {
	Slot    Slot
	LayerID string
	Preset  *style.Params
}

// SetCompare toggles the two-raster comparison.
type SetCompare struct {
	Enabled bool
}

// SetStyle is a user edit of the style of the layer in Slot.
type SetStyle struct {
	Slot   Slot
	Params style.Params
}

// Dismiss closes the sample and clears the outline. In-flight requests are
// left to complete and are then discarded.
type Dismiss struct{}

// AreaResult is the outcome of a FetchArea command.
type AreaResult struct {
	Slot      Slot
	RequestID uint64
	Stats     *rstats.AreaStats
	Err       error
}

// ScatterResult is the outcome of a FetchScatter command.
type ScatterResult struct {
	RequestID uint64
	Stats     *rstats.ScatterStats
	Err       error
}

// MinMaxResult is the outcome of a FetchMinMax command.
type MinMaxResult struct {
	LayerID   string
	RequestID uint64
	MinMax    rstats.MinMax
	Err       error
}

func (Click) isEvent()         {}
func (SetEdge) isEvent()       {}
func (SelectLayer) isEvent()   {}
func (SetCompare) isEvent()    {}
func (SetStyle) isEvent()      {}
func (Dismiss) isEvent()       {}
func (AreaResult) isEvent()    {}
func (ScatterResult) isEvent() {}
func (MinMaxResult) isEvent()  {}
