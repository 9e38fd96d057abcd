package session

import (
	"github.com/paulmach/orb"

	"github.com/banshee-data/raster.viewer/internal/geo"
	"github.com/banshee-data/raster.viewer/internal/style"
)

// Command is a side effect requested by Session.Handle. The Loop executes
// commands in order.
type Command interface {
	isCommand()
}

// DrawOutline shows the window outline. Preview is the cheap rectangle
// drawn before the ring is available.
type DrawOutline struct {
	Window  geo.SquareWindow
	Preview orb.Bound
}

// ClearOutline removes the window outline.
type ClearOutline struct{}

// FetchArea requests area statistics for one raster.
type FetchArea struct {
	Slot      Slot
	RequestID uint64
	RasterID  string
	Window    geo.SquareWindow
}

// FetchScatter requests pairwise statistics for two rasters.
type FetchScatter struct {
	RequestID uint64
	RasterX   string
	RasterY   string
	Window    geo.SquareWindow
	Bins      int
	MaxPoints int
}

// FetchMinMax requests the full value range of a raster.
type FetchMinMax struct {
	LayerID   string
	RequestID uint64
}

// RenderSlot redraws a slot from State.
type RenderSlot struct {
	State SlotState
}

// ApplyStyle pushes an encoded style to the tile renderer.
type ApplyStyle struct {
	LayerID   string
	StyleName string
	Env       string
	Opacity   float64
}

// SavePreset stores a user-edited style for a layer.
type SavePreset struct {
	LayerID string
	Params  style.Params
}

func (DrawOutline) isCommand()  {}
func (ClearOutline) isCommand() {}
func (FetchArea) isCommand()    {}
func (FetchScatter) isCommand() {}
func (FetchMinMax) isCommand()  {}
func (RenderSlot) isCommand()   {}
func (ApplyStyle) isCommand()   {}
func (SavePreset) isCommand()   {}
