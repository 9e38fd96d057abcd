// Package session is the overlay state machine behind the viewer. A click
// becomes a square sampling window, area and scatter statistics requests,
// rendered results and tile style updates.
//
// Session.Handle is a pure transition function: it takes one Event and
// returns the Commands to execute. Loop owns a Session, executes those
// commands and feeds asynchronous results back in as events.
package session

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/banshee-data/raster.viewer/internal/geo"
	"github.com/banshee-data/raster.viewer/internal/monitoring"
	"github.com/banshee-data/raster.viewer/internal/rstats"
	"github.com/banshee-data/raster.viewer/internal/style"
	"github.com/banshee-data/raster.viewer/internal/timeutil"
)

// DefaultEdgeKm is the initial window edge length.
const DefaultEdgeKm = 10

// Options configure a Session.
type Options struct {
	EdgeKm         float64
	StyleName      string
	DefaultOpacity float64
	ScatterBins    int
	MaxPoints      int
	Clock          timeutil.Clock
}

// LayerStyle is the style currently applied to a layer. Seeded is false
// until a preset, the raster's range or a first sample has provided one.
type LayerStyle struct {
	Params style.Params `json:"params"`
	Seeded bool         `json:"seeded"`
}

// Session holds all overlay state for one viewer. It is not safe for
// concurrent use; Loop serialises access.
type Session struct {
	ID string

	proj   geo.Projector
	opts   Options
	logf   func(format string, v ...interface{})
	lastID uint64

	edgeKm  float64
	center  *orb.Point
	window  *geo.SquareWindow
	compare bool

	slots  map[Slot]*SlotState
	styles map[string]*LayerStyle
	minmax map[string]uint64
}

// New creates an idle session.
func New(proj geo.Projector, opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	if opts.StyleName == "" {
		opts.StyleName = style.DefaultStyleName
	}
	if opts.ScatterBins <= 0 {
		opts.ScatterBins = rstats.DefaultBins
	}
	if opts.MaxPoints <= 0 {
		opts.MaxPoints = rstats.DefaultMaxPoints
	}
	if opts.EdgeKm <= 0 {
		opts.EdgeKm = DefaultEdgeKm
	}
	id := uuid.NewString()
	s := &Session{
		ID:     id,
		proj:   proj,
		opts:   opts,
		logf:   monitoring.Tagged("session " + id[:8]),
		edgeKm: opts.EdgeKm,
		slots:  make(map[Slot]*SlotState),
		styles: make(map[string]*LayerStyle),
		minmax: make(map[string]uint64),
	}
	for _, slot := range []Slot{SlotA, SlotB, SlotScatter} {
		s.slots[slot] = &SlotState{Slot: slot, Phase: Idle}
	}
	return s
}

// mint returns a fresh request id. Ids increase across every slot.
func (s *Session) mint() uint64 {
	s.lastID++
	return s.lastID
}

func (s *Session) now() time.Time {
	return s.opts.Clock.Now()
}

// Handle applies ev and returns the commands it produced.
func (s *Session) Handle(ev Event) []Command {
	switch ev := ev.(type) {
	case Click:
		return s.onClick(ev)
	case SetEdge:
		return s.onSetEdge(ev)
	case SelectLayer:
		return s.onSelectLayer(ev)
	case SetCompare:
		return s.onSetCompare(ev)
	case SetStyle:
		return s.onSetStyle(ev)
	case Dismiss:
		return s.onDismiss()
	case AreaResult:
		return s.onAreaResult(ev)
	case ScatterResult:
		return s.onScatterResult(ev)
	case MinMaxResult:
		return s.onMinMaxResult(ev)
	default:
		s.logf("ignoring unknown event %T", ev)
		return nil
	}
}

func (s *Session) onClick(ev Click) []Command {
	if len(s.activeSlots()) == 0 {
		s.logf("click at %.5f,%.5f ignored: no layer selected", ev.Center.Lon(), ev.Center.Lat())
		return nil
	}
	c := ev.Center
	w := geo.NewSquareWindow(s.proj, c, s.edgeKm)
	s.center = &c
	s.window = &w

	return append(s.outline(), s.dispatch(SlotA, SlotB, SlotScatter)...)
}

func (s *Session) onSetEdge(ev SetEdge) []Command {
	s.edgeKm = ev.EdgeKm
	if s.center == nil {
		return nil
	}
	w := geo.NewSquareWindow(s.proj, *s.center, s.edgeKm)
	s.window = &w
	return s.outline()
}

// outline draws the current window, or clears it when the window is
// degenerate.
func (s *Session) outline() []Command {
	w := *s.window
	if w.Degenerate() {
		return []Command{ClearOutline{}}
	}
	return []Command{DrawOutline{Window: w, Preview: geo.BoundsFor(s.proj, *s.center, s.edgeKm)}}
}

// dispatch issues the requests for the given slots against the current
// window. A given slot that is not sampled is returned to Idle so that late
// results for it are discarded. Other slots are left alone.
func (s *Session) dispatch(slots ...Slot) []Command {
	if s.window == nil {
		return nil
	}
	affected := map[Slot]bool{}
	for _, slot := range slots {
		affected[slot] = true
	}
	w := *s.window
	if w.Degenerate() {
		s.logf("window edge %.3f km is degenerate; not sampling", w.EdgeKm)
		var cmds []Command
		for _, slot := range []Slot{SlotA, SlotB, SlotScatter} {
			if affected[slot] {
				cmds = append(cmds, s.idle(slot)...)
			}
		}
		return cmds
	}

	var cmds []Command
	started := s.now()
	sampled := map[Slot]bool{}
	for _, slot := range s.activeSlots() {
		if !affected[slot] {
			continue
		}
		st := s.slots[slot]
		id := s.mint()
		*st = SlotState{Slot: slot, Phase: Loading, RequestID: id, LayerID: st.LayerID, StartedAt: started, UpdatedAt: started}
		sampled[slot] = true
		cmds = append(cmds,
			RenderSlot{State: *st},
			FetchArea{Slot: slot, RequestID: id, RasterID: st.LayerID, Window: w},
		)
	}

	if affected[SlotScatter] && s.comparing() {
		a, b := s.slots[SlotA].LayerID, s.slots[SlotB].LayerID
		sc := s.slots[SlotScatter]
		id := s.mint()
		*sc = SlotState{Slot: SlotScatter, Phase: Loading, RequestID: id, LayerID: a, LayerIDY: b, StartedAt: started, UpdatedAt: started}
		sampled[SlotScatter] = true
		cmds = append(cmds,
			RenderSlot{State: *sc},
			FetchScatter{RequestID: id, RasterX: a, RasterY: b, Window: w, Bins: s.opts.ScatterBins, MaxPoints: s.opts.MaxPoints},
		)
	}

	for _, slot := range []Slot{SlotA, SlotB, SlotScatter} {
		if affected[slot] && !sampled[slot] {
			cmds = append(cmds, s.idle(slot)...)
		}
	}
	return cmds
}

// activeSlots are the layer slots sampled by a click: A always, B only in
// comparison mode.
func (s *Session) activeSlots() []Slot {
	var out []Slot
	if s.slots[SlotA].LayerID != "" {
		out = append(out, SlotA)
	}
	if s.compare && s.slots[SlotB].LayerID != "" {
		out = append(out, SlotB)
	}
	return out
}

func (s *Session) comparing() bool {
	return s.compare && s.slots[SlotA].LayerID != "" && s.slots[SlotB].LayerID != ""
}

func (s *Session) idle(slot Slot) []Command {
	st := s.slots[slot]
	if st.Phase == Idle && st.RequestID == 0 {
		return nil
	}
	st.reset()
	st.Phase = Idle
	return []Command{RenderSlot{State: *st}}
}

func (s *Session) idleAll() []Command {
	var cmds []Command
	for _, slot := range []Slot{SlotA, SlotB, SlotScatter} {
		cmds = append(cmds, s.idle(slot)...)
	}
	return cmds
}

func (s *Session) onSelectLayer(ev SelectLayer) []Command {
	if ev.Slot != SlotA && ev.Slot != SlotB {
		s.logf("cannot select a layer into slot %q", ev.Slot)
		return nil
	}
	st := s.slots[ev.Slot]
	if st.LayerID == ev.LayerID {
		return nil
	}
	st.LayerID = ev.LayerID

	var cmds []Command
	if ev.LayerID != "" {
		cmds = append(cmds, s.seedStyle(ev.LayerID, ev.Preset)...)
	}
	if ev.Slot == SlotB && !s.compare {
		return cmds
	}
	if s.window != nil {
		return append(cmds, s.dispatch(ev.Slot, SlotScatter)...)
	}
	return append(cmds, s.idle(ev.Slot)...)
}

// seedStyle applies the known style for a newly selected layer, or asks for
// the raster's range when there is none yet.
func (s *Session) seedStyle(layerID string, preset *style.Params) []Command {
	if ls, ok := s.styles[layerID]; ok && ls.Seeded {
		return []Command{s.applyStyle(layerID)}
	}
	if preset != nil {
		s.styles[layerID] = &LayerStyle{Params: preset.Normalized(), Seeded: true}
		delete(s.minmax, layerID)
		return []Command{s.applyStyle(layerID)}
	}
	if _, pending := s.minmax[layerID]; pending {
		return nil
	}
	id := s.mint()
	s.minmax[layerID] = id
	return []Command{FetchMinMax{LayerID: layerID, RequestID: id}}
}

func (s *Session) applyStyle(layerID string) Command {
	ls := s.styles[layerID]
	return ApplyStyle{
		LayerID:   layerID,
		StyleName: s.opts.StyleName,
		Env:       ls.Params.EnvString(),
		Opacity:   ls.Params.Opacity,
	}
}

func (s *Session) onSetCompare(ev SetCompare) []Command {
	if s.compare == ev.Enabled {
		return nil
	}
	s.compare = ev.Enabled
	return s.dispatch(SlotB, SlotScatter)
}

func (s *Session) onSetStyle(ev SetStyle) []Command {
	st, ok := s.slots[ev.Slot]
	if !ok || st.LayerID == "" || ev.Slot == SlotScatter {
		s.logf("style edit for empty slot %q ignored", ev.Slot)
		return nil
	}
	if err := ev.Params.Validate(); err != nil {
		s.logf("style edit for %s rejected: %v", st.LayerID, err)
		return nil
	}
	p := ev.Params.Normalized()
	s.styles[st.LayerID] = &LayerStyle{Params: p, Seeded: true}
	// a late range must not overwrite the user's choice
	delete(s.minmax, st.LayerID)
	return []Command{s.applyStyle(st.LayerID), SavePreset{LayerID: st.LayerID, Params: p}}
}

func (s *Session) onDismiss() []Command {
	s.center = nil
	s.window = nil
	return append([]Command{ClearOutline{}}, s.idleAll()...)
}

// current reports whether id is the live request of slot. Anything else is
// a superseded or dismissed request.
func (s *Session) current(slot Slot, id uint64) (*SlotState, bool) {
	st := s.slots[slot]
	if id == 0 || st.RequestID != id || st.Phase != Loading {
		s.logf("discarding stale %s result for request %d (current %d)", slot, id, st.RequestID)
		return nil, false
	}
	return st, true
}

func (s *Session) onAreaResult(ev AreaResult) []Command {
	st, ok := s.current(ev.Slot, ev.RequestID)
	if !ok {
		return nil
	}
	st.UpdatedAt = s.now()
	if ev.Err != nil || ev.Stats == nil {
		st.Phase = Failed
		st.Message = failureMessage(ev.Err)
		s.logf("%s request %d for %s failed: %s", ev.Slot, ev.RequestID, st.LayerID, st.Message)
		return []Command{RenderSlot{State: *st}}
	}
	st.Phase = Success
	st.Area = ev.Stats
	cmds := []Command{RenderSlot{State: *st}}

	if ls, ok := s.styles[st.LayerID]; !ok || !ls.Seeded {
		r := style.DeriveDefaultRange(ev.Stats.Min, ev.Stats.Median, ev.Stats.Max)
		s.styles[st.LayerID] = &LayerStyle{Params: style.DefaultParams(r, s.opts.DefaultOpacity), Seeded: true}
		delete(s.minmax, st.LayerID)
	}
	return append(cmds, s.applyStyle(st.LayerID))
}

func (s *Session) onScatterResult(ev ScatterResult) []Command {
	st, ok := s.current(SlotScatter, ev.RequestID)
	if !ok {
		return nil
	}
	st.UpdatedAt = s.now()
	if ev.Err != nil || ev.Stats == nil {
		st.Phase = Failed
		st.Message = failureMessage(ev.Err)
		s.logf("scatter request %d failed: %s", ev.RequestID, st.Message)
		return []Command{RenderSlot{State: *st}}
	}
	st.Phase = Success
	st.Scatter = ev.Stats
	cmds := []Command{RenderSlot{State: *st}}

	if s.comparing() {
		for _, slot := range LayerSlots {
			id := s.slots[slot].LayerID
			if ls, ok := s.styles[id]; ok && ls.Seeded {
				cmds = append(cmds, s.applyStyle(id))
			}
		}
	}
	return cmds
}

func (s *Session) onMinMaxResult(ev MinMaxResult) []Command {
	if id, ok := s.minmax[ev.LayerID]; !ok || id != ev.RequestID {
		s.logf("discarding stale range for %s (request %d)", ev.LayerID, ev.RequestID)
		return nil
	}
	delete(s.minmax, ev.LayerID)
	if ev.Err != nil {
		s.logf("range for %s unavailable: %v", ev.LayerID, ev.Err)
		return nil
	}
	r := style.DeriveDefaultRange(ev.MinMax.Min, math.NaN(), ev.MinMax.Max)
	s.styles[ev.LayerID] = &LayerStyle{Params: style.DefaultParams(r, s.opts.DefaultOpacity), Seeded: true}
	return []Command{s.applyStyle(ev.LayerID)}
}

// failureMessage is shown to the user verbatim.
func failureMessage(err error) string {
	if err == nil {
		return "no statistics returned"
	}
	var reqErr *rstats.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Error()
	}
	return err.Error()
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	SessionID     string                `json:"session_id"`
	EdgeKm        float64               `json:"edge_km"`
	Compare       bool                  `json:"compare"`
	Center        *orb.Point            `json:"center,omitempty"`
	Window        *geo.SquareWindow     `json:"window,omitempty"`
	Preview       *orb.Bound            `json:"preview,omitempty"`
	Slots         []SlotState           `json:"slots"`
	Styles        map[string]LayerStyle `json:"styles"`
	LastRequestID uint64                `json:"last_request_id"`
}

// Slot returns the state of slot from the snapshot.
func (sn Snapshot) Slot(slot Slot) SlotState {
	for _, st := range sn.Slots {
		if st.Slot == slot {
			return st
		}
	}
	return SlotState{Slot: slot, Phase: Idle}
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	sn := Snapshot{
		SessionID:     s.ID,
		EdgeKm:        s.edgeKm,
		Compare:       s.compare,
		Styles:        make(map[string]LayerStyle, len(s.styles)),
		LastRequestID: s.lastID,
	}
	if s.center != nil {
		c := *s.center
		b := geo.BoundsFor(s.proj, c, s.edgeKm)
		sn.Center = &c
		sn.Preview = &b
	}
	if s.window != nil {
		w := *s.window
		sn.Window = &w
	}
	for _, slot := range []Slot{SlotA, SlotB, SlotScatter} {
		sn.Slots = append(sn.Slots, *s.slots[slot])
	}
	for id, ls := range s.styles {
		sn.Styles[id] = *ls
	}
	return sn
}
