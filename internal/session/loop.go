package session

import (
	"context"
	"errors"
	"sync"

	"github.com/paulmach/orb"

	"github.com/banshee-data/raster.viewer/internal/geo"
	"github.com/banshee-data/raster.viewer/internal/rstats"
	"github.com/banshee-data/raster.viewer/internal/style"
	"github.com/banshee-data/raster.viewer/internal/tiles"
	"github.com/banshee-data/raster.viewer/internal/timeutil"
)

// ErrStopped is returned by Post once the loop has exited.
var ErrStopped = errors.New("session loop stopped")

// Fetcher is the stats service. *rstats.Client implements it.
type Fetcher interface {
	FetchAreaStats(ctx context.Context, rasterID string, w geo.SquareWindow) (*rstats.AreaStats, error)
	FetchScatterStats(ctx context.Context, rasterX, rasterY string, w geo.SquareWindow, bins, maxPoints int) (*rstats.ScatterStats, error)
	FetchMinMax(ctx context.Context, rasterID string) (rstats.MinMax, error)
}

// PresetStore persists user-edited styles. *db.DB implements it.
type PresetStore interface {
	SaveStylePreset(layerID string, p style.Params) error
}

// Surface displays session output.
type Surface interface {
	DrawOutline(w geo.SquareWindow, preview orb.Bound)
	ClearOutline()
	RenderSlot(st SlotState)
	Publish(sn Snapshot)
}

// Deps are the collaborators a Loop drives.
type Deps struct {
	Fetcher Fetcher
	Tiles   tiles.Renderer
	Presets PresetStore // optional
	Surface Surface
	Clock   timeutil.Clock
}

// Loop serialises events into a Session. Fetches run on their own
// goroutines and post their results back as events, so Handle is only ever
// called from Run.
type Loop struct {
	session *Session
	deps    Deps
	events  chan Event
	done    chan struct{}
	once    sync.Once
	fetches sync.WaitGroup
}

// NewLoop creates a loop for s. Call Run to start it.
func NewLoop(s *Session, deps Deps) *Loop {
	if deps.Clock == nil {
		deps.Clock = timeutil.RealClock{}
	}
	return &Loop{
		session: s,
		deps:    deps,
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
	}
}

// Session returns the session driven by the loop. Only read it from Run.
func (l *Loop) Session() *Session { return l.session }

// Post queues ev. It blocks while the queue is full and fails once the
// loop has stopped.
func (l *Loop) Post(ev Event) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.events <- ev:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// Run handles events until ctx is cancelled. In-flight fetches are
// cancelled and waited for before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer func() {
		l.once.Do(func() { close(l.done) })
		cancel()
		l.fetches.Wait()
	}()

	l.deps.Surface.Publish(l.session.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-l.events:
			for _, cmd := range l.session.Handle(ev) {
				l.execute(fetchCtx, cmd)
			}
			l.deps.Surface.Publish(l.session.Snapshot())
		}
	}
}

func (l *Loop) execute(ctx context.Context, cmd Command) {
	logf := l.session.logf
	switch c := cmd.(type) {
	case DrawOutline:
		l.deps.Surface.DrawOutline(c.Window, c.Preview)
	case ClearOutline:
		l.deps.Surface.ClearOutline()
	case RenderSlot:
		l.deps.Surface.RenderSlot(c.State)
	case FetchArea:
		l.spawn(func() {
			start := l.deps.Clock.Now()
			stats, err := l.deps.Fetcher.FetchAreaStats(ctx, c.RasterID, c.Window)
			logf("area %s request %d for %s took %v", c.Slot, c.RequestID, c.RasterID, l.deps.Clock.Since(start))
			l.deliver(AreaResult{Slot: c.Slot, RequestID: c.RequestID, Stats: stats, Err: err})
		})
	case FetchScatter:
		l.spawn(func() {
			start := l.deps.Clock.Now()
			stats, err := l.deps.Fetcher.FetchScatterStats(ctx, c.RasterX, c.RasterY, c.Window, c.Bins, c.MaxPoints)
			logf("scatter request %d for %s/%s took %v", c.RequestID, c.RasterX, c.RasterY, l.deps.Clock.Since(start))
			l.deliver(ScatterResult{RequestID: c.RequestID, Stats: stats, Err: err})
		})
	case FetchMinMax:
		l.spawn(func() {
			mm, err := l.deps.Fetcher.FetchMinMax(ctx, c.LayerID)
			l.deliver(MinMaxResult{LayerID: c.LayerID, RequestID: c.RequestID, MinMax: mm, Err: err})
		})
	case ApplyStyle:
		if err := l.deps.Tiles.Apply(ctx, c.LayerID, c.StyleName, c.Env, c.Opacity); err != nil {
			logf("apply style to %s failed: %v", c.LayerID, err)
		}
	case SavePreset:
		if l.deps.Presets == nil {
			return
		}
		if err := l.deps.Presets.SaveStylePreset(c.LayerID, c.Params); err != nil {
			logf("save preset for %s failed: %v", c.LayerID, err)
		}
	default:
		logf("unknown command %T", cmd)
	}
}

func (l *Loop) spawn(f func()) {
	l.fetches.Add(1)
	go func() {
		defer l.fetches.Done()
		f()
	}()
}

// deliver posts a fetch result, dropping it if the loop has stopped.
func (l *Loop) deliver(ev Event) {
	if err := l.Post(ev); err != nil {
		l.session.logf("dropping %T: %v", ev, err)
	}
}
