// Package session ties one map view together: the route table and fleet it
// shows, the motion integrator, camera and filter state, and the render loop
// that drives them.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"transport-tracker/internal/filter"
	"transport-tracker/internal/fleet"
	"transport-tracker/internal/geo"
	"transport-tracker/internal/loop"
	"transport-tracker/internal/mapview"
	"transport-tracker/internal/metrics"
	"transport-tracker/internal/motion"
	"transport-tracker/internal/route"
	"transport-tracker/internal/viewport"
)

type Options struct {
	// ID defaults to a random UUID.
	ID      string
	Adapter mapview.Adapter
	Routes  *route.Table
	Fleet   *fleet.Fleet
	// Visible is the initial per-category visibility; missing categories
	// are shown.
	Visible       map[fleet.Category]bool
	FrameInterval time.Duration
	FollowZoom    float64
	// Center and Zoom are the initial camera; a zero Zoom leaves the map
	// where it is.
	Center  geo.Coordinate
	Zoom    float64
	Metrics *metrics.Collector
}

type Session struct {
	id      string
	log     zerolog.Logger
	routes  *route.Table
	fleet   *fleet.Fleet
	metrics *metrics.Collector
	center  geo.Coordinate
	zoom    float64

	guard    *mapview.Guard
	motion   *motion.Integrator
	viewport *viewport.Controller
	filter   *filter.Filter
	loop     *loop.Loop

	mu      sync.Mutex
	hovered string
	started bool

	closeOnce sync.Once
}

func New(opts Options) (*Session, error) {
	if opts.Adapter == nil {
		return nil, errors.New("session: nil adapter")
	}
	if opts.Routes == nil || opts.Fleet == nil {
		return nil, errors.New("session: routes and fleet are required")
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}

	s := &Session{
		id:      id,
		log:     log.With().Str("session", id).Logger(),
		routes:  opts.Routes,
		fleet:   opts.Fleet,
		metrics: opts.Metrics,
		center:  opts.Center,
		zoom:    opts.Zoom,
	}

	var adapter mapview.Adapter = opts.Adapter
	if s.metrics != nil {
		adapter = instrument(opts.Adapter, s.metrics)
	}
	s.guard = mapview.NewGuard(adapter, s.onDropped)

	s.motion = motion.New(opts.Routes, opts.Fleet)
	s.viewport = viewport.New(s.guard, opts.Fleet, opts.Routes, opts.FollowZoom)
	s.filter = filter.New(s.guard, opts.Fleet, opts.Visible)
	s.loop = loop.New(opts.FrameInterval, s.Tick)
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Start draws the routes, mounts the visible markers and starts the render
// loop. Calling it again has no effect.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	if s.zoom > 0 {
		s.guard.FlyTo(s.center, s.zoom)
	}
	for _, id := range s.routes.IDs() {
		r, _ := s.routes.Get(id)
		s.guard.SetRouteStyle(id, viewport.RouteStyle(r.Color, false))
	}
	shown := s.filter.Mount()
	s.guard.ShowFilters(s.filter.Visibility())
	s.mu.Unlock()

	if s.metrics != nil {
		for _, c := range fleet.Categories() {
			s.metrics.FleetSize.WithLabelValues(c.String()).Set(float64(len(s.fleet.ByCategory(c))))
		}
		s.metrics.VisibleMarkers.Set(float64(shown))
		s.metrics.Sessions.Inc()
	}

	s.loop.Start(ctx)
	s.log.Info().
		Int("routes", s.routes.Len()).
		Int("vehicles", s.fleet.Len()).
		Int("visible", shown).
		Dur("interval", s.loop.Interval()).
		Msg("session started")
}

// Tick runs one frame: advance every route-bound vehicle, move the visible
// markers, then let the camera follow the selected vehicle's new position.
func (s *Session) Tick() {
	start := time.Now()

	s.mu.Lock()
	for _, u := range s.motion.Step() {
		if s.filter.VehicleVisible(u.Vehicle) {
			s.guard.UpsertMarker(u.VehicleID, u.Position, filter.StyleFor(u.Vehicle))
		}
	}
	panned := s.viewport.AfterTick()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.Ticks.Inc()
		if panned {
			s.metrics.FollowPans.Inc()
		}
		s.metrics.TickDuration.Observe(time.Since(start).Seconds())
	}
}

// Handle applies one input event. Events that name unknown vehicles or
// categories change nothing.
func (s *Session) Handle(ev mapview.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.Events.WithLabelValues(string(ev.Kind)).Inc()
	}

	switch ev.Kind {
	case mapview.MarkerClick:
		if err := s.viewport.Select(ev.VehicleID); err != nil {
			s.log.Debug().Err(err).Str("vehicle", ev.VehicleID).Msg("ignoring click")
			return
		}
		if s.metrics != nil {
			s.metrics.Selections.Inc()
		}
		s.pushSelection()

	case mapview.MarkerHover:
		if _, ok := s.fleet.Get(ev.VehicleID); !ok {
			return
		}
		if ev.Hover {
			s.hovered = ev.VehicleID
		} else if s.hovered == ev.VehicleID {
			s.hovered = ""
		}

	case mapview.SetVisible:
		c, ok := fleet.ParseCategory(ev.Category)
		if !ok {
			s.log.Debug().Str("category", ev.Category).Msg("ignoring unknown category")
			return
		}
		if !s.filter.SetVisible(c, ev.Visible) {
			return
		}
		if s.metrics != nil {
			s.metrics.VisibleMarkers.Set(float64(s.filter.VisibleCount()))
		}
		s.guard.ShowFilters(s.filter.Visibility())

	case mapview.ToggleFollow:
		following, err := s.viewport.ToggleFollow()
		if err != nil {
			s.log.Debug().Err(err).Msg("ignoring follow toggle")
			return
		}
		s.log.Debug().Bool("following", following).Msg("follow toggled")
		s.pushSelection()

	case mapview.ClearSelection:
		s.viewport.ClearSelection()
		s.guard.ShowSelection(nil)
	}
}

// Post queues ev for the render loop goroutine. It returns false once the
// session is closed or the queue is full.
func (s *Session) Post(ev mapview.Event) bool {
	return s.loop.Do(func() { s.Handle(ev) })
}

// Close stops the render loop and detaches the map. Adapter calls that race
// the teardown are dropped. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.loop.Stop()
		s.guard.Close()
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if s.metrics != nil && started {
			s.metrics.Sessions.Dec()
		}
		s.log.Info().Msg("session closed")
	})
}

// Hovered returns the vehicle under the pointer, if any.
func (s *Session) Hovered() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hovered, s.hovered != ""
}

// Selection describes the selected vehicle as shown in the info panel.
func (s *Session) Selection() (*mapview.SelectionInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport.Info()
}

func (s *Session) State() viewport.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport.State()
}

func (s *Session) Visibility() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.Visibility()
}

func (s *Session) pushSelection() {
	info, ok := s.viewport.Info()
	if !ok {
		return
	}
	s.guard.ShowSelection(info)
}

func (s *Session) onDropped(op string) {
	if s.metrics != nil {
		s.metrics.DroppedCalls.WithLabelValues(op).Inc()
	}
}
