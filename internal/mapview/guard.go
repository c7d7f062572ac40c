package mapview

import (
	"sync/atomic"

	"transport-tracker/internal/geo"
)

// Guard forwards to an Adapter until Close is called; afterwards every call
// is dropped silently. The render loop may race teardown by one tick.
type Guard struct {
	next    Adapter
	closed  atomic.Bool
	dropped func(op string)
}

// NewGuard wraps next. onDrop, if non-nil, is called for each dropped call.
func NewGuard(next Adapter, onDrop func(op string)) *Guard {
	return &Guard{next: next, dropped: onDrop}
}

func (g *Guard) Close() { g.closed.Store(true) }

func (g *Guard) Closed() bool { return g.closed.Load() }

func (g *Guard) live(op string) bool {
	if !g.closed.Load() {
		return true
	}
	if g.dropped != nil {
		g.dropped(op)
	}
	return false
}

func (g *Guard) UpsertMarker(id string, at geo.Coordinate, style MarkerStyle) {
	if g.live(OpUpsertMarker) {
		g.next.UpsertMarker(id, at, style)
	}
}

func (g *Guard) RemoveMarker(id string) {
	if g.live(OpRemoveMarker) {
		g.next.RemoveMarker(id)
	}
}

func (g *Guard) SetRouteStyle(routeID string, style RouteStyle) {
	if g.live(OpSetRouteStyle) {
		g.next.SetRouteStyle(routeID, style)
	}
}

func (g *Guard) PanTo(at geo.Coordinate) {
	if g.live(OpPanTo) {
		g.next.PanTo(at)
	}
}

func (g *Guard) FlyTo(at geo.Coordinate, zoom float64) {
	if g.live(OpFlyTo) {
		g.next.FlyTo(at, zoom)
	}
}

func (g *Guard) ShowSelection(info *SelectionInfo) {
	if p, ok := g.next.(PanelSink); ok && g.live(OpSelection) {
		p.ShowSelection(info)
	}
}

func (g *Guard) ShowFilters(visible map[string]bool) {
	if p, ok := g.next.(PanelSink); ok && g.live(OpFilters) {
		p.ShowFilters(visible)
	}
}
