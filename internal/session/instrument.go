package session

import (
	"transport-tracker/internal/geo"
	"transport-tracker/internal/mapview"
	"transport-tracker/internal/metrics"
)

// counted counts adapter calls by op before forwarding them.
type counted struct {
	next mapview.Adapter
	m    *metrics.Collector
}

// countedPanel is used when the wrapped adapter also drives the panel, so
// the guard's PanelSink check still sees the truth.
type countedPanel struct {
	counted
	panel mapview.PanelSink
}

func instrument(next mapview.Adapter, m *metrics.Collector) mapview.Adapter {
	c := counted{next: next, m: m}
	if p, ok := next.(mapview.PanelSink); ok {
		return &countedPanel{counted: c, panel: p}
	}
	return &c
}

func (c *counted) inc(op string) { c.m.AdapterCalls.WithLabelValues(op).Inc() }

func (c *counted) UpsertMarker(id string, at geo.Coordinate, style mapview.MarkerStyle) {
	c.inc(mapview.OpUpsertMarker)
	c.next.UpsertMarker(id, at, style)
}

func (c *counted) RemoveMarker(id string) {
	c.inc(mapview.OpRemoveMarker)
	c.next.RemoveMarker(id)
}

func (c *counted) SetRouteStyle(routeID string, style mapview.RouteStyle) {
	c.inc(mapview.OpSetRouteStyle)
	c.next.SetRouteStyle(routeID, style)
}

func (c *counted) PanTo(at geo.Coordinate) {
	c.inc(mapview.OpPanTo)
	c.next.PanTo(at)
}

func (c *counted) FlyTo(at geo.Coordinate, zoom float64) {
	c.inc(mapview.OpFlyTo)
	c.next.FlyTo(at, zoom)
}

func (c *countedPanel) ShowSelection(info *mapview.SelectionInfo) {
	c.inc(mapview.OpSelection)
	c.panel.ShowSelection(info)
}

func (c *countedPanel) ShowFilters(visible map[string]bool) {
	c.inc(mapview.OpFilters)
	c.panel.ShowFilters(visible)
}
