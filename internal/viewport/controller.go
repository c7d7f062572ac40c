package viewport

import (
	"errors"
	"fmt"

	"transport-tracker/internal/fleet"
	"transport-tracker/internal/mapview"
	"transport-tracker/internal/route"
)

var (
	ErrUnknownVehicle = errors.New("unknown vehicle")
	ErrNoSelection    = errors.New("no vehicle selected")
)

type State int

const (
	Idle State = iota
	// Selected shows a vehicle without moving the camera.
	Selected
	Following
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selected:
		return "selected"
	case Following:
		return "following"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

const DefaultFollowZoom = 15

// Controller owns the selection, the follow flag and the highlighted route.
// It only reads vehicles and talks to the map through the adapter.
type Controller struct {
	adapter mapview.Adapter
	fleet   *fleet.Fleet
	routes  *route.Table
	zoom    float64

	selected    *fleet.Vehicle
	follow      bool
	highlighted string
}

func New(adapter mapview.Adapter, f *fleet.Fleet, routes *route.Table, followZoom float64) *Controller {
	if followZoom <= 0 {
		followZoom = DefaultFollowZoom
	}
	return &Controller{adapter: adapter, fleet: f, routes: routes, zoom: followZoom}
}

func (c *Controller) State() State {
	switch {
	case c.selected == nil:
		return Idle
	case c.follow:
		return Following
	default:
		return Selected
	}
}

// Selected returns the selected vehicle, if any.
func (c *Controller) Selected() (*fleet.Vehicle, bool) { return c.selected, c.selected != nil }

func (c *Controller) Following() bool { return c.follow }

// Select makes id the selected vehicle with follow off and moves the route
// highlight to its route.
func (c *Controller) Select(id string) error {
	v, ok := c.fleet.Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVehicle, id)
	}
	c.clearHighlight()
	c.selected = v
	c.follow = false
	if v.RouteBound() {
		c.highlight(v.RouteID)
	}
	return nil
}

// ToggleFollow flips the follow flag. Switching it on flies the camera to the
// vehicle once; later ticks pan.
func (c *Controller) ToggleFollow() (bool, error) {
	if c.selected == nil {
		return false, ErrNoSelection
	}
	c.follow = !c.follow
	if c.follow {
		c.adapter.FlyTo(c.selected.Position, c.zoom)
	}
	return c.follow, nil
}

func (c *Controller) ClearSelection() {
	c.clearHighlight()
	c.selected = nil
	c.follow = false
}

// AfterTick recentres the camera on the followed vehicle. It must run after
// the integrator so the pan targets the vehicle's new position.
func (c *Controller) AfterTick() bool {
	if c.selected == nil || !c.follow {
		return false
	}
	c.adapter.PanTo(c.selected.Position)
	return true
}

// Info describes the selection for the info panel.
func (c *Controller) Info() (*mapview.SelectionInfo, bool) {
	v := c.selected
	if v == nil {
		return nil, false
	}
	return &mapview.SelectionInfo{
		VehicleID: v.ID,
		Name:      v.Name,
		Category:  v.Category.String(),
		RouteID:   v.RouteID,
		Speed:     v.Speed,
		ETA:       v.ETA,
		Capacity:  v.Capacity,
		Position:  v.Position,
		Following: c.follow,
	}, true
}

func (c *Controller) highlight(routeID string) {
	c.highlighted = routeID
	c.adapter.SetRouteStyle(routeID, c.routeStyle(routeID, true))
}

func (c *Controller) clearHighlight() {
	if c.highlighted == "" {
		return
	}
	c.adapter.SetRouteStyle(c.highlighted, c.routeStyle(c.highlighted, false))
	c.highlighted = ""
}

func (c *Controller) routeStyle(routeID string, highlighted bool) mapview.RouteStyle {
	color := ""
	if r, ok := c.routes.Get(routeID); ok {
		color = r.Color
	}
	return RouteStyle(color, highlighted)
}

// RouteStyle is the polyline style for a route in normal or highlighted form.
func RouteStyle(color string, highlighted bool) mapview.RouteStyle {
	if highlighted {
		return mapview.RouteStyle{Color: color, Weight: 6, Opacity: 1, Highlighted: true}
	}
	return mapview.RouteStyle{Color: color, Weight: 3, Opacity: 0.6}
}
