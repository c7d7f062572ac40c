// Package mapview is the boundary between the simulation core and the map
// widget that renders it.
package mapview

import (
	"time"

	"transport-tracker/internal/geo"
)

type MarkerStyle struct {
	Color   string  `json:"color"`
	Icon    string  `json:"icon"`
	Label   string  `json:"label"`
	Bearing float64 `json:"bearing"`
}

type RouteStyle struct {
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	Opacity     float64 `json:"opacity"`
	Highlighted bool    `json:"highlighted"`
}

// Adapter is implemented by map widget bridges. Calls are fire-and-forget:
// transport failures are the adapter's to log, never the caller's.
type Adapter interface {
	UpsertMarker(id string, at geo.Coordinate, style MarkerStyle)
	RemoveMarker(id string)
	SetRouteStyle(routeID string, style RouteStyle)
	PanTo(at geo.Coordinate)
	FlyTo(at geo.Coordinate, zoom float64)
}

// SelectionInfo is what the info panel shows for the selected vehicle.
type SelectionInfo struct {
	VehicleID string         `json:"vehicleId"`
	Name      string         `json:"name"`
	Category  string         `json:"category"`
	RouteID   string         `json:"routeId,omitempty"`
	Speed     float64        `json:"speed"`
	ETA       time.Duration  `json:"eta"`
	Capacity  *int           `json:"capacity,omitempty"`
	Position  geo.Coordinate `json:"position"`
	Following bool           `json:"following"`
}

// PanelSink is optionally implemented by adapters that also drive the info
// panel and the filter controls. A nil info clears the panel.
type PanelSink interface {
	ShowSelection(info *SelectionInfo)
	ShowFilters(visible map[string]bool)
}
