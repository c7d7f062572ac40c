package mapview

import (
	"encoding/json"
	"fmt"

	"transport-tracker/internal/geo"
)

type EventKind string

const (
	MarkerClick    EventKind = "markerClick"
	MarkerHover    EventKind = "markerHover"
	SetVisible     EventKind = "setVisible"
	ToggleFollow   EventKind = "toggleFollow"
	ClearSelection EventKind = "clearSelection"
)

// Event is user input coming back from the map widget or the surrounding
// controls.
type Event struct {
	Kind      EventKind `json:"kind"`
	VehicleID string    `json:"vehicleId,omitempty"`
	Hover     bool      `json:"hover,omitempty"`
	Category  string    `json:"category,omitempty"`
	Visible   bool      `json:"visible,omitempty"`
}

// DecodeEvent parses a JSON event and rejects unknown kinds.
func DecodeEvent(b []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(b, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	switch ev.Kind {
	case MarkerClick, MarkerHover:
		if ev.VehicleID == "" {
			return Event{}, fmt.Errorf("event %s: missing vehicleId", ev.Kind)
		}
	case SetVisible:
		if ev.Category == "" {
			return Event{}, fmt.Errorf("event %s: missing category", ev.Kind)
		}
	case ToggleFollow, ClearSelection:
	default:
		return Event{}, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	return ev, nil
}

// Command is the wire form of one adapter call, shared by the NATS and
// WebSocket bridges.
type Command struct {
	Op        string          `json:"op"`
	ID        string          `json:"id,omitempty"`
	At        *geo.Coordinate `json:"at,omitempty"`
	Zoom      float64         `json:"zoom,omitempty"`
	Marker    *MarkerStyle    `json:"marker,omitempty"`
	Route     *RouteStyle     `json:"route,omitempty"`
	Selection *SelectionInfo  `json:"selection,omitempty"`
	Filters   map[string]bool `json:"filters,omitempty"`
}

const (
	OpUpsertMarker  = "upsertMarker"
	OpRemoveMarker  = "removeMarker"
	OpSetRouteStyle = "setRouteStyle"
	OpPanTo         = "panTo"
	OpFlyTo         = "flyTo"
	OpSelection     = "selection"
	OpFilters       = "filters"
)

func UpsertMarkerCommand(id string, at geo.Coordinate, style MarkerStyle) Command {
	return Command{Op: OpUpsertMarker, ID: id, At: &at, Marker: &style}
}

func RemoveMarkerCommand(id string) Command { return Command{Op: OpRemoveMarker, ID: id} }

func RouteStyleCommand(routeID string, style RouteStyle) Command {
	return Command{Op: OpSetRouteStyle, ID: routeID, Route: &style}
}

func PanToCommand(at geo.Coordinate) Command { return Command{Op: OpPanTo, At: &at} }

func FlyToCommand(at geo.Coordinate, zoom float64) Command {
	return Command{Op: OpFlyTo, At: &at, Zoom: zoom}
}

// SelectionCommand carries a nil Selection when the panel is cleared.
func SelectionCommand(info *SelectionInfo) Command {
	return Command{Op: OpSelection, Selection: info}
}

func FiltersCommand(visible map[string]bool) Command {
	return Command{Op: OpFilters, Filters: visible}
}
