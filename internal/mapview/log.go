package mapview

import (
	"github.com/rs/zerolog"

	"transport-tracker/internal/geo"
)

// LogAdapter writes every command to a logger instead of a map. Marker
// upserts are logged at trace level since they arrive every frame.
type LogAdapter struct {
	Log zerolog.Logger
}

func (l LogAdapter) UpsertMarker(id string, at geo.Coordinate, style MarkerStyle) {
	l.Log.Trace().Str("vehicle", id).Float64("lat", at.Lat).Float64("lon", at.Lon).Float64("bearing", style.Bearing).Msg("upsert marker")
}

func (l LogAdapter) RemoveMarker(id string) {
	l.Log.Debug().Str("vehicle", id).Msg("remove marker")
}

func (l LogAdapter) SetRouteStyle(routeID string, style RouteStyle) {
	l.Log.Debug().Str("route", routeID).Bool("highlighted", style.Highlighted).Str("color", style.Color).Msg("route style")
}

func (l LogAdapter) PanTo(at geo.Coordinate) {
	l.Log.Trace().Float64("lat", at.Lat).Float64("lon", at.Lon).Msg("pan")
}

func (l LogAdapter) FlyTo(at geo.Coordinate, zoom float64) {
	l.Log.Debug().Float64("lat", at.Lat).Float64("lon", at.Lon).Float64("zoom", zoom).Msg("fly")
}

func (l LogAdapter) ShowSelection(info *SelectionInfo) {
	if info == nil {
		l.Log.Info().Msg("selection cleared")
		return
	}
	l.Log.Info().Str("vehicle", info.VehicleID).Str("route", info.RouteID).Bool("following", info.Following).Dur("eta", info.ETA).Msg("selection")
}

func (l LogAdapter) ShowFilters(visible map[string]bool) {
	d := zerolog.Dict()
	for k, v := range visible {
		d = d.Bool(k, v)
	}
	l.Log.Info().Dict("visible", d).Msg("filters")
}
