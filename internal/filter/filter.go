package filter

import (
	"transport-tracker/internal/fleet"
	"transport-tracker/internal/mapview"
)

// Filter tracks per-category visibility and keeps the map's markers in step
// with it, touching only the vehicles whose visibility changed.
type Filter struct {
	adapter mapview.Adapter
	fleet   *fleet.Fleet
	visible map[fleet.Category]bool
}

// New starts with every category visible unless initial says otherwise.
func New(adapter mapview.Adapter, f *fleet.Fleet, initial map[fleet.Category]bool) *Filter {
	vis := make(map[fleet.Category]bool, len(fleet.Categories()))
	for _, c := range fleet.Categories() {
		vis[c] = true
		if v, ok := initial[c]; ok {
			vis[c] = v
		}
	}
	return &Filter{adapter: adapter, fleet: f, visible: vis}
}

// Mount creates markers for every initially visible vehicle.
func (f *Filter) Mount() int {
	n := 0
	for _, v := range f.fleet.All() {
		if f.visible[v.Category] {
			f.adapter.UpsertMarker(v.ID, v.Position, StyleFor(v))
			n++
		}
	}
	return n
}

// SetVisible changes one category's visibility. Unknown categories and
// unchanged values are ignored. It reports whether anything changed.
func (f *Filter) SetVisible(c fleet.Category, visible bool) bool {
	cur, known := f.visible[c]
	if !known || cur == visible {
		return false
	}
	f.visible[c] = visible
	for _, v := range f.fleet.ByCategory(c) {
		if visible {
			f.adapter.UpsertMarker(v.ID, v.Position, StyleFor(v))
		} else {
			f.adapter.RemoveMarker(v.ID)
		}
	}
	return true
}

func (f *Filter) Visible(c fleet.Category) bool { return f.visible[c] }

func (f *Filter) VehicleVisible(v *fleet.Vehicle) bool { return f.visible[v.Category] }

// Visibility returns a copy keyed by category name, for the filter controls.
func (f *Filter) Visibility() map[string]bool {
	out := make(map[string]bool, len(f.visible))
	for c, v := range f.visible {
		out[c.String()] = v
	}
	return out
}

// VisibleCount is the number of vehicles currently shown.
func (f *Filter) VisibleCount() int {
	n := 0
	for _, v := range f.fleet.All() {
		if f.visible[v.Category] {
			n++
		}
	}
	return n
}

// StyleFor is the marker style of a vehicle at its current bearing.
func StyleFor(v *fleet.Vehicle) mapview.MarkerStyle {
	s := v.Category.Style()
	return mapview.MarkerStyle{
		Color:   v.Color,
		Icon:    s.Icon,
		Label:   v.Name,
		Bearing: v.Bearing,
	}
}
