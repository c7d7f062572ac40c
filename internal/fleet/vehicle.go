package fleet

import (
	"time"

	"transport-tracker/internal/geo"
)

// Vehicle is the per-entity simulation record. Segment, Progress, Position
// and Bearing are motion fields; only the motion integrator writes them
// after generation.
type Vehicle struct {
	ID       string
	Category Category
	Name     string
	Color    string
	Capacity *int

	// RouteID is empty for free-roaming vehicles.
	RouteID  string
	Segment  int
	Progress float64
	// Speed is the progress increment per tick, relative to one segment.
	Speed float64

	Position geo.Coordinate
	Bearing  float64

	// ETA is estimated once at generation and is display-only.
	ETA time.Duration
}

func (v *Vehicle) RouteBound() bool { return v.RouteID != "" }

// Fleet is the fixed set of vehicles of one session, in generation order.
type Fleet struct {
	vehicles []*Vehicle
	byID     map[string]*Vehicle
}

func NewFleet(vehicles []*Vehicle) *Fleet {
	f := &Fleet{vehicles: vehicles, byID: make(map[string]*Vehicle, len(vehicles))}
	for _, v := range vehicles {
		f.byID[v.ID] = v
	}
	return f
}

func (f *Fleet) Get(id string) (*Vehicle, bool) {
	v, ok := f.byID[id]
	return v, ok
}

// All returns the vehicles in generation order. The slice must not be
// modified.
func (f *Fleet) All() []*Vehicle { return f.vehicles }

func (f *Fleet) ByCategory(c Category) []*Vehicle {
	var out []*Vehicle
	for _, v := range f.vehicles {
		if v.Category == c {
			out = append(out, v)
		}
	}
	return out
}

func (f *Fleet) Len() int { return len(f.vehicles) }
