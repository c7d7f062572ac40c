package motion

import (
	"fmt"

	"transport-tracker/internal/fleet"
	"transport-tracker/internal/geo"
	"transport-tracker/internal/route"
)

// Update is the new position of one vehicle after a tick.
type Update struct {
	VehicleID string
	Vehicle   *fleet.Vehicle
	Position  geo.Coordinate
	Bearing   float64
}

type bound struct {
	v *fleet.Vehicle
	r *route.Route
}

// Integrator advances route-bound vehicles along their routes. It is the only
// writer of vehicle motion fields.
type Integrator struct {
	vehicles []bound
	updates  []Update
}

// New resolves each route-bound vehicle's route once. A vehicle referencing a
// route missing from the table is a programming error and panics; the fleet
// generator rejects such configs.
func New(table *route.Table, f *fleet.Fleet) *Integrator {
	in := &Integrator{}
	for _, v := range f.All() {
		if !v.RouteBound() {
			continue
		}
		r, ok := table.Get(v.RouteID)
		if !ok {
			panic(fmt.Sprintf("motion: vehicle %s references unknown route %q", v.ID, v.RouteID))
		}
		in.vehicles = append(in.vehicles, bound{v: v, r: r})
	}
	in.updates = make([]Update, len(in.vehicles))
	return in
}

// Len is the number of route-bound vehicles advanced per Step.
func (in *Integrator) Len() int { return len(in.vehicles) }

// Step advances every route-bound vehicle by its speed and returns one update
// per vehicle in fleet order. The returned slice is reused and only valid
// until the next call.
func (in *Integrator) Step() []Update {
	for i, b := range in.vehicles {
		Advance(b.v, b.r)
		in.updates[i] = Update{
			VehicleID: b.v.ID,
			Vehicle:   b.v,
			Position:  b.v.Position,
			Bearing:   b.v.Bearing,
		}
	}
	return in.updates
}

// Advance moves v forward by one tick on r. Routes are treated as closed
// loops: leaving the last segment wraps to segment 0. The fractional
// overshoot is carried into the next segment.
func Advance(v *fleet.Vehicle, r *route.Route) {
	n := r.SegmentCount()
	v.Progress += v.Speed
	for v.Progress >= 1 {
		v.Progress -= 1
		v.Segment = (v.Segment + 1) % n
	}
	v.Position, v.Bearing = r.PositionAt(v.Segment, v.Progress)
}
