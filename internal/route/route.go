package route

import (
	"errors"
	"fmt"
	"sort"

	"transport-tracker/internal/geo"
)

var ErrInvalidRoute = errors.New("invalid route")

// Stop is a named stop aligned to one of the route's points.
type Stop struct {
	Name       string
	PointIndex int
}

type Route struct {
	ID          string
	Name        string
	Color       string
	Origin      string
	Destination string
	Points      []geo.Coordinate
	Stops       []Stop
}

// SegmentCount is the number of consecutive point pairs.
func (r *Route) SegmentCount() int { return len(r.Points) - 1 }

// Segment returns the endpoints of segment i.
func (r *Route) Segment(i int) (geo.Coordinate, geo.Coordinate) {
	return r.Points[i], r.Points[i+1]
}

// PositionAt interpolates along segment i at fraction progress and returns
// the coordinate together with the segment's bearing.
func (r *Route) PositionAt(i int, progress float64) (geo.Coordinate, float64) {
	a, b := r.Segment(i)
	return geo.Lerp(a, b, progress), geo.Bearing(a, b)
}

// Length returns the polyline length in meters.
func (r *Route) Length() float64 {
	total := 0.0
	for i := 1; i < len(r.Points); i++ {
		total += geo.Distance(r.Points[i-1], r.Points[i])
	}
	return total
}

func (r *Route) validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRoute)
	}
	if len(r.Points) < 2 {
		return fmt.Errorf("%w: route %q has %d point(s), need at least 2", ErrInvalidRoute, r.ID, len(r.Points))
	}
	prev := -1
	for _, s := range r.Stops {
		if s.PointIndex < 0 || s.PointIndex >= len(r.Points) {
			return fmt.Errorf("%w: route %q stop %q index %d out of range", ErrInvalidRoute, r.ID, s.Name, s.PointIndex)
		}
		if s.PointIndex <= prev {
			return fmt.Errorf("%w: route %q stops are not in point order", ErrInvalidRoute, r.ID)
		}
		prev = s.PointIndex
	}
	return nil
}

// Table is an immutable registry of routes keyed by ID. It has no mutation
// API, so concurrent readers need no locking.
type Table struct {
	byID map[string]*Route
	ids  []string
}

// NewTable validates and copies the given routes. Any invalid route fails
// the whole construction.
func NewTable(routes ...Route) (*Table, error) {
	t := &Table{byID: make(map[string]*Route, len(routes))}
	for i := range routes {
		r := routes[i]
		if err := r.validate(); err != nil {
			return nil, err
		}
		if _, dup := t.byID[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidRoute, r.ID)
		}
		r.Points = append([]geo.Coordinate(nil), r.Points...)
		r.Stops = append([]Stop(nil), r.Stops...)
		t.byID[r.ID] = &r
		t.ids = append(t.ids, r.ID)
	}
	sort.Strings(t.ids)
	return t, nil
}

func (t *Table) Get(id string) (*Route, bool) {
	r, ok := t.byID[id]
	return r, ok
}

// IDs returns the route IDs in sorted order.
func (t *Table) IDs() []string { return append([]string(nil), t.ids...) }

func (t *Table) Len() int { return len(t.ids) }
