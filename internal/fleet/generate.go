package fleet

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"transport-tracker/internal/geo"
	"transport-tracker/internal/route"
)

var (
	ErrInvalidAssignment = errors.New("invalid assignment")
	ErrInvalidConfig     = errors.New("invalid fleet config")
)

// Group describes how many vehicles of one category to place and where.
// Route-bound categories use Routes; free-roaming ones use Bounds.
type Group struct {
	Category Category
	Count    int
	Routes   []string
	Bounds   geo.BBox
	SpeedMin float64
	SpeedMax float64
	Capacity int
}

type Config struct {
	Groups []Group
}

// Generate builds the session fleet. Placement is random on purpose; every
// route reference is checked against the table before any vehicle is built,
// so a bad config yields no fleet at all. tick is the frame interval used
// for the static ETA estimate.
func Generate(cfg Config, table *route.Table, rng *rand.Rand, tick time.Duration) (*Fleet, error) {
	for i, g := range cfg.Groups {
		if err := validateGroup(g, table); err != nil {
			return nil, fmt.Errorf("group %d (%s): %w", i, g.Category, err)
		}
	}

	seq := make(map[Category]int)
	var vehicles []*Vehicle
	for _, g := range cfg.Groups {
		style := g.Category.Style()
		for n := 0; n < g.Count; n++ {
			seq[g.Category]++
			num := seq[g.Category]
			v := &Vehicle{
				ID:       fmt.Sprintf("%s-%d", g.Category, num),
				Category: g.Category,
				Name:     fmt.Sprintf("%s %d", style.Label, num),
				Color:    style.Color,
			}
			if g.Capacity > 0 {
				c := g.Capacity
				v.Capacity = &c
			}
			if g.Category.RouteBound() {
				r, _ := table.Get(g.Routes[rng.IntN(len(g.Routes))])
				placeOnRoute(v, r, g, rng, tick)
			} else {
				v.Position = geo.Coordinate{
					Lat: g.Bounds.Min.Lat + rng.Float64()*(g.Bounds.Max.Lat-g.Bounds.Min.Lat),
					Lon: g.Bounds.Min.Lon + rng.Float64()*(g.Bounds.Max.Lon-g.Bounds.Min.Lon),
				}
			}
			vehicles = append(vehicles, v)
		}
	}
	return NewFleet(vehicles), nil
}

func placeOnRoute(v *Vehicle, r *route.Route, g Group, rng *rand.Rand, tick time.Duration) {
	v.RouteID = r.ID
	if r.Name != "" {
		v.Name = fmt.Sprintf("%s (%s)", v.Name, r.Name)
	}
	if r.Color != "" {
		v.Color = r.Color
	}
	v.Segment = rng.IntN(r.SegmentCount())
	v.Progress = rng.Float64()
	v.Speed = g.SpeedMin + rng.Float64()*(g.SpeedMax-g.SpeedMin)
	v.Position, v.Bearing = r.PositionAt(v.Segment, v.Progress)
	v.ETA = estimateETA(r.SegmentCount(), v.Segment, v.Progress, v.Speed, tick)
}

// estimateETA is the tick time needed to cover the remaining segments at
// the vehicle's speed.
func estimateETA(segments, segment int, progress, speed float64, tick time.Duration) time.Duration {
	if speed <= 0 || tick <= 0 {
		return 0
	}
	remaining := float64(segments-segment) - progress
	ticks := remaining / speed
	return time.Duration(ticks * float64(tick))
}

func validateGroup(g Group, table *route.Table) error {
	if !g.Category.Valid() {
		return fmt.Errorf("%w: unknown category", ErrInvalidConfig)
	}
	if g.Count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrInvalidConfig, g.Count)
	}
	if !g.Category.RouteBound() {
		if !g.Bounds.Valid() {
			return fmt.Errorf("%w: free-roaming group needs valid bounds", ErrInvalidConfig)
		}
		return nil
	}
	if len(g.Routes) == 0 {
		return fmt.Errorf("%w: route-bound group has no routes", ErrInvalidConfig)
	}
	if g.SpeedMin <= 0 || g.SpeedMax < g.SpeedMin || g.SpeedMax >= 1 {
		return fmt.Errorf("%w: speed range [%g, %g] must satisfy 0 < min <= max < 1", ErrInvalidConfig, g.SpeedMin, g.SpeedMax)
	}
	for _, id := range g.Routes {
		if _, ok := table.Get(id); !ok {
			return fmt.Errorf("%w: route %q not found", ErrInvalidAssignment, id)
		}
	}
	return nil
}
