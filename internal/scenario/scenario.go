// Package scenario loads the static route and fleet definitions of a map
// view from YAML.
package scenario

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"transport-tracker/internal/fleet"
	"transport-tracker/internal/geo"
	"transport-tracker/internal/route"
)

//go:embed default.yml
var defaultScenario []byte

type Scenario struct {
	Name    string          `yaml:"name" validate:"required"`
	Center  geo.Coordinate  `yaml:"center"`
	Zoom    float64         `yaml:"zoom" validate:"gte=0,lte=22"`
	Routes  []RouteSpec     `yaml:"routes" validate:"dive"`
	Fleet   []GroupSpec     `yaml:"fleet" validate:"required,min=1,dive"`
	Visible map[string]bool `yaml:"visible"`
}

type RouteSpec struct {
	ID          string       `yaml:"id" validate:"required"`
	Name        string       `yaml:"name"`
	Color       string       `yaml:"color" validate:"omitempty,hexcolor"`
	Origin      string       `yaml:"origin"`
	Destination string       `yaml:"destination"`
	Points      [][2]float64 `yaml:"points"`
	Stops       []StopSpec   `yaml:"stops" validate:"dive"`
}

type StopSpec struct {
	Name  string `yaml:"name" validate:"required"`
	Point int    `yaml:"point" validate:"gte=0"`
}

type GroupSpec struct {
	Category fleet.Category `yaml:"category" validate:"required"`
	Count    int            `yaml:"count" validate:"gte=0"`
	Routes   []string       `yaml:"routes"`
	Bounds   *BoundsSpec    `yaml:"bounds"`
	Speed    [2]float64     `yaml:"speed"`
	Capacity int            `yaml:"capacity" validate:"gte=0"`
}

type BoundsSpec struct {
	Min [2]float64 `yaml:"min"`
	Max [2]float64 `yaml:"max"`
}

// Load reads a scenario file; an empty path selects the built-in demo.
func Load(path string) (*Scenario, error) {
	data := defaultScenario
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read scenario: %w", err)
		}
		data = b
	}
	return Parse(data)
}

func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := validator.New().Struct(s); err != nil {
		return nil, fmt.Errorf("validate scenario: %w", err)
	}
	return &s, nil
}

// RouteTable builds the immutable route table from the scenario's routes.
func (s *Scenario) RouteTable() (*route.Table, error) {
	return route.NewTable(s.RoutesList()...)
}

func (s *Scenario) RoutesList() []route.Route {
	routes := make([]route.Route, 0, len(s.Routes))
	for _, rs := range s.Routes {
		r := route.Route{
			ID:          rs.ID,
			Name:        rs.Name,
			Color:       rs.Color,
			Origin:      rs.Origin,
			Destination: rs.Destination,
		}
		for _, p := range rs.Points {
			r.Points = append(r.Points, geo.Coordinate{Lat: p[0], Lon: p[1]})
		}
		for _, st := range rs.Stops {
			r.Stops = append(r.Stops, route.Stop{Name: st.Name, PointIndex: st.Point})
		}
		routes = append(routes, r)
	}
	return routes
}

func (s *Scenario) FleetConfig() fleet.Config {
	var cfg fleet.Config
	for _, g := range s.Fleet {
		grp := fleet.Group{
			Category: g.Category,
			Count:    g.Count,
			Routes:   g.Routes,
			SpeedMin: g.Speed[0],
			SpeedMax: g.Speed[1],
			Capacity: g.Capacity,
		}
		if g.Bounds != nil {
			grp.Bounds = geo.BBox{
				Min: geo.Coordinate{Lat: g.Bounds.Min[0], Lon: g.Bounds.Min[1]},
				Max: geo.Coordinate{Lat: g.Bounds.Max[0], Lon: g.Bounds.Max[1]},
			}
		}
		cfg.Groups = append(cfg.Groups, grp)
	}
	return cfg
}

// Visibility returns the initial filter state. Unknown category names are
// ignored.
func (s *Scenario) Visibility() map[fleet.Category]bool {
	out := make(map[fleet.Category]bool, len(s.Visible))
	for name, v := range s.Visible {
		if c, ok := fleet.ParseCategory(name); ok {
			out[c] = v
		}
	}
	return out
}
