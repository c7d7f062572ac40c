package fleet

import (
	"fmt"
	"strings"
)

// Category is the fixed set of transit types shown on the map. The zero
// value is not a category, so an unset field fails validation.
type Category int

const (
	Bus Category = iota + 1
	Train
	Ferry
	Taxi
)

var categories = []Category{Bus, Train, Ferry, Taxi}

// Categories returns every known category in display order.
func Categories() []Category { return append([]Category(nil), categories...) }

// Style is the per-category marker presentation.
type Style struct {
	Label string
	Icon  string
	Color string
}

func (c Category) Valid() bool { return c >= Bus && c <= Taxi }

// RouteBound reports whether vehicles of this category follow a route.
// Taxis roam freely and are never advanced by the integrator.
func (c Category) RouteBound() bool {
	switch c {
	case Bus, Train, Ferry:
		return true
	case Taxi:
		return false
	}
	panic(fmt.Sprintf("fleet: unknown category %d", int(c)))
}

func (c Category) Style() Style {
	switch c {
	case Bus:
		return Style{Label: "Bus", Icon: "bus", Color: "#2563eb"}
	case Train:
		return Style{Label: "Train", Icon: "train", Color: "#16a34a"}
	case Ferry:
		return Style{Label: "Ferry", Icon: "ship", Color: "#0891b2"}
	case Taxi:
		return Style{Label: "Taxi", Icon: "car", Color: "#eab308"}
	}
	panic(fmt.Sprintf("fleet: unknown category %d", int(c)))
}

func (c Category) String() string {
	switch c {
	case Bus:
		return "bus"
	case Train:
		return "train"
	case Ferry:
		return "ferry"
	case Taxi:
		return "taxi"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory maps a name such as "bus" to its Category.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bus":
		return Bus, true
	case "train":
		return Train, true
	case "ferry":
		return Ferry, true
	case "taxi":
		return Taxi, true
	}
	return 0, false
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown category %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	v, ok := ParseCategory(string(b))
	if !ok {
		return fmt.Errorf("unknown category %q", string(b))
	}
	*c = v
	return nil
}
