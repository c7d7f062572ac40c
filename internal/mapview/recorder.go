package mapview

import (
	"sync"

	"transport-tracker/internal/geo"
)

// Call is one recorded adapter invocation.
type Call struct {
	Op      string
	ID      string
	At      geo.Coordinate
	Zoom    float64
	Marker  MarkerStyle
	Route   RouteStyle
	Info    *SelectionInfo
	Filters map[string]bool
}

// Recorder is an in-memory Adapter and PanelSink.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

func (r *Recorder) add(c Call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}

func (r *Recorder) UpsertMarker(id string, at geo.Coordinate, style MarkerStyle) {
	r.add(Call{Op: OpUpsertMarker, ID: id, At: at, Marker: style})
}

func (r *Recorder) RemoveMarker(id string) { r.add(Call{Op: OpRemoveMarker, ID: id}) }

func (r *Recorder) SetRouteStyle(routeID string, style RouteStyle) {
	r.add(Call{Op: OpSetRouteStyle, ID: routeID, Route: style})
}

func (r *Recorder) PanTo(at geo.Coordinate) { r.add(Call{Op: OpPanTo, At: at}) }

func (r *Recorder) FlyTo(at geo.Coordinate, zoom float64) {
	r.add(Call{Op: OpFlyTo, At: at, Zoom: zoom})
}

func (r *Recorder) ShowSelection(info *SelectionInfo) { r.add(Call{Op: OpSelection, Info: info}) }

func (r *Recorder) ShowFilters(visible map[string]bool) {
	r.add(Call{Op: OpFilters, Filters: visible})
}

// Calls returns a copy of everything recorded so far.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Ops returns the calls with the given op.
func (r *Recorder) Ops(op string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}
