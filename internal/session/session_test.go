package session

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transport-tracker/internal/fleet"
	"transport-tracker/internal/geo"
	"transport-tracker/internal/mapview"
	"transport-tracker/internal/metrics"
	"transport-tracker/internal/route"
	"transport-tracker/internal/viewport"
)

func newTestSession(t *testing.T, interval time.Duration, m *metrics.Collector) (*Session, *mapview.Recorder) {
	t.Helper()
	table, err := route.NewTable(
		route.Route{ID: "loop", Color: "#e63946", Points: []geo.Coordinate{{Lat: 0, Lon: 0}, {Lat: 10, Lon: 0}, {Lat: 10, Lon: 10}}},
		route.Route{ID: "pier", Color: "#1d3557", Points: []geo.Coordinate{{Lat: 1, Lon: 1}, {Lat: 1, Lon: 2}}},
	)
	require.NoError(t, err)
	f := fleet.NewFleet([]*fleet.Vehicle{
		{ID: "bus-1", Category: fleet.Bus, Name: "Bus 1", RouteID: "loop", Progress: 0.5, Speed: 0.6, Position: geo.Coordinate{Lat: 5}},
		{ID: "bus-2", Category: fleet.Bus, Name: "Bus 2", RouteID: "loop", Segment: 1, Speed: 0.1, Position: geo.Coordinate{Lat: 10}},
		{ID: "ferry-1", Category: fleet.Ferry, Name: "Ferry 1", RouteID: "pier", Speed: 0.2, Position: geo.Coordinate{Lat: 1, Lon: 1}},
		{ID: "taxi-1", Category: fleet.Taxi, Name: "Taxi 1", Position: geo.Coordinate{Lat: 3, Lon: 3}},
	})

	rec := &mapview.Recorder{}
	s, err := New(Options{
		ID:            "test",
		Adapter:       rec,
		Routes:        table,
		Fleet:         f,
		Visible:       map[fleet.Category]bool{fleet.Taxi: false},
		FrameInterval: interval,
		FollowZoom:    14,
		Metrics:       m,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, rec
}

// started returns a session whose loop never ticks on its own.
func started(t *testing.T, m *metrics.Collector) (*Session, *mapview.Recorder) {
	s, rec := newTestSession(t, time.Hour, m)
	s.Start(context.Background())
	rec.Reset()
	return s, rec
}

func markerIDs(calls []mapview.Call) []string {
	var ids []string
	for _, c := range calls {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	table, err := route.NewTable(route.Route{ID: "r", Points: []geo.Coordinate{{}, {Lat: 1}}})
	require.NoError(t, err)
	_, err = New(Options{Adapter: &mapview.Recorder{}, Routes: table})
	assert.Error(t, err)
}

func TestNew_GeneratesID(t *testing.T) {
	table, err := route.NewTable(route.Route{ID: "r", Points: []geo.Coordinate{{}, {Lat: 1}}})
	require.NoError(t, err)
	s, err := New(Options{Adapter: &mapview.Recorder{}, Routes: table, Fleet: fleet.NewFleet(nil)})
	require.NoError(t, err)
	assert.Len(t, s.ID(), 36)
}

func TestStart_DrawsRoutesAndVisibleMarkers(t *testing.T) {
	s, rec := newTestSession(t, time.Hour, nil)
	s.Start(context.Background())

	routes := rec.Ops(mapview.OpSetRouteStyle)
	require.Len(t, routes, 2)
	assert.Equal(t, "loop", routes[0].ID)
	assert.False(t, routes[0].Route.Highlighted)

	assert.ElementsMatch(t, []string{"bus-1", "bus-2", "ferry-1"}, markerIDs(rec.Ops(mapview.OpUpsertMarker)))

	filters := rec.Ops(mapview.OpFilters)
	require.Len(t, filters, 1)
	assert.False(t, filters[0].Filters["taxi"])
	assert.True(t, filters[0].Filters["bus"])

	// second Start is a no-op
	rec.Reset()
	s.Start(context.Background())
	assert.Empty(t, rec.Calls())
}

func TestStart_FliesToInitialView(t *testing.T) {
	table, err := route.NewTable(route.Route{ID: "r", Points: []geo.Coordinate{{}, {Lat: 1}}})
	require.NoError(t, err)
	rec := &mapview.Recorder{}
	s, err := New(Options{
		Adapter:       rec,
		Routes:        table,
		Fleet:         fleet.NewFleet(nil),
		FrameInterval: time.Hour,
		Center:        geo.Coordinate{Lat: 47.5, Lon: 9.7},
		Zoom:          12,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	s.Start(context.Background())

	calls := rec.Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, mapview.OpFlyTo, calls[0].Op)
	assert.Equal(t, geo.Coordinate{Lat: 47.5, Lon: 9.7}, calls[0].At)
	assert.Equal(t, 12.0, calls[0].Zoom)
}

func TestStart_WithoutInitialViewKeepsCamera(t *testing.T) {
	s, rec := newTestSession(t, time.Hour, nil)
	s.Start(context.Background())
	assert.Empty(t, rec.Ops(mapview.OpFlyTo))
}

func TestTick_MovesVisibleMarkersOnly(t *testing.T) {
	s, rec := started(t, nil)

	s.Tick()

	ups := rec.Ops(mapview.OpUpsertMarker)
	assert.Equal(t, []string{"bus-1", "bus-2", "ferry-1"}, markerIDs(ups))
	// bus-1 wrapped from segment 0 at 0.5 onto segment 1 at 0.1
	assert.InDelta(t, 10, ups[0].At.Lat, 1e-9)
	assert.InDelta(t, 1, ups[0].At.Lon, 1e-9)
	assert.Empty(t, rec.Ops(mapview.OpPanTo))
}

func TestFollow_PansToPostTickPosition(t *testing.T) {
	s, rec := started(t, nil)

	s.Handle(mapview.Event{Kind: mapview.MarkerClick, VehicleID: "bus-1"})
	s.Handle(mapview.Event{Kind: mapview.ToggleFollow})
	assert.Equal(t, viewport.Following, s.State())

	fly := rec.Ops(mapview.OpFlyTo)
	require.Len(t, fly, 1)
	assert.Equal(t, geo.Coordinate{Lat: 5}, fly[0].At)
	assert.Equal(t, 14.0, fly[0].Zoom)

	rec.Reset()
	s.Tick()

	calls := rec.Calls()
	require.NotEmpty(t, calls)
	last := calls[len(calls)-1]
	assert.Equal(t, mapview.OpPanTo, last.Op)
	assert.InDelta(t, 10, last.At.Lat, 1e-9)
	assert.InDelta(t, 1, last.At.Lon, 1e-9)
}

func TestClearSelection_StopsFollowing(t *testing.T) {
	s, rec := started(t, nil)

	s.Handle(mapview.Event{Kind: mapview.MarkerClick, VehicleID: "bus-1"})
	s.Handle(mapview.Event{Kind: mapview.ToggleFollow})
	s.Handle(mapview.Event{Kind: mapview.ClearSelection})
	assert.Equal(t, viewport.Idle, s.State())

	sel := rec.Ops(mapview.OpSelection)
	require.NotEmpty(t, sel)
	assert.Nil(t, sel[len(sel)-1].Info)

	rec.Reset()
	s.Tick()
	assert.Empty(t, rec.Ops(mapview.OpPanTo))

	_, ok := s.Selection()
	assert.False(t, ok)
}

func TestClick_HighlightsRouteAndPushesPanel(t *testing.T) {
	s, rec := started(t, nil)

	s.Handle(mapview.Event{Kind: mapview.MarkerClick, VehicleID: "ferry-1"})

	styles := rec.Ops(mapview.OpSetRouteStyle)
	require.Len(t, styles, 1)
	assert.Equal(t, "pier", styles[0].ID)
	assert.True(t, styles[0].Route.Highlighted)

	sel := rec.Ops(mapview.OpSelection)
	require.Len(t, sel, 1)
	assert.Equal(t, "ferry-1", sel[0].Info.VehicleID)
	assert.False(t, sel[0].Info.Following)

	info, ok := s.Selection()
	require.True(t, ok)
	assert.Equal(t, "Ferry 1", info.Name)
}

func TestClick_UnknownVehicleIsIgnored(t *testing.T) {
	s, rec := started(t, nil)
	s.Handle(mapview.Event{Kind: mapview.MarkerClick, VehicleID: "ghost"})
	assert.Empty(t, rec.Calls())
	assert.Equal(t, viewport.Idle, s.State())
}

func TestToggleFollow_WithoutSelectionIsIgnored(t *testing.T) {
	s, rec := started(t, nil)
	s.Handle(mapview.Event{Kind: mapview.ToggleFollow})
	assert.Empty(t, rec.Calls())
}

func TestSetVisible_TouchesOnlyThatCategory(t *testing.T) {
	s, rec := started(t, nil)

	s.Handle(mapview.Event{Kind: mapview.SetVisible, Category: "bus", Visible: false})

	removed := rec.Ops(mapview.OpRemoveMarker)
	assert.Equal(t, []string{"bus-1", "bus-2"}, markerIDs(removed))
	assert.Empty(t, rec.Ops(mapview.OpUpsertMarker))
	assert.False(t, s.Visibility()["bus"])

	rec.Reset()
	s.Tick()
	assert.Equal(t, []string{"ferry-1"}, markerIDs(rec.Ops(mapview.OpUpsertMarker)))

	rec.Reset()
	s.Handle(mapview.Event{Kind: mapview.SetVisible, Category: "taxi", Visible: true})
	assert.Equal(t, []string{"taxi-1"}, markerIDs(rec.Ops(mapview.OpUpsertMarker)))
	assert.Empty(t, rec.Ops(mapview.OpRemoveMarker))
}

func TestSetVisible_UnknownOrUnchangedIsNoop(t *testing.T) {
	s, rec := started(t, nil)

	s.Handle(mapview.Event{Kind: mapview.SetVisible, Category: "zeppelin", Visible: false})
	s.Handle(mapview.Event{Kind: mapview.SetVisible, Category: "ferry", Visible: true})
	assert.Empty(t, rec.Calls())
}

func TestHover(t *testing.T) {
	s, _ := started(t, nil)

	s.Handle(mapview.Event{Kind: mapview.MarkerHover, VehicleID: "bus-2", Hover: true})
	id, ok := s.Hovered()
	require.True(t, ok)
	assert.Equal(t, "bus-2", id)

	// leaving a different marker keeps the current hover
	s.Handle(mapview.Event{Kind: mapview.MarkerHover, VehicleID: "bus-1", Hover: false})
	id, _ = s.Hovered()
	assert.Equal(t, "bus-2", id)

	s.Handle(mapview.Event{Kind: mapview.MarkerHover, VehicleID: "bus-2", Hover: false})
	_, ok = s.Hovered()
	assert.False(t, ok)

	s.Handle(mapview.Event{Kind: mapview.MarkerHover, VehicleID: "ghost", Hover: true})
	_, ok = s.Hovered()
	assert.False(t, ok)
}

func TestClose_SilencesAdapter(t *testing.T) {
	m := metrics.NewCollector(time.Hour)
	s, rec := started(t, m)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Sessions))

	s.Close()
	s.Close()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Sessions))

	s.Tick()
	s.Handle(mapview.Event{Kind: mapview.MarkerClick, VehicleID: "bus-1"})
	assert.Empty(t, rec.Calls())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DroppedCalls.WithLabelValues(mapview.OpUpsertMarker)))

	assert.False(t, s.Post(mapview.Event{Kind: mapview.ClearSelection}))
}

func TestPost_RunsOnLoop(t *testing.T) {
	s, rec := newTestSession(t, 5*time.Millisecond, nil)
	s.Start(context.Background())

	require.True(t, s.Post(mapview.Event{Kind: mapview.MarkerClick, VehicleID: "bus-2"}))
	require.True(t, s.Post(mapview.Event{Kind: mapview.ToggleFollow}))

	require.Eventually(t, func() bool {
		return s.State() == viewport.Following && len(rec.Ops(mapview.OpPanTo)) > 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestMetrics(t *testing.T) {
	m := metrics.NewCollector(time.Hour)
	s, _ := started(t, m)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FleetSize.WithLabelValues("bus")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.VisibleMarkers))

	s.Handle(mapview.Event{Kind: mapview.MarkerClick, VehicleID: "bus-1"})
	s.Handle(mapview.Event{Kind: mapview.ToggleFollow})
	s.Tick()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FollowPans))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Selections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues("markerClick")))
	// 3 at mount, 3 on the tick
	assert.Equal(t, 6.0, testutil.ToFloat64(m.AdapterCalls.WithLabelValues(mapview.OpUpsertMarker)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdapterCalls.WithLabelValues(mapview.OpFlyTo)))

	s.Handle(mapview.Event{Kind: mapview.SetVisible, Category: "ferry", Visible: false})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.VisibleMarkers))
}
