package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transport-tracker/internal/fleet"
	"transport-tracker/internal/geo"
	"transport-tracker/internal/mapview"
)

func testFleet() *fleet.Fleet {
	return fleet.NewFleet([]*fleet.Vehicle{
		{ID: "bus-1", Category: fleet.Bus, Name: "Bus 1", Color: "#00f", RouteID: "loop"},
		{ID: "bus-2", Category: fleet.Bus, Name: "Bus 2", Color: "#00f", RouteID: "loop"},
		{ID: "ferry-1", Category: fleet.Ferry, Name: "Ferry 1", RouteID: "pier"},
		{ID: "taxi-1", Category: fleet.Taxi, Name: "Taxi 1", Position: geo.Coordinate{Lat: 2, Lon: 3}},
	})
}

func ids(calls []mapview.Call) []string {
	var out []string
	for _, c := range calls {
		out = append(out, c.ID)
	}
	return out
}

func TestMount(t *testing.T) {
	rec := &mapview.Recorder{}
	f := New(rec, testFleet(), map[fleet.Category]bool{fleet.Taxi: false})

	assert.Equal(t, 3, f.Mount())
	assert.Equal(t, []string{"bus-1", "bus-2", "ferry-1"}, ids(rec.Ops(mapview.OpUpsertMarker)))
	assert.Equal(t, 3, f.VisibleCount())
	assert.False(t, f.Visible(fleet.Taxi))
	assert.True(t, f.Visible(fleet.Train))
}

func TestSetVisible_OnlyTouchesDelta(t *testing.T) {
	rec := &mapview.Recorder{}
	f := New(rec, testFleet(), nil)
	f.Mount()
	rec.Reset()

	require.True(t, f.SetVisible(fleet.Bus, false))
	assert.Equal(t, []string{"bus-1", "bus-2"}, ids(rec.Calls()))
	for _, c := range rec.Calls() {
		assert.Equal(t, mapview.OpRemoveMarker, c.Op)
	}

	rec.Reset()
	require.True(t, f.SetVisible(fleet.Bus, true))
	upserts := rec.Ops(mapview.OpUpsertMarker)
	assert.Equal(t, []string{"bus-1", "bus-2"}, ids(upserts))
	assert.Len(t, rec.Calls(), 2)
	assert.Equal(t, "bus", upserts[0].Marker.Icon)
	assert.Equal(t, "Bus 1", upserts[0].Marker.Label)
}

func TestSetVisible_NoOps(t *testing.T) {
	rec := &mapview.Recorder{}
	f := New(rec, testFleet(), nil)
	f.Mount()
	rec.Reset()

	assert.False(t, f.SetVisible(fleet.Ferry, true), "unchanged")
	assert.False(t, f.SetVisible(fleet.Category(99), false), "unknown category")
	assert.True(t, f.SetVisible(fleet.Train, false), "no trains in fleet")
	assert.Empty(t, rec.Calls())
}

func TestVisibility(t *testing.T) {
	f := New(&mapview.Recorder{}, testFleet(), map[fleet.Category]bool{fleet.Ferry: false})
	vis := f.Visibility()
	assert.Equal(t, map[string]bool{"bus": true, "train": true, "ferry": false, "taxi": true}, vis)

	vis["bus"] = false
	assert.True(t, f.Visible(fleet.Bus))

	taxi, _ := testFleet().Get("taxi-1")
	assert.True(t, f.VehicleVisible(taxi))
}
