package mapview

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transport-tracker/internal/geo"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Event
		wantErr bool
	}{
		{name: "click", in: `{"kind":"markerClick","vehicleId":"bus-1"}`, want: Event{Kind: MarkerClick, VehicleID: "bus-1"}},
		{name: "hover", in: `{"kind":"markerHover","vehicleId":"bus-1","hover":true}`, want: Event{Kind: MarkerHover, VehicleID: "bus-1", Hover: true}},
		{name: "filter", in: `{"kind":"setVisible","category":"taxi","visible":false}`, want: Event{Kind: SetVisible, Category: "taxi"}},
		{name: "follow", in: `{"kind":"toggleFollow"}`, want: Event{Kind: ToggleFollow}},
		{name: "clear", in: `{"kind":"clearSelection"}`, want: Event{Kind: ClearSelection}},
		{name: "click without id", in: `{"kind":"markerClick"}`, wantErr: true},
		{name: "filter without category", in: `{"kind":"setVisible"}`, wantErr: true},
		{name: "unknown kind", in: `{"kind":"explode"}`, wantErr: true},
		{name: "garbage", in: `{`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEvent([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandJSON(t *testing.T) {
	b, err := json.Marshal(UpsertMarkerCommand("bus-1", geo.Coordinate{Lat: 1.5, Lon: 2}, MarkerStyle{Color: "#fff", Icon: "bus"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"upsertMarker","id":"bus-1","at":{"lat":1.5,"lon":2},"marker":{"color":"#fff","icon":"bus","label":"","bearing":0}}`, string(b))

	b, err = json.Marshal(RemoveMarkerCommand("bus-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"removeMarker","id":"bus-1"}`, string(b))
}
