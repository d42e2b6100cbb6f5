package markerscmd

import (
	"encoding/json"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestMessageValidation(t *testing.T) {
	cases := []struct {
		name    string
		msg     interface{ Validate() error }
		wantErr bool
	}{
		{name: "add ok", msg: AddMarkerCommand{MapID: "world", Lat: 1, Long: 2}},
		{name: "add blank map", msg: AddMarkerCommand{MapID: "  "}, wantErr: true},
		{name: "add inverted zoom", msg: AddMarkerCommand{MapID: "world", MinZoom: ptr(5.0), MaxZoom: ptr(2.0)}, wantErr: true},
		{name: "add single bound", msg: AddMarkerCommand{MapID: "world", MinZoom: ptr(5.0)}},
		{name: "move missing marker", msg: MoveMarkerCommand{MapID: "world"}, wantErr: true},
		{name: "move ok", msg: MoveMarkerCommand{MapID: "world", MarkerID: "ID_a"}},
		{name: "update bad tooltip", msg: UpdateMarkerCommand{MapID: "world", MarkerID: "ID_a", Tooltip: ptr("sometimes")}, wantErr: true},
		{name: "update tooltip ok", msg: UpdateMarkerCommand{MapID: "world", MarkerID: "ID_a", Tooltip: ptr("always")}},
		{name: "update zoom conflict", msg: UpdateMarkerCommand{MapID: "world", MarkerID: "ID_a", ClearZoom: true, MinZoom: ptr(1.0)}, wantErr: true},
		{name: "delete ok", msg: DeleteMarkerCommand{MapID: "world", MarkerID: "ID_a"}},
		{name: "delete missing map", msg: DeleteMarkerCommand{MarkerID: "ID_a"}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestMessageTypes(t *testing.T) {
	types := map[string]string{
		AddMarkerCommand{}.Type():    "maps.markers.add",
		MoveMarkerCommand{}.Type():   "maps.markers.move",
		UpdateMarkerCommand{}.Type(): "maps.markers.update",
		DeleteMarkerCommand{}.Type(): "maps.markers.delete",
	}
	for got, want := range types {
		if got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	}
}

func TestAddMarkerCommandDecodesMarkerType(t *testing.T) {
	var msg AddMarkerCommand
	if err := json.Unmarshal([]byte(`{"map_id":"world","type":"castle","lat":1,"long":2}`), &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.MarkerType != "castle" || msg.Type() != "maps.markers.add" {
		t.Fatalf("unexpected message %+v (%s)", msg, msg.Type())
	}
}
