package overlays

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/goliatone/go-mapblocks/internal/geo"
)

func TestFromLength(t *testing.T) {
	o, err := FromLength("ov-1", "blue", geo.LatLng{Lat: 10, Lng: 20}, "5 km", "test overlay", "group-1")
	if err != nil {
		t.Fatalf("FromLength: %v", err)
	}
	if o.RadiusMeters() != 5000 || o.GroupID() != "group-1" || o.Mutable() {
		t.Fatalf("unexpected overlay %+v", o.Properties())
	}
	if _, err := FromLength("", "blue", geo.LatLng{}, "bogus", "", ""); err == nil {
		t.Fatalf("expected distance error")
	}
}

func TestPropertiesRoundTrip(t *testing.T) {
	original := New(Properties{Color: "red", Loc: geo.LatLng{Lat: 1, Lng: 2}, Radius: 3, Unit: "mi", Description: "x", Mutable: true})
	encoded, err := json.Marshal(original.Properties())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Properties
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(New(decoded).Properties(), original.Properties()) {
		t.Fatalf("round trip mismatch")
	}
}

func TestContainsAndPolygon(t *testing.T) {
	o, err := FromLength("", "blue", geo.LatLng{Lat: 51.5, Lng: -0.12}, "1 km", "", "")
	if err != nil {
		t.Fatalf("FromLength: %v", err)
	}
	if !o.Contains(geo.LatLng{Lat: 51.501, Lng: -0.12}) {
		t.Fatalf("expected nearby point inside")
	}
	if o.Contains(geo.LatLng{Lat: 52, Lng: -0.12}) {
		t.Fatalf("expected distant point outside")
	}
	poly, err := o.Polygon()
	if err != nil {
		t.Fatalf("Polygon: %v", err)
	}
	if poly.IsEmpty() {
		t.Fatalf("expected polygon geometry")
	}
}
