package geo

import (
	"encoding/json"
	"errors"
	"testing"

	geojson "github.com/paulmach/go.geojson"
)

func TestNullPointScanAndValue(t *testing.T) {
	var n NullPoint
	if err := n.Scan([]byte("(13.4,52.52)")); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !n.Valid || n.Point.Longitude != 13.4 || n.Point.Latitude != 52.52 {
		t.Fatalf("unexpected point %+v", n)
	}
	v, err := n.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != "(13.4,52.52)" {
		t.Fatalf("unexpected value %v", v)
	}

	if err := n.Scan(nil); err != nil {
		t.Fatalf("Scan nil: %v", err)
	}
	if n.Valid || n.Ptr() != nil {
		t.Fatalf("expected NULL point")
	}
	if v, _ := n.Value(); v != nil {
		t.Fatalf("expected nil value for NULL point")
	}

	if err := n.Scan("garbage"); !errors.Is(err, ErrInvalidPoint) {
		t.Fatalf("expected ErrInvalidPoint, got %v", err)
	}
}

func TestGeometryRoundTrip(t *testing.T) {
	p := Point{Latitude: 48.85, Longitude: 2.35}
	raw, err := json.Marshal(p.Geometry())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if g.Point[0] != 2.35 || g.Point[1] != 48.85 {
		t.Fatalf("expected [lng, lat], got %v", g.Point)
	}
	back, err := FromGeometry(g)
	if err != nil {
		t.Fatalf("FromGeometry: %v", err)
	}
	if back != p {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestFromGeometryRejectsOutOfRange(t *testing.T) {
	if _, err := FromGeometry(geojson.NewPointGeometry([]float64{10, 95})); !errors.Is(err, ErrInvalidPoint) {
		t.Fatalf("expected ErrInvalidPoint, got %v", err)
	}
	if _, err := FromGeometry(geojson.NewLineStringGeometry([][]float64{{0, 0}, {1, 1}})); !errors.Is(err, ErrInvalidPoint) {
		t.Fatalf("expected ErrInvalidPoint for non-point, got %v", err)
	}
}
