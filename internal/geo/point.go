// Package geo holds the latitude/longitude point shared by reports and
// attachments and its Postgres and GeoJSON encodings.
package geo

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"

	geojson "github.com/paulmach/go.geojson"
)

// ErrInvalidPoint is returned for coordinates outside the WGS84 range or
// unparseable encodings.
var ErrInvalidPoint = errors.New("invalid point")

// Point is a WGS84 coordinate.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Validate checks the coordinate ranges.
func (p Point) Validate() error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidPoint, p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidPoint, p.Longitude)
	}
	return nil
}

// Geometry returns the point as a GeoJSON geometry ([lng, lat] order).
func (p Point) Geometry() *geojson.Geometry {
	return geojson.NewPointGeometry([]float64{p.Longitude, p.Latitude})
}

// FromGeometry converts a GeoJSON Point geometry.
func FromGeometry(g *geojson.Geometry) (Point, error) {
	if g == nil || !g.IsPoint() || len(g.Point) < 2 {
		return Point{}, fmt.Errorf("%w: expected GeoJSON Point", ErrInvalidPoint)
	}
	p := Point{Longitude: g.Point[0], Latitude: g.Point[1]}
	return p, p.Validate()
}

// Value encodes the point in Postgres point syntax "(x,y)" with x as longitude.
func (p Point) Value() (driver.Value, error) {
	return "(" + strconv.FormatFloat(p.Longitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(p.Latitude, 'f', -1, 64) + ")", nil
}

// NullPoint is a nullable point column.
type NullPoint struct {
	Point Point
	Valid bool
}

// NewNullPoint wraps an optional point.
func NewNullPoint(p *Point) NullPoint {
	if p == nil {
		return NullPoint{}
	}
	return NullPoint{Point: *p, Valid: true}
}

// Ptr returns nil when the column is NULL.
func (n NullPoint) Ptr() *Point {
	if !n.Valid {
		return nil
	}
	p := n.Point
	return &p
}

// Scan implements sql.Scanner for the Postgres point text format.
func (n *NullPoint) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		n.Point, n.Valid = Point{}, false
		return nil
	case string:
		return n.parse(v)
	case []byte:
		return n.parse(string(v))
	default:
		return fmt.Errorf("%w: unsupported scan type %T", ErrInvalidPoint, src)
	}
}

// Value implements driver.Valuer.
func (n NullPoint) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Point.Value()
}

func (n *NullPoint) parse(raw string) error {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return fmt.Errorf("%w: %q", ErrInvalidPoint, raw)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidPoint, raw)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidPoint, raw)
	}
	n.Point = Point{Longitude: x, Latitude: y}
	n.Valid = true
	return nil
}
