package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
)

const GeoTypePoint = "Point"

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// NewPoint builds a GeoJSON point from a longitude/latitude pair.
func NewPoint(lon, lat float64) *GeoPoint {
	return &GeoPoint{Type: GeoTypePoint, Coordinates: []float64{lon, lat}}
}

// Lon returns the longitude. The point must be well-formed.
func (p GeoPoint) Lon() float64 { return p.Coordinates[0] }

// Lat returns the latitude. The point must be well-formed.
func (p GeoPoint) Lat() float64 { return p.Coordinates[1] }

// Value stores the point as its GeoJSON text.
func (p GeoPoint) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "encode geo point")
	}
	return string(b), nil
}

// Scan reads a point written by Value.
func (p *GeoPoint) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.Errorf("unsupported geo point column type %T", src)
	}
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	return errors.Wrap(json.Unmarshal(b, p), "decode geo point")
}
