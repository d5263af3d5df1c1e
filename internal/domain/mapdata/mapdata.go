// Package mapdata turns facility documents into a marker set for the client map.
package mapdata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/outing/internal/domain/facility"
	"github.com/kailas-cloud/outing/internal/domain/geo"
)

// FallbackCenter is Seoul City Hall.
var FallbackCenter = geo.Point{Lat: 37.5665, Lng: 126.9780}

// ErrNoCoordinates is the diagnostic set on an empty marker set.
const ErrNoCoordinates = "no facility with coordinates"

const directionsURL = "https://map.kakao.com/link/to/%s,%v,%v"

// Marker is a single pin.
type Marker struct {
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Description string  `json:"desc"`
}

// MarkerSet is what the client renders.
type MarkerSet struct {
	Center  geo.Point `json:"center"`
	Markers []Marker  `json:"markers"`
	Link    string    `json:"link"`
	// RadiusMeters is the farthest marker distance from Center, for zoom selection.
	RadiusMeters float64 `json:"radiusMeters"`
	Error        string  `json:"error,omitempty"`
}

// IsEmpty reports whether no marker resolved.
func (m MarkerSet) IsEmpty() bool { return len(m.Markers) == 0 }

// BuildMarkers extracts coordinates from each document, skipping those without a usable pair.
// It never fails: zero markers yields FallbackCenter and a diagnostic.
func BuildMarkers(docs []facility.Document) MarkerSet {
	markers := make([]Marker, 0, len(docs))
	points := make([]geo.Point, 0, len(docs))
	for _, d := range docs {
		lat, lng, ok := Coordinates(d)
		if !ok {
			continue
		}
		name := d.Name()
		if name == "" {
			name = "Unknown"
		}
		markers = append(markers, Marker{Name: name, Lat: lat, Lng: lng, Description: describe(d)})
		points = append(points, geo.Point{Lat: lat, Lng: lng})
	}

	center, ok := geo.Centroid(points)
	if !ok {
		return MarkerSet{Center: FallbackCenter, Markers: []Marker{}, Error: ErrNoCoordinates}
	}

	var radius float64
	for _, p := range points {
		if d := geo.Haversine(center, p); d > radius {
			radius = d
		}
	}

	first := markers[0]
	return MarkerSet{
		Center:       center,
		Markers:      markers,
		Link:         DirectionsLink(first.Name, first.Lat, first.Lng),
		RadiusMeters: geo.Round(radius, 0),
	}
}

// DirectionsLink builds a Kakao Map directions URL.
func DirectionsLink(name string, lat, lng float64) string {
	return fmt.Sprintf(directionsURL, name, lat, lng)
}

// Coordinates resolves latitude and longitude from numeric fields first, then string
// metadata, trying each known alias in order.
func Coordinates(d facility.Document) (lat, lng float64, ok bool) {
	lat, latOK := lookup(d, facility.LatitudeKeys)
	lng, lngOK := lookup(d, facility.LongitudeKeys)
	if !latOK || !lngOK {
		return 0, 0, false
	}
	if !geo.ValidateCoordinates(lat, lng) {
		return 0, 0, false
	}
	return lat, lng, true
}

func lookup(d facility.Document, keys []string) (float64, bool) {
	for _, k := range keys {
		if v, ok := d.Numerics[k]; ok {
			return v, true
		}
	}
	for _, k := range keys {
		raw, ok := d.Metadata[k]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err == nil {
			return v, true
		}
	}
	return 0, false
}

func describe(d facility.Document) string {
	parts := make([]string, 0, 2)
	if c := d.Category(); c != "" {
		parts = append(parts, c)
	}
	if r := d.Region(); r != "" {
		parts = append(parts, r)
	}
	return strings.Join(parts, " · ")
}
