// Package location resolves free text to Korean administrative locations and date tokens.
//
// All callers (query classifier, weather station resolver, HTTP tool endpoints) go through
// the same ordered Gazetteer so they never disagree on a given input.
package location

import "strings"

// Location is a resolved place: a top-level city/province and an optional district (구/시/군).
// City and District use the same spelling as the facility index fields region_city/region_gu.
type Location struct {
	City     string
	District string
}

// Parse splits a location token ("서울특별시 강남구") into city and district.
func Parse(token string) Location {
	token = strings.TrimSpace(token)
	if token == "" {
		return Location{}
	}
	city, district, _ := strings.Cut(token, " ")
	return Location{City: city, District: strings.TrimSpace(district)}
}

// String returns the location token: "city" or "city district".
func (l Location) String() string {
	if l.District == "" {
		return l.City
	}
	return l.City + " " + l.District
}

// IsZero reports whether nothing was resolved.
func (l Location) IsZero() bool { return l.City == "" }

// HasDistrict reports whether the token splits into city+district.
func (l Location) HasDistrict() bool { return l.City != "" && l.District != "" }

// Label is the short human-facing name used in replies ("강남구" rather than the full token).
func (l Location) Label() string {
	if l.District != "" {
		return l.District
	}
	return l.City
}
