package location

import (
	"sort"
	"strings"
	"unicode/utf8"
)

type alias struct {
	key string
	loc Location
}

type suffixRule struct {
	suffixes []string
	keyword  string
	loc      Location
}

type districtEntry struct {
	key  string
	city string
	name string
}

// Gazetteer is an ordered, deterministic lookup over layered place tables.
// The first layer that matches wins; there is no scoring across layers.
type Gazetteer struct {
	districts     []districtEntry
	cities        []alias
	neighborhoods []alias
	landmarks     []alias
	universities  []alias
	aliases       []alias
	corrections   []alias
	suffixRules   []suffixRule
}

var defaultGazetteer = NewGazetteer()

// NewGazetteer builds a gazetteer from the bundled tables.
func NewGazetteer() *Gazetteer {
	g := &Gazetteer{
		neighborhoods: sortAliases(neighborhoods),
		landmarks:     sortAliases(landmarks),
		universities:  sortAliases(universities),
		aliases:       sortAliases(aliases),
		corrections:   sortAliases(corrections),
		suffixRules:   suffixRules,
	}

	var cityAliases []alias
	for _, c := range cities {
		cityAliases = append(cityAliases, alias{normalize(c.name), Location{City: c.name}})
		for _, a := range c.aliases {
			cityAliases = append(cityAliases, alias{normalize(a), Location{City: c.name}})
		}
	}
	g.cities = sortAliases(cityAliases)

	// Iterate cities in declaration order so ties resolve the same way every run.
	for _, c := range cities {
		for _, d := range districts[c.name] {
			g.districts = append(g.districts, districtEntry{key: d, city: c.name, name: d})
			if noStem[d] {
				continue
			}
			stem := strings.TrimRight(d, "구시군")
			if utf8.RuneCountInString(stem) >= 2 {
				g.districts = append(g.districts, districtEntry{key: stem, city: c.name, name: d})
			}
		}
	}
	sort.SliceStable(g.districts, func(i, j int) bool {
		return utf8.RuneCountInString(g.districts[i].key) > utf8.RuneCountInString(g.districts[j].key)
	})
	return g
}

// Resolve finds the first location mentioned in text. Relative phrases ("근처", "여기")
// never resolve on their own.
func (g *Gazetteer) Resolve(text string) (Location, bool) {
	s := normalize(text)
	if s == "" {
		return Location{}, false
	}
	for _, fp := range falsePositives {
		s = strings.ReplaceAll(s, fp, " ")
	}

	if loc, ok := g.matchAdministrative(s); ok {
		return loc, true
	}
	for _, layer := range [][]alias{g.neighborhoods, g.landmarks, g.universities, g.aliases, g.corrections} {
		if loc, ok := firstMatch(layer, s); ok {
			return loc, true
		}
	}
	for _, r := range g.suffixRules {
		if !strings.Contains(s, r.keyword) {
			continue
		}
		for _, suf := range r.suffixes {
			if strings.Contains(s, suf) {
				return r.loc, true
			}
		}
	}
	return Location{}, false
}

// matchAdministrative checks district names, then city names. When both match, a district
// belonging to the matched city is preferred, so "부산 중구" is not read as Seoul's 중구.
func (g *Gazetteer) matchAdministrative(s string) (Location, bool) {
	city, cityOK := firstMatch(g.cities, s)

	var first *districtEntry
	for i := range g.districts {
		d := &g.districts[i]
		if !strings.Contains(s, d.key) {
			continue
		}
		if !cityOK || d.city == city.City {
			return Location{City: d.city, District: d.name}, true
		}
		if first == nil {
			first = d
		}
	}
	if cityOK {
		return city, true
	}
	if first != nil {
		return Location{City: first.city, District: first.name}, true
	}
	return Location{}, false
}

// MentionsRelative reports whether text refers to "near here" style places.
func MentionsRelative(text string) bool {
	s := normalize(text)
	for _, p := range relativePhrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// Station maps a location to its KMA station code. Unknown locations get DefaultStation.
func Station(l Location) string {
	if code, ok := stations[l.District]; ok && l.District != "" {
		return code
	}
	if code, ok := stations[l.City]; ok {
		return code
	}
	return DefaultStation
}

func firstMatch(table []alias, s string) (Location, bool) {
	for _, a := range table {
		if strings.Contains(s, a.key) {
			return a.loc, true
		}
	}
	return Location{}, false
}

// sortAliases orders a table longest key first; equal lengths keep declaration order.
func sortAliases(in []alias) []alias {
	out := make([]alias, len(in))
	for i, a := range in {
		out[i] = alias{key: normalize(a.key), loc: a.loc}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i].key) > utf8.RuneCountInString(out[j].key)
	})
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
