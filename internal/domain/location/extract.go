package location

// Extract resolves the first location in text using the default gazetteer.
func Extract(text string) (Location, bool) {
	return defaultGazetteer.Resolve(text)
}

// ResolveStation maps free text to a KMA station code and the resolved location.
// Unresolvable text gets DefaultStation and a zero Location.
func ResolveStation(text string) (string, Location) {
	loc, ok := defaultGazetteer.Resolve(text)
	if !ok {
		return DefaultStation, Location{}
	}
	return Station(loc), loc
}
