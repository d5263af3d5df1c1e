// Package weather defines the canonical weather reading returned to the orchestrator.
package weather

// Status is the coarse sky condition.
type Status string

const (
	Clear  Status = "clear"
	Cloudy Status = "cloudy"
	Rainy  Status = "rainy"
	Snowy  Status = "snowy"
)

// Source tells whether the reading came from the provider or was synthesized.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// Report is always well-formed, even when the provider failed.
type Report struct {
	Location     string  `json:"location"`
	Station      string  `json:"station"`
	Date         string  `json:"date,omitempty"`
	Status       Status  `json:"status"`
	Description  string  `json:"description"`
	TemperatureC float64 `json:"temperatureC"`
	Humidity     float64 `json:"humidity"`
	WindSpeed    float64 `json:"windSpeed"`
	Rainfall     float64 `json:"rainfall"`
	Source       Source  `json:"source"`
	Error        string  `json:"error,omitempty"`
}

// IsOutdoorFriendly reports whether the reading suggests outdoor activities.
func (r Report) IsOutdoorFriendly() bool {
	return r.Status == Clear || r.Status == Cloudy
}

// Emoji is a short marker for the status used in composed answers.
func (r Report) Emoji() string {
	switch r.Status {
	case Rainy:
		return "🌧️"
	case Snowy:
		return "❄️"
	case Cloudy:
		return "☁️"
	default:
		return "☀️"
	}
}

// Reading is what a live provider reports before it is shaped into a Report.
type Reading struct {
	Station         string
	Status          Status
	Description     string
	RainProbability float64
}
