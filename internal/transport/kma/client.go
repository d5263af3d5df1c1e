// Package kma fetches district forecasts from the KMA API Hub text endpoint.
package kma

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kailas-cloud/outing/internal/domain"
	"github.com/kailas-cloud/outing/internal/domain/weather"
)

// DefaultBaseURL is the API Hub forecast endpoint (typ01 text format).
const DefaultBaseURL = "https://apihub.kma.go.kr/api/typ01/url/fct_afs_wl.php"

// Config holds provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	RatePerSec float64
}

// Client calls the forecast endpoint with a client-side rate limit.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a KMA client. Timeout defaults to 10s, RatePerSec to 5.
func New(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Forecast is the first data row of a station's forecast.
type Forecast struct {
	Station         string
	SkyCode         string
	Precipitation   string
	Description     string
	RainProbability float64
}

// Status derives the coarse sky condition. Rain and snow win over cloud cover.
func (f Forecast) Status() weather.Status {
	switch {
	case strings.Contains(f.Description, "비") || f.Precipitation == "WB06":
		return weather.Rainy
	case strings.Contains(f.Description, "눈") || f.Precipitation == "WB07":
		return weather.Snowy
	case strings.Contains(f.Description, "흐림") || f.SkyCode == "4":
		return weather.Cloudy
	case strings.Contains(f.Description, "구름") || f.SkyCode == "2" || f.SkyCode == "3":
		return weather.Cloudy
	default:
		return weather.Clear
	}
}

// ErrMalformed marks a response that could not be parsed.
var ErrMalformed = errors.New("kma: malformed response")

// Fetch returns the forecast for station. All failures wrap domain.ErrWeatherUnavailable.
func (c *Client) Fetch(ctx context.Context, station string) (Forecast, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Forecast{}, fmt.Errorf("rate limit: %v: %w", err, domain.ErrWeatherUnavailable)
	}

	q := url.Values{}
	q.Set("stn", station)
	q.Set("authKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return Forecast{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Forecast{}, fmt.Errorf("kma request: %v: %w", redact(err, c.apiKey), domain.ErrWeatherUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Forecast{}, fmt.Errorf("kma HTTP %d: %w", resp.StatusCode, domain.ErrWeatherUnavailable)
	}

	f, err := Parse(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Forecast{}, fmt.Errorf("%w: %w", err, domain.ErrWeatherUnavailable)
	}
	f.Station = station
	return f, nil
}

// Current fetches the station forecast as a domain reading.
func (c *Client) Current(ctx context.Context, station string) (weather.Reading, error) {
	f, err := c.Fetch(ctx, station)
	if err != nil {
		return weather.Reading{}, err
	}
	return weather.Reading{
		Station:         f.Station,
		Status:          f.Status(),
		Description:     f.Description,
		RainProbability: f.RainProbability,
	}, nil
}

// Parse reads the whitespace-separated forecast text. Lines starting with '#' are headers.
// Columns: REG_ID TM_FC TM_EF MOD STN C SKY PRE CONF WF RN_ST.
func Parse(r io.Reader) (Forecast, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return parseRow(line)
	}
	if err := sc.Err(); err != nil {
		return Forecast{}, fmt.Errorf("read forecast: %w", err)
	}
	return Forecast{}, fmt.Errorf("no data rows: %w", ErrMalformed)
}

func parseRow(line string) (Forecast, error) {
	cols := strings.Fields(line)
	if len(cols) < 11 {
		return Forecast{}, fmt.Errorf("expected 11 columns, got %d: %w", len(cols), ErrMalformed)
	}
	prob, err := strconv.ParseFloat(cols[10], 64)
	if err != nil {
		return Forecast{}, fmt.Errorf("rain probability %q: %w", cols[10], ErrMalformed)
	}
	return Forecast{
		SkyCode:         cols[6],
		Precipitation:   cols[7],
		Description:     strings.Trim(cols[9], `"`),
		RainProbability: prob,
	}, nil
}

// redact keeps the auth key out of logged URL errors.
func redact(err error, key string) string {
	if key == "" {
		return err.Error()
	}
	return strings.ReplaceAll(err.Error(), key, "***")
}
