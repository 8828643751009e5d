// Package carbonapi fetches carbon intensity forecasts from the National
// Grid ESO carbon intensity API and aligns them to a scheduling horizon.
package carbonapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/DixonScott/battery-optimizer/core/logger"
)

// DefaultBaseURL is the public carbon intensity API endpoint.
const DefaultBaseURL = "https://api.carbonintensity.org.uk"

// Client queries the carbon intensity API.
type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

// New creates a Client. An empty baseURL selects the public API.
func New(baseURL string, log logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

type intensityResponse struct {
	Data []struct {
		From      string `json:"from"`
		Intensity struct {
			Forecast float64 `json:"forecast"`
		} `json:"intensity"`
	} `json:"data"`
}

// Forecast returns the forecast carbon intensity in g CO2/kWh for each
// horizon timestamp, matching each timestamp to the nearest settlement
// period returned by the API.
func (c *Client) Forecast(ctx context.Context, times []time.Time) ([]float64, error) {
	if len(times) == 0 {
		return nil, nil
	}
	from := times[0].UTC().Format("2006-01-02T15:04Z")
	to := times[len(times)-1].Add(30 * time.Minute).UTC().Format("2006-01-02T15:04Z")
	url := fmt.Sprintf("%s/intensity/%s/%s", c.baseURL, from, to)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build intensity request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debugf("fetching carbon intensity %s to %s", from, to)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch carbon intensity: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("carbon intensity API returned %s", resp.Status)
	}

	var body intensityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode carbon intensity response: %w", err)
	}
	if len(body.Data) == 0 {
		return nil, fmt.Errorf("carbon intensity API returned no periods")
	}

	periods := make([]time.Time, len(body.Data))
	values := make([]float64, len(body.Data))
	for i, d := range body.Data {
		ts, err := time.Parse("2006-01-02T15:04Z", d.From)
		if err != nil {
			return nil, fmt.Errorf("parse period start %q: %w", d.From, err)
		}
		periods[i] = ts
		values[i] = d.Intensity.Forecast
	}

	out := make([]float64, len(times))
	for i, ts := range times {
		out[i] = nearest(ts.UTC(), periods, values)
	}
	return out, nil
}

func nearest(ts time.Time, periods []time.Time, values []float64) float64 {
	best := 0
	bestDist := absDuration(periods[0].Sub(ts))
	for i := 1; i < len(periods); i++ {
		if d := absDuration(periods[i].Sub(ts)); d < bestDist {
			best, bestDist = i, d
		}
	}
	return values[best]
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
