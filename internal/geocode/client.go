// Package geocode resolves US ZIP codes to WGS84 coordinates through the
// Azure Maps search API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrGeocodeFailed is returned when a ZIP code cannot be resolved to a
// usable US coordinate, whether because the provider found no match, the
// match is outside the supported region, or the provider call itself
// failed.
var ErrGeocodeFailed = errors.New("geocoding failed")

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Continental US bounding box. Geocoder hits outside this region are
// rejected rather than fed to the proximity search.
const (
	usLatMin = 24.396308
	usLatMax = 49.384358
	usLngMin = -125.0
	usLngMax = -66.93457
)

const defaultBaseURL = "https://atlas.microsoft.com/search/address/json"

const httpTimeout = 10 * time.Second

// Client resolves ZIP codes against the Azure Maps search endpoint.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient constructs a Client with the given subscription key, pointed
// at the production Azure Maps endpoint.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// NewClientWithURL constructs a Client pointing at a custom base URL (for tests).
func NewClientWithURL(baseURL, apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

type searchResponse struct {
	Results []struct {
		Address struct {
			CountryCode string `json:"countryCode"`
		} `json:"address"`
		Position struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"position"`
	} `json:"results"`
}

// Resolve maps a ZIP code to its centroid coordinate. Every failure mode
// wraps ErrGeocodeFailed so callers can classify it with errors.Is.
func (c *Client) Resolve(ctx context.Context, zipCode string) (Coordinate, error) {
	params := url.Values{}
	params.Set("api-version", "1.0")
	params.Set("subscription-key", c.apiKey)
	params.Set("query", zipCode)
	params.Set("countrySet", "US")

	endpoint := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: building request for zip %s: %v", ErrGeocodeFailed, zipCode, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: request for zip %s: %v", ErrGeocodeFailed, zipCode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinate{}, fmt.Errorf("%w: provider returned status %d for zip %s", ErrGeocodeFailed, resp.StatusCode, zipCode)
	}

	var raw searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Coordinate{}, fmt.Errorf("%w: decoding response for zip %s: %v", ErrGeocodeFailed, zipCode, err)
	}

	for _, r := range raw.Results {
		if r.Address.CountryCode != "US" {
			continue
		}
		coord := Coordinate{Latitude: r.Position.Lat, Longitude: r.Position.Lon}
		if !coord.inSupportedRegion() {
			return Coordinate{}, fmt.Errorf("%w: zip %s resolved to %f,%f outside the supported region",
				ErrGeocodeFailed, zipCode, coord.Latitude, coord.Longitude)
		}
		return coord, nil
	}

	return Coordinate{}, fmt.Errorf("%w: no US match for zip %s", ErrGeocodeFailed, zipCode)
}

func (c Coordinate) inSupportedRegion() bool {
	return c.Latitude >= usLatMin && c.Latitude <= usLatMax &&
		c.Longitude >= usLngMin && c.Longitude <= usLngMax
}
