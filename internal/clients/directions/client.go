package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Nicola-Bdewi/smartrajet/internal/lib/geo"
)

// ErrNotConfigured is returned when the directions API key is missing.
// Route and geocode features fail fast instead of attempting the call.
var ErrNotConfigured = errors.New("directions API key is not configured")

// Client provides access to an openrouteservice-compatible directions and
// geocoding API.
//
// The provider speaks (longitude, latitude) on the wire, both in request
// parameters and in GeoJSON geometry. Everything this client returns has
// been converted to the internal (latitude, longitude) convention; that
// conversion happens here and nowhere else.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	geoUtils   geo.GeoUtils
}

// NewClient creates a new directions client
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		geoUtils: geo.NewGeoUtils(),
	}
}

// SetBaseURL overrides the provider endpoint, used by tests
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// Suggestion is a geocoder autocomplete candidate, already converted to the
// internal coordinate order.
type Suggestion struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Location geo.Point `json:"location"`
}

// directionsResponse covers the two geometry shapes the provider can
// return: GeoJSON features with raw coordinates, or routes with an encoded
// polyline string.
type directionsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
	Routes []struct {
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

// Route computes a driving route between two points and returns its polyline
// in internal coordinate order.
func (c *Client) Route(ctx context.Context, origin, destination geo.Point) (geo.Polyline, error) {
	if c.apiKey == "" {
		return geo.Polyline{}, ErrNotConfigured
	}

	// Request coordinates go out as lon,lat per the provider convention
	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("start", fmt.Sprintf("%f,%f", origin.Longitude, origin.Latitude))
	query.Set("end", fmt.Sprintf("%f,%f", destination.Longitude, destination.Latitude))
	query.Set("geometry_format", "geojson")

	endpoint := c.baseURL + "/v2/directions/driving-car?" + query.Encode()

	var response directionsResponse
	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		return geo.Polyline{}, fmt.Errorf("route request failed: %w", err)
	}

	points, err := c.extractGeometry(response)
	if err != nil {
		return geo.Polyline{}, err
	}
	if len(points) < 2 {
		return geo.Polyline{}, errors.New("route geometry has fewer than 2 points")
	}

	return geo.Polyline{Points: points}, nil
}

// extractGeometry pulls the route points out of whichever response shape the
// provider used, converting (lon, lat) to (lat, lon).
func (c *Client) extractGeometry(response directionsResponse) ([]geo.Point, error) {
	if len(response.Features) > 0 {
		coords := response.Features[0].Geometry.Coordinates
		points := make([]geo.Point, 0, len(coords))
		for _, coord := range coords {
			if len(coord) < 2 {
				continue
			}
			// GeoJSON order is [lon, lat]
			point, err := geo.NewPoint(coord[1], coord[0])
			if err != nil {
				return nil, fmt.Errorf("route geometry contains invalid coordinates: %w", err)
			}
			points = append(points, point)
		}
		return points, nil
	}

	if len(response.Routes) > 0 && response.Routes[0].Geometry != "" {
		points, err := c.geoUtils.DecodePolyline(response.Routes[0].Geometry)
		if err != nil {
			return nil, fmt.Errorf("failed to decode route geometry: %w", err)
		}
		return points, nil
	}

	return nil, errors.New("no route found in response")
}

// Autocomplete returns geocoder suggestions for a partial address, biased to
// the configured search area.
func (c *Client) Autocomplete(ctx context.Context, text string, center geo.Point, radiusKm float64) ([]Suggestion, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if text == "" {
		return nil, nil
	}

	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("text", text)
	query.Set("boundary.country", "CA")
	query.Set("boundary.circle.lat", fmt.Sprintf("%f", center.Latitude))
	query.Set("boundary.circle.lon", fmt.Sprintf("%f", center.Longitude))
	query.Set("boundary.circle.radius", fmt.Sprintf("%f", radiusKm))

	endpoint := c.baseURL + "/geocode/autocomplete?" + query.Encode()

	var response struct {
		Features []struct {
			Properties struct {
				ID    string `json:"id"`
				Label string `json:"label"`
			} `json:"properties"`
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		return nil, fmt.Errorf("autocomplete request failed: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(response.Features))
	for _, feature := range response.Features {
		if len(feature.Geometry.Coordinates) < 2 {
			continue
		}
		// Geocoder results are [lon, lat]
		point, err := geo.NewPoint(feature.Geometry.Coordinates[1], feature.Geometry.Coordinates[0])
		if err != nil {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			ID:       feature.Properties.ID,
			Label:    feature.Properties.Label,
			Location: point,
		})
	}

	return suggestions, nil
}

// getJSON performs a GET and decodes the JSON body into result
func (c *Client) getJSON(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errors.New("rate limit exceeded")
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
