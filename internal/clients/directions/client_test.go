package directions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nicola-Bdewi/smartrajet/internal/lib/geo"
)

const geojsonDirections = `{
  "features": [
    {
      "geometry": {
        "coordinates": [
          [-73.5673, 45.5017],
          [-73.5600, 45.5050],
          [-73.5515, 45.5579]
        ]
      }
    }
  ]
}`

const encodedDirections = `{
  "routes": [
    {"geometry": "_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@"}
  ]
}`

func TestClient_Route_ConvertsAxisOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Request must carry lon,lat per the provider convention
		assert.Equal(t, "-73.567300,45.501700", r.URL.Query().Get("start"))
		assert.Equal(t, "-73.551500,45.557900", r.URL.Query().Get("end"))
		assert.NotEmpty(t, r.URL.Query().Get("api_key"))
		_, _ = w.Write([]byte(geojsonDirections))
	}))
	defer server.Close()

	client := NewClient("test-key")
	client.SetBaseURL(server.URL)

	origin := geo.Point{Latitude: 45.5017, Longitude: -73.5673}
	destination := geo.Point{Latitude: 45.5579, Longitude: -73.5515}

	route, err := client.Route(context.Background(), origin, destination)
	require.NoError(t, err)
	require.Len(t, route.Points, 3)

	// Response geometry is [lon, lat]; internal points must be (lat, lon)
	assert.Equal(t, 45.5017, route.Points[0].Latitude)
	assert.Equal(t, -73.5673, route.Points[0].Longitude)
	assert.Equal(t, 45.5579, route.Points[2].Latitude)
	assert.True(t, route.IsUsable())
}

func TestClient_Route_EncodedGeometry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(encodedDirections))
	}))
	defer server.Close()

	client := NewClient("test-key")
	client.SetBaseURL(server.URL)

	route, err := client.Route(context.Background(),
		geo.Point{Latitude: 38.5, Longitude: -120.2},
		geo.Point{Latitude: 40.7, Longitude: -120.95})
	require.NoError(t, err)
	assert.True(t, route.IsUsable())
}

func TestClient_Route_NotConfigured(t *testing.T) {
	client := NewClient("")
	_, err := client.Route(context.Background(), geo.Point{}, geo.Point{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_Route_NoRouteInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features": []}`))
	}))
	defer server.Close()

	client := NewClient("test-key")
	client.SetBaseURL(server.URL)

	_, err := client.Route(context.Background(),
		geo.Point{Latitude: 45.50, Longitude: -73.56},
		geo.Point{Latitude: 45.51, Longitude: -73.57})
	assert.Error(t, err)
}

func TestClient_Autocomplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1000 rue", r.URL.Query().Get("text"))
		assert.Equal(t, "CA", r.URL.Query().Get("boundary.country"))
		_, _ = w.Write([]byte(`{
		  "features": [
		    {
		      "properties": {"id": "addr-1", "label": "1000 rue Sherbrooke O, Montréal"},
		      "geometry": {"coordinates": [-73.5745, 45.4995]}
		    }
		  ]
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key")
	client.SetBaseURL(server.URL)

	center := geo.Point{Latitude: 45.5017, Longitude: -73.5673}
	suggestions, err := client.Autocomplete(context.Background(), "1000 rue", center, 50)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)

	assert.Equal(t, "addr-1", suggestions[0].ID)
	assert.Equal(t, 45.4995, suggestions[0].Location.Latitude)
	assert.Equal(t, -73.5745, suggestions[0].Location.Longitude)
}
