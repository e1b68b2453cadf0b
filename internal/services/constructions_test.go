package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nicola-Bdewi/smartrajet/internal/cache"
	"github.com/Nicola-Bdewi/smartrajet/internal/clients/directions"
	"github.com/Nicola-Bdewi/smartrajet/internal/clients/opendata"
	"github.com/Nicola-Bdewi/smartrajet/internal/config"
	"github.com/Nicola-Bdewi/smartrajet/internal/lib/construction"
	"github.com/Nicola-Bdewi/smartrajet/internal/lib/geo"
)

const obstructionsBody = `{
	"result": {
		"records": [
			{
				"id": "req-1",
				"permit_permit_id": "P-1",
				"currentstatus": "En cours",
				"duration_start_date": "2026-10-01T00:00:00",
				"reason_category": "Réseaux souterrains",
				"latitude": "45.501970",
				"longitude": "-73.567300"
			},
			{
				"id": "req-2",
				"permit_permit_id": "P-2",
				"duration_start_date": "2026-10-05",
				"reason_category": "Construction",
				"latitude": "45.600000",
				"longitude": "-73.700000"
			},
			{
				"id": "req-3",
				"permit_permit_id": "P-3",
				"latitude": "",
				"longitude": ""
			}
		]
	}
}`

const impactsBody = `{
	"result": {
		"records": [
			{"id_request": "req-1", "sidewalk_blockedtype": "Barré", "name": "Rue Sainte-Catherine"},
			{"id_request": "req-2", "stmimpact_blockedtype": "Déplacer", "name": "Boulevard Saint-Laurent"},
			{"id_request": "req-3", "name": "Rue sans coordonnées"}
		]
	}
}`

// newDatasetServer serves the two dataset endpoints, failing every request
// while fail is set.
func newDatasetServer(fail *atomic.Bool) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/entraves", func(w http.ResponseWriter, r *http.Request) {
		if fail != nil && fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(obstructionsBody))
	})
	mux.HandleFunc("/impacts", func(w http.ResponseWriter, r *http.Request) {
		if fail != nil && fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(impactsBody))
	})
	return httptest.NewServer(mux)
}

func newTestService(datasetURL string, refreshInterval time.Duration, dirClient *directions.Client) *ConstructionService {
	cfg := &config.Config{
		Datasets: config.DatasetsConfig{
			ObstructionsURL: datasetURL + "/entraves",
			ImpactsURL:      datasetURL + "/impacts",
			RefreshInterval: refreshInterval,
		},
	}
	datasets := opendata.NewClient(cfg.Datasets.ObstructionsURL, cfg.Datasets.ImpactsURL)
	if dirClient == nil {
		dirClient = directions.NewClient("")
	}
	return NewConstructionService(datasets, dirClient, cache.NewCache(), cfg, testLogger())
}

func TestEnrichedSnapshot_JoinsDatasets(t *testing.T) {
	server := newDatasetServer(nil)
	defer server.Close()

	s := newTestService(server.URL, time.Minute, nil)
	enriched, err := s.EnrichedSnapshot(context.Background())
	require.NoError(t, err)

	// req-3 has no coordinates and drops out of the join
	require.Len(t, enriched, 2)
	assert.Equal(t, "P-1", enriched[0].PermitID)
	assert.Equal(t, "Barré", enriched[0].SidewalkImpact)
	assert.Equal(t, "Rue Sainte-Catherine", enriched[0].StreetName)
	assert.InDelta(t, 45.50197, enriched[0].Latitude, 1e-6)
	assert.Equal(t, "Déplacer", enriched[1].TransitImpact)
}

func TestEnrichedSnapshot_SecondCallServedFromCache(t *testing.T) {
	var fail atomic.Bool
	server := newDatasetServer(&fail)
	defer server.Close()

	s := newTestService(server.URL, time.Minute, nil)
	ctx := context.Background()

	first, err := s.EnrichedSnapshot(ctx)
	require.NoError(t, err)

	// Source goes down; the fresh cache still answers
	fail.Store(true)
	second, err := s.EnrichedSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEnrichedSnapshot_StaleFallbackThenError(t *testing.T) {
	var fail atomic.Bool
	server := newDatasetServer(&fail)
	defer server.Close()

	s := newTestService(server.URL, 100*time.Millisecond, nil)
	ctx := context.Background()

	_, err := s.EnrichedSnapshot(ctx)
	require.NoError(t, err)

	fail.Store(true)

	// Stale but not very stale: serves the last-known-good snapshot
	time.Sleep(120 * time.Millisecond)
	enriched, err := s.EnrichedSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, enriched, 2)

	// Very stale: nothing usable left, the error surfaces
	time.Sleep(120 * time.Millisecond)
	_, err = s.EnrichedSnapshot(ctx)
	assert.Error(t, err)
}

func TestEnrichedSnapshot_EitherFetchFailingFailsRefresh(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/entraves", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(obstructionsBody))
	})
	mux.HandleFunc("/impacts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := newTestService(server.URL, time.Minute, nil)
	_, err := s.EnrichedSnapshot(context.Background())
	assert.Error(t, err, "A partial snapshot must never be produced")
}

func TestNearbyRoute_FiltersAndAnnotates(t *testing.T) {
	datasets := newDatasetServer(nil)
	defer datasets.Close()

	// Route runs north along -73.5673, passing ~30m from req-1 and far
	// from req-2
	ors := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/directions/driving-car", r.URL.Path)
		w.Write([]byte(`{"features":[{"geometry":{"coordinates":[[-73.5673,45.5010],[-73.5673,45.5030]]}}]}`))
	}))
	defer ors.Close()

	dirClient := directions.NewClient("test-key")
	dirClient.SetBaseURL(ors.URL)

	s := newTestService(datasets.URL, time.Minute, dirClient)
	origin := geo.Point{Latitude: 45.5010, Longitude: -73.5673}
	destination := geo.Point{Latitude: 45.5030, Longitude: -73.5673}

	view, err := s.NearbyRoute(context.Background(), origin, destination, 100)
	require.NoError(t, err)
	require.NotNil(t, view)

	require.Len(t, view.Constructions, 1)
	found := view.Constructions[0]
	assert.Equal(t, "P-1", found.PermitID)
	assert.Equal(t, construction.ImpactSidewalkOnly, found.Impact)
	assert.LessOrEqual(t, found.DistanceMeters, 100.0)
	assert.Len(t, view.Route.Points, 2)

	assert.Same(t, view, s.LastView())
}

func TestNearbyRoute_DirectionsFailureSurfaces(t *testing.T) {
	datasets := newDatasetServer(nil)
	defer datasets.Close()

	// No API key configured: the route fetch fails before any filtering
	s := newTestService(datasets.URL, time.Minute, nil)
	_, err := s.NearbyRoute(context.Background(),
		geo.Point{Latitude: 45.5, Longitude: -73.57},
		geo.Point{Latitude: 45.51, Longitude: -73.57}, 100)
	assert.ErrorIs(t, err, directions.ErrNotConfigured)
	assert.Nil(t, s.LastView())
}

func TestListAll_ClassifiesEveryRecord(t *testing.T) {
	server := newDatasetServer(nil)
	defer server.Close()

	s := newTestService(server.URL, time.Minute, nil)
	all, err := s.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, construction.ImpactSidewalkOnly, all[0].Impact)
	assert.Equal(t, construction.ImpactTransitOnly, all[1].Impact)
}

func TestStoreView_StaleResultDiscarded(t *testing.T) {
	s := newTestService("http://localhost", time.Minute, nil)

	older := s.requestSeq.Add(1)
	newer := s.requestSeq.Add(1)

	newView := &RouteView{}
	oldView := &RouteView{}

	// The newer pass completes first; the older one must not clobber it
	s.storeView(newView, newer)
	s.storeView(oldView, older)
	assert.Same(t, newView, s.LastView())
}
