package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/Nicola-Bdewi/smartrajet/internal/cache"
	"github.com/Nicola-Bdewi/smartrajet/internal/clients/directions"
	"github.com/Nicola-Bdewi/smartrajet/internal/clients/opendata"
	"github.com/Nicola-Bdewi/smartrajet/internal/config"
	"github.com/Nicola-Bdewi/smartrajet/internal/lib/construction"
	"github.com/Nicola-Bdewi/smartrajet/internal/lib/geo"
)

const enrichedCacheKey = "datasets:enriched"

// AnnotatedConstruction is an enriched construction with its computed
// distance to the requested route and impact category, ready for display.
type AnnotatedConstruction struct {
	construction.EnrichedConstruction
	DistanceMeters float64                     `json:"distance_m"`
	Impact         construction.ImpactCategory `json:"impact"`
}

// RouteView is the result of one interactive pass: the route geometry plus
// every construction within the requested threshold.
type RouteView struct {
	Route         geo.Polyline            `json:"route"`
	Constructions []AnnotatedConstruction `json:"constructions"`
}

// ConstructionService runs the interactive pipeline: dataset snapshot →
// enrichment → route fetch → proximity filter → classification. Each pass
// computes over its own immutable snapshot; the strict enrich-filter-classify
// ordering is the function body, not a scheduler concern.
type ConstructionService struct {
	datasets   *opendata.Client
	directions *directions.Client
	cache      *cache.Cache
	config     *config.Config
	geoUtils   geo.GeoUtils
	filter     *construction.ProximityFilter
	logger     *logrus.Logger

	// Last-request-wins bookkeeping: a completion whose sequence number is
	// no longer current must not overwrite lastView.
	requestSeq atomic.Uint64
	viewMutex  sync.RWMutex
	lastView   *RouteView
	lastSeq    uint64
}

// NewConstructionService creates the interactive pipeline service.
func NewConstructionService(datasets *opendata.Client, dirClient *directions.Client, cacheInstance *cache.Cache, cfg *config.Config, logger *logrus.Logger) *ConstructionService {
	geoUtils := geo.NewGeoUtils()
	return &ConstructionService{
		datasets:   datasets,
		directions: dirClient,
		cache:      cacheInstance,
		config:     cfg,
		geoUtils:   geoUtils,
		filter:     construction.NewProximityFilter(geoUtils),
		logger:     logger,
	}
}

// EnrichedSnapshot returns the current enriched construction set, refreshing
// from the dataset sources when the cached copy is stale. A failed refresh
// falls back to the stale-but-not-very-stale copy; only when nothing usable
// remains does the caller see an error.
func (s *ConstructionService) EnrichedSnapshot(ctx context.Context) ([]construction.EnrichedConstruction, error) {
	var cached []construction.EnrichedConstruction
	found, err := s.cache.Get(enrichedCacheKey, &cached)
	if err != nil {
		s.logger.WithError(err).Warn("Cache read error")
	}
	if found {
		return cached, nil
	}

	enriched, err := s.refreshSnapshot(ctx)
	if err != nil {
		// Serve the last-known-good snapshot while the source is down
		entry, exists, getErr := s.cache.GetWithMetadata(enrichedCacheKey, &cached)
		if getErr == nil && exists && entry != nil && !s.cache.IsVeryStale(enrichedCacheKey) {
			s.logger.WithError(err).Warn("Dataset refresh failed, serving stale snapshot")
			return cached, nil
		}
		return nil, fmt.Errorf("failed to refresh datasets: %w", err)
	}

	return enriched, nil
}

// refreshSnapshot fetches both datasets and joins them. The two fetches are
// independent; either failing fails the refresh as a whole so that a
// partially-enriched snapshot is never cached.
func (s *ConstructionService) refreshSnapshot(ctx context.Context) ([]construction.EnrichedConstruction, error) {
	log := s.logger.WithField("component", "constructions")
	log.Info("Refreshing road-work datasets")

	type fetchResult struct {
		obstructions []construction.ObstructionRecord
		impacts      []construction.ImpactRecord
		err          error
	}

	results := make(chan fetchResult, 2)
	go func() {
		obstructions, err := s.datasets.FetchObstructions(ctx)
		results <- fetchResult{obstructions: obstructions, err: err}
	}()
	go func() {
		impacts, err := s.datasets.FetchImpacts(ctx)
		results <- fetchResult{impacts: impacts, err: err}
	}()

	var obstructions []construction.ObstructionRecord
	var impacts []construction.ImpactRecord
	for i := 0; i < 2; i++ {
		r := <-results
		if r.err != nil {
			return nil, r.err
		}
		if r.obstructions != nil {
			obstructions = r.obstructions
		}
		if r.impacts != nil {
			impacts = r.impacts
		}
	}

	enriched := construction.Enrich(obstructions, impacts)
	log.WithFields(logrus.Fields{
		"obstructions": len(obstructions),
		"impacts":      len(impacts),
		"enriched":     len(enriched),
	}).Info("Dataset snapshot refreshed")

	if err := s.cache.Set(enrichedCacheKey, enriched, s.config.Datasets.RefreshInterval, "opendata"); err != nil {
		log.WithError(err).Warn("Failed to cache enriched snapshot")
	}

	if removed := s.cache.CleanupStale(); removed > 0 {
		log.WithField("removed", removed).Debug("Pruned unusable cache entries")
	}
	stats := s.cache.Stats()
	log.WithFields(logrus.Fields{
		"cache_entries": stats.TotalEntries,
		"cache_fresh":   stats.FreshEntries,
	}).Debug("Cache state after refresh")

	return enriched, nil
}

// NearbyRoute computes the constructions within thresholdMeters of the
// driving route between origin and destination. The caller is responsible
// for clamping thresholdMeters to a sane UI range.
func (s *ConstructionService) NearbyRoute(ctx context.Context, origin, destination geo.Point, thresholdMeters float64) (*RouteView, error) {
	seq := s.requestSeq.Add(1)

	enriched, err := s.EnrichedSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	route, err := s.directions.Route(ctx, origin, destination)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch route: %w", err)
	}

	nearby := s.filter.FilterByRoute(enriched, route, thresholdMeters)

	annotated := make([]AnnotatedConstruction, 0, len(nearby))
	for _, c := range nearby {
		point := geo.Point{Latitude: c.Latitude, Longitude: c.Longitude}
		distance, err := s.geoUtils.PointToPolyline(point, route)
		if err != nil {
			continue
		}
		annotated = append(annotated, AnnotatedConstruction{
			EnrichedConstruction: c,
			DistanceMeters:       distance,
			Impact:               construction.Classify(c),
		})
	}

	view := &RouteView{Route: route, Constructions: annotated}
	s.storeView(view, seq)
	return view, nil
}

// ListAll returns the full enriched set with impact categories, without any
// route filtering.
func (s *ConstructionService) ListAll(ctx context.Context) ([]AnnotatedConstruction, error) {
	enriched, err := s.EnrichedSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	annotated := make([]AnnotatedConstruction, 0, len(enriched))
	for _, c := range enriched {
		annotated = append(annotated, AnnotatedConstruction{
			EnrichedConstruction: c,
			Impact:               construction.Classify(c),
		})
	}
	return annotated, nil
}

// Autocomplete proxies geocoder suggestions, biased to the Montréal area.
func (s *ConstructionService) Autocomplete(ctx context.Context, text string) ([]directions.Suggestion, error) {
	center := geo.Point{Latitude: 45.5017, Longitude: -73.5673}
	return s.directions.Autocomplete(ctx, text, center, 50)
}

// LastView returns the most recent route view, if any. Superseded passes
// never appear here.
func (s *ConstructionService) LastView() *RouteView {
	s.viewMutex.RLock()
	defer s.viewMutex.RUnlock()
	return s.lastView
}

// storeView applies the stale-result-discard rule: an older computation
// completing after a newer one started is dropped on arrival.
func (s *ConstructionService) storeView(view *RouteView, seq uint64) {
	s.viewMutex.Lock()
	defer s.viewMutex.Unlock()

	// A newer request has started since this one: discard on arrival
	if seq < s.requestSeq.Load() || seq < s.lastSeq {
		return
	}
	s.lastView = view
	s.lastSeq = seq
}
