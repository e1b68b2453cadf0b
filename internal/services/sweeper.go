package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Nicola-Bdewi/smartrajet/internal/lib/construction"
	"github.com/Nicola-Bdewi/smartrajet/internal/lib/geo"
	"github.com/Nicola-Bdewi/smartrajet/internal/notify"
	"github.com/Nicola-Bdewi/smartrajet/internal/store"
)

// AlertEvent is one sweep finding: a saved location with an upcoming
// obstruction inside the alert radius. Ephemeral; the alert log, not the
// event, carries the dedup state.
type AlertEvent struct {
	LocationID    uint   `json:"location_id"`
	LocationLabel string `json:"location_label"`
	PermitID      string `json:"permit_id"`
	Reason        string `json:"reason"`
	StartDate     string `json:"start_date"`
}

// AddressLister is the slice of the saved-address store the sweep consumes.
type AddressLister interface {
	List(ctx context.Context) ([]store.SavedAddress, error)
}

// AlertHistory suppresses repeat alerts for a (location, permit) pair.
type AlertHistory interface {
	Seen(ctx context.Context, locationID uint, permitID string) (bool, error)
	Mark(ctx context.Context, locationID uint, permitID string) error
}

// SnapshotProvider supplies the enriched construction set for a sweep.
type SnapshotProvider interface {
	EnrichedSnapshot(ctx context.Context) ([]construction.EnrichedConstruction, error)
}

// Sweeper runs the periodic geofence check over saved locations. At most
// one sweep executes at a time; an invocation arriving while a previous
// sweep's I/O is outstanding is skipped, not queued.
type Sweeper struct {
	snapshots    SnapshotProvider
	addresses    AddressLister
	history      AlertHistory
	notifier     notify.Notifier
	geoUtils     geo.GeoUtils
	radiusMeters float64
	logger       *logrus.Logger

	mutex    sync.Mutex
	sweeping bool
	stopChan chan struct{}
	running  bool
}

// NewSweeper creates a geofence sweeper.
func NewSweeper(snapshots SnapshotProvider, addresses AddressLister, history AlertHistory, notifier notify.Notifier, radiusMeters float64, logger *logrus.Logger) *Sweeper {
	return &Sweeper{
		snapshots:    snapshots,
		addresses:    addresses,
		history:      history,
		notifier:     notifier,
		geoUtils:     geo.NewGeoUtils(),
		radiusMeters: radiusMeters,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Sweep is the pure core: for each saved location, find the first future
// obstruction (insertion order, not nearest) within radiusMeters and emit
// at most one event for it. Same inputs, same output; no I/O, no clock
// reads, no dedup state.
func (s *Sweeper) Sweep(now time.Time, constructions []construction.EnrichedConstruction, locations []store.SavedAddress, radiusMeters float64) []AlertEvent {
	// Only obstructions that have not started yet qualify for a heads-up
	candidates := make([]construction.EnrichedConstruction, 0, len(constructions))
	for _, c := range constructions {
		if c.StartsAfter(now) {
			candidates = append(candidates, c)
		}
	}

	var events []AlertEvent
	for _, location := range locations {
		home := geo.Point{Latitude: location.Lat, Longitude: location.Lon}
		for _, c := range candidates {
			point := geo.Point{Latitude: c.Latitude, Longitude: c.Longitude}
			distance, err := s.geoUtils.PointToPoint(home, point)
			if err != nil {
				continue
			}
			if distance <= radiusMeters {
				events = append(events, AlertEvent{
					LocationID:    location.ID,
					LocationLabel: location.Label,
					PermitID:      c.PermitID,
					Reason:        c.Reason,
					StartDate:     c.StartDate,
				})
				break // at most one alert per location per sweep
			}
		}
	}

	return events
}

// RunSweep executes one full sweep cycle: snapshot, geofence check,
// dedup-gated notification dispatch. Fetch failures produce zero alerts for
// this cycle and are retried on the next one.
func (s *Sweeper) RunSweep(ctx context.Context) error {
	s.mutex.Lock()
	if s.sweeping {
		s.mutex.Unlock()
		s.logger.Warn("Sweep already in progress, skipping")
		return nil
	}
	s.sweeping = true
	s.mutex.Unlock()

	defer func() {
		s.mutex.Lock()
		s.sweeping = false
		s.mutex.Unlock()
	}()

	log := s.logger.WithFields(logrus.Fields{
		"component": "sweeper",
		"sweep_id":  uuid.NewString(),
	})

	constructions, err := s.snapshots.EnrichedSnapshot(ctx)
	if err != nil {
		log.WithError(err).Warn("Sweep skipped: dataset snapshot unavailable")
		return nil
	}

	locations, err := s.addresses.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list saved addresses: %w", err)
	}
	if len(locations) == 0 {
		log.Debug("No saved addresses, nothing to sweep")
		return nil
	}

	events := s.Sweep(time.Now(), constructions, locations, s.radiusMeters)
	log.WithFields(logrus.Fields{
		"locations": len(locations),
		"events":    len(events),
	}).Info("Sweep completed")

	for _, event := range events {
		if err := s.dispatch(ctx, log, event); err != nil {
			log.WithError(err).WithField("permit_id", event.PermitID).Warn("Failed to dispatch alert")
		}
	}

	return nil
}

// dispatch sends one alert unless the (location, permit) pair has already
// been notified.
func (s *Sweeper) dispatch(ctx context.Context, log *logrus.Entry, event AlertEvent) error {
	seen, err := s.history.Seen(ctx, event.LocationID, event.PermitID)
	if err != nil {
		return err
	}
	if seen {
		log.WithFields(logrus.Fields{
			"location_id": event.LocationID,
			"permit_id":   event.PermitID,
		}).Debug("Alert already sent, suppressing")
		return nil
	}

	title := fmt.Sprintf("Travaux près de %s", event.LocationLabel)
	body := fmt.Sprintf("%s à venir le %s", event.Reason, formatAlertDate(event.StartDate))

	if err := s.notifier.Send(ctx, title, body); err != nil {
		// Delivery is fire-and-forget; still mark the pair so a flapping
		// endpoint cannot turn one obstruction into a daily alarm
		log.WithError(err).Warn("Notification delivery failed")
	}

	return s.history.Mark(ctx, event.LocationID, event.PermitID)
}

// formatAlertDate renders a dataset date for alert text, falling back to
// the raw value when it does not parse.
func formatAlertDate(value string) string {
	if parsed, ok := construction.ParseDate(value); ok {
		return parsed.Format("2006-01-02")
	}
	return value
}

// Start begins periodic sweeps on the given interval. An initial sweep runs
// immediately; subsequent sweeps follow the ticker.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.running {
		return nil
	}
	s.running = true

	s.logger.WithField("interval", interval.String()).Info("Starting geofence sweep scheduler")
	go s.sweepLoop(ctx, interval)
	return nil
}

// Stop gracefully stops the periodic sweeps.
func (s *Sweeper) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopChan)
	s.logger.Info("Stopped geofence sweep scheduler")
}

// IsRunning returns whether the scheduler loop is active.
func (s *Sweeper) IsRunning() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.running
}

// sweepLoop runs the periodic sweep in the background.
func (s *Sweeper) sweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runScheduled(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweep scheduler stopping: context cancelled")
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.runScheduled(ctx)
		}
	}
}

// runScheduled invokes one sweep with a bounded timeout.
func (s *Sweeper) runScheduled(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if err := s.RunSweep(sweepCtx); err != nil {
		s.logger.WithError(err).Warn("Scheduled sweep failed")
	}
}
