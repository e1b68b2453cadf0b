package v1

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/Nicola-Bdewi/smartrajet/internal/clients/directions"
	"github.com/Nicola-Bdewi/smartrajet/internal/lib/geo"
	"github.com/Nicola-Bdewi/smartrajet/internal/services"
	"github.com/Nicola-Bdewi/smartrajet/internal/store"
)

// Proximity threshold bounds in meters. Requests outside the range are
// clamped, not rejected.
const (
	minRadiusMeters     = 50
	maxRadiusMeters     = 600
	defaultRadiusMeters = 100
)

// ConstructionQueries is the service surface the construction endpoints use.
type ConstructionQueries interface {
	ListAll(ctx context.Context) ([]services.AnnotatedConstruction, error)
	NearbyRoute(ctx context.Context, origin, destination geo.Point, thresholdMeters float64) (*services.RouteView, error)
	Autocomplete(ctx context.Context, text string) ([]directions.Suggestion, error)
}

// AddressStore is the saved-address surface the CRUD endpoints use.
type AddressStore interface {
	List(ctx context.Context) ([]store.SavedAddress, error)
	Create(ctx context.Context, label string, lon, lat float64) (uint, error)
	UpdateLabel(ctx context.Context, id uint, label string) error
	Delete(ctx context.Context, id uint) error
}

// SweepRunner triggers a geofence sweep cycle outside its schedule.
type SweepRunner interface {
	RunSweep(ctx context.Context) error
}

type Handler struct {
	constructions ConstructionQueries
	addresses     AddressStore
	sweeper       SweepRunner
	logger        *logrus.Logger
	validate      *validator.Validate
}

func NewHandler(constructions ConstructionQueries, addresses AddressStore, sweeper SweepRunner, logger *logrus.Logger) *Handler {
	return &Handler{
		constructions: constructions,
		addresses:     addresses,
		sweeper:       sweeper,
		logger:        logger,
		validate:      validator.New(),
	}
}

func (h *Handler) listConstructions(c *gin.Context) {
	log := h.logger.WithField("method", "listConstructions")

	all, err := h.constructions.ListAll(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list constructions")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "construction data unavailable"})
		return
	}
	c.JSON(http.StatusOK, all)
}

func (h *Handler) nearbyConstructions(c *gin.Context) {
	log := h.logger.WithField("method", "nearbyConstructions")

	for _, param := range []string{"from_lat", "from_lon", "to_lat", "to_lon"} {
		if c.Query(param) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter: " + param})
			return
		}
	}

	var query NearbyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		log.WithError(err).Warn("Failed to bind query")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}
	if err := h.validate.Struct(query); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	radius := clampRadius(query.RadiusM)

	origin := geo.Point{Latitude: query.FromLat, Longitude: query.FromLon}
	destination := geo.Point{Latitude: query.ToLat, Longitude: query.ToLon}

	view, err := h.constructions.NearbyRoute(c.Request.Context(), origin, destination, radius)
	if err != nil {
		if errors.Is(err, directions.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "directions provider is not configured"})
			return
		}
		log.WithError(err).Error("Failed to compute nearby constructions")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to compute route proximity"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// clampRadius folds any requested threshold into the supported range; zero
// (parameter absent) takes the default.
func clampRadius(requested float64) float64 {
	switch {
	case requested == 0:
		return defaultRadiusMeters
	case requested < minRadiusMeters:
		return minRadiusMeters
	case requested > maxRadiusMeters:
		return maxRadiusMeters
	default:
		return requested
	}
}

func (h *Handler) autocomplete(c *gin.Context) {
	log := h.logger.WithField("method", "autocomplete")

	text := c.Query("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter: text"})
		return
	}

	suggestions, err := h.constructions.Autocomplete(c.Request.Context(), text)
	if err != nil {
		if errors.Is(err, directions.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "geocoding provider is not configured"})
			return
		}
		log.WithError(err).Error("Failed to fetch suggestions")
		c.JSON(http.StatusBadGateway, gin.H{"error": "geocoding request failed"})
		return
	}
	c.JSON(http.StatusOK, suggestions)
}

func (h *Handler) listAddresses(c *gin.Context) {
	log := h.logger.WithField("method", "listAddresses")

	addresses, err := h.addresses.List(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list addresses")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, addresses)
}

func (h *Handler) createAddress(c *gin.Context) {
	log := h.logger.WithField("method", "createAddress")

	var input CreateAddressRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.addresses.Create(c.Request.Context(), input.Label, input.Lon, input.Lat)
	if err != nil {
		log.WithError(err).Error("Failed to create address")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, CreateAddressResponse{ID: id})
}

func (h *Handler) updateAddress(c *gin.Context) {
	id, ok := h.addressID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "updateAddress").WithField("id", id)

	var input UpdateAddressRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.addresses.UpdateLabel(c.Request.Context(), id, input.Label); err != nil {
		if errors.Is(err, store.ErrAddressNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
			return
		}
		log.WithError(err).Error("Failed to update address")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) deleteAddress(c *gin.Context) {
	id, ok := h.addressID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "deleteAddress").WithField("id", id)

	if err := h.addresses.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrAddressNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
			return
		}
		log.WithError(err).Error("Failed to delete address")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addressID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address ID"})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) runSweep(c *gin.Context) {
	log := h.logger.WithField("method", "runSweep")

	if err := h.sweeper.RunSweep(c.Request.Context()); err != nil {
		log.WithError(err).Error("Manual sweep failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})
		return
	}
	c.JSON(http.StatusOK, SweepRunResponse{Started: true})
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
