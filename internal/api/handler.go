package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/geofence"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/ingestion"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/models"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/notify"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/repository"
)

// ReportSink accepts telemetry reports for asynchronous processing.
type ReportSink interface {
	Submit(r *ingestion.Report)
}

type Handler struct {
	monitor     *geofence.Monitor
	boundaries  repository.BoundaryRepository
	entities    repository.EntityRepository
	telemetry   ReportSink
	broadcaster *notify.Broadcaster
}

func NewHandler(monitor *geofence.Monitor, boundaries repository.BoundaryRepository, entities repository.EntityRepository, telemetry ReportSink, broadcaster *notify.Broadcaster) *Handler {
	return &Handler{
		monitor:     monitor,
		boundaries:  boundaries,
		entities:    entities,
		telemetry:   telemetry,
		broadcaster: broadcaster,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	r.GET("/api/alerts", h.getAlerts)
	r.POST("/api/alerts/:id/acknowledge", h.acknowledgeAlert)
	r.POST("/api/alerts/:id/resolve", h.resolveAlert)

	r.GET("/api/boundary", h.getBoundary)
	r.PUT("/api/boundary", h.putBoundary)
	r.DELETE("/api/boundary", h.deleteBoundary)
	r.GET("/api/boundary/contains", h.contains)

	r.POST("/api/telemetry/vehicles/:id", h.postVehicleTelemetry)
	r.POST("/api/telemetry/volunteers/:id", h.postVolunteerTelemetry)

	r.GET("/api/entities", h.getEntities)
	r.GET("/api/stream", h.stream)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type alertResponse struct {
	ID             string     `json:"id"`
	EntityType     string     `json:"entity_type"`
	EntityID       string     `json:"entity_id"`
	EntityLabel    string     `json:"entity_label"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	AlertType      string     `json:"alert_type"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
}

func toAlertResponses(alerts []models.GeofenceAlert) []alertResponse {
	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, alertResponse{
			ID:             a.ID,
			EntityType:     string(a.EntityType),
			EntityID:       a.EntityID,
			EntityLabel:    a.EntityLabel,
			Latitude:       a.Latitude,
			Longitude:      a.Longitude,
			AlertType:      string(a.AlertType),
			Status:         string(a.Status),
			CreatedAt:      a.CreatedAt,
			AcknowledgedAt: a.AcknowledgedAt,
		})
	}
	return out
}

func (h *Handler) getAlerts(c *gin.Context) {
	alerts, err := h.monitor.FetchActiveAlerts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch alerts",
		})
		return
	}

	resp := toAlertResponses(alerts)
	c.JSON(http.StatusOK, gin.H{
		"alerts": resp,
		"count":  len(resp),
	})
}

func (h *Handler) acknowledgeAlert(c *gin.Context) {
	id := c.Param("id")
	if err := h.monitor.Acknowledge(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrAlertNotActive) {
			c.JSON(http.StatusConflict, gin.H{"error": "alert is not active"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to acknowledge alert"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": string(models.AlertStatusAcknowledged)})
}

func (h *Handler) resolveAlert(c *gin.Context) {
	id := c.Param("id")
	if err := h.monitor.Resolve(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrAlertNotActive) {
			c.JSON(http.StatusConflict, gin.H{"error": "alert is not active"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve alert"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": string(models.AlertStatusResolved)})
}

func (h *Handler) getBoundary(c *gin.Context) {
	b, err := h.boundaries.GetBoundary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load boundary"})
		return
	}
	if !b.IsSet() {
		c.JSON(http.StatusOK, gin.H{"configured": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"configured": true,
		"southwest":  gin.H{"lat": b.SouthWest.Latitude, "lng": b.SouthWest.Longitude},
		"northeast":  gin.H{"lat": b.NorthEast.Latitude, "lng": b.NorthEast.Longitude},
	})
}

type coordinateBody struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

type boundaryBody struct {
	SouthWest coordinateBody `json:"southwest" binding:"required"`
	NorthEast coordinateBody `json:"northeast" binding:"required"`
}

func (h *Handler) putBoundary(c *gin.Context) {
	var body boundaryBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "southwest and northeast corners are required"})
		return
	}

	b := &models.OperationalBoundary{
		SouthWest: &models.Coordinates{Latitude: *body.SouthWest.Lat, Longitude: *body.SouthWest.Lng},
		NorthEast: &models.Coordinates{Latitude: *body.NorthEast.Lat, Longitude: *body.NorthEast.Lng},
	}
	if err := validateBoundary(b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.boundaries.SetBoundary(c.Request.Context(), b); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store boundary"})
		return
	}

	h.monitor.TriggerSweep()
	c.JSON(http.StatusOK, gin.H{"configured": true})
}

func (h *Handler) deleteBoundary(c *gin.Context) {
	if err := h.boundaries.ClearBoundary(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear boundary"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"configured": false})
}

func (h *Handler) contains(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query params are required"})
		return
	}

	inside, err := h.monitor.IsInsideBounds(c.Request.Context(), lat, lng)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to classify coordinate"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"inside": inside})
}

type telemetryBody struct {
	Label  string   `json:"label"`
	Status string   `json:"status" binding:"required"`
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
}

func (h *Handler) postVehicleTelemetry(c *gin.Context) {
	h.postTelemetry(c, models.EntityTypeVehicle)
}

func (h *Handler) postVolunteerTelemetry(c *gin.Context) {
	h.postTelemetry(c, models.EntityTypeVolunteer)
}

func (h *Handler) postTelemetry(c *gin.Context, entityType models.EntityType) {
	var body telemetryBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	if !validStatus(entityType, body.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + body.Status})
		return
	}

	report := &ingestion.Report{
		EntityType: entityType,
		EntityID:   c.Param("id"),
		Label:      body.Label,
		Status:     body.Status,
		ReportedAt: time.Now().UTC(),
	}
	if body.Lat != nil && body.Lng != nil {
		report.Position = &models.Coordinates{Latitude: *body.Lat, Longitude: *body.Lng}
	}

	h.telemetry.Submit(report)
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

func (h *Handler) getEntities(c *gin.Context) {
	vehicles, err := h.entities.ListActiveVehicles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list entities"})
		return
	}
	volunteers, err := h.entities.ListActiveVolunteers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list entities"})
		return
	}

	fc := toGeoJSON(append(vehicles, volunteers...))
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

// stream pushes notify events to the client as server-sent events.
func (h *Handler) stream(c *gin.Context) {
	id, ch := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Kind), ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func validateBoundary(b *models.OperationalBoundary) error {
	sw, ne := b.SouthWest, b.NorthEast
	if sw.Latitude < -90 || sw.Latitude > 90 || ne.Latitude < -90 || ne.Latitude > 90 {
		return errors.New("latitude must be between -90 and 90")
	}
	if sw.Longitude < -180 || sw.Longitude > 180 || ne.Longitude < -180 || ne.Longitude > 180 {
		return errors.New("longitude must be between -180 and 180")
	}
	// Rectangles that wrap the antimeridian are not representable by
	// the containment test and are rejected here.
	if sw.Latitude > ne.Latitude || sw.Longitude > ne.Longitude {
		return errors.New("southwest corner must be south and west of northeast corner")
	}
	return nil
}

func validStatus(entityType models.EntityType, status string) bool {
	switch entityType {
	case models.EntityTypeVehicle:
		return status == models.VehicleStatusAvailable ||
			status == models.VehicleStatusInUse ||
			status == models.VehicleStatusOffline
	case models.EntityTypeVolunteer:
		return status == models.VolunteerStatusIdle ||
			status == models.VolunteerStatusEnRoute ||
			status == models.VolunteerStatusOffDuty
	default:
		return false
	}
}
