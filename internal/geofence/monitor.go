package geofence

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/config"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/models"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/notify"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/repository"
)

// Monitor owns one monitoring session: the containment-state map, the
// periodic sweep loop, and the active-alert view. Sweeps are serialized
// on a single run loop; TriggerSweep coalesces event-driven requests
// that land while a sweep is running into one pending re-run.
type Monitor struct {
	cfg        config.MonitorConfig
	boundaries repository.BoundaryRepository
	entities   repository.EntityRepository
	alerts     repository.AlertRepository
	notifier   *notify.Broadcaster

	track   *tracker
	trigger chan struct{}
	wg      sync.WaitGroup

	mu     sync.Mutex
	active []models.GeofenceAlert
}

func NewMonitor(cfg config.MonitorConfig, boundaries repository.BoundaryRepository, entities repository.EntityRepository, alerts repository.AlertRepository, notifier *notify.Broadcaster) *Monitor {
	return &Monitor{
		cfg:        cfg,
		boundaries: boundaries,
		entities:   entities,
		alerts:     alerts,
		notifier:   notifier,
		track:      newTracker(),
		trigger:    make(chan struct{}, 1),
	}
}

func (m *Monitor) Start(ctx context.Context) {
	if !m.cfg.Enabled {
		slog.Info("geofence monitoring disabled")
		return
	}

	m.wg.Add(1)
	go m.run(ctx)
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()
	slog.Info("starting geofence monitor", "interval", m.cfg.SweepInterval, "dedup_window", m.cfg.DedupWindow)

	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	// Initial sweep
	m.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("geofence monitor shutting down")
			return
		case <-ticker.C:
			m.Sweep(ctx)
		case <-m.trigger:
			m.Sweep(ctx)
		}
	}
}

// TriggerSweep requests an event-driven re-sweep, typically after a
// position report was persisted. A request arriving while a sweep runs
// is folded into a single pending one.
func (m *Monitor) TriggerSweep() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

func (m *Monitor) Stop() {
	m.wg.Wait()
	slog.Info("geofence monitor stopped")
}

// Sweep runs one full pass: classify every candidate entity against
// the boundary, detect inside-to-outside transitions, and create
// alerts for them. A missing boundary or any read failure skips the
// cycle without touching recorded state.
func (m *Monitor) Sweep(ctx context.Context) {
	if !m.cfg.Enabled {
		return
	}

	boundary, err := m.boundaries.GetBoundary(ctx)
	if err != nil {
		slog.Error("boundary fetch failed, skipping sweep", "error", err)
		return
	}
	if !boundary.IsSet() {
		slog.Debug("no boundary configured, skipping sweep")
		return
	}

	candidates, err := m.candidates(ctx)
	if err != nil {
		slog.Error("entity listing failed, skipping sweep", "error", err)
		return
	}

	exits := 0
	for i := range candidates {
		e := &candidates[i]
		if e.Position == nil {
			// No known position: leave recorded state untouched.
			continue
		}

		inside := Contains(boundary, e.Position.Latitude, e.Position.Longitude)
		wasInside, seen := m.track.lastState(e.Key())

		if seen && wasInside && !inside {
			m.createAlertIfNovel(ctx, e, models.AlertTypeExit)
			exits++
		}
		m.track.setState(e.Key(), inside)
	}

	slog.Debug("sweep complete", "candidates", len(candidates), "tracked", m.track.size(), "exits", exits)
}

func (m *Monitor) candidates(ctx context.Context) ([]models.TrackedEntity, error) {
	vehicles, err := m.entities.ListActiveVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing vehicles: %w", err)
	}
	volunteers, err := m.entities.ListActiveVolunteers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing volunteers: %w", err)
	}
	return append(vehicles, volunteers...), nil
}

// createAlertIfNovel inserts an alert for the transition unless an
// active alert for the same entity already exists inside the dedup
// window. Insert failures are logged and swallowed; the next exit
// transition retries naturally.
func (m *Monitor) createAlertIfNovel(ctx context.Context, e *models.TrackedEntity, alertType models.AlertType) {
	// CreatedAt is stored in UTC; the lookback must be UTC too or the
	// stored-text comparison misorders across zone offsets.
	since := time.Now().UTC().Add(-m.cfg.DedupWindow)
	existing, err := m.alerts.ListAlerts(ctx, repository.AlertFilter{
		Status:       models.AlertStatusActive,
		EntityType:   e.Type,
		EntityID:     e.ID,
		CreatedAfter: &since,
	})
	if err != nil {
		slog.Error("alert dedup check failed", "entity_type", e.Type, "entity_id", e.ID, "error", err)
		return
	}
	if len(existing) > 0 {
		slog.Debug("recent active alert exists, suppressing", "entity_type", e.Type, "entity_id", e.ID)
		return
	}

	alert := models.GeofenceAlert{
		ID:          uuid.NewString(),
		EntityType:  e.Type,
		EntityID:    e.ID,
		EntityLabel: e.Label,
		Latitude:    e.Position.Latitude,
		Longitude:   e.Position.Longitude,
		AlertType:   alertType,
		Status:      models.AlertStatusActive,
		CreatedAt:   time.Now().UTC(),
	}

	if err := m.alerts.AddAlert(ctx, &alert); err != nil {
		slog.Error("failed to persist geofence alert", "entity_type", e.Type, "entity_id", e.ID, "error", err)
		return
	}

	m.mu.Lock()
	m.active = append([]models.GeofenceAlert{alert}, m.active...)
	if len(m.active) > m.cfg.ActiveAlertLimit {
		m.active = m.active[:m.cfg.ActiveAlertLimit]
	}
	m.mu.Unlock()

	slog.Info("geofence alert created", "alert_id", alert.ID, "entity_type", e.Type, "entity_id", e.ID, "alert_type", alertType)

	if m.notifier != nil {
		m.notifier.Broadcast(notify.Event{
			Kind:    notify.EventAlertCreated,
			Message: fmt.Sprintf("%s %s left the operational area", e.Type, e.Label),
			Alert:   &alert,
		})
	}
}

// FetchActiveAlerts returns the most recent active alerts, newest
// first, and replaces the monitor's in-memory active list with them.
func (m *Monitor) FetchActiveAlerts(ctx context.Context) ([]models.GeofenceAlert, error) {
	alerts, err := m.alerts.ListAlerts(ctx, repository.AlertFilter{
		Status: models.AlertStatusActive,
		Limit:  m.cfg.ActiveAlertLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing active alerts: %w", err)
	}

	m.mu.Lock()
	m.active = alerts
	m.mu.Unlock()

	return m.ActiveAlerts(), nil
}

// ActiveAlerts returns a copy of the in-memory active-alert list.
func (m *Monitor) ActiveAlerts() []models.GeofenceAlert {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.GeofenceAlert, len(m.active))
	copy(out, m.active)
	return out
}

// Acknowledge marks an active alert acknowledged. The in-memory list
// is only updated once the store confirms the transition.
func (m *Monitor) Acknowledge(ctx context.Context, id string) error {
	now := time.Now().UTC()
	if err := m.alerts.UpdateAlertStatus(ctx, id, models.AlertStatusAcknowledged, &now); err != nil {
		return fmt.Errorf("acknowledging alert %s: %w", id, err)
	}

	m.removeActive(id)

	if m.notifier != nil {
		m.notifier.Broadcast(notify.Event{
			Kind:    notify.EventAlertAcknowledged,
			Message: fmt.Sprintf("alert %s acknowledged", id),
		})
	}
	return nil
}

// Resolve marks an active alert resolved; terminal.
func (m *Monitor) Resolve(ctx context.Context, id string) error {
	if err := m.alerts.UpdateAlertStatus(ctx, id, models.AlertStatusResolved, nil); err != nil {
		return fmt.Errorf("resolving alert %s: %w", id, err)
	}

	m.removeActive(id)

	if m.notifier != nil {
		m.notifier.Broadcast(notify.Event{
			Kind:    notify.EventAlertResolved,
			Message: fmt.Sprintf("alert %s resolved", id),
		})
	}
	return nil
}

func (m *Monitor) removeActive(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.active {
		if m.active[i].ID == id {
			m.active = append(m.active[:i], m.active[i+1:]...)
			return
		}
	}
}

// IsInsideBounds classifies a coordinate against the currently stored
// boundary, fail-open when none is configured.
func (m *Monitor) IsInsideBounds(ctx context.Context, lat, lng float64) (bool, error) {
	boundary, err := m.boundaries.GetBoundary(ctx)
	if err != nil {
		return false, fmt.Errorf("loading boundary: %w", err)
	}
	return Contains(boundary, lat, lng), nil
}
