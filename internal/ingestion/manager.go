package ingestion

import (
	"context"
	"log/slog"
	"time"

	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/config"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/geofence"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/models"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/repository"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/worker"
)

// Report is one inbound position/status report for a tracked entity.
type Report struct {
	EntityType models.EntityType
	EntityID   string
	Label      string
	Status     string
	Position   *models.Coordinates
	ReportedAt time.Time
}

// Manager runs telemetry intake: reports submitted from the API are
// persisted by a worker pool, and each applied report triggers an
// event-driven re-sweep on the monitor.
type Manager struct {
	cfg     *config.Config
	repo    repository.EntityRepository
	monitor *geofence.Monitor
	pool    *worker.Pool[*Report]
}

func NewManager(cfg *config.Config, repo repository.EntityRepository, monitor *geofence.Monitor) *Manager {
	return &Manager{
		cfg:     cfg,
		repo:    repo,
		monitor: monitor,
	}
}

func (m *Manager) Start(ctx context.Context) {
	processor := func(ctx context.Context, r *Report) error {
		entity := &models.TrackedEntity{
			Type:      r.EntityType,
			ID:        r.EntityID,
			Label:     r.Label,
			Status:    r.Status,
			Position:  r.Position,
			UpdatedAt: r.ReportedAt,
		}
		if entity.UpdatedAt.IsZero() {
			entity.UpdatedAt = time.Now().UTC()
		}

		if err := m.repo.UpsertEntity(ctx, entity); err != nil {
			slog.Error("error applying position report", "entity_type", r.EntityType, "entity_id", r.EntityID, "error", err)
			return err
		}

		if m.monitor != nil {
			m.monitor.TriggerSweep()
		}

		slog.Debug("position report applied", "entity_type", r.EntityType, "entity_id", r.EntityID)
		return nil
	}

	m.pool = worker.NewPool(m.cfg.Worker.Count, m.cfg.Worker.BufferSize, processor)
	m.pool.Start(ctx)
}

// Submit enqueues a report for processing.
func (m *Manager) Submit(r *Report) {
	m.pool.Submit(r)
}

func (m *Manager) Stop() {
	m.pool.Stop()
	slog.Info("telemetry manager stopped")
}
