package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/config"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/repository"
)

// Janitor purges acknowledged/resolved alerts past the retention
// window on a cron schedule. Active alerts are never touched.
type Janitor struct {
	cfg  config.JanitorConfig
	repo repository.AlertRepository
	cron *cron.Cron
}

func New(cfg config.JanitorConfig, repo repository.AlertRepository) *Janitor {
	return &Janitor{
		cfg:  cfg,
		repo: repo,
		cron: cron.New(),
	}
}

func (j *Janitor) Start() error {
	if !j.cfg.Enabled {
		slog.Info("alert janitor disabled")
		return nil
	}

	_, err := j.cron.AddFunc(j.cfg.Schedule, j.purge)
	if err != nil {
		return err
	}

	j.cron.Start()
	slog.Info("alert janitor started", "schedule", j.cfg.Schedule, "retention", j.cfg.Retention)
	return nil
}

func (j *Janitor) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Alert timestamps are stored in UTC, so the cutoff must be too.
	cutoff := time.Now().UTC().Add(-j.cfg.Retention)
	removed, err := j.repo.PurgeFinishedAlerts(ctx, cutoff)
	if err != nil {
		slog.Error("alert purge failed", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("purged finished alerts", "count", removed, "cutoff", cutoff)
	}
}

func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	slog.Info("alert janitor stopped")
}
