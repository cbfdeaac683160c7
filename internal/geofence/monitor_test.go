package geofence

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/config"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/models"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockStore implements the boundary, entity, and alert repositories
// backing a monitor under test.
type mockStore struct {
	mu sync.Mutex

	boundary    *models.OperationalBoundary
	boundaryErr error

	vehicles   []models.TrackedEntity
	volunteers []models.TrackedEntity
	listErr    error

	alerts    map[string]*models.GeofenceAlert
	addErr    error
	updateErr error
	addCount  atomic.Int64
}

func newMockStore() *mockStore {
	return &mockStore{
		alerts: make(map[string]*models.GeofenceAlert),
	}
}

func (m *mockStore) GetBoundary(ctx context.Context) (*models.OperationalBoundary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.boundaryErr != nil {
		return nil, m.boundaryErr
	}
	if m.boundary == nil {
		return &models.OperationalBoundary{}, nil
	}
	return m.boundary, nil
}

func (m *mockStore) SetBoundary(ctx context.Context, b *models.OperationalBoundary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boundary = b
	return nil
}

func (m *mockStore) ClearBoundary(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boundary = nil
	return nil
}

func (m *mockStore) ListActiveVehicles(ctx context.Context) ([]models.TrackedEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]models.TrackedEntity(nil), m.vehicles...), nil
}

func (m *mockStore) ListActiveVolunteers(ctx context.Context) ([]models.TrackedEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]models.TrackedEntity(nil), m.volunteers...), nil
}

func (m *mockStore) UpsertEntity(ctx context.Context, e *models.TrackedEntity) error {
	return nil
}

func (m *mockStore) AddAlert(ctx context.Context, a *models.GeofenceAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	cp := *a
	m.alerts[a.ID] = &cp
	m.addCount.Add(1)
	return nil
}

func (m *mockStore) GetAlertByID(ctx context.Context, id string) (*models.GeofenceAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.alerts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (m *mockStore) ListAlerts(ctx context.Context, opts repository.AlertFilter) ([]models.GeofenceAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var results []models.GeofenceAlert
	for _, a := range m.alerts {
		if opts.Status != "" && a.Status != opts.Status {
			continue
		}
		if opts.EntityType != "" && a.EntityType != opts.EntityType {
			continue
		}
		if opts.EntityID != "" && a.EntityID != opts.EntityID {
			continue
		}
		if opts.CreatedAfter != nil && a.CreatedAt.Before(*opts.CreatedAfter) {
			continue
		}
		results = append(results, *a)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

func (m *mockStore) UpdateAlertStatus(ctx context.Context, id string, status models.AlertStatus, acknowledgedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	a, ok := m.alerts[id]
	if !ok || a.Status != models.AlertStatusActive {
		return repository.ErrAlertNotActive
	}
	a.Status = status
	if acknowledgedAt != nil {
		a.AcknowledgedAt = acknowledgedAt
	}
	return nil
}

func (m *mockStore) PurgeFinishedAlerts(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (m *mockStore) setVehicle(id, label string, pos *models.Coordinates) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.vehicles {
		if m.vehicles[i].ID == id {
			m.vehicles[i].Position = pos
			return
		}
	}
	m.vehicles = append(m.vehicles, models.TrackedEntity{
		Type:     models.EntityTypeVehicle,
		ID:       id,
		Label:    label,
		Status:   models.VehicleStatusInUse,
		Position: pos,
	})
}

func (m *mockStore) activeAlertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.alerts {
		if a.Status == models.AlertStatusActive {
			n++
		}
	}
	return n
}

func testMonitorConfig() config.MonitorConfig {
	return config.MonitorConfig{
		Enabled:          true,
		SweepInterval:    time.Minute,
		DedupWindow:      time.Hour,
		ActiveAlertLimit: 50,
	}
}

func newTestMonitor(store *mockStore) *Monitor {
	return NewMonitor(testMonitorConfig(), store, store, store, nil)
}

func coords(lat, lng float64) *models.Coordinates {
	return &models.Coordinates{Latitude: lat, Longitude: lng}
}

func TestSweep_NoBoundaryIsNoOp(t *testing.T) {
	store := newMockStore()
	store.setVehicle("V1", "Rescue 1", coords(12.90, 77.50))

	mon := newTestMonitor(store)
	mon.Sweep(context.Background())

	if got := store.addCount.Load(); got != 0 {
		t.Errorf("expected 0 alerts, got %d", got)
	}
	if mon.track.size() != 0 {
		t.Errorf("expected no state recorded without a boundary, got %d entries", mon.track.size())
	}
}

func TestSweep_FirstSightingOutsideNoAlert(t *testing.T) {
	store := newMockStore()
	store.boundary = boundary(10, 10, 20, 20)
	store.setVehicle("V1", "Rescue 1", coords(25, 15))

	mon := newTestMonitor(store)
	mon.Sweep(context.Background())

	if got := store.addCount.Load(); got != 0 {
		t.Errorf("expected 0 alerts on first sighting, got %d", got)
	}

	wasInside, seen := mon.track.lastState(models.EntityKey{Type: models.EntityTypeVehicle, ID: "V1"})
	if !seen {
		t.Fatal("expected state recorded on first sighting")
	}
	if wasInside {
		t.Error("expected wasInside=false for entity outside boundary")
	}

	// Steady state outside->outside still produces nothing.
	mon.Sweep(context.Background())
	if got := store.addCount.Load(); got != 0 {
		t.Errorf("expected 0 alerts on outside->outside, got %d", got)
	}
}

func TestSweep_ExitTransitionCreatesOneAlert(t *testing.T) {
	store := newMockStore()
	store.boundary = boundary(10, 10, 20, 20)
	store.setVehicle("V1", "Rescue 1", coords(15, 15))

	mon := newTestMonitor(store)
	ctx := context.Background()

	mon.Sweep(ctx) // first sighting, inside
	if got := store.addCount.Load(); got != 0 {
		t.Fatalf("expected 0 alerts after first sweep, got %d", got)
	}

	store.setVehicle("V1", "Rescue 1", coords(25, 15))
	mon.Sweep(ctx) // inside -> outside

	if got := store.addCount.Load(); got != 1 {
		t.Fatalf("expected exactly 1 alert on exit, got %d", got)
	}

	alerts, err := store.ListAlerts(ctx, repository.AlertFilter{Status: models.AlertStatusActive})
	if err != nil {
		t.Fatalf("ListAlerts failed: %v", err)
	}
	a := alerts[0]
	if a.AlertType != models.AlertTypeExit {
		t.Errorf("expected alert type exit, got %s", a.AlertType)
	}
	if a.EntityType != models.EntityTypeVehicle || a.EntityID != "V1" {
		t.Errorf("unexpected alert entity %s/%s", a.EntityType, a.EntityID)
	}
	if a.EntityLabel != "Rescue 1" {
		t.Errorf("expected label 'Rescue 1', got %q", a.EntityLabel)
	}
	if a.Latitude != 25 || a.Longitude != 15 {
		t.Errorf("expected alert at exit position, got (%v, %v)", a.Latitude, a.Longitude)
	}
}

func TestSweep_EntryAndSteadyStateNoAlert(t *testing.T) {
	store := newMockStore()
	store.boundary = boundary(10, 10, 20, 20)
	store.setVehicle("V1", "Rescue 1", coords(25, 15))

	mon := newTestMonitor(store)
	ctx := context.Background()

	mon.Sweep(ctx) // first sighting, outside
	store.setVehicle("V1", "Rescue 1", coords(15, 15))
	mon.Sweep(ctx) // outside -> inside
	mon.Sweep(ctx) // inside -> inside

	if got := store.addCount.Load(); got != 0 {
		t.Errorf("expected 0 alerts for entry and steady states, got %d", got)
	}

	wasInside, _ := mon.track.lastState(models.EntityKey{Type: models.EntityTypeVehicle, ID: "V1"})
	if !wasInside {
		t.Error("expected wasInside=true after re-entry")
	}
}

func TestSweep_DedupWindow(t *testing.T) {
	store := newMockStore()
	store.boundary = boundary(10, 10, 20, 20)
	store.setVehicle("V1", "Rescue 1", coords(15, 15))

	mon := newTestMonitor(store)
	ctx := context.Background()

	// Seed an active alert 10 minutes old for the same entity.
	store.AddAlert(ctx, &models.GeofenceAlert{
		ID:         "seeded",
		EntityType: models.EntityTypeVehicle,
		EntityID:   "V1",
		AlertType:  models.AlertTypeExit,
		Status:     models.AlertStatusActive,
		CreatedAt:  time.Now().Add(-10 * time.Minute),
	})
	store.addCount.Store(0)

	mon.Sweep(ctx) // first sighting, inside
	store.setVehicle("V1", "Rescue 1", coords(25, 15))
	mon.Sweep(ctx) // exit, but a recent active alert exists

	if got := store.addCount.Load(); got != 0 {
		t.Fatalf("expected dedup to suppress insert, got %d", got)
	}

	// Age the seeded alert past the window and force another exit.
	store.mu.Lock()
	store.alerts["seeded"].CreatedAt = time.Now().Add(-2 * time.Hour)
	store.mu.Unlock()

	store.setVehicle("V1", "Rescue 1", coords(15, 15))
	mon.Sweep(ctx) // back inside
	store.setVehicle("V1", "Rescue 1", coords(25, 15))
	mon.Sweep(ctx) // exit again, window elapsed

	if got := store.addCount.Load(); got != 1 {
		t.Errorf("expected insert after dedup window elapsed, got %d", got)
	}
}

func TestSweep_MissingPositionKeepsState(t *testing.T) {
	store := newMockStore()
	store.boundary = boundary(10, 10, 20, 20)
	store.setVehicle("V1", "Rescue 1", coords(15, 15))

	mon := newTestMonitor(store)
	ctx := context.Background()

	mon.Sweep(ctx) // first sighting, inside

	store.setVehicle("V1", "Rescue 1", nil)
	mon.Sweep(ctx) // no position: skipped, state untouched

	if got := store.addCount.Load(); got != 0 {
		t.Fatalf("expected 0 alerts for positionless sweep, got %d", got)
	}
	wasInside, seen := mon.track.lastState(models.EntityKey{Type: models.EntityTypeVehicle, ID: "V1"})
	if !seen || !wasInside {
		t.Fatal("expected stored state to survive a positionless sweep")
	}

	// When the position comes back outside, the exit still fires.
	store.setVehicle("V1", "Rescue 1", coords(25, 15))
	mon.Sweep(ctx)
	if got := store.addCount.Load(); got != 1 {
		t.Errorf("expected 1 alert once position returned outside, got %d", got)
	}
}

func TestSweep_ListFailureLeavesStateUntouched(t *testing.T) {
	store := newMockStore()
	store.boundary = boundary(10, 10, 20, 20)
	store.setVehicle("V1", "Rescue 1", coords(15, 15))

	mon := newTestMonitor(store)
	ctx := context.Background()

	mon.Sweep(ctx)

	store.mu.Lock()
	store.listErr = errors.New("store unavailable")
	store.mu.Unlock()
	store.setVehicle("V1", "Rescue 1", coords(25, 15))

	mon.Sweep(ctx)

	if got := store.addCount.Load(); got != 0 {
		t.Errorf("expected no alert during outage, got %d", got)
	}
	wasInside, _ := mon.track.lastState(models.EntityKey{Type: models.EntityTypeVehicle, ID: "V1"})
	if !wasInside {
		t.Error("expected state untouched by failed sweep")
	}

	// Recovery: next sweep detects the transition normally.
	store.mu.Lock()
	store.listErr = nil
	store.mu.Unlock()

	mon.Sweep(ctx)
	if got := store.addCount.Load(); got != 1 {
		t.Errorf("expected alert after recovery, got %d", got)
	}
}

func TestSweep_VolunteersAreCandidates(t *testing.T) {
	store := newMockStore()
	store.boundary = boundary(10, 10, 20, 20)
	store.volunteers = []models.TrackedEntity{{
		Type:     models.EntityTypeVolunteer,
		ID:       "P7",
		Label:    "Asha",
		Status:   models.VolunteerStatusEnRoute,
		Position: coords(15, 15),
	}}

	mon := newTestMonitor(store)
	ctx := context.Background()

	mon.Sweep(ctx)
	store.mu.Lock()
	store.volunteers[0].Position = coords(5, 15)
	store.mu.Unlock()
	mon.Sweep(ctx)

	if got := store.addCount.Load(); got != 1 {
		t.Fatalf("expected 1 volunteer exit alert, got %d", got)
	}
	alerts, _ := store.ListAlerts(ctx, repository.AlertFilter{})
	if alerts[0].EntityType != models.EntityTypeVolunteer {
		t.Errorf("expected volunteer alert, got %s", alerts[0].EntityType)
	}
}

func TestAcknowledgeAndResolveLifecycle(t *testing.T) {
	store := newMockStore()
	store.boundary = boundary(10, 10, 20, 20)
	store.setVehicle("V1", "Rescue 1", coords(15, 15))

	mon := newTestMonitor(store)
	ctx := context.Background()

	mon.Sweep(ctx)
	store.setVehicle("V1", "Rescue 1", coords(25, 15))
	mon.Sweep(ctx)

	alerts, err := mon.FetchActiveAlerts(ctx)
	if err != nil {
		t.Fatalf("FetchActiveAlerts failed: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 active alert, got %d", len(alerts))
	}
	id := alerts[0].ID

	if err := mon.Acknowledge(ctx, id); err != nil {
		t.Fatalf("Acknowledge failed: %v", err)
	}

	if len(mon.ActiveAlerts()) != 0 {
		t.Error("expected acknowledged alert removed from active list")
	}
	got, _ := store.GetAlertByID(ctx, id)
	if got.Status != models.AlertStatusAcknowledged {
		t.Errorf("expected persisted status acknowledged, got %s", got.Status)
	}
	if got.AcknowledgedAt == nil {
		t.Error("expected acknowledged_at to be stamped")
	}

	// Resolve on an already-acknowledged alert is rejected by the store.
	err = mon.Resolve(ctx, id)
	if !errors.Is(err, repository.ErrAlertNotActive) {
		t.Errorf("expected ErrAlertNotActive, got %v", err)
	}

	// Refetched active list never contains a finished alert.
	alerts, err = mon.FetchActiveAlerts(ctx)
	if err != nil {
		t.Fatalf("FetchActiveAlerts failed: %v", err)
	}
	for _, a := range alerts {
		if a.ID == id {
			t.Error("finished alert reappeared in the active list")
		}
	}
}

func TestAcknowledge_FailureLeavesListUnchanged(t *testing.T) {
	store := newMockStore()
	store.boundary = boundary(10, 10, 20, 20)
	store.setVehicle("V1", "Rescue 1", coords(15, 15))

	mon := newTestMonitor(store)
	ctx := context.Background()

	mon.Sweep(ctx)
	store.setVehicle("V1", "Rescue 1", coords(25, 15))
	mon.Sweep(ctx)

	alerts, _ := mon.FetchActiveAlerts(ctx)
	id := alerts[0].ID

	store.mu.Lock()
	store.updateErr = errors.New("write failed")
	store.mu.Unlock()

	if err := mon.Acknowledge(ctx, id); err == nil {
		t.Fatal("expected acknowledge to fail")
	}
	if len(mon.ActiveAlerts()) != 1 {
		t.Error("expected active list unchanged after failed acknowledge")
	}
}

func TestIsInsideBounds(t *testing.T) {
	store := newMockStore()
	mon := newTestMonitor(store)
	ctx := context.Background()

	// Fail-open with no boundary stored.
	inside, err := mon.IsInsideBounds(ctx, 42, 42)
	if err != nil {
		t.Fatalf("IsInsideBounds failed: %v", err)
	}
	if !inside {
		t.Error("expected fail-open result without a boundary")
	}

	store.boundary = boundary(10, 10, 20, 20)
	inside, err = mon.IsInsideBounds(ctx, 42, 42)
	if err != nil {
		t.Fatalf("IsInsideBounds failed: %v", err)
	}
	if inside {
		t.Error("expected (42, 42) outside the boundary")
	}
}

func TestMonitor_StartTriggerStop(t *testing.T) {
	store := newMockStore()
	store.boundary = boundary(10, 10, 20, 20)
	store.setVehicle("V1", "Rescue 1", coords(15, 15))

	mon := newTestMonitor(store)

	ctx, cancel := context.WithCancel(context.Background())
	mon.Start(ctx)

	// Initial sweep plus a few coalesced triggers.
	for i := 0; i < 5; i++ {
		mon.TriggerSweep()
	}
	time.Sleep(100 * time.Millisecond)

	cancel()
	mon.Stop()

	if _, seen := mon.track.lastState(models.EntityKey{Type: models.EntityTypeVehicle, ID: "V1"}); !seen {
		t.Error("expected initial sweep to have observed the vehicle")
	}
}

func TestMonitor_DisabledDoesNothing(t *testing.T) {
	store := newMockStore()
	store.boundary = boundary(10, 10, 20, 20)
	store.setVehicle("V1", "Rescue 1", coords(15, 15))

	cfg := testMonitorConfig()
	cfg.Enabled = false
	mon := NewMonitor(cfg, store, store, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mon.Start(ctx)
	mon.Sweep(ctx)
	mon.Stop()

	if mon.track.size() != 0 {
		t.Error("expected no state recorded while disabled")
	}
}

func TestSweep_DedupAcrossLocalTimezone(t *testing.T) {
	// A host clock east of UTC must not defeat the dedup lookback
	// against UTC-stored alert timestamps.
	orig := time.Local
	time.Local = time.FixedZone("UTC+5:30", 5*3600+30*60)
	t.Cleanup(func() { time.Local = orig })

	db, err := repository.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := db.SetBoundary(ctx, boundary(10, 10, 20, 20)); err != nil {
		t.Fatalf("SetBoundary failed: %v", err)
	}
	place := func(pos *models.Coordinates) {
		t.Helper()
		err := db.UpsertEntity(ctx, &models.TrackedEntity{
			Type:     models.EntityTypeVehicle,
			ID:       "V1",
			Label:    "Rescue 1",
			Status:   models.VehicleStatusInUse,
			Position: pos,
		})
		if err != nil {
			t.Fatalf("UpsertEntity failed: %v", err)
		}
	}

	mon := NewMonitor(testMonitorConfig(), db, db, db, nil)

	place(coords(15, 15))
	mon.Sweep(ctx)
	place(coords(25, 15))
	mon.Sweep(ctx) // first exit

	place(coords(15, 15))
	mon.Sweep(ctx)
	place(coords(25, 15))
	mon.Sweep(ctx) // second exit inside the dedup window

	alerts, err := db.ListAlerts(ctx, repository.AlertFilter{Status: models.AlertStatusActive})
	if err != nil {
		t.Fatalf("ListAlerts failed: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected repeated exits inside the window to produce 1 alert, got %d", len(alerts))
	}
}

func TestEndToEndScenario(t *testing.T) {
	store := newMockStore()
	store.boundary = boundary(12.70, 77.30, 13.20, 77.90)
	store.setVehicle("V1", "Rescue 1", coords(12.90, 77.50))

	mon := newTestMonitor(store)
	ctx := context.Background()

	mon.Sweep(ctx) // sweep 1: inside, first sighting
	if store.activeAlertCount() != 0 {
		t.Fatalf("expected 0 alerts after sweep 1, got %d", store.activeAlertCount())
	}

	store.setVehicle("V1", "Rescue 1", coords(12.50, 77.50))
	mon.Sweep(ctx) // sweep 2: exit detected
	if store.activeAlertCount() != 1 {
		t.Fatalf("expected 1 alert after sweep 2, got %d", store.activeAlertCount())
	}

	mon.Sweep(ctx) // sweep 3: still outside, steady state
	if store.activeAlertCount() != 1 {
		t.Fatalf("expected no new alert after sweep 3, got %d", store.activeAlertCount())
	}

	alerts, err := mon.FetchActiveAlerts(ctx)
	if err != nil {
		t.Fatalf("FetchActiveAlerts failed: %v", err)
	}
	if len(alerts) != 1 || alerts[0].AlertType != models.AlertTypeExit || alerts[0].Status != models.AlertStatusActive {
		t.Fatalf("unexpected active alerts: %+v", alerts)
	}

	if err := mon.Acknowledge(ctx, alerts[0].ID); err != nil {
		t.Fatalf("Acknowledge failed: %v", err)
	}

	alerts, err = mon.FetchActiveAlerts(ctx)
	if err != nil {
		t.Fatalf("FetchActiveAlerts failed: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("expected empty active list after acknowledge, got %d", len(alerts))
	}
}
