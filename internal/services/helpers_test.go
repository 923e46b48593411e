package services_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abrezinsky/prizewheel/internal/logger"
	"github.com/abrezinsky/prizewheel/internal/models"
	"github.com/abrezinsky/prizewheel/internal/repository"
	"github.com/abrezinsky/prizewheel/internal/services"
	"github.com/abrezinsky/prizewheel/internal/testutil"
)

var testNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

// fakeClock is a settable time source shared by services under test
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: testNow} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// zeroReader always yields zero bytes so random picks land on index 0
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

// recordingBroadcaster captures broadcast spins
type recordingBroadcaster struct {
	mu    sync.Mutex
	spins []models.SpinRecord
}

func (b *recordingBroadcaster) BroadcastSpin(tenantID int64, spin models.SpinRecord) {
	b.mu.Lock()
	b.spins = append(b.spins, spin)
	b.mu.Unlock()
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.spins)
}

// fixture is a tenant with an active project in a fresh repository
type fixture struct {
	repo      *repository.Repository
	log       logger.Logger
	clock     *fakeClock
	tenantID  int64
	projectID int64
}

func newFixture(t *testing.T, rules models.SpinRules) *fixture {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()

	tenantID, err := repo.CreateTenant(ctx, &models.Tenant{
		Name: "Corner Cafe", Email: "cafe@example.com", PasswordHash: "x",
		PrimaryColor: "#112233", CreatedAt: testNow,
	})
	if err != nil {
		t.Fatalf("CreateTenant failed: %v", err)
	}
	projectID, err := repo.CreateProject(ctx, &models.Project{
		TenantID: tenantID, Name: "Launch Week", Status: models.ProjectActive,
		Rules: rules.Normalize(), CreatedAt: testNow,
	})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	return &fixture{
		repo:      repo,
		log:       logger.New(),
		clock:     newFakeClock(),
		tenantID:  tenantID,
		projectID: projectID,
	}
}

func (f *fixture) addPrize(t *testing.T, projectID *int64, name string, qty *int, behavior models.ExhaustionBehavior) int64 {
	t.Helper()
	id, err := f.repo.CreatePrize(context.Background(), &models.Prize{
		TenantID: f.tenantID, ProjectID: projectID, Name: name, Type: models.PrizeFoodItem,
		Value: decimal.Zero, Quantity: qty, IsUnlimited: qty == nil,
		ExhaustionBehavior: behavior, Status: models.PrizeActive,
	})
	if err != nil {
		t.Fatalf("CreatePrize failed: %v", err)
	}
	return id
}

func (f *fixture) spinService(repo services.SpinServiceRepository) *services.SpinService {
	svc := services.NewSpinService(f.log, repo)
	svc.SetClock(f.clock.Now)
	svc.SetRandReader(zeroReader{})
	return svc
}

func (f *fixture) projectRequest(contact string) services.SpinRequest {
	id := f.projectID
	return services.SpinRequest{TenantID: f.tenantID, ProjectID: &id, Contact: contact}
}

func (f *fixture) spinCount(t *testing.T) int {
	t.Helper()
	stats, err := f.repo.GetSpinStats(context.Background(), f.tenantID, nil, time.Time{})
	if err != nil {
		t.Fatalf("GetSpinStats failed: %v", err)
	}
	return stats.TotalSpins
}

func intPtr(v int) *int { return &v }

// randBytes returns a reader yielding the given bytes, for steering picks
func randBytes(b ...byte) *bytes.Reader { return bytes.NewReader(b) }
