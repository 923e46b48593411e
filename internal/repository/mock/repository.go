package mock

import (
	"context"
	"sync"
	"time"

	"github.com/abrezinsky/prizewheel/internal/models"
	"github.com/abrezinsky/prizewheel/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.InsertSpinError = errors.New("database error")
//	svc := services.NewSpinService(log, mockRepo)
//	_, err := svc.Spin(ctx, req)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== Tenant Errors =====
	CreateTenantError         error
	GetTenantError            error
	GetTenantByEmailError     error
	UpdateTenantSettingsError error
	ListTenantSummariesError  error

	// ===== Project Errors =====
	CreateProjectError    error
	GetProjectError       error
	ListProjectsError     error
	UpdateProjectError    error
	SetProjectStatusError error
	DeleteProjectError    error

	// ===== Prize Errors =====
	CreatePrizeError      error
	GetPrizeError         error
	ListPrizesError       error
	ListActivePrizesError error
	UpdatePrizeError      error
	DeletePrizeError      error

	// ===== Spin Errors =====
	BeginSpinTxError     error
	RecentSpinTimesError error
	ConsumePrizeError    error
	InsertSpinError      error
	GetSpinByTokenError  error
	ClaimSpinError       error
	ListSpinsError       error

	// ConsumeMisses makes that many ConsumePrize calls report the prize as
	// already taken, as if a concurrent spin won the race.
	ConsumeMisses int

	// ===== Stats Errors =====
	GetSpinStatsError     error
	GetPlatformStatsError error

	mu           sync.Mutex
	consumeCalls int
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ConsumeCalls returns how many times ConsumePrize was invoked
func (m *Repository) ConsumeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consumeCalls
}

// ===== Tenant Methods =====

func (m *Repository) CreateTenant(ctx context.Context, t *models.Tenant) (int64, error) {
	if m.CreateTenantError != nil {
		return 0, m.CreateTenantError
	}
	return m.FullRepository.CreateTenant(ctx, t)
}

func (m *Repository) GetTenant(ctx context.Context, id int64) (*models.Tenant, error) {
	if m.GetTenantError != nil {
		return nil, m.GetTenantError
	}
	return m.FullRepository.GetTenant(ctx, id)
}

func (m *Repository) GetTenantByEmail(ctx context.Context, email string) (*models.Tenant, error) {
	if m.GetTenantByEmailError != nil {
		return nil, m.GetTenantByEmailError
	}
	return m.FullRepository.GetTenantByEmail(ctx, email)
}

func (m *Repository) UpdateTenantSettings(ctx context.Context, id int64, name, primaryColor, secondaryColor string) error {
	if m.UpdateTenantSettingsError != nil {
		return m.UpdateTenantSettingsError
	}
	return m.FullRepository.UpdateTenantSettings(ctx, id, name, primaryColor, secondaryColor)
}

func (m *Repository) ListTenantSummaries(ctx context.Context) ([]models.TenantSummary, error) {
	if m.ListTenantSummariesError != nil {
		return nil, m.ListTenantSummariesError
	}
	return m.FullRepository.ListTenantSummaries(ctx)
}

// ===== Project Methods =====

func (m *Repository) CreateProject(ctx context.Context, p *models.Project) (int64, error) {
	if m.CreateProjectError != nil {
		return 0, m.CreateProjectError
	}
	return m.FullRepository.CreateProject(ctx, p)
}

func (m *Repository) GetProject(ctx context.Context, tenantID, id int64) (*models.Project, error) {
	if m.GetProjectError != nil {
		return nil, m.GetProjectError
	}
	return m.FullRepository.GetProject(ctx, tenantID, id)
}

func (m *Repository) ListProjects(ctx context.Context, tenantID int64) ([]models.Project, error) {
	if m.ListProjectsError != nil {
		return nil, m.ListProjectsError
	}
	return m.FullRepository.ListProjects(ctx, tenantID)
}

func (m *Repository) UpdateProject(ctx context.Context, p *models.Project) error {
	if m.UpdateProjectError != nil {
		return m.UpdateProjectError
	}
	return m.FullRepository.UpdateProject(ctx, p)
}

func (m *Repository) SetProjectStatus(ctx context.Context, tenantID, id int64, status models.ProjectStatus) error {
	if m.SetProjectStatusError != nil {
		return m.SetProjectStatusError
	}
	return m.FullRepository.SetProjectStatus(ctx, tenantID, id, status)
}

func (m *Repository) DeleteProject(ctx context.Context, tenantID, id int64) error {
	if m.DeleteProjectError != nil {
		return m.DeleteProjectError
	}
	return m.FullRepository.DeleteProject(ctx, tenantID, id)
}

// ===== Prize Methods =====

func (m *Repository) CreatePrize(ctx context.Context, p *models.Prize) (int64, error) {
	if m.CreatePrizeError != nil {
		return 0, m.CreatePrizeError
	}
	return m.FullRepository.CreatePrize(ctx, p)
}

func (m *Repository) GetPrize(ctx context.Context, tenantID, id int64) (*models.Prize, error) {
	if m.GetPrizeError != nil {
		return nil, m.GetPrizeError
	}
	return m.FullRepository.GetPrize(ctx, tenantID, id)
}

func (m *Repository) ListPrizes(ctx context.Context, scope models.Scope) ([]models.Prize, error) {
	if m.ListPrizesError != nil {
		return nil, m.ListPrizesError
	}
	return m.FullRepository.ListPrizes(ctx, scope)
}

func (m *Repository) ListActivePrizes(ctx context.Context, scope models.Scope) ([]models.Prize, error) {
	if m.ListActivePrizesError != nil {
		return nil, m.ListActivePrizesError
	}
	return m.FullRepository.ListActivePrizes(ctx, scope)
}

func (m *Repository) UpdatePrize(ctx context.Context, p *models.Prize) error {
	if m.UpdatePrizeError != nil {
		return m.UpdatePrizeError
	}
	return m.FullRepository.UpdatePrize(ctx, p)
}

func (m *Repository) DeletePrize(ctx context.Context, tenantID, id int64) error {
	if m.DeletePrizeError != nil {
		return m.DeletePrizeError
	}
	return m.FullRepository.DeletePrize(ctx, tenantID, id)
}

// ===== Spin Methods =====

func (m *Repository) WithSpinTx(ctx context.Context, fn func(tx repository.SpinTx) error) error {
	if m.BeginSpinTxError != nil {
		return m.BeginSpinTxError
	}
	return m.FullRepository.WithSpinTx(ctx, func(tx repository.SpinTx) error {
		return fn(&spinTx{SpinTx: tx, m: m})
	})
}

func (m *Repository) RecentSpinTimes(ctx context.Context, projectID int64, contact string, since time.Time) ([]time.Time, error) {
	if m.RecentSpinTimesError != nil {
		return nil, m.RecentSpinTimesError
	}
	return m.FullRepository.RecentSpinTimes(ctx, projectID, contact, since)
}

func (m *Repository) GetSpinByToken(ctx context.Context, token string) (*models.SpinRecord, error) {
	if m.GetSpinByTokenError != nil {
		return nil, m.GetSpinByTokenError
	}
	return m.FullRepository.GetSpinByToken(ctx, token)
}

func (m *Repository) ClaimSpin(ctx context.Context, token, contact string, contactType models.ContactType, at time.Time) (bool, error) {
	if m.ClaimSpinError != nil {
		return false, m.ClaimSpinError
	}
	return m.FullRepository.ClaimSpin(ctx, token, contact, contactType, at)
}

func (m *Repository) ListSpins(ctx context.Context, tenantID int64, projectID *int64, limit int) ([]models.SpinRecord, error) {
	if m.ListSpinsError != nil {
		return nil, m.ListSpinsError
	}
	return m.FullRepository.ListSpins(ctx, tenantID, projectID, limit)
}

// ===== Stats Methods =====

func (m *Repository) GetSpinStats(ctx context.Context, tenantID int64, projectID *int64, since time.Time) (*models.SpinStats, error) {
	if m.GetSpinStatsError != nil {
		return nil, m.GetSpinStatsError
	}
	return m.FullRepository.GetSpinStats(ctx, tenantID, projectID, since)
}

func (m *Repository) GetPlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	if m.GetPlatformStatsError != nil {
		return nil, m.GetPlatformStatsError
	}
	return m.FullRepository.GetPlatformStats(ctx)
}

// spinTx injects errors into operations made inside a spin transaction
type spinTx struct {
	repository.SpinTx
	m *Repository
}

func (t *spinTx) GetProject(ctx context.Context, tenantID, id int64) (*models.Project, error) {
	if t.m.GetProjectError != nil {
		return nil, t.m.GetProjectError
	}
	return t.SpinTx.GetProject(ctx, tenantID, id)
}

func (t *spinTx) RecentSpinTimes(ctx context.Context, projectID int64, contact string, since time.Time) ([]time.Time, error) {
	if t.m.RecentSpinTimesError != nil {
		return nil, t.m.RecentSpinTimesError
	}
	return t.SpinTx.RecentSpinTimes(ctx, projectID, contact, since)
}

func (t *spinTx) ListActivePrizes(ctx context.Context, scope models.Scope) ([]models.Prize, error) {
	if t.m.ListActivePrizesError != nil {
		return nil, t.m.ListActivePrizesError
	}
	return t.SpinTx.ListActivePrizes(ctx, scope)
}

func (t *spinTx) ConsumePrize(ctx context.Context, prizeID int64) (bool, error) {
	t.m.mu.Lock()
	t.m.consumeCalls++
	miss := t.m.ConsumeMisses > 0
	if miss {
		t.m.ConsumeMisses--
	}
	t.m.mu.Unlock()

	if t.m.ConsumePrizeError != nil {
		return false, t.m.ConsumePrizeError
	}
	if miss {
		return false, nil
	}
	return t.SpinTx.ConsumePrize(ctx, prizeID)
}

func (t *spinTx) InsertSpin(ctx context.Context, rec *models.SpinRecord) (int64, error) {
	if t.m.InsertSpinError != nil {
		return 0, t.m.InsertSpinError
	}
	return t.SpinTx.InsertSpin(ctx, rec)
}

// Ensure mock Repository implements FullRepository
var _ repository.FullRepository = (*Repository)(nil)
