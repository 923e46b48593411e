package repository

import (
	"context"
	"time"

	"github.com/abrezinsky/prizewheel/internal/models"
)

// TenantRepository defines tenant data operations
type TenantRepository interface {
	CreateTenant(ctx context.Context, t *models.Tenant) (int64, error)
	GetTenant(ctx context.Context, id int64) (*models.Tenant, error)
	GetTenantByEmail(ctx context.Context, email string) (*models.Tenant, error)
	UpdateTenantSettings(ctx context.Context, id int64, name, primaryColor, secondaryColor string) error
	ListTenantSummaries(ctx context.Context) ([]models.TenantSummary, error)
}

// ProjectRepository defines project data operations
type ProjectRepository interface {
	CreateProject(ctx context.Context, p *models.Project) (int64, error)
	GetProject(ctx context.Context, tenantID, id int64) (*models.Project, error)
	ListProjects(ctx context.Context, tenantID int64) ([]models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	SetProjectStatus(ctx context.Context, tenantID, id int64, status models.ProjectStatus) error
	DeleteProject(ctx context.Context, tenantID, id int64) error
}

// PrizeRepository defines prize data operations
type PrizeRepository interface {
	CreatePrize(ctx context.Context, p *models.Prize) (int64, error)
	GetPrize(ctx context.Context, tenantID, id int64) (*models.Prize, error)
	ListPrizes(ctx context.Context, scope models.Scope) ([]models.Prize, error)
	ListActivePrizes(ctx context.Context, scope models.Scope) ([]models.Prize, error)
	UpdatePrize(ctx context.Context, p *models.Prize) error
	DeletePrize(ctx context.Context, tenantID, id int64) error
}

// SpinTx is the set of operations available inside a spin transaction.
// Everything done through a SpinTx commits or rolls back together.
type SpinTx interface {
	GetProject(ctx context.Context, tenantID, id int64) (*models.Project, error)
	RecentSpinTimes(ctx context.Context, projectID int64, contact string, since time.Time) ([]time.Time, error)
	ListActivePrizes(ctx context.Context, scope models.Scope) ([]models.Prize, error)
	ConsumePrize(ctx context.Context, prizeID int64) (bool, error)
	InsertSpin(ctx context.Context, rec *models.SpinRecord) (int64, error)
}

// SpinRepository defines spin ledger and redemption operations
type SpinRepository interface {
	WithSpinTx(ctx context.Context, fn func(tx SpinTx) error) error
	RecentSpinTimes(ctx context.Context, projectID int64, contact string, since time.Time) ([]time.Time, error)
	GetSpinByToken(ctx context.Context, token string) (*models.SpinRecord, error)
	ClaimSpin(ctx context.Context, token, contact string, contactType models.ContactType, at time.Time) (bool, error)
	ListSpins(ctx context.Context, tenantID int64, projectID *int64, limit int) ([]models.SpinRecord, error)
}

// StatsRepository defines ledger aggregate queries
type StatsRepository interface {
	GetSpinStats(ctx context.Context, tenantID int64, projectID *int64, since time.Time) (*models.SpinStats, error)
	GetPlatformStats(ctx context.Context) (*models.PlatformStats, error)
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	TenantRepository
	ProjectRepository
	PrizeRepository
	SpinRepository
	StatsRepository
}

// Ensure Repository implements all interfaces
var (
	_ FullRepository = (*Repository)(nil)
	_ SpinTx         = (*spinTx)(nil)
)
