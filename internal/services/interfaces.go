package services

import (
	"context"

	"github.com/abrezinsky/prizewheel/internal/models"
)

// SpinServicer defines the interface for public wheel operations
type SpinServicer interface {
	GetWheel(ctx context.Context, tenantID int64, projectID *int64) (*Wheel, error)
	CheckEligibility(ctx context.Context, req SpinRequest) (*Eligibility, error)
	Spin(ctx context.Context, req SpinRequest) (*SpinResult, error)
	SetBroadcaster(b Broadcaster)
}

// RedemptionServicer defines the interface for redemption operations
type RedemptionServicer interface {
	GetRedemption(ctx context.Context, token string) (*Redemption, error)
	Claim(ctx context.Context, token, contact string) (*Redemption, error)
}

// TenantServicer defines the interface for tenant account operations
type TenantServicer interface {
	Signup(ctx context.Context, in Signup) (*models.Tenant, error)
	Login(ctx context.Context, email, password string) (*models.Tenant, error)
	GetTenant(ctx context.Context, id int64) (*models.Tenant, error)
	UpdateSettings(ctx context.Context, id int64, settings TenantSettings) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]models.TenantSummary, error)
}

// ProjectServicer defines the interface for project operations
type ProjectServicer interface {
	ListProjects(ctx context.Context, tenantID int64) ([]models.Project, error)
	GetProject(ctx context.Context, tenantID, id int64) (*models.Project, error)
	CreateProject(ctx context.Context, tenantID int64, in Project) (*models.Project, error)
	UpdateProject(ctx context.Context, tenantID, id int64, in Project) (*models.Project, error)
	SetStatus(ctx context.Context, tenantID, id int64, status models.ProjectStatus) (*models.Project, error)
	DeleteProject(ctx context.Context, tenantID, id int64) error
}

// PrizeServicer defines the interface for prize operations
type PrizeServicer interface {
	ListPrizes(ctx context.Context, tenantID int64, projectID *int64) ([]models.Prize, error)
	GetPrize(ctx context.Context, tenantID, id int64) (*models.Prize, error)
	CreatePrize(ctx context.Context, tenantID int64, in Prize) (*models.Prize, error)
	UpdatePrize(ctx context.Context, tenantID, id int64, in Prize) (*models.Prize, error)
	DeletePrize(ctx context.Context, tenantID, id int64) error
}

// StatsServicer defines the interface for ledger reporting
type StatsServicer interface {
	GetStats(ctx context.Context, tenantID int64, projectID *int64, days int) (*models.SpinStats, error)
	ListLeads(ctx context.Context, tenantID int64, projectID *int64, limit int) ([]models.SpinRecord, error)
	PlatformStats(ctx context.Context) (*models.PlatformStats, error)
}

// Ensure concrete types implement interfaces
var (
	_ SpinServicer       = (*SpinService)(nil)
	_ RedemptionServicer = (*RedemptionService)(nil)
	_ TenantServicer     = (*TenantService)(nil)
	_ ProjectServicer    = (*ProjectService)(nil)
	_ PrizeServicer      = (*PrizeService)(nil)
	_ StatsServicer      = (*StatsService)(nil)
)
