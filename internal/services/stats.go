package services

import (
	"context"
	"time"

	"github.com/abrezinsky/prizewheel/internal/logger"
	"github.com/abrezinsky/prizewheel/internal/models"
	"github.com/abrezinsky/prizewheel/internal/repository"
)

const (
	DefaultSpinListLimit = 100
	MaxSpinListLimit     = 1000
	MaxStatsDays         = 365
)

// StatsServiceRepository defines the repository methods needed by StatsService
type StatsServiceRepository interface {
	repository.StatsRepository
	ListSpins(ctx context.Context, tenantID int64, projectID *int64, limit int) ([]models.SpinRecord, error)
}

// StatsService reports on the spin ledger
type StatsService struct {
	log  logger.Logger
	repo StatsServiceRepository
	now  func() time.Time
}

// NewStatsService creates a new StatsService
func NewStatsService(log logger.Logger, repo StatsServiceRepository) *StatsService {
	return &StatsService{log: log, repo: repo, now: time.Now}
}

// SetClock replaces the time source (for testing)
func (s *StatsService) SetClock(now func() time.Time) {
	s.now = now
}

// GetStats aggregates the tenant's spins over the last days days.
// days <= 0 covers the whole ledger.
func (s *StatsService) GetStats(ctx context.Context, tenantID int64, projectID *int64, days int) (*models.SpinStats, error) {
	var since time.Time
	if days > 0 {
		if days > MaxStatsDays {
			days = MaxStatsDays
		}
		since = s.now().UTC().AddDate(0, 0, -days)
	}
	return s.repo.GetSpinStats(ctx, tenantID, projectID, since)
}

// ListLeads returns the tenant's most recent spins with visitor contacts
func (s *StatsService) ListLeads(ctx context.Context, tenantID int64, projectID *int64, limit int) ([]models.SpinRecord, error) {
	if limit <= 0 {
		limit = DefaultSpinListLimit
	}
	if limit > MaxSpinListLimit {
		limit = MaxSpinListLimit
	}
	return s.repo.ListSpins(ctx, tenantID, projectID, limit)
}

// PlatformStats returns totals across every tenant (platform owner view)
func (s *StatsService) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	return s.repo.GetPlatformStats(ctx)
}
