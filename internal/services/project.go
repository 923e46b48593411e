package services

import (
	"context"
	"strings"
	"time"

	"github.com/abrezinsky/prizewheel/internal/errors"
	"github.com/abrezinsky/prizewheel/internal/logger"
	"github.com/abrezinsky/prizewheel/internal/models"
	"github.com/abrezinsky/prizewheel/internal/repository"
)

// MaxSpinsPerDay caps the per-contact daily spin limit a project may set
const MaxSpinsPerDay = 100

// ProjectService handles project campaigns
type ProjectService struct {
	log  logger.Logger
	repo repository.ProjectRepository
	now  func() time.Time
}

// NewProjectService creates a new ProjectService
func NewProjectService(log logger.Logger, repo repository.ProjectRepository) *ProjectService {
	return &ProjectService{log: log, repo: repo, now: time.Now}
}

// Project holds the editable fields of a project
type Project struct {
	Name  string
	Rules models.SpinRules
}

func (p Project) validate() (Project, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return p, errors.Validation("name is required")
	}
	if p.Rules.SpinsPerUserPerDay < 0 || p.Rules.SpinsPerUserPerDay > MaxSpinsPerDay {
		return p, errors.Validationf("spins_per_user_per_day must be between 0 and %d", MaxSpinsPerDay)
	}
	if p.Rules.EnableSpinLimit && p.Rules.SpinsPerUserPerDay == 0 {
		return p, errors.Validation("spins_per_user_per_day is required when the spin limit is enabled")
	}
	p.Rules = p.Rules.Normalize()
	return p, nil
}

// ListProjects returns the tenant's projects
func (s *ProjectService) ListProjects(ctx context.Context, tenantID int64) ([]models.Project, error) {
	return s.repo.ListProjects(ctx, tenantID)
}

// GetProject returns one of the tenant's projects
func (s *ProjectService) GetProject(ctx context.Context, tenantID, id int64) (*models.Project, error) {
	project, err := s.repo.GetProject(ctx, tenantID, id)
	if err != nil {
		return nil, notFoundAs(err, ErrProjectNotFound)
	}
	return project, nil
}

// CreateProject creates a draft project
func (s *ProjectService) CreateProject(ctx context.Context, tenantID int64, in Project) (*models.Project, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	project := &models.Project{
		TenantID:  tenantID,
		Name:      in.Name,
		Status:    models.ProjectDraft,
		Rules:     in.Rules,
		CreatedAt: s.now().UTC(),
	}
	id, err := s.repo.CreateProject(ctx, project)
	if err != nil {
		return nil, err
	}
	project.ID = id
	s.log.Info("Project created", "tenant_id", tenantID, "project_id", id)
	return project, nil
}

// UpdateProject changes a project's name and spin rules
func (s *ProjectService) UpdateProject(ctx context.Context, tenantID, id int64, in Project) (*models.Project, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	project, err := s.GetProject(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	project.Name = in.Name
	project.Rules = in.Rules
	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return nil, notFoundAs(err, ErrProjectNotFound)
	}
	return project, nil
}

// SetStatus moves a project through its lifecycle
func (s *ProjectService) SetStatus(ctx context.Context, tenantID, id int64, status models.ProjectStatus) (*models.Project, error) {
	if !status.Valid() {
		return nil, errors.Validationf("invalid status %q", status)
	}
	project, err := s.GetProject(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !project.Status.CanTransitionTo(status) {
		return nil, errors.Conflictf("cannot change status from %s to %s", project.Status, status)
	}
	if err := s.repo.SetProjectStatus(ctx, tenantID, id, status); err != nil {
		return nil, notFoundAs(err, ErrProjectNotFound)
	}
	s.log.Info("Project status changed", "tenant_id", tenantID, "project_id", id, "from", project.Status, "to", status)
	project.Status = status
	return project, nil
}

// DeleteProject removes a project and its prizes
func (s *ProjectService) DeleteProject(ctx context.Context, tenantID, id int64) error {
	return notFoundAs(s.repo.DeleteProject(ctx, tenantID, id), ErrProjectNotFound)
}
