package services

import (
	"context"
	"strings"
	"time"

	"github.com/abrezinsky/prizewheel/internal/auth"
	"github.com/abrezinsky/prizewheel/internal/errors"
	"github.com/abrezinsky/prizewheel/internal/logger"
	"github.com/abrezinsky/prizewheel/internal/models"
	"github.com/abrezinsky/prizewheel/internal/repository"
)

// MinPasswordLength is the shortest accepted tenant password
const MinPasswordLength = 8

// TenantService handles tenant accounts and settings
type TenantService struct {
	log        logger.Logger
	repo       repository.TenantRepository
	ownerEmail string
	now        func() time.Time
}

// NewTenantService creates a new TenantService. A tenant signing up with
// ownerEmail becomes the platform owner.
func NewTenantService(log logger.Logger, repo repository.TenantRepository, ownerEmail string) *TenantService {
	return &TenantService{
		log:        log,
		repo:       repo,
		ownerEmail: strings.ToLower(strings.TrimSpace(ownerEmail)),
		now:        time.Now,
	}
}

// Signup holds the fields of a new tenant account
type Signup struct {
	Name     string
	Email    string
	Password string
}

// TenantSettings are the tenant's editable display settings
type TenantSettings struct {
	Name           string `json:"name"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
}

// Signup creates a tenant account
func (s *TenantService) Signup(ctx context.Context, in Signup) (*models.Tenant, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" {
		return nil, errors.Validation("name is required")
	}
	if _, kind, err := ClassifyContact(email, DefaultPhoneRegion); err != nil || kind != models.ContactEmail {
		return nil, errors.Validation("a valid email is required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, errors.Validationf("password must be at least %d characters", MinPasswordLength)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	tenant := &models.Tenant{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsOwner:      s.ownerEmail != "" && email == s.ownerEmail,
		CreatedAt:    s.now().UTC(),
	}
	id, err := s.repo.CreateTenant(ctx, tenant)
	if err != nil {
		if err == repository.ErrDuplicate {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	tenant.ID = id

	s.log.Info("Tenant signed up", "tenant_id", id, "owner", tenant.IsOwner)
	return tenant, nil
}

// Login verifies tenant credentials
func (s *TenantService) Login(ctx context.Context, email, password string) (*models.Tenant, error) {
	tenant, err := s.repo.GetTenantByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, notFoundAs(err, ErrInvalidCredentials)
	}
	if !auth.CheckPassword(tenant.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return tenant, nil
}

// GetTenant returns a tenant by ID
func (s *TenantService) GetTenant(ctx context.Context, id int64) (*models.Tenant, error) {
	tenant, err := s.repo.GetTenant(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrTenantNotFound)
	}
	return tenant, nil
}

// UpdateSettings changes the tenant's name and theme colors
func (s *TenantService) UpdateSettings(ctx context.Context, id int64, settings TenantSettings) (*models.Tenant, error) {
	name := strings.TrimSpace(settings.Name)
	if name == "" {
		return nil, errors.Validation("name is required")
	}
	if err := s.repo.UpdateTenantSettings(ctx, id, name, settings.PrimaryColor, settings.SecondaryColor); err != nil {
		return nil, notFoundAs(err, ErrTenantNotFound)
	}
	return s.GetTenant(ctx, id)
}

// ListTenants returns every tenant with usage counts (platform owner view)
func (s *TenantService) ListTenants(ctx context.Context) ([]models.TenantSummary, error) {
	return s.repo.ListTenantSummaries(ctx)
}
