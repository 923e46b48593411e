package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/abrezinsky/prizewheel/internal/errors"
	"github.com/abrezinsky/prizewheel/internal/logger"
	"github.com/abrezinsky/prizewheel/internal/models"
	"github.com/abrezinsky/prizewheel/internal/repository"
)

var maxDiscount = decimal.NewFromInt(100)

// PrizeServiceRepository defines the repository methods needed by PrizeService
type PrizeServiceRepository interface {
	repository.PrizeRepository
	GetProject(ctx context.Context, tenantID, id int64) (*models.Project, error)
}

// PrizeService handles prize configuration
type PrizeService struct {
	log  logger.Logger
	repo PrizeServiceRepository
}

// NewPrizeService creates a new PrizeService
func NewPrizeService(log logger.Logger, repo PrizeServiceRepository) *PrizeService {
	return &PrizeService{log: log, repo: repo}
}

// Prize holds the editable fields of a prize
type Prize struct {
	ProjectID          *int64
	Name               string
	Type               models.PrizeType
	Value              decimal.Decimal
	Quantity           *int
	IsUnlimited        bool
	ExhaustionBehavior models.ExhaustionBehavior
	Status             models.PrizeStatus
	DisplayOrder       int
}

// ValidatePrizeValue checks a value against what its prize type allows
func ValidatePrizeValue(t models.PrizeType, v decimal.Decimal) error {
	switch t {
	case models.PrizeFoodItem, models.PrizeMerchandise:
		if !v.IsZero() {
			return errors.Validationf("%s prizes do not take a value", t.Label())
		}
	case models.PrizeDiscount:
		if !v.IsPositive() || v.GreaterThan(maxDiscount) {
			return errors.Validation("discount must be a percentage between 0 and 100")
		}
	case models.PrizeVoucher:
		if !v.IsPositive() {
			return errors.Validation("voucher amount must be greater than 0")
		}
		if !v.Equal(v.Round(2)) {
			return errors.Validation("voucher amount cannot have more than 2 decimal places")
		}
	default:
		return errors.Validationf("invalid prize type %q", t)
	}
	return nil
}

func (p Prize) validate() (Prize, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return p, errors.Validation("name is required")
	}
	if err := ValidatePrizeValue(p.Type, p.Value); err != nil {
		return p, err
	}

	if p.IsUnlimited {
		p.Quantity = nil
	} else {
		if p.Quantity == nil {
			return p, errors.Validation("quantity is required unless the prize is unlimited")
		}
		if *p.Quantity < 0 {
			return p, errors.Validation("quantity cannot be negative")
		}
	}

	if p.ExhaustionBehavior == "" {
		p.ExhaustionBehavior = models.ExhaustExclude
	}
	if !p.ExhaustionBehavior.Valid() {
		return p, errors.Validationf("invalid exhaustion behavior %q", p.ExhaustionBehavior)
	}
	switch p.Status {
	case "":
		p.Status = models.PrizeActive
	case models.PrizeActive, models.PrizeInactive:
	default:
		return p, errors.Validationf("invalid status %q", p.Status)
	}
	return p, nil
}

func (p Prize) apply(prize *models.Prize) {
	prize.Name = p.Name
	prize.Type = p.Type
	prize.Value = p.Value
	prize.Quantity = p.Quantity
	prize.IsUnlimited = p.IsUnlimited
	prize.ExhaustionBehavior = p.ExhaustionBehavior
	prize.Status = p.Status
	prize.DisplayOrder = p.DisplayOrder
}

// ListPrizes returns the prizes of the tenant-level wheel or one project
func (s *PrizeService) ListPrizes(ctx context.Context, tenantID int64, projectID *int64) ([]models.Prize, error) {
	if projectID != nil {
		if _, err := s.repo.GetProject(ctx, tenantID, *projectID); err != nil {
			return nil, notFoundAs(err, ErrProjectNotFound)
		}
	}
	return s.repo.ListPrizes(ctx, models.Scope{TenantID: tenantID, ProjectID: projectID})
}

// GetPrize returns one of the tenant's prizes
func (s *PrizeService) GetPrize(ctx context.Context, tenantID, id int64) (*models.Prize, error) {
	prize, err := s.repo.GetPrize(ctx, tenantID, id)
	if err != nil {
		return nil, notFoundAs(err, ErrPrizeNotFound)
	}
	return prize, nil
}

// CreatePrize adds a prize to a wheel
func (s *PrizeService) CreatePrize(ctx context.Context, tenantID int64, in Prize) (*models.Prize, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	if in.ProjectID != nil {
		if _, err := s.repo.GetProject(ctx, tenantID, *in.ProjectID); err != nil {
			return nil, notFoundAs(err, ErrProjectNotFound)
		}
	}

	prize := &models.Prize{TenantID: tenantID, ProjectID: in.ProjectID}
	in.apply(prize)
	id, err := s.repo.CreatePrize(ctx, prize)
	if err != nil {
		return nil, err
	}
	prize.ID = id
	s.log.Info("Prize created", "tenant_id", tenantID, "prize_id", id, "type", prize.Type)
	return prize, nil
}

// UpdatePrize replaces a prize's editable fields. The wheel a prize belongs
// to cannot be changed.
func (s *PrizeService) UpdatePrize(ctx context.Context, tenantID, id int64, in Prize) (*models.Prize, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	prize, err := s.GetPrize(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	in.apply(prize)
	if err := s.repo.UpdatePrize(ctx, prize); err != nil {
		return nil, notFoundAs(err, ErrPrizeNotFound)
	}
	return prize, nil
}

// DeletePrize removes a prize from its wheel
func (s *PrizeService) DeletePrize(ctx context.Context, tenantID, id int64) error {
	return notFoundAs(s.repo.DeletePrize(ctx, tenantID, id), ErrPrizeNotFound)
}
