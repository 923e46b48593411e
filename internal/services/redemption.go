package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/prizewheel/internal/logger"
	"github.com/abrezinsky/prizewheel/internal/models"
)

// RedemptionServiceRepository defines the repository methods needed by RedemptionService
type RedemptionServiceRepository interface {
	GetSpinByToken(ctx context.Context, token string) (*models.SpinRecord, error)
	ClaimSpin(ctx context.Context, token, contact string, contactType models.ContactType, at time.Time) (bool, error)
	GetTenant(ctx context.Context, id int64) (*models.Tenant, error)
}

// RedemptionService finalizes won prizes through their redemption token
type RedemptionService struct {
	log         logger.Logger
	repo        RedemptionServiceRepository
	now         func() time.Time
	phoneRegion string
}

// NewRedemptionService creates a new RedemptionService
func NewRedemptionService(log logger.Logger, repo RedemptionServiceRepository) *RedemptionService {
	return &RedemptionService{log: log, repo: repo, now: time.Now, phoneRegion: DefaultPhoneRegion}
}

// SetPhoneRegion sets the region assumed for claim phone numbers given
// without a country code
func (s *RedemptionService) SetPhoneRegion(region string) error {
	region, err := ValidatePhoneRegion(region)
	if err != nil {
		return err
	}
	s.phoneRegion = region
	return nil
}

// SetClock replaces the time source (for testing)
func (s *RedemptionService) SetClock(now func() time.Time) {
	s.now = now
}

// Redemption is what a visitor sees when opening a redemption link
type Redemption struct {
	Token          string     `json:"token"`
	PrizeWon       string     `json:"prize_won"`
	TenantName     string     `json:"tenant_name"`
	PrimaryColor   string     `json:"primary_color"`
	SecondaryColor string     `json:"secondary_color"`
	IsRedeemed     bool       `json:"is_redeemed"`
	RedeemedAt     *time.Time `json:"redeemed_at,omitempty"`
	WonAt          time.Time  `json:"won_at"`
}

// GetRedemption returns the redemption state of a token
func (s *RedemptionService) GetRedemption(ctx context.Context, token string) (*Redemption, error) {
	spin, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.toRedemption(ctx, spin)
}

// Claim redeems a token once, storing the contact given at claim time.
// Later claims fail with ErrAlreadyRedeemed and leave the stored claim as is.
func (s *RedemptionService) Claim(ctx context.Context, token, contact string) (*Redemption, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrTokenNotFound
	}
	value, contactType, err := ClassifyContact(contact, s.phoneRegion)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.ClaimSpin(ctx, token, value, contactType, s.now())
	if err != nil {
		return nil, err
	}
	spin, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyRedeemed
	}

	s.log.Info("Prize redeemed", "tenant_id", spin.TenantID, "spin_id", spin.ID, "prize", spin.PrizeWon)
	return s.toRedemption(ctx, spin)
}

func (s *RedemptionService) lookup(ctx context.Context, token string) (*models.SpinRecord, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrTokenNotFound
	}
	spin, err := s.repo.GetSpinByToken(ctx, token)
	if err != nil {
		return nil, notFoundAs(err, ErrTokenNotFound)
	}
	return spin, nil
}

func (s *RedemptionService) toRedemption(ctx context.Context, spin *models.SpinRecord) (*Redemption, error) {
	r := &Redemption{
		Token:      spin.Token,
		PrizeWon:   spin.PrizeWon,
		IsRedeemed: spin.IsRedeemed,
		RedeemedAt: spin.RedeemedAt,
		WonAt:      spin.CreatedAt,
	}
	tenant, err := s.repo.GetTenant(ctx, spin.TenantID)
	if err != nil {
		return nil, err
	}
	r.TenantName = tenant.Name
	r.PrimaryColor = tenant.PrimaryColor
	r.SecondaryColor = tenant.SecondaryColor
	return r, nil
}
