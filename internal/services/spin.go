package services

import (
	"context"
	"crypto/rand"
	"io"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/prizewheel/internal/errors"
	"github.com/abrezinsky/prizewheel/internal/logger"
	"github.com/abrezinsky/prizewheel/internal/models"
	"github.com/abrezinsky/prizewheel/internal/repository"
)

// DefaultSpinWindow is the rolling window for per-contact spin limits
const DefaultSpinWindow = 24 * time.Hour

// Broadcaster publishes ledger events to a tenant's live dashboard
type Broadcaster interface {
	BroadcastSpin(tenantID int64, spin models.SpinRecord)
}

// SpinServiceRepository defines the repository methods needed by SpinService
type SpinServiceRepository interface {
	GetTenant(ctx context.Context, id int64) (*models.Tenant, error)
	GetProject(ctx context.Context, tenantID, id int64) (*models.Project, error)
	ListActivePrizes(ctx context.Context, scope models.Scope) ([]models.Prize, error)
	RecentSpinTimes(ctx context.Context, projectID int64, contact string, since time.Time) ([]time.Time, error)
	WithSpinTx(ctx context.Context, fn func(tx repository.SpinTx) error) error
}

// SpinService resolves spins against a wheel's prize pool
type SpinService struct {
	log         logger.Logger
	repo        SpinServiceRepository
	broadcaster Broadcaster
	randReader  io.Reader // for testing: defaults to crypto/rand.Reader
	now         func() time.Time
	window      time.Duration
	phoneRegion string
}

// NewSpinService creates a new SpinService
func NewSpinService(log logger.Logger, repo SpinServiceRepository) *SpinService {
	return &SpinService{
		log:         log,
		repo:        repo,
		randReader:  rand.Reader,
		now:         time.Now,
		window:      DefaultSpinWindow,
		phoneRegion: DefaultPhoneRegion,
	}
}

// SetRandReader sets a custom random reader (for testing)
func (s *SpinService) SetRandReader(reader io.Reader) {
	s.randReader = reader
}

// SetClock replaces the time source (for testing)
func (s *SpinService) SetClock(now func() time.Time) {
	s.now = now
}

// SetWindow changes the rolling spin limit window
func (s *SpinService) SetWindow(window time.Duration) {
	if window > 0 {
		s.window = window
	}
}

// SetPhoneRegion sets the region assumed for phone numbers given without a
// country code
func (s *SpinService) SetPhoneRegion(region string) error {
	region, err := ValidatePhoneRegion(region)
	if err != nil {
		return err
	}
	s.phoneRegion = region
	return nil
}

// SetBroadcaster sets the broadcaster for live spin updates
func (s *SpinService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SpinRequest identifies the wheel being spun and the visitor spinning it.
// A nil ProjectID selects the tenant-level wheel.
type SpinRequest struct {
	TenantID  int64
	ProjectID *int64
	Contact   string
}

func (r SpinRequest) scope() models.Scope {
	return models.Scope{TenantID: r.TenantID, ProjectID: r.ProjectID}
}

// SpinResult is the outcome of a successful spin
type SpinResult struct {
	SpinID       int64     `json:"spin_id"`
	Prize        Segment   `json:"prize"`
	SegmentIndex int       `json:"segment_index"`
	Token        string    `json:"token"`
	CreatedAt    time.Time `json:"created_at"`
}

// Wheel is the public snapshot used to render a wheel
type Wheel struct {
	TenantID       int64            `json:"tenant_id"`
	TenantName     string           `json:"tenant_name"`
	PrimaryColor   string           `json:"primary_color"`
	SecondaryColor string           `json:"secondary_color"`
	ProjectID      *int64           `json:"project_id,omitempty"`
	ProjectName    string           `json:"project_name,omitempty"`
	Rules          models.SpinRules `json:"rules"`
	Segments       []Segment        `json:"segments"`
}

// Eligibility reports whether a contact may spin now
type Eligibility struct {
	Allowed    bool          `json:"allowed"`
	Limited    bool          `json:"limited"`
	Remaining  int           `json:"remaining"`
	RetryAfter time.Duration `json:"-"`
}

// wheelContext loads the tenant and optional project behind a wheel and
// returns the spin rules that apply to it.
func (s *SpinService) wheelContext(ctx context.Context, tenantID int64, projectID *int64) (*models.Tenant, *models.Project, models.SpinRules, error) {
	tenant, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, nil, models.SpinRules{}, notFoundAs(err, ErrTenantNotFound)
	}
	if projectID == nil {
		return tenant, nil, models.SpinRules{}, nil
	}
	project, err := s.repo.GetProject(ctx, tenantID, *projectID)
	if err != nil {
		return nil, nil, models.SpinRules{}, notFoundAs(err, ErrProjectNotFound)
	}
	if project.Status != models.ProjectActive {
		return nil, nil, models.SpinRules{}, ErrProjectNotActive
	}
	return tenant, project, project.Rules.Normalize(), nil
}

// GetWheel returns the wheel snapshot for rendering
func (s *SpinService) GetWheel(ctx context.Context, tenantID int64, projectID *int64) (*Wheel, error) {
	tenant, project, rules, err := s.wheelContext(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	prizes, err := s.repo.ListActivePrizes(ctx, models.Scope{TenantID: tenantID, ProjectID: projectID})
	if err != nil {
		return nil, err
	}

	wheel := &Wheel{
		TenantID:       tenant.ID,
		TenantName:     tenant.Name,
		PrimaryColor:   tenant.PrimaryColor,
		SecondaryColor: tenant.SecondaryColor,
		Rules:          rules,
		Segments:       BuildWheel(prizes),
	}
	if project != nil {
		wheel.ProjectID = &project.ID
		wheel.ProjectName = project.Name
	}
	return wheel, nil
}

// CheckEligibility reports whether the contact may spin the wheel now,
// without recording anything.
func (s *SpinService) CheckEligibility(ctx context.Context, req SpinRequest) (*Eligibility, error) {
	_, _, rules, err := s.wheelContext(ctx, req.TenantID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	contact, _, err := resolveContact(req.Contact, s.phoneRegion, rules)
	if err != nil {
		return nil, err
	}
	if !rules.EnableSpinLimit {
		return &Eligibility{Allowed: true, Remaining: -1}, nil
	}

	now := s.now()
	times, err := s.repo.RecentSpinTimes(ctx, *req.ProjectID, contact, now.Add(-s.window))
	if err != nil {
		return nil, err
	}
	remaining, retryAfter := s.allowance(times, rules.SpinsPerUserPerDay, now)
	return &Eligibility{
		Allowed:    remaining > 0,
		Limited:    true,
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}, nil
}

// allowance returns how many spins are left for a contact whose spins in the
// window happened at times, oldest first. When none are left it also returns
// how long until enough of them leave the window for one more spin.
func (s *SpinService) allowance(times []time.Time, limit int, now time.Time) (int, time.Duration) {
	if remaining := limit - len(times); remaining > 0 {
		return remaining, 0
	}
	release := times[len(times)-limit].Add(s.window)
	return 0, release.Sub(now)
}

// Spin checks the visitor against the wheel's spin limit, picks a prize
// uniformly at random from the selectable pool, takes one unit of it and
// records the spin. All of this happens in one transaction; a rejected spin
// writes nothing.
func (s *SpinService) Spin(ctx context.Context, req SpinRequest) (*SpinResult, error) {
	if _, _, _, err := s.wheelContext(ctx, req.TenantID, req.ProjectID); err != nil {
		return nil, err
	}

	now := s.now()
	var result *SpinResult
	var record models.SpinRecord

	err := s.repo.WithSpinTx(ctx, func(tx repository.SpinTx) error {
		// project state is read again under the write lock
		rules, err := s.txRules(ctx, tx, req)
		if err != nil {
			return err
		}
		contact, contactType, err := resolveContact(req.Contact, s.phoneRegion, rules)
		if err != nil {
			return err
		}

		if rules.EnableSpinLimit {
			times, err := tx.RecentSpinTimes(ctx, *req.ProjectID, contact, now.Add(-s.window))
			if err != nil {
				return err
			}
			if remaining, retryAfter := s.allowance(times, rules.SpinsPerUserPerDay, now); remaining == 0 {
				return errors.RateLimited(spinLimitMessage, retryAfter)
			}
		}

		prizes, err := tx.ListActivePrizes(ctx, req.scope())
		if err != nil {
			return err
		}
		pool, err := SelectablePool(BuildWheel(prizes))
		if err != nil {
			return err
		}

		won, err := s.consumeOne(ctx, tx, pool)
		if err != nil {
			return err
		}

		record = models.SpinRecord{
			TenantID:    req.TenantID,
			ProjectID:   req.ProjectID,
			PrizeID:     won.PrizeID,
			PrizeWon:    won.Name,
			Contact:     contact,
			ContactType: contactType,
			Token:       uuid.NewString(),
			CreatedAt:   now,
		}
		id, err := tx.InsertSpin(ctx, &record)
		if err != nil {
			return err
		}
		record.ID = id

		if won.Remaining != nil {
			remaining := *won.Remaining - 1
			won.Remaining = &remaining
			won.Available = remaining > 0
		}
		result = &SpinResult{
			SpinID:       id,
			Prize:        won,
			SegmentIndex: won.Index,
			Token:        record.Token,
			CreatedAt:    now,
		}
		return nil
	})
	if err != nil {
		if errors.KindOf(err) == errors.ErrInternal {
			s.log.Error("Spin failed", "tenant_id", req.TenantID, "error", err)
		}
		return nil, err
	}

	s.log.Info("Spin recorded", "tenant_id", req.TenantID, "spin_id", record.ID, "prize", record.PrizeWon)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastSpin(req.TenantID, record)
	}
	return result, nil
}

// txRules returns the spin rules of the wheel as seen by the transaction
func (s *SpinService) txRules(ctx context.Context, tx repository.SpinTx, req SpinRequest) (models.SpinRules, error) {
	if req.ProjectID == nil {
		return models.SpinRules{}, nil
	}
	project, err := tx.GetProject(ctx, req.TenantID, *req.ProjectID)
	if err != nil {
		return models.SpinRules{}, notFoundAs(err, ErrProjectNotFound)
	}
	if project.Status != models.ProjectActive {
		return models.SpinRules{}, ErrProjectNotActive
	}
	return project.Rules.Normalize(), nil
}

// consumeOne picks a segment and takes one unit of its prize. When the
// prize was depleted concurrently it is dropped and the pick is retried once.
func (s *SpinService) consumeOne(ctx context.Context, tx repository.SpinTx, pool []Segment) (Segment, error) {
	for attempt := 0; attempt < 2 && len(pool) > 0; attempt++ {
		idx, err := s.pick(len(pool))
		if err != nil {
			return Segment{}, err
		}
		chosen := pool[idx]
		ok, err := tx.ConsumePrize(ctx, chosen.PrizeID)
		if err != nil {
			return Segment{}, err
		}
		if ok {
			return chosen, nil
		}
		s.log.Warn("Prize depleted during spin", "prize_id", chosen.PrizeID, "attempt", attempt+1)
		pool = append(pool[:idx:idx], pool[idx+1:]...)
	}
	return Segment{}, ErrPrizeExhausted
}

// pick returns a uniform random index in [0, n)
func (s *SpinService) pick(n int) (int, error) {
	v, err := rand.Int(s.randReader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
