package services

import (
	"github.com/shopspring/decimal"

	"github.com/abrezinsky/prizewheel/internal/models"
)

// Segment is one slice of the rendered wheel
type Segment struct {
	Index     int              `json:"index"`
	PrizeID   int64            `json:"prize_id"`
	Name      string           `json:"name"`
	Label     string           `json:"label"`
	Type      models.PrizeType `json:"type"`
	Value     decimal.Decimal  `json:"value"`
	Remaining *int             `json:"remaining,omitempty"`
	Available bool             `json:"available"`
}

// BuildWheel turns the active prizes of a scope into wheel segments.
// Exhausted prizes are dropped unless their exhaustion behavior is
// show_unavailable, in which case they stay on the wheel but cannot be won.
func BuildWheel(prizes []models.Prize) []Segment {
	segments := make([]Segment, 0, len(prizes))
	for _, p := range prizes {
		if p.Status != models.PrizeActive {
			continue
		}
		available := p.InStock()
		if !available && p.ExhaustionBehavior != models.ExhaustShowUnavailable {
			continue
		}
		seg := Segment{
			Index:     len(segments),
			PrizeID:   p.ID,
			Name:      p.Name,
			Label:     p.Describe(),
			Type:      p.Type,
			Value:     p.Value,
			Available: available,
		}
		if !p.IsUnlimited {
			remaining := p.Remaining()
			seg.Remaining = &remaining
		}
		segments = append(segments, seg)
	}
	return segments
}

// SelectablePool returns the segments that can be won
func SelectablePool(segments []Segment) ([]Segment, error) {
	pool := make([]Segment, 0, len(segments))
	for _, s := range segments {
		if s.Available {
			pool = append(pool, s)
		}
	}
	if len(pool) == 0 {
		return nil, ErrNoPrizesAvailable
	}
	return pool, nil
}
