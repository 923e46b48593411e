package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tenant is a business account running one or more wheels
type Tenant struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	IsOwner        bool      `json:"is_owner"`
	PrimaryColor   string    `json:"primary_color"`
	SecondaryColor string    `json:"secondary_color"`
	CreatedAt      time.Time `json:"created_at"`
}

// ProjectStatus drives wheel availability for a project
type ProjectStatus string

const (
	ProjectDraft     ProjectStatus = "draft"
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
)

// Valid reports whether s is a known project status
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectDraft, ProjectActive, ProjectCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether a project may move from s to next.
// Completed is terminal; active may be paused back to draft.
func (s ProjectStatus) CanTransitionTo(next ProjectStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case ProjectDraft:
		return next == ProjectActive
	case ProjectActive:
		return next == ProjectDraft || next == ProjectCompleted
	}
	return false
}

// SpinRules are the per-project spin limits
type SpinRules struct {
	EnableSpinLimit    bool `json:"enable_spin_limit"`
	SpinsPerUserPerDay int  `json:"spins_per_user_per_day"`
	RequireContact     bool `json:"require_contact"`
}

// Normalize forces RequireContact when a spin limit is enabled, since
// spins are counted per contact identity.
func (r SpinRules) Normalize() SpinRules {
	if r.EnableSpinLimit {
		r.RequireContact = true
		if r.SpinsPerUserPerDay < 1 {
			r.SpinsPerUserPerDay = 1
		}
	}
	return r
}

// Project is a scoped campaign belonging to a tenant
type Project struct {
	ID        int64         `json:"id"`
	TenantID  int64         `json:"tenant_id"`
	Name      string        `json:"name"`
	Status    ProjectStatus `json:"status"`
	Rules     SpinRules     `json:"rules"`
	CreatedAt time.Time     `json:"created_at"`
}

// PrizeType is the closed set of prize kinds
type PrizeType string

const (
	PrizeFoodItem    PrizeType = "food_item"
	PrizeDiscount    PrizeType = "discount"
	PrizeVoucher     PrizeType = "voucher"
	PrizeMerchandise PrizeType = "merchandise"
)

// PrizeTypes lists every prize type in display order
var PrizeTypes = []PrizeType{PrizeFoodItem, PrizeDiscount, PrizeVoucher, PrizeMerchandise}

// Valid reports whether t is a known prize type
func (t PrizeType) Valid() bool {
	switch t {
	case PrizeFoodItem, PrizeDiscount, PrizeVoucher, PrizeMerchandise:
		return true
	}
	return false
}

// Label is the human readable name of the prize type
func (t PrizeType) Label() string {
	switch t {
	case PrizeFoodItem:
		return "Food Item"
	case PrizeDiscount:
		return "Discount"
	case PrizeVoucher:
		return "Voucher"
	case PrizeMerchandise:
		return "Merchandise"
	}
	return "Unknown"
}

// ExhaustionBehavior is the policy applied to a depleted prize
type ExhaustionBehavior string

const (
	ExhaustExclude         ExhaustionBehavior = "exclude"
	ExhaustShowUnavailable ExhaustionBehavior = "show_unavailable"
	ExhaustMarkInactive    ExhaustionBehavior = "mark_inactive"
)

// Valid reports whether b is a known exhaustion behavior
func (b ExhaustionBehavior) Valid() bool {
	switch b {
	case ExhaustExclude, ExhaustShowUnavailable, ExhaustMarkInactive:
		return true
	}
	return false
}

// PrizeStatus marks whether a prize participates in wheels
type PrizeStatus string

const (
	PrizeActive   PrizeStatus = "active"
	PrizeInactive PrizeStatus = "inactive"
)

// Prize is a possible wheel outcome
type Prize struct {
	ID                 int64              `json:"id"`
	TenantID           int64              `json:"tenant_id"`
	ProjectID          *int64             `json:"project_id"`
	Name               string             `json:"name"`
	Type               PrizeType          `json:"type"`
	Value              decimal.Decimal    `json:"value"`
	Quantity           *int               `json:"quantity"`
	IsUnlimited        bool               `json:"is_unlimited"`
	ExhaustionBehavior ExhaustionBehavior `json:"exhaustion_behavior"`
	Status             PrizeStatus        `json:"status"`
	DisplayOrder       int                `json:"display_order"`
}

// Remaining returns the remaining quantity, treating a nil quantity as zero
func (p Prize) Remaining() int {
	if p.Quantity == nil {
		return 0
	}
	return *p.Quantity
}

// InStock reports whether the prize can still be won
func (p Prize) InStock() bool {
	return p.IsUnlimited || p.Remaining() > 0
}

// Describe renders the prize with its type-specific value
func (p Prize) Describe() string {
	switch p.Type {
	case PrizeDiscount:
		return p.Name + " (" + p.Value.String() + "% off)"
	case PrizeVoucher:
		return p.Name + " (" + p.Value.StringFixed(2) + " voucher)"
	case PrizeFoodItem, PrizeMerchandise:
		return p.Name
	}
	return p.Name
}

// ContactType classifies a visitor contact value
type ContactType string

const (
	ContactNone  ContactType = "none"
	ContactEmail ContactType = "email"
	ContactPhone ContactType = "phone"
)

// SpinRecord is one row of the spin ledger
type SpinRecord struct {
	ID               int64       `json:"id"`
	TenantID         int64       `json:"tenant_id"`
	ProjectID        *int64      `json:"project_id"`
	PrizeID          int64       `json:"prize_id"`
	PrizeWon         string      `json:"prize_won"`
	Contact          string      `json:"contact,omitempty"`
	ContactType      ContactType `json:"contact_type"`
	Token            string      `json:"token"`
	IsRedeemed       bool        `json:"is_redeemed"`
	ClaimContact     string      `json:"claim_contact,omitempty"`
	ClaimContactType ContactType `json:"claim_contact_type,omitempty"`
	RedeemedAt       *time.Time  `json:"redeemed_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

// Scope selects a tenant-level wheel or one of its projects
type Scope struct {
	TenantID  int64
	ProjectID *int64
}

// DayCount is the number of spins on one calendar day (UTC)
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// PrizeCount is the number of wins of one prize name
type PrizeCount struct {
	Prize string `json:"prize"`
	Count int    `json:"count"`
}

// SpinStats are aggregates computed from the spin ledger
type SpinStats struct {
	TotalSpins     int          `json:"total_spins"`
	UniqueVisitors int          `json:"unique_visitors"`
	Redeemed       int          `json:"redeemed"`
	WinsByPrize    []PrizeCount `json:"wins_by_prize"`
	SpinsByDay     []DayCount   `json:"spins_by_day"`
}

// TenantSummary is one row of the platform owner's tenant list
type TenantSummary struct {
	Tenant
	Projects   int `json:"projects"`
	TotalSpins int `json:"total_spins"`
}

// PlatformStats are totals across all tenants
type PlatformStats struct {
	Tenants    int `json:"tenants"`
	Projects   int `json:"projects"`
	Prizes     int `json:"prizes"`
	TotalSpins int `json:"total_spins"`
	Redeemed   int `json:"redeemed"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
