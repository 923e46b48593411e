package handlers

import (
	"github.com/shopspring/decimal"

	"github.com/abrezinsky/prizewheel/internal/models"
	"github.com/abrezinsky/prizewheel/internal/services"
)

// ContactRequest carries the visitor contact for eligibility, spin and claim
type ContactRequest struct {
	Contact string `json:"contact" validate:"max=254"`
}

// SignupRequest represents a tenant signup
type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest represents a tenant login
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TenantSettingsRequest represents a request to update tenant settings
type TenantSettingsRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	PrimaryColor   string `json:"primary_color" validate:"omitempty,hexcolor"`
	SecondaryColor string `json:"secondary_color" validate:"omitempty,hexcolor"`
}

// SpinRulesRequest are the spin rules of a project request
type SpinRulesRequest struct {
	EnableSpinLimit    bool `json:"enable_spin_limit"`
	SpinsPerUserPerDay int  `json:"spins_per_user_per_day" validate:"gte=0,lte=100"`
	RequireContact     bool `json:"require_contact"`
}

// ProjectRequest represents a request to create or update a project
type ProjectRequest struct {
	Name  string           `json:"name" validate:"required,max=100"`
	Rules SpinRulesRequest `json:"rules"`
}

func (p ProjectRequest) toService() services.Project {
	return services.Project{
		Name: p.Name,
		Rules: models.SpinRules{
			EnableSpinLimit:    p.Rules.EnableSpinLimit,
			SpinsPerUserPerDay: p.Rules.SpinsPerUserPerDay,
			RequireContact:     p.Rules.RequireContact,
		},
	}
}

// ProjectStatusRequest represents a project lifecycle change
type ProjectStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active completed"`
}

// PrizeRequest represents a request to create or update a prize
type PrizeRequest struct {
	ProjectID          *int64          `json:"project_id" validate:"omitempty,gt=0"`
	Name               string          `json:"name" validate:"required,max=100"`
	Type               string          `json:"type" validate:"required,oneof=food_item discount voucher merchandise"`
	Value              decimal.Decimal `json:"value"`
	Quantity           *int            `json:"quantity" validate:"omitempty,gte=0"`
	IsUnlimited        bool            `json:"is_unlimited"`
	ExhaustionBehavior string          `json:"exhaustion_behavior" validate:"omitempty,oneof=exclude show_unavailable mark_inactive"`
	Status             string          `json:"status" validate:"omitempty,oneof=active inactive"`
	DisplayOrder       int             `json:"display_order" validate:"gte=0"`
}

func (p PrizeRequest) toService() services.Prize {
	return services.Prize{
		ProjectID:          p.ProjectID,
		Name:               p.Name,
		Type:               models.PrizeType(p.Type),
		Value:              p.Value,
		Quantity:           p.Quantity,
		IsUnlimited:        p.IsUnlimited,
		ExhaustionBehavior: models.ExhaustionBehavior(p.ExhaustionBehavior),
		Status:             models.PrizeStatus(p.Status),
		DisplayOrder:       p.DisplayOrder,
	}
}
