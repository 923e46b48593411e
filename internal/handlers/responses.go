package handlers

import (
	"time"

	"github.com/abrezinsky/prizewheel/internal/models"
	"github.com/abrezinsky/prizewheel/internal/services"
)

// TokenResponse is returned by signup and login
type TokenResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Tenant    *models.Tenant `json:"tenant"`
}

// EligibilityResponse tells the wheel page whether the visitor may spin
type EligibilityResponse struct {
	Allowed           bool  `json:"allowed"`
	Limited           bool  `json:"limited"`
	Remaining         int   `json:"remaining"`
	RetryAfterSeconds int64 `json:"retry_after_seconds,omitempty"`
}

// SpinResponse is the outcome of a spin
type SpinResponse struct {
	SpinID       int64            `json:"spin_id"`
	Prize        services.Segment `json:"prize"`
	SegmentIndex int              `json:"segment_index"`
	Token        string           `json:"token"`
	RedeemURL    string           `json:"redeem_url"`
	CreatedAt    time.Time        `json:"created_at"`
}

// LeadsResponse lists spin ledger rows for the dashboard
type LeadsResponse struct {
	Spins []models.SpinRecord `json:"spins"`
	Count int                 `json:"count"`
}

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status string `json:"status"`
}
