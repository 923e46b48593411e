package handlers

import (
	"net/http"

	"github.com/abrezinsky/prizewheel/internal/auth"
	"github.com/abrezinsky/prizewheel/internal/logger"
	"github.com/abrezinsky/prizewheel/internal/services"
)

// LiveFeed serves the authenticated tenant's live spin websocket
type LiveFeed interface {
	ServeWs(w http.ResponseWriter, r *http.Request)
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Spin       services.SpinServicer
	Redemption services.RedemptionServicer
	Tenant     services.TenantServicer
	Project    services.ProjectServicer
	Prize      services.PrizeServicer
	Stats      services.StatsServicer
	Auth       *auth.Auth
	Live       LiveFeed
	Log        logger.Logger

	// publicLimit wraps public wheel routes; nil disables IP limiting
	publicLimit func(http.Handler) http.Handler
}

// New creates a new Handlers instance with all dependencies
func New(
	spin services.SpinServicer,
	redemption services.RedemptionServicer,
	tenant services.TenantServicer,
	project services.ProjectServicer,
	prize services.PrizeServicer,
	stats services.StatsServicer,
	tenantAuth *auth.Auth,
	live LiveFeed,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Spin:       spin,
		Redemption: redemption,
		Tenant:     tenant,
		Project:    project,
		Prize:      prize,
		Stats:      stats,
		Auth:       tenantAuth,
		Live:       live,
		Log:        log,
	}
}

// SetPublicRateLimit installs the IP rate limiting middleware used on
// public wheel and redemption routes
func (h *Handlers) SetPublicRateLimit(mw func(http.Handler) http.Handler) {
	h.publicLimit = mw
}
