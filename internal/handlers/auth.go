package handlers

import (
	"net/http"

	"github.com/abrezinsky/prizewheel/internal/auth"
	"github.com/abrezinsky/prizewheel/internal/models"
	"github.com/abrezinsky/prizewheel/internal/services"
)

// handleSignup registers a tenant and logs it in
func (h *Handlers) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	tenant, err := h.Tenant.Signup(r.Context(), services.Signup{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondToken(w, r, http.StatusCreated, tenant)
}

// handleLogin exchanges credentials for a bearer token
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	tenant, err := h.Tenant.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondToken(w, r, http.StatusOK, tenant)
}

func (h *Handlers) respondToken(w http.ResponseWriter, r *http.Request, status int, tenant *models.Tenant) {
	token, expires, err := h.Auth.Issue(tenant.ID, tenant.IsOwner)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, status, TokenResponse{Token: token, ExpiresAt: expires, Tenant: tenant})
}

// sessionTenant returns the tenant ID of the authenticated request
func sessionTenant(r *http.Request) (int64, error) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		return 0, Unauthorized("Unauthorized - please log in")
	}
	return session.TenantID, nil
}
