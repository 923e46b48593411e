package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/prizewheel/internal/services"
)

// wheelRequest builds the spin request addressed by the URL
func wheelRequest(r *http.Request, contact string) (services.SpinRequest, error) {
	tenantID, err := parseIDParam(r, "tenantID")
	if err != nil {
		return services.SpinRequest{}, err
	}
	projectID, err := optionalIDParam(r, "projectID")
	if err != nil {
		return services.SpinRequest{}, err
	}
	return services.SpinRequest{TenantID: tenantID, ProjectID: projectID, Contact: contact}, nil
}

// decodeContact reads an optional contact body; an empty body means no contact
func decodeContact(r *http.Request) (string, error) {
	var req ContactRequest
	if r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		return "", BadRequest("Could not read request body")
	}
	if len(body) == 0 {
		return "", nil
	}
	if err := decodeBytes(body, &req); err != nil {
		return "", err
	}
	if err := validateRequest(&req); err != nil {
		return "", err
	}
	return req.Contact, nil
}

// handleGetWheel returns the public wheel snapshot
func (h *Handlers) handleGetWheel(w http.ResponseWriter, r *http.Request) {
	req, err := wheelRequest(r, "")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	wheel, err := h.Spin.GetWheel(r.Context(), req.TenantID, req.ProjectID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, wheel)
}

// handleEligibility reports whether the visitor may spin now
func (h *Handlers) handleEligibility(w http.ResponseWriter, r *http.Request) {
	contact, err := decodeContact(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	req, err := wheelRequest(r, contact)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	elig, err := h.Spin.CheckEligibility(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, EligibilityResponse{
		Allowed:           elig.Allowed,
		Limited:           elig.Limited,
		Remaining:         elig.Remaining,
		RetryAfterSeconds: retrySeconds(elig.RetryAfter),
	})
}

// handleSpin spins the wheel for a visitor
func (h *Handlers) handleSpin(w http.ResponseWriter, r *http.Request) {
	contact, err := decodeContact(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	req, err := wheelRequest(r, contact)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.Spin.Spin(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, SpinResponse{
		SpinID:       result.SpinID,
		Prize:        result.Prize,
		SegmentIndex: result.SegmentIndex,
		Token:        result.Token,
		RedeemURL:    "/api/redeem/" + result.Token,
		CreatedAt:    result.CreatedAt,
	})
}

// handleGetRedemption shows the state of a redemption token
func (h *Handlers) handleGetRedemption(w http.ResponseWriter, r *http.Request) {
	redemption, err := h.Redemption.GetRedemption(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, redemption)
}

// handleClaim redeems a token once
func (h *Handlers) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	redemption, err := h.Redemption.Claim(r.Context(), chi.URLParam(r, "token"), req.Contact)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, redemption)
}

// handleHealth reports liveness
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, HealthResponse{Status: "ok"})
}
