package handlers

import "net/http"

func (h *Handlers) handleOwnerTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.Tenant.ListTenants(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, tenants)
}

func (h *Handlers) handleOwnerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Stats.PlatformStats(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, stats)
}
