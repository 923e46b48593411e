package handlers

import (
	"net/http"

	"github.com/spf13/cast"

	"github.com/abrezinsky/prizewheel/internal/models"
	"github.com/abrezinsky/prizewheel/internal/services"
)

// queryProjectID parses the optional project_id query parameter
func queryProjectID(r *http.Request) (*int64, error) {
	raw := r.URL.Query().Get("project_id")
	if raw == "" {
		return nil, nil
	}
	id, err := cast.ToInt64E(raw)
	if err != nil || id <= 0 {
		return nil, BadRequest("Invalid project_id parameter")
	}
	return &id, nil
}

// queryInt parses an optional integer query parameter, returning def when absent
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := cast.ToIntE(raw)
	if err != nil {
		return 0, BadRequest("Invalid " + name + " parameter")
	}
	return v, nil
}

// ==================== Tenant ====================

func (h *Handlers) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := sessionTenant(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	tenant, err := h.Tenant.GetTenant(r.Context(), tenantID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, tenant)
}

func (h *Handlers) handleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := sessionTenant(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req TenantSettingsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	tenant, err := h.Tenant.UpdateSettings(r.Context(), tenantID, services.TenantSettings{
		Name:           req.Name,
		PrimaryColor:   req.PrimaryColor,
		SecondaryColor: req.SecondaryColor,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, tenant)
}

// ==================== Projects ====================

func (h *Handlers) handleListProjects(w http.ResponseWriter, r *http.Request) {
	tenantID, err := sessionTenant(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	projects, err := h.Project.ListProjects(r.Context(), tenantID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, projects)
}

func (h *Handlers) handleGetProject(w http.ResponseWriter, r *http.Request) {
	tenantID, err := sessionTenant(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	project, err := h.Project.GetProject(r.Context(), tenantID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, project)
}

func (h *Handlers) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	tenantID, err := sessionTenant(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req ProjectRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	project, err := h.Project.CreateProject(r.Context(), tenantID, req.toService())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, project)
}

func (h *Handlers) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	tenantID, err := sessionTenant(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req ProjectRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	project, err := h.Project.UpdateProject(r.Context(), tenantID, id, req.toService())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, project)
}

func (h *Handlers) handleSetProjectStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, err := sessionTenant(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req ProjectStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	project, err := h.Project.SetStatus(r.Context(), tenantID, id, models.ProjectStatus(req.Status))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, project)
}

func (h *Handlers) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	tenantID, err := sessionTenant(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Project.DeleteProject(r.Context(), tenantID, id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondDeleted(w)
}

// ==================== Prizes ====================

func (h *Handlers) handleListPrizes(w http.ResponseWriter, r *http.Request) {
	tenantID, err := sessionTenant(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	projectID, err := queryProjectID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	prizes, err := h.Prize.ListPrizes(r.Context(), tenantID, projectID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, prizes)
}

func (h *Handlers) handleGetPrize(w http.ResponseWriter, r *http.Request) {
	tenantID, err := sessionTenant(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	prize, err := h.Prize.GetPrize(r.Context(), tenantID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, prize)
}

func (h *Handlers) handleCreatePrize(w http.ResponseWriter, r *http.Request) {
	tenantID, err := sessionTenant(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req PrizeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	prize, err := h.Prize.CreatePrize(r.Context(), tenantID, req.toService())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, prize)
}

func (h *Handlers) handleUpdatePrize(w http.ResponseWriter, r *http.Request) {
	tenantID, err := sessionTenant(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req PrizeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	prize, err := h.Prize.UpdatePrize(r.Context(), tenantID, id, req.toService())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, prize)
}

func (h *Handlers) handleDeletePrize(w http.ResponseWriter, r *http.Request) {
	tenantID, err := sessionTenant(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Prize.DeletePrize(r.Context(), tenantID, id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondDeleted(w)
}

// ==================== Leads & Stats ====================

func (h *Handlers) handleListSpins(w http.ResponseWriter, r *http.Request) {
	tenantID, err := sessionTenant(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	projectID, err := queryProjectID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", services.DefaultSpinListLimit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	spins, err := h.Stats.ListLeads(r.Context(), tenantID, projectID, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, LeadsResponse{Spins: spins, Count: len(spins)})
}

func (h *Handlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	tenantID, err := sessionTenant(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	projectID, err := queryProjectID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	days, err := queryInt(r, "days", 30)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	stats, err := h.Stats.GetStats(r.Context(), tenantID, projectID, days)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, stats)
}
