package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"finhealth/internal/model"
	"finhealth/internal/service"
)

// AdminHandler handles catalog administration endpoints
type AdminHandler struct {
	adminSvc *service.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminSvc *service.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

// AssignRequest is the request body for assigning a variation set to a company
type AssignRequest struct {
	VariationSetID string `json:"variationSetId"`
}

// ListCatalog handles GET /v1/admin/catalog
func (h *AdminHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.adminSvc.ListCatalog(r.Context()))
}

// CreateVariation handles POST /v1/admin/variations
func (h *AdminHandler) CreateVariation(w http.ResponseWriter, r *http.Request) {
	var v model.QuestionVariation
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.adminSvc.CreateVariation(r.Context(), v)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// ReviseVariation handles PUT /v1/admin/variations/{id}
func (h *AdminHandler) ReviseVariation(w http.ResponseWriter, r *http.Request) {
	var v model.QuestionVariation
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	revised, err := h.adminSvc.ReviseVariation(r.Context(), mux.Vars(r)["id"], v)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, revised)
}

// DeactivateVariation handles DELETE /v1/admin/variations/{id}
func (h *AdminHandler) DeactivateVariation(w http.ResponseWriter, r *http.Request) {
	if err := h.adminSvc.DeactivateVariation(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "variation deactivated"})
}

// CreateVariationSet handles POST /v1/admin/variation-sets
func (h *AdminHandler) CreateVariationSet(w http.ResponseWriter, r *http.Request) {
	var set model.VariationSet
	if err := json.NewDecoder(r.Body).Decode(&set); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.adminSvc.CreateVariationSet(r.Context(), set)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// AssignVariationSet handles PUT /v1/admin/companies/{companyId}/variation-set
func (h *AdminHandler) AssignVariationSet(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	assignment, err := h.adminSvc.AssignVariationSet(r.Context(), mux.Vars(r)["companyId"], req.VariationSetID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, assignment)
}

// CreateRule handles POST /v1/admin/rules
func (h *AdminHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var rule model.DemographicRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.adminSvc.CreateRule(r.Context(), rule)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// DeactivateRule handles DELETE /v1/admin/rules/{id}
func (h *AdminHandler) DeactivateRule(w http.ResponseWriter, r *http.Request) {
	if err := h.adminSvc.DeactivateRule(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "rule deactivated"})
}

// Reload handles POST /v1/admin/catalog/reload
func (h *AdminHandler) Reload(w http.ResponseWriter, r *http.Request) {
	result, err := h.adminSvc.Reload(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
