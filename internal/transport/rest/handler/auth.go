package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"finhealth/internal/cache"
	"finhealth/internal/engine"
	"finhealth/internal/model"
	"finhealth/internal/repository"
	"finhealth/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps engine and service errors to HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnsupportedLanguage), errors.Is(err, engine.ErrInvalidAnswer):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrUnknownQuestion),
		errors.Is(err, cache.ErrSessionNotFound),
		errors.Is(err, service.ErrScoreNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSessionSubmitted),
		errors.Is(err, repository.ErrScoreExists),
		errors.Is(err, service.ErrCatalogReadOnly):
		return http.StatusConflict
	case errors.Is(err, engine.ErrIncompleteResponse),
		errors.Is(err, engine.ErrInvalidVariationSet),
		errors.Is(err, engine.ErrInvalidCatalog):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrEmptyQuestionSet):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
