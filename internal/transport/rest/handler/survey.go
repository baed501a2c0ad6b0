package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"finhealth/internal/model"
	"finhealth/internal/service"
)

// SurveyHandler handles respondent-facing survey endpoints
type SurveyHandler struct {
	surveySvc *service.SurveyService
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(surveySvc *service.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveySvc: surveySvc}
}

// StartSessionRequest is the request body for starting a survey
type StartSessionRequest struct {
	Profile   model.RespondentProfile `json:"profile"`
	Language  model.Language          `json:"language"`
	CompanyID string                  `json:"companyId,omitempty"`
}

// AnswerRequest is the request body for recording one answer
type AnswerRequest struct {
	Value int `json:"value"`
}

// StartSession handles POST /v1/sessions
func (h *SurveyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Language == "" {
		req.Language = model.LanguageEnglish
	}

	started, err := h.surveySvc.StartSession(r.Context(), service.AssembleRequest{
		Profile:   req.Profile,
		Language:  req.Language,
		CompanyID: req.CompanyID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, started)
}

// GetSession handles GET /v1/sessions/{id}
func (h *SurveyHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.surveySvc.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// RecordAnswer handles PUT /v1/sessions/{id}/answers/{questionId}
func (h *SurveyHandler) RecordAnswer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	progress, err := h.surveySvc.RecordAnswer(r.Context(), vars["id"], vars["questionId"], req.Value)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

// Submit handles POST /v1/sessions/{id}/submit
func (h *SurveyHandler) Submit(w http.ResponseWriter, r *http.Request) {
	calc, err := h.surveySvc.Submit(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, calc)
}

// ScoreResponse handles POST /v1/responses/score
func (h *SurveyHandler) ScoreResponse(w http.ResponseWriter, r *http.Request) {
	var resp model.SurveyResponse
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if resp.Language == "" {
		resp.Language = model.LanguageEnglish
	}

	calc, err := h.surveySvc.ScoreResponse(r.Context(), resp)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, calc)
}

// GetScore handles GET /v1/scores/{responseId}
func (h *SurveyHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	calc, err := h.surveySvc.GetScore(r.Context(), mux.Vars(r)["responseId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, calc)
}
