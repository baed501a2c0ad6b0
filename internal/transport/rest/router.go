package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"finhealth/internal/observability"
	"finhealth/internal/service"
	"finhealth/internal/transport/rest/handler"
	"finhealth/internal/transport/rest/middleware"
	"finhealth/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	SurveyService  *service.SurveyService
	AdminService   *service.AdminService
	WSHub          *ws.Hub
	Logger         *observability.Logger
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	logger := c.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	gatherer := c.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	surveyHandler := handler.NewSurveyHandler(c.SurveyService)
	adminHandler := handler.NewAdminHandler(c.AdminService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.AllowedOrigins))
	r.Use(middleware.RequestLogger(logger))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions", surveyHandler.StartSession).Methods("POST", "OPTIONS")
	v1.HandleFunc("/responses/score", surveyHandler.ScoreResponse).Methods("POST", "OPTIONS")

	// WebSocket routes (token in query param)
	v1.HandleFunc("/ws/admin/scores", wsHandler.AdminScoresWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	// Respondent routes (token must belong to the session in the path)
	respondentRoutes := v1.NewRoute().Subrouter()
	respondentRoutes.Use(authMW.RequireRespondent)

	respondentRoutes.HandleFunc("/sessions/{id}", surveyHandler.GetSession).Methods("GET", "OPTIONS")
	respondentRoutes.HandleFunc("/sessions/{id}/answers/{questionId}", surveyHandler.RecordAnswer).Methods("PUT", "OPTIONS")
	respondentRoutes.HandleFunc("/sessions/{id}/submit", surveyHandler.Submit).Methods("POST", "OPTIONS")

	// Admin routes (require admin auth)
	adminRoutes := v1.NewRoute().Subrouter()
	adminRoutes.Use(authMW.RequireAdmin)

	adminRoutes.HandleFunc("/scores/{responseId}", surveyHandler.GetScore).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/admin/catalog", adminHandler.ListCatalog).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/admin/catalog/reload", adminHandler.Reload).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/admin/variations", adminHandler.CreateVariation).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/admin/variations/{id}", adminHandler.ReviseVariation).Methods("PUT", "OPTIONS")
	adminRoutes.HandleFunc("/admin/variations/{id}", adminHandler.DeactivateVariation).Methods("DELETE", "OPTIONS")
	adminRoutes.HandleFunc("/admin/variation-sets", adminHandler.CreateVariationSet).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/admin/companies/{companyId}/variation-set", adminHandler.AssignVariationSet).Methods("PUT", "OPTIONS")
	adminRoutes.HandleFunc("/admin/rules", adminHandler.CreateRule).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/admin/rules/{id}", adminHandler.DeactivateRule).Methods("DELETE", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins []string) mux.MiddlewareFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if origin := r.Header.Get("Origin"); allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
