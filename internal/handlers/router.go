package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/grupoheroica/calidadrecintos/internal/config"
	"github.com/grupoheroica/calidadrecintos/internal/database"
	"github.com/grupoheroica/calidadrecintos/internal/middleware"
	"github.com/grupoheroica/calidadrecintos/internal/models"
	"github.com/grupoheroica/calidadrecintos/internal/reports"
	"github.com/grupoheroica/calidadrecintos/internal/revision"
	"github.com/grupoheroica/calidadrecintos/internal/skill"
	"github.com/grupoheroica/calidadrecintos/internal/storage"
	"github.com/grupoheroica/calidadrecintos/internal/websocket"
)

// Router wraps the mux router and the application services
type Router struct {
	*mux.Router
	cfg        *config.Config
	db         *database.Manager
	hub        *websocket.Hub
	evidencias *storage.EvidenciaStore
	revisiones *revision.Service
	reportes   *reports.Service
	skill      *skill.Client
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(
	cfg *config.Config,
	db *database.Manager,
	hub *websocket.Hub,
	evidencias *storage.EvidenciaStore,
	revisiones *revision.Service,
	reportes *reports.Service,
	skillClient *skill.Client,
) *Router {
	r := &Router{
		Router:     mux.NewRouter(),
		cfg:        cfg,
		db:         db,
		hub:        hub,
		evidencias: evidencias,
		revisiones: revisiones,
		reportes:   reportes,
		skill:      skillClient,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/signin", r.signIn).Methods("POST")
	auth.HandleFunc("/refresh", r.refresh).Methods("POST")
	auth.HandleFunc("/bootstrap", r.bootstrap).Methods("POST")

	// Realtime updates; browsers cannot set headers on a WS dial, the token
	// travels as a query parameter instead
	r.HandleFunc("/ws", r.serveWs).Methods("GET")

	// API routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	eventos := api.PathPrefix("/eventos").Subrouter()
	eventos.HandleFunc("", r.listEventos).Methods("GET")
	eventos.HandleFunc("", r.createEvento).Methods("POST")
	eventos.HandleFunc("/import", r.importEventosXLSX).Methods("POST")
	eventos.HandleFunc("/skill", r.skillEvents).Methods("GET")
	eventos.HandleFunc("/skill/import", r.importSkillEvents).Methods("POST")
	adminOnly := middleware.RequireRole(models.RolAdministrador)
	eventos.HandleFunc("/{id}", r.getEvento).Methods("GET")
	eventos.HandleFunc("/{id}", r.updateEvento).Methods("PUT")
	eventos.Handle("/{id}", adminOnly(http.HandlerFunc(r.deleteEvento))).Methods("DELETE")

	areas := api.PathPrefix("/areas").Subrouter()
	areas.HandleFunc("", r.listAreas).Methods("GET")
	areas.HandleFunc("", r.createArea).Methods("POST")
	areas.HandleFunc("/{id}", r.getArea).Methods("GET")
	areas.HandleFunc("/{id}", r.updateArea).Methods("PUT")
	areas.Handle("/{id}", adminOnly(http.HandlerFunc(r.deleteArea))).Methods("DELETE")

	parametros := api.PathPrefix("/parametros").Subrouter()
	parametros.HandleFunc("", r.listParametros).Methods("GET")
	parametros.HandleFunc("", r.createParametro).Methods("POST")
	parametros.HandleFunc("/{id}", r.updateParametro).Methods("PUT")
	parametros.Handle("/{id}", adminOnly(http.HandlerFunc(r.deleteParametro))).Methods("DELETE")

	usuarios := api.PathPrefix("/usuarios").Subrouter()
	usuarios.HandleFunc("", r.listUsuarios).Methods("GET")
	usuarios.HandleFunc("/me", r.currentUsuario).Methods("GET")
	usuarios.Handle("/{id}", adminOnly(http.HandlerFunc(r.updateUsuario))).Methods("PUT")

	revisionesRoutes := api.PathPrefix("/revisiones").Subrouter()
	revisionesRoutes.HandleFunc("", r.listRevisiones).Methods("GET")
	revisionesRoutes.HandleFunc("", r.createRevision).Methods("POST")
	revisionesRoutes.HandleFunc("/pendientes", r.listRevisionesPendientes).Methods("GET")
	revisionesRoutes.HandleFunc("/evento/{idEvento}", r.listRevisionesByEvento).Methods("GET")
	revisionesRoutes.HandleFunc("/{id}", r.getRevision).Methods("GET")
	revisionesRoutes.Handle("/{id}", adminOnly(http.HandlerFunc(r.deleteRevision))).Methods("DELETE")
	calidad := middleware.RequireRole(models.RolCalidad)
	revisionesRoutes.Handle("/{id}/verificacion", calidad(http.HandlerFunc(r.submitVerification))).Methods("PUT")
	revisionesRoutes.Handle("/{id}/evidencias", calidad(http.HandlerFunc(r.uploadEvidencias))).Methods("POST")
	revisionesRoutes.Handle("/{id}/evidencias", adminOnly(http.HandlerFunc(r.deleteEvidencia))).Methods("DELETE")

	reportesRoutes := api.PathPrefix("/reportes").Subrouter()
	reportesRoutes.HandleFunc("", r.listReportes).Methods("GET")
	reportesRoutes.HandleFunc("", r.generateReporte).Methods("POST")
	reportesRoutes.HandleFunc("/{id}", r.getReporte).Methods("GET")
	reportesRoutes.HandleFunc("/{id}/pdf", r.downloadReportePDF).Methods("GET")
	reportesRoutes.HandleFunc("/{id}/excel", r.downloadReporteExcel).Methods("GET")

	// Evidence downloads
	r.PathPrefix("/evidencias/").Handler(
		http.StripPrefix("/evidencias/", http.FileServer(http.Dir(evidencias.Root()))))

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"recintos": r.db.Recintos(),
	})
}

// tenant resolves the database handle for the session's recinto claim
func (r *Router) tenant(req *http.Request) (*gorm.DB, string, error) {
	recinto := middleware.ClaimString(req.Context(), "recinto")
	db, err := r.db.ForRecinto(recinto)
	if err != nil {
		return nil, "", err
	}
	return db, recinto, nil
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
