package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/grupoheroica/calidadrecintos/internal/middleware"
	"github.com/grupoheroica/calidadrecintos/internal/models"
	"github.com/grupoheroica/calidadrecintos/internal/reports"
)

// ReporteRequest asks for a new report snapshot
type ReporteRequest struct {
	Tipo    string          `json:"tipo"`
	Nombre  string          `json:"nombre"`
	Filtros reports.Filtros `json:"filtros"`
}

func (r *Router) listReportes(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	reportes, err := r.reportes.List(db)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load reportes")
		return
	}
	respondJSON(w, http.StatusOK, reportes)
}

// generateReporte builds the requested projection, snapshots it and appends
// the write-once audit record
func (r *Router) generateReporte(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var in ReporteRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	var datos *reports.Datos
	switch in.Tipo {
	case models.ReporteRevisionesEvento:
		if in.Filtros.IDEvento == "" {
			respondError(w, http.StatusBadRequest, "filtros.idEvento is required for this report type")
			return
		}
		datos, err = r.reportes.RevisionesPorEvento(db, in.Filtros.IDEvento)
	case models.ReporteVerificacionesCalidad:
		datos, err = r.reportes.VerificacionesCalidad(db, in.Filtros)
	case models.ReporteAprobacionesPendientes:
		datos, err = r.reportes.AprobacionesPendientes(db, in.Filtros)
	default:
		respondError(w, http.StatusBadRequest, "Unknown report tipo")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	nombre := in.Nombre
	if nombre == "" {
		nombre = fmt.Sprintf("%s %s", in.Tipo, time.Now().UTC().Format("2006-01-02 15:04"))
	}
	generadoPor := middleware.ClaimString(req.Context(), "nombre")
	if generadoPor == "" {
		generadoPor = middleware.ClaimString(req.Context(), "email")
	}

	reporte, err := r.reportes.Crear(db, in.Tipo, nombre, generadoPor, in.Filtros, datos)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to store reporte")
		return
	}
	respondJSON(w, http.StatusCreated, reporte)
}

func (r *Router) getReporte(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	reporte, err := r.reportes.Get(db, mux.Vars(req)["id"])
	if err != nil {
		if errors.Is(err, reports.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Reporte not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to load reporte")
		return
	}
	respondJSON(w, http.StatusOK, reporte)
}

func (r *Router) downloadReportePDF(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	reporte, err := r.reportes.Get(db, mux.Vars(req)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Reporte not found")
		return
	}

	data, err := reports.RenderPDF(reporte)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to render PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reporte.Nombre+".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (r *Router) downloadReporteExcel(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	reporte, err := r.reportes.Get(db, mux.Vars(req)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Reporte not found")
		return
	}

	data, err := reports.RenderExcel(reporte)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to render Excel")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reporte.Nombre+".xlsx"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
