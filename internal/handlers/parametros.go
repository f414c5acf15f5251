package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/grupoheroica/calidadrecintos/internal/catalog"
	"github.com/grupoheroica/calidadrecintos/internal/models"
)

// ParametroRequest is the create/update payload for a checklist item
type ParametroRequest struct {
	IDArea string `json:"idArea"`
	Nombre string `json:"nombre"`
	Estado string `json:"estado"`
}

// listParametros returns checklist items, scoped by ?idArea= when given
func (r *Router) listParametros(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	q := db.Order("nombre ASC")
	if idArea := req.URL.Query().Get("idArea"); idArea != "" {
		q = q.Where("id_area = ?", idArea)
	}

	var parametros []models.Parametro
	if err := q.Find(&parametros).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load parametros")
		return
	}
	respondJSON(w, http.StatusOK, catalog.SearchParametros(parametros, req.URL.Query().Get("search")))
}

func (r *Router) createParametro(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var in ParametroRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if in.IDArea == "" || in.Nombre == "" {
		respondError(w, http.StatusBadRequest, "idArea and nombre are required")
		return
	}

	// The checklist item must hang off an existing area
	var area models.Area
	if err := db.First(&area, "id = ?", in.IDArea).Error; err != nil {
		respondError(w, http.StatusBadRequest, "Area not found")
		return
	}

	parametro := models.Parametro{
		IDArea: in.IDArea,
		Nombre: in.Nombre,
		Estado: models.EstadoActivo,
	}
	if in.Estado != "" {
		parametro.Estado = in.Estado
	}
	if err := db.Create(&parametro).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create parametro")
		return
	}
	respondJSON(w, http.StatusCreated, parametro)
}

func (r *Router) updateParametro(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var parametro models.Parametro
	if err := db.First(&parametro, "id = ?", mux.Vars(req)["id"]).Error; err != nil {
		respondError(w, http.StatusNotFound, "Parametro not found")
		return
	}

	var in ParametroRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	updates := map[string]interface{}{}
	if in.Nombre != "" {
		updates["nombre"] = in.Nombre
	}
	if in.Estado != "" {
		updates["estado"] = in.Estado
	}
	if len(updates) > 0 {
		if err := db.Model(&parametro).Updates(updates).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to update parametro")
			return
		}
	}
	respondJSON(w, http.StatusOK, parametro)
}

func (r *Router) deleteParametro(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	res := db.Delete(&models.Parametro{}, "id = ?", mux.Vars(req)["id"])
	if res.Error != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete parametro")
		return
	}
	if res.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, "Parametro not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
