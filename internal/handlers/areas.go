package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/grupoheroica/calidadrecintos/internal/catalog"
	"github.com/grupoheroica/calidadrecintos/internal/models"
)

// AreaRequest is the create/update payload for an area
type AreaRequest struct {
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
	Estado      string `json:"estado"`
}

func (r *Router) listAreas(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var areas []models.Area
	if err := db.Order("nombre ASC").Find(&areas).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load areas")
		return
	}
	respondJSON(w, http.StatusOK, catalog.SearchAreas(areas, req.URL.Query().Get("search")))
}

func (r *Router) createArea(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var in AreaRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if in.Nombre == "" {
		respondError(w, http.StatusBadRequest, "nombre is required")
		return
	}

	area := models.Area{
		Nombre:      in.Nombre,
		Descripcion: in.Descripcion,
		Estado:      models.EstadoActivo,
	}
	if in.Estado != "" {
		area.Estado = in.Estado
	}
	if err := db.Create(&area).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create area")
		return
	}
	respondJSON(w, http.StatusCreated, area)
}

// getArea returns one area together with its parameter checklist
func (r *Router) getArea(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var area models.Area
	if err := db.First(&area, "id = ?", mux.Vars(req)["id"]).Error; err != nil {
		respondError(w, http.StatusNotFound, "Area not found")
		return
	}

	var parametros []models.Parametro
	if err := db.Where("id_area = ?", area.ID).Order("nombre ASC").Find(&parametros).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load parametros")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"area":       area,
		"parametros": parametros,
	})
}

func (r *Router) updateArea(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var area models.Area
	if err := db.First(&area, "id = ?", mux.Vars(req)["id"]).Error; err != nil {
		respondError(w, http.StatusNotFound, "Area not found")
		return
	}

	var in AreaRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	updates := map[string]interface{}{}
	if in.Nombre != "" {
		updates["nombre"] = in.Nombre
	}
	if in.Descripcion != "" {
		updates["descripcion"] = in.Descripcion
	}
	if in.Estado != "" {
		updates["estado"] = in.Estado
	}
	if len(updates) > 0 {
		if err := db.Model(&area).Updates(updates).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to update area")
			return
		}
	}
	respondJSON(w, http.StatusOK, area)
}

// deleteArea removes the area and its parameter checklist
func (r *Router) deleteArea(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	id := mux.Vars(req)["id"]
	res := db.Delete(&models.Area{}, "id = ?", id)
	if res.Error != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete area")
		return
	}
	if res.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, "Area not found")
		return
	}
	if err := db.Delete(&models.Parametro{}, "id_area = ?", id).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete parametros")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
