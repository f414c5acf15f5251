package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/grupoheroica/calidadrecintos/internal/catalog"
	"github.com/grupoheroica/calidadrecintos/internal/models"
	"github.com/grupoheroica/calidadrecintos/internal/skill"
)

// EventoRequest is the create/update payload for an evento
type EventoRequest struct {
	IDEvento    int     `json:"idEvento"`
	Nombre      string  `json:"nombre"`
	Descripcion string  `json:"descripcion"`
	FechaEvento *string `json:"fechaEvento"`
	Estado      string  `json:"estado"`
}

// listEventos returns the catalog, optionally filtered by ?search=
func (r *Router) listEventos(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var eventos []models.Evento
	if err := db.Order("id_evento DESC").Find(&eventos).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load eventos")
		return
	}
	respondJSON(w, http.StatusOK, catalog.SearchEventos(eventos, req.URL.Query().Get("search")))
}

// createEvento registers an evento by hand
func (r *Router) createEvento(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var in EventoRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if in.IDEvento <= 0 || in.Nombre == "" {
		respondError(w, http.StatusBadRequest, "idEvento and nombre are required")
		return
	}

	evento := models.Evento{
		IDEvento:    in.IDEvento,
		Nombre:      in.Nombre,
		Descripcion: in.Descripcion,
		Estado:      models.EstadoActivo,
	}
	if in.Estado != "" {
		evento.Estado = in.Estado
	}
	if in.FechaEvento != nil {
		fecha, err := parseFechaEvento(*in.FechaEvento)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid fechaEvento")
			return
		}
		evento.FechaEvento = &fecha
	}
	if err := db.Create(&evento).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondError(w, http.StatusConflict, "An evento with that idEvento already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to create evento")
		return
	}
	respondJSON(w, http.StatusCreated, evento)
}

// getEvento returns one evento
func (r *Router) getEvento(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var evento models.Evento
	if err := db.First(&evento, "id = ?", mux.Vars(req)["id"]).Error; err != nil {
		respondError(w, http.StatusNotFound, "Evento not found")
		return
	}
	respondJSON(w, http.StatusOK, evento)
}

// updateEvento edits name, description, date or state
func (r *Router) updateEvento(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var evento models.Evento
	if err := db.First(&evento, "id = ?", mux.Vars(req)["id"]).Error; err != nil {
		respondError(w, http.StatusNotFound, "Evento not found")
		return
	}

	var in EventoRequest
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
	if in.FechaEvento != nil {
		fecha, err := parseFechaEvento(*in.FechaEvento)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid fechaEvento")
			return
		}
		updates["fecha_evento"] = fecha
	}
	if len(updates) == 0 {
		respondJSON(w, http.StatusOK, evento)
		return
	}
	if err := db.Model(&evento).Updates(updates).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update evento")
		return
	}
	respondJSON(w, http.StatusOK, evento)
}

// deleteEvento removes an evento from the catalog
func (r *Router) deleteEvento(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	res := db.Delete(&models.Evento{}, "id = ?", mux.Vars(req)["id"])
	if res.Error != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete evento")
		return
	}
	if res.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, "Evento not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func parseFechaEvento(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// importEventosXLSX ingests a spreadsheet upload (multipart field "file")
func (r *Router) importEventosXLSX(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	file, _, err := req.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Multipart field 'file' is required")
		return
	}
	defer file.Close()

	rows, err := catalog.ParseEventosXLSX(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := catalog.ImportEventos(db, rows)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// skillEvents proxies the external scheduling API: either ?month=&year= for
// a month listing or ?eventNumber= for a single lookup
func (r *Router) skillEvents(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	if raw := q.Get("eventNumber"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "eventNumber must be an integer")
			return
		}
		events, err := r.skill.EventByNumber(req.Context(), n)
		if err != nil {
			respondError(w, http.StatusBadGateway, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, events)
		return
	}

	month, err := strconv.Atoi(q.Get("month"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "month must be an integer")
		return
	}
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "year must be an integer")
		return
	}

	events, err := r.skill.EventsByMonth(req.Context(), month, year)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// importSkillEvents stores events picked from a Skill listing, skipping the
// ones already in the catalog
func (r *Router) importSkillEvents(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var events []skill.Event
	if err := json.NewDecoder(req.Body).Decode(&events); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	rows := make([]catalog.EventoRow, 0, len(events))
	for _, e := range events {
		if e.IDEvento <= 0 || e.Nombre == "" {
			continue
		}
		rows = append(rows, catalog.EventoRow{IDEvento: e.IDEvento, Nombre: e.Nombre})
	}
	if len(rows) == 0 {
		respondError(w, http.StatusBadRequest, "No valid events to import")
		return
	}

	result, err := catalog.ImportEventos(db, rows)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}
