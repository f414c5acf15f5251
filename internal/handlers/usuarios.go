package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/grupoheroica/calidadrecintos/internal/middleware"
	"github.com/grupoheroica/calidadrecintos/internal/models"
	"github.com/grupoheroica/calidadrecintos/internal/usuarios"
)

// UsuarioUpdateRequest lets an administrator change role or account state
type UsuarioUpdateRequest struct {
	Nombre string `json:"nombre"`
	Rol    string `json:"rol"`
	Estado string `json:"estado"`
}

func (r *Router) listUsuarios(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	users, err := usuarios.List(db)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load usuarios")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// currentUsuario returns the stored profile behind the session's token
func (r *Router) currentUsuario(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	uid := middleware.ClaimString(req.Context(), "uid")
	user, err := usuarios.GetByUID(db, uid)
	if errors.Is(err, usuarios.ErrNotFound) {
		email := middleware.ClaimString(req.Context(), "email")
		user, err = usuarios.GetByEmail(db, email)
	}
	if err != nil {
		respondError(w, http.StatusNotFound, "Usuario not found")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (r *Router) updateUsuario(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var user models.Usuario
	if err := db.First(&user, "id = ?", mux.Vars(req)["id"]).Error; err != nil {
		respondError(w, http.StatusNotFound, "Usuario not found")
		return
	}

	var in UsuarioUpdateRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	updates := map[string]interface{}{}
	if in.Nombre != "" {
		updates["nombre"] = in.Nombre
	}
	if in.Rol != "" {
		switch in.Rol {
		case models.RolAdministrador, models.RolCalidad, models.RolEstandar:
			updates["rol"] = in.Rol
		default:
			respondError(w, http.StatusBadRequest, "Invalid rol")
			return
		}
	}
	if in.Estado != "" {
		switch in.Estado {
		case models.EstadoActivo, models.EstadoInactivo:
			updates["estado"] = in.Estado
		default:
			respondError(w, http.StatusBadRequest, "Invalid estado")
			return
		}
	}
	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to update usuario")
			return
		}
	}
	respondJSON(w, http.StatusOK, user)
}
