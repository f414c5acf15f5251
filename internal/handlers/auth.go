package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grupoheroica/calidadrecintos/internal/models"
	"github.com/grupoheroica/calidadrecintos/internal/usuarios"
	"github.com/grupoheroica/calidadrecintos/internal/utils"
)

// SignInRequest carries the verified identity-provider profile plus the
// recinto the session is for
type SignInRequest struct {
	Recinto  string            `json:"recinto"`
	Identity usuarios.Identity `json:"identity"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// BootstrapRequest authenticates the configured break-glass administrator
type BootstrapRequest struct {
	Recinto  string `json:"recinto"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signIn registers or refreshes the usuario for a provider identity and
// issues the session tokens. The recinto's domain allow-list is enforced
// before anything is stored.
func (r *Router) signIn(w http.ResponseWriter, req *http.Request) {
	var in SignInRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	rc, ok := r.cfg.Recinto(in.Recinto)
	if !ok {
		respondError(w, http.StatusBadRequest, "Unknown recinto")
		return
	}
	db, err := r.db.ForRecinto(in.Recinto)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Recinto store unavailable")
		return
	}

	user, err := usuarios.EnsureOnSignIn(db, in.Identity, rc.AllowedDomains)
	if err != nil {
		if errors.Is(err, usuarios.ErrDomainNotAllowed) {
			respondError(w, http.StatusForbidden, "Account domain is not authorized for this recinto")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if user.Estado != models.EstadoActivo {
		respondError(w, http.StatusForbidden, "Account is disabled")
		return
	}

	accessToken, refreshToken, err := utils.GenerateTokens(user, in.Recinto, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"usuario":      user,
	})
}

// refresh exchanges a valid refresh token for a new token pair
func (r *Router) refresh(w http.ResponseWriter, req *http.Request) {
	var in RefreshRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	claims, err := utils.ValidateToken(in.RefreshToken, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}
	id, _ := claims["id"].(string)
	recinto, _ := claims["recinto"].(string)

	db, err := r.db.ForRecinto(recinto)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unknown recinto")
		return
	}

	var user models.Usuario
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		respondError(w, http.StatusUnauthorized, "Unknown account")
		return
	}
	if user.Estado != models.EstadoActivo {
		respondError(w, http.StatusForbidden, "Account is disabled")
		return
	}

	accessToken, refreshToken, err := utils.GenerateTokens(&user, recinto, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	})
}

// bootstrap signs the configured administrator in with e-mail and password,
// creating or promoting the account. Intended for first-run setup when no
// administrador exists yet.
func (r *Router) bootstrap(w http.ResponseWriter, req *http.Request) {
	if r.cfg.AdminEmail == "" || r.cfg.AdminPasswordHash == "" {
		respondError(w, http.StatusNotFound, "Bootstrap admin is not configured")
		return
	}

	var in BootstrapRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if in.Email != r.cfg.AdminEmail || !utils.CheckPasswordHash(in.Password, r.cfg.AdminPasswordHash) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	db, err := r.db.ForRecinto(in.Recinto)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Unknown recinto")
		return
	}

	user, err := usuarios.GetByEmail(db, in.Email)
	if errors.Is(err, usuarios.ErrNotFound) {
		created := models.Usuario{
			Email:  in.Email,
			Nombre: "Administrador",
			Rol:    models.RolAdministrador,
			Estado: models.EstadoActivo,
		}
		if err := db.Create(&created).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to create administrator")
			return
		}
		user = &created
	} else if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load administrator")
		return
	} else if user.Rol != models.RolAdministrador {
		if err := db.Model(user).Update("rol", models.RolAdministrador).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to promote administrator")
			return
		}
		user.Rol = models.RolAdministrador
	}

	accessToken, refreshToken, err := utils.GenerateTokens(user, in.Recinto, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"usuario":      user,
	})
}
