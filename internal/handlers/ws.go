package handlers

import (
	"net/http"

	"github.com/grupoheroica/calidadrecintos/internal/utils"
	"github.com/grupoheroica/calidadrecintos/internal/websocket"
)

// serveWs upgrades to a websocket scoped to the session's recinto. The
// access token travels as ?token= because browser websockets cannot set an
// Authorization header.
func (r *Router) serveWs(w http.ResponseWriter, req *http.Request) {
	token := req.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "token query parameter required")
		return
	}

	claims, err := utils.ValidateToken(token, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	recinto, _ := claims["recinto"].(string)
	if _, err := r.db.ForRecinto(recinto); err != nil {
		respondError(w, http.StatusUnauthorized, "Unknown recinto")
		return
	}

	websocket.ServeWs(r.hub, recinto, w, req)
}
