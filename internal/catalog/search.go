package catalog

import (
	"strconv"
	"strings"

	"github.com/grupoheroica/calidadrecintos/internal/models"
)

// Search helpers mirror the store's query model: fetch the collection,
// filter in memory by substring. Fine at catalog volumes.

// SearchEventos filters by external code or name, case-insensitive
func SearchEventos(eventos []models.Evento, term string) []models.Evento {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return eventos
	}
	out := make([]models.Evento, 0, len(eventos))
	for _, e := range eventos {
		if strings.Contains(strconv.Itoa(e.IDEvento), term) ||
			strings.Contains(strings.ToLower(e.Nombre), term) {
			out = append(out, e)
		}
	}
	return out
}

// SearchAreas filters by name, case-insensitive
func SearchAreas(areas []models.Area, term string) []models.Area {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return areas
	}
	out := make([]models.Area, 0, len(areas))
	for _, a := range areas {
		if strings.Contains(strings.ToLower(a.Nombre), term) {
			out = append(out, a)
		}
	}
	return out
}

// SearchParametros filters by name, case-insensitive
func SearchParametros(parametros []models.Parametro, term string) []models.Parametro {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return parametros
	}
	out := make([]models.Parametro, 0, len(parametros))
	for _, p := range parametros {
		if strings.Contains(strings.ToLower(p.Nombre), term) {
			out = append(out, p)
		}
	}
	return out
}
