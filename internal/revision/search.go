package revision

import (
	"strings"

	"github.com/grupoheroica/calidadrecintos/internal/models"
)

// Search filters a revision listing by substring, case-insensitive. Matches
// the estado, free-text comments and the approver's name. Filtering happens
// in memory, same as the catalog listings.
func Search(revs []models.Revision, term string) []models.Revision {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return revs
	}
	out := make([]models.Revision, 0, len(revs))
	for _, rev := range revs {
		if strings.Contains(strings.ToLower(rev.Estado), term) ||
			strings.Contains(strings.ToLower(rev.Comentarios), term) ||
			strings.Contains(strings.ToLower(rev.ComentariosCalidad), term) ||
			strings.Contains(strings.ToLower(rev.AprobadoPor), term) {
			out = append(out, rev)
		}
	}
	return out
}
