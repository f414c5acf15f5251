package revision

import (
	"testing"

	"github.com/grupoheroica/calidadrecintos/internal/models"
)

func TestSearchRevisiones(t *testing.T) {
	revs := []models.Revision{
		{ID: "r-1", Estado: models.RevisionPendiente, Comentarios: "Fuga en el lavamanos"},
		{ID: "r-2", Estado: models.RevisionAprobado, AprobadoPor: "María Pérez"},
		{ID: "r-3", Estado: models.RevisionAprobado, ComentariosCalidad: "Revisar la fuga de nuevo"},
	}

	if got := Search(revs, ""); len(got) != 3 {
		t.Errorf("Empty term should return everything, got %d", len(got))
	}
	if got := Search(revs, "  "); len(got) != 3 {
		t.Errorf("Blank term should return everything, got %d", len(got))
	}

	got := Search(revs, "FUGA")
	if len(got) != 2 || got[0].ID != "r-1" || got[1].ID != "r-3" {
		t.Errorf("Expected comment matches r-1 and r-3, got %+v", got)
	}

	got = Search(revs, "maría")
	if len(got) != 1 || got[0].ID != "r-2" {
		t.Errorf("Expected approver match r-2, got %+v", got)
	}

	got = Search(revs, "aprobado")
	if len(got) != 2 {
		t.Errorf("Expected estado matches, got %d", len(got))
	}

	if got := Search(revs, "inexistente"); len(got) != 0 {
		t.Errorf("Expected no matches, got %d", len(got))
	}
}
