package catalog

import (
	"testing"

	"github.com/grupoheroica/calidadrecintos/internal/models"
)

func TestSearchEventos(t *testing.T) {
	eventos := []models.Evento{
		{IDEvento: 1001, Nombre: "Congreso Andino"},
		{IDEvento: 2044, Nombre: "Feria del Libro"},
		{IDEvento: 3077, Nombre: "Asamblea General"},
	}

	if got := SearchEventos(eventos, ""); len(got) != 3 {
		t.Errorf("Empty term should return everything, got %d", len(got))
	}
	if got := SearchEventos(eventos, "feria"); len(got) != 1 || got[0].IDEvento != 2044 {
		t.Errorf("Expected name match on 2044, got %+v", got)
	}
	if got := SearchEventos(eventos, "307"); len(got) != 1 || got[0].IDEvento != 3077 {
		t.Errorf("Expected id substring match on 3077, got %+v", got)
	}
	if got := SearchEventos(eventos, "LIBRO"); len(got) != 1 {
		t.Errorf("Search should be case-insensitive, got %+v", got)
	}
	if got := SearchEventos(eventos, "nada"); len(got) != 0 {
		t.Errorf("Expected no matches, got %+v", got)
	}
}

func TestSearchAreas(t *testing.T) {
	areas := []models.Area{
		{Nombre: "Cocina Principal"},
		{Nombre: "Baños Planta 1"},
	}
	if got := SearchAreas(areas, "cocina"); len(got) != 1 {
		t.Errorf("Expected 1 match, got %+v", got)
	}
	if got := SearchAreas(areas, "  "); len(got) != 2 {
		t.Errorf("Whitespace term should return everything, got %d", len(got))
	}
}

func TestSearchParametros(t *testing.T) {
	parametros := []models.Parametro{
		{Nombre: "Limpieza de pisos"},
		{Nombre: "Señalización"},
	}
	if got := SearchParametros(parametros, "pisos"); len(got) != 1 {
		t.Errorf("Expected 1 match, got %+v", got)
	}
}
