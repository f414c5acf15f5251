package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/grupoheroica/calidadrecintos/internal/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Evento{}, &models.Area{}, &models.Parametro{}, &models.Revision{}, &models.Reporte{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func seedRevision(t *testing.T, db *gorm.DB, estado string, fecha time.Time, verificada bool) (models.Evento, models.Revision) {
	t.Helper()
	evento := models.Evento{IDEvento: 1001, Nombre: "Congreso Andino"}
	if err := db.FirstOrCreate(&evento, models.Evento{IDEvento: 1001}).Error; err != nil {
		t.Fatalf("Failed to create evento: %v", err)
	}
	area := models.Area{Nombre: "Cocina"}
	if err := db.Create(&area).Error; err != nil {
		t.Fatalf("Failed to create area: %v", err)
	}
	parametro := models.Parametro{IDArea: area.ID, Nombre: "Limpieza"}
	if err := db.Create(&parametro).Error; err != nil {
		t.Fatalf("Failed to create parametro: %v", err)
	}

	rev := models.Revision{
		IDEvento:      evento.ID,
		IDArea:        area.ID,
		IDUsuario:     "u-1",
		FechaRevision: fecha,
		Resultados:    datatypes.JSONMap{parametro.ID: models.ResultadoCumple},
		Estado:        estado,
	}
	if verificada {
		rev.VerificacionCalidad = datatypes.JSONMap{parametro.ID: models.VerificacionVerificado}
		rev.AprobadoPor = "Ana Quintero"
	}
	if err := db.Create(&rev).Error; err != nil {
		t.Fatalf("Failed to create revision: %v", err)
	}
	return evento, rev
}

func TestRevisionesPorEvento(t *testing.T) {
	db := setupDB(t)
	svc := NewService()
	evento, rev := seedRevision(t, db, models.RevisionPendiente, time.Now().UTC(), false)

	datos, err := svc.RevisionesPorEvento(db, evento.ID)
	if err != nil {
		t.Fatalf("RevisionesPorEvento failed: %v", err)
	}
	if datos.Evento == nil || datos.Evento.IDEvento != 1001 {
		t.Fatalf("Expected evento context, got %+v", datos.Evento)
	}
	if len(datos.Revisiones) != 1 {
		t.Fatalf("Expected 1 revision, got %d", len(datos.Revisiones))
	}
	joined := datos.Revisiones[0]
	if joined.ID != rev.ID {
		t.Errorf("Unexpected revision %q", joined.ID)
	}
	if joined.Area == nil || joined.Area.Nombre != "Cocina" {
		t.Errorf("Expected joined area, got %+v", joined.Area)
	}
	if len(joined.Parametros) != 1 {
		t.Errorf("Expected joined parametros, got %+v", joined.Parametros)
	}

	if _, err := svc.RevisionesPorEvento(db, "missing"); err == nil {
		t.Error("Expected error for unknown evento")
	}
}

func TestVerificacionesCalidadFilters(t *testing.T) {
	db := setupDB(t)
	svc := NewService()

	old := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	seedRevision(t, db, models.RevisionAprobado, old, true)
	seedRevision(t, db, models.RevisionAprobado, recent, true)
	seedRevision(t, db, models.RevisionPendiente, recent, false) // never verified, always excluded

	datos, err := svc.VerificacionesCalidad(db, Filtros{})
	if err != nil {
		t.Fatalf("VerificacionesCalidad failed: %v", err)
	}
	if len(datos.Revisiones) != 2 {
		t.Fatalf("Expected 2 verified revisiones, got %d", len(datos.Revisiones))
	}

	datos, err = svc.VerificacionesCalidad(db, Filtros{FechaDesde: "2026-02-01"})
	if err != nil {
		t.Fatalf("Filtered query failed: %v", err)
	}
	if len(datos.Revisiones) != 1 {
		t.Fatalf("Expected 1 revision after fechaDesde, got %d", len(datos.Revisiones))
	}

	// Date-only upper bound is inclusive
	datos, err = svc.VerificacionesCalidad(db, Filtros{FechaHasta: "2026-01-10"})
	if err != nil {
		t.Fatalf("Filtered query failed: %v", err)
	}
	if len(datos.Revisiones) != 1 {
		t.Fatalf("Expected 1 revision up to fechaHasta, got %d", len(datos.Revisiones))
	}

	// Estado 'todos' disables the state filter
	datos, err = svc.VerificacionesCalidad(db, Filtros{Estado: "todos"})
	if err != nil {
		t.Fatalf("Filtered query failed: %v", err)
	}
	if len(datos.Revisiones) != 2 {
		t.Fatalf("Estado todos should keep both, got %d", len(datos.Revisiones))
	}

	if _, err := svc.VerificacionesCalidad(db, Filtros{FechaDesde: "no-date"}); err == nil {
		t.Error("Expected error for malformed fechaDesde")
	}
}

func TestAprobacionesPendientes(t *testing.T) {
	db := setupDB(t)
	svc := NewService()
	seedRevision(t, db, models.RevisionPendiente, time.Now().UTC(), false)
	seedRevision(t, db, models.RevisionAprobado, time.Now().UTC(), true)

	datos, err := svc.AprobacionesPendientes(db, Filtros{})
	if err != nil {
		t.Fatalf("AprobacionesPendientes failed: %v", err)
	}
	if len(datos.Revisiones) != 1 {
		t.Fatalf("Expected 1 pending revision, got %d", len(datos.Revisiones))
	}
	if datos.Revisiones[0].Estado != models.RevisionPendiente {
		t.Errorf("Unexpected estado %q", datos.Revisiones[0].Estado)
	}
}

func TestSnapshotSurvivesRevisionDelete(t *testing.T) {
	db := setupDB(t)
	svc := NewService()
	evento, rev := seedRevision(t, db, models.RevisionAprobado, time.Now().UTC(), true)

	datos, err := svc.RevisionesPorEvento(db, evento.ID)
	if err != nil {
		t.Fatalf("RevisionesPorEvento failed: %v", err)
	}
	reporte, err := svc.Crear(db, models.ReporteRevisionesEvento, "Reporte de prueba", "Ana", Filtros{IDEvento: evento.ID}, datos)
	if err != nil {
		t.Fatalf("Crear failed: %v", err)
	}

	// Source row goes away; the stored snapshot must not change
	if err := db.Delete(&models.Revision{}, "id = ?", rev.ID).Error; err != nil {
		t.Fatalf("Failed to delete revision: %v", err)
	}

	stored, err := svc.Get(db, reporte.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	snapshot, err := Snapshot(stored)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snapshot.Revisiones) != 1 {
		t.Fatalf("Snapshot should still hold the deleted revision, got %d", len(snapshot.Revisiones))
	}
	if snapshot.Revisiones[0].ID != rev.ID {
		t.Errorf("Snapshot lost the revision identity")
	}
	if snapshot.Revisiones[0].AprobadoPor != "Ana Quintero" {
		t.Errorf("Snapshot lost the approver, got %q", snapshot.Revisiones[0].AprobadoPor)
	}
}

func TestRenderPDFAndExcel(t *testing.T) {
	db := setupDB(t)
	svc := NewService()
	evento, _ := seedRevision(t, db, models.RevisionAprobado, time.Now().UTC(), true)

	datos, err := svc.RevisionesPorEvento(db, evento.ID)
	if err != nil {
		t.Fatalf("RevisionesPorEvento failed: %v", err)
	}
	reporte, err := svc.Crear(db, models.ReporteRevisionesEvento, "Reporte de prueba", "Ana", Filtros{IDEvento: evento.ID}, datos)
	if err != nil {
		t.Fatalf("Crear failed: %v", err)
	}

	pdf, err := RenderPDF(reporte)
	if err != nil {
		t.Fatalf("RenderPDF failed: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("PDF output missing magic header")
	}

	xlsx, err := RenderExcel(reporte)
	if err != nil {
		t.Fatalf("RenderExcel failed: %v", err)
	}
	// xlsx is a zip container
	if !bytes.HasPrefix(xlsx, []byte("PK")) {
		t.Error("Excel output missing zip header")
	}
}

func TestListNewestFirst(t *testing.T) {
	db := setupDB(t)
	svc := NewService()
	evento, _ := seedRevision(t, db, models.RevisionAprobado, time.Now().UTC(), true)
	datos, err := svc.RevisionesPorEvento(db, evento.ID)
	if err != nil {
		t.Fatalf("RevisionesPorEvento failed: %v", err)
	}

	first, err := svc.Crear(db, models.ReporteRevisionesEvento, "Primero", "Ana", Filtros{}, datos)
	if err != nil {
		t.Fatalf("Crear failed: %v", err)
	}
	// Force a strictly later generation time
	if err := db.Model(&models.Reporte{}).Where("id = ?", first.ID).
		Update("fecha_generacion", time.Now().UTC().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("Failed to age reporte: %v", err)
	}
	second, err := svc.Crear(db, models.ReporteAprobacionesPendientes, "Segundo", "Ana", Filtros{}, datos)
	if err != nil {
		t.Fatalf("Crear failed: %v", err)
	}

	reportes, err := svc.List(db)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(reportes) != 2 {
		t.Fatalf("Expected 2 reportes, got %d", len(reportes))
	}
	if reportes[0].ID != second.ID {
		t.Errorf("Expected newest first, got %q", reportes[0].ID)
	}
}
