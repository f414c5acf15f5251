package revision

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/grupoheroica/calidadrecintos/internal/models"
	"github.com/grupoheroica/calidadrecintos/internal/notify"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Evento{}, &models.Area{}, &models.Parametro{}, &models.Revision{}, &models.Usuario{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func seedChecklist(t *testing.T, db *gorm.DB, activos, inactivos int) (string, []string) {
	t.Helper()
	area := models.Area{Nombre: "Cocina"}
	if err := db.Create(&area).Error; err != nil {
		t.Fatalf("Failed to create area: %v", err)
	}
	ids := make([]string, 0, activos)
	for i := 0; i < activos; i++ {
		p := models.Parametro{IDArea: area.ID, Nombre: "Parametro", Estado: models.EstadoActivo}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("Failed to create parametro: %v", err)
		}
		ids = append(ids, p.ID)
	}
	for i := 0; i < inactivos; i++ {
		p := models.Parametro{IDArea: area.ID, Nombre: "Retirado", Estado: models.EstadoInactivo}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("Failed to create parametro: %v", err)
		}
	}
	return area.ID, ids
}

func TestCreateRequiresExactChecklistCover(t *testing.T) {
	db := setupDB(t)
	svc := NewService(notify.NewBus())
	areaID, ids := seedChecklist(t, db, 2, 1)

	// Missing one answer
	_, err := svc.Create(db, "CCCI", CreateInput{
		IDEvento:   "ev-1",
		IDArea:     areaID,
		IDUsuario:  "u-1",
		Resultados: map[string]string{ids[0]: models.ResultadoCumple},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected validation error for missing answer, got %v", err)
	}

	// Answer for an inactive/unknown parametro
	_, err = svc.Create(db, "CCCI", CreateInput{
		IDEvento:  "ev-1",
		IDArea:    areaID,
		IDUsuario: "u-1",
		Resultados: map[string]string{
			ids[0]:  models.ResultadoCumple,
			"extra": models.ResultadoCumple,
		},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected validation error for unknown parametro, got %v", err)
	}

	// Invalid answer value
	_, err = svc.Create(db, "CCCI", CreateInput{
		IDEvento:  "ev-1",
		IDArea:    areaID,
		IDUsuario: "u-1",
		Resultados: map[string]string{
			ids[0]: "tal_vez",
			ids[1]: models.ResultadoCumple,
		},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected validation error for invalid resultado, got %v", err)
	}

	// Exact cover succeeds and starts pendiente
	rev, err := svc.Create(db, "CCCI", CreateInput{
		IDEvento:  "ev-1",
		IDArea:    areaID,
		IDUsuario: "u-1",
		Resultados: map[string]string{
			ids[0]: models.ResultadoCumple,
			ids[1]: models.ResultadoNoAplica,
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rev.Estado != models.RevisionPendiente {
		t.Errorf("New revision should be pendiente, got %q", rev.Estado)
	}
	if rev.Version != 0 {
		t.Errorf("New revision should start at version 0, got %d", rev.Version)
	}
}

func TestCreateRejectsEmptyChecklist(t *testing.T) {
	db := setupDB(t)
	svc := NewService(notify.NewBus())
	areaID, _ := seedChecklist(t, db, 0, 2)

	_, err := svc.Create(db, "CCCI", CreateInput{
		IDEvento:   "ev-1",
		IDArea:     areaID,
		IDUsuario:  "u-1",
		Resultados: map[string]string{},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected validation error for area without active parametros, got %v", err)
	}
}

func createPending(t *testing.T, db *gorm.DB, svc *Service) (*models.Revision, []string) {
	t.Helper()
	areaID, ids := seedChecklist(t, db, 2, 0)
	rev, err := svc.Create(db, "CCCI", CreateInput{
		IDEvento:  "ev-1",
		IDArea:    areaID,
		IDUsuario: "u-1",
		Resultados: map[string]string{
			ids[0]: models.ResultadoCumple,
			ids[1]: models.ResultadoNoCumple,
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return rev, ids
}

func TestVerificationDerivesEstado(t *testing.T) {
	db := setupDB(t)
	svc := NewService(notify.NewBus())
	rev, ids := createPending(t, db, svc)

	// One answer still pendiente keeps the revision pendiente
	updated, err := svc.SubmitVerification(db, "CCCI", rev.ID, VerificationInput{
		Verificacion: map[string]string{
			ids[0]: models.VerificacionVerificado,
			ids[1]: models.VerificacionPendiente,
		},
		Version: 0,
	})
	if err != nil {
		t.Fatalf("SubmitVerification failed: %v", err)
	}
	if updated.Estado != models.RevisionPendiente {
		t.Errorf("Expected estado pendiente, got %q", updated.Estado)
	}
	if updated.Version != 1 {
		t.Errorf("Expected version 1, got %d", updated.Version)
	}

	// Re-verification with no pending answers approves
	updated, err = svc.SubmitVerification(db, "CCCI", rev.ID, VerificationInput{
		Verificacion: map[string]string{
			ids[0]: models.VerificacionVerificado,
			ids[1]: models.VerificacionNoCumple,
		},
		NombreFallback: "Ana Quintero",
		Version:        1,
	})
	if err != nil {
		t.Fatalf("Re-verification failed: %v", err)
	}
	if updated.Estado != models.RevisionAprobado {
		t.Errorf("Expected estado aprobado, got %q", updated.Estado)
	}
	if updated.AprobadoPor != "Ana Quintero" {
		t.Errorf("Expected fallback approver name, got %q", updated.AprobadoPor)
	}
	if updated.FechaAprobacion == nil {
		t.Error("FechaAprobacion should be set")
	}
}

func TestVerificationPrefersStoredUsuarioName(t *testing.T) {
	db := setupDB(t)
	svc := NewService(notify.NewBus())
	rev, ids := createPending(t, db, svc)

	user := models.Usuario{UID: "uid-77", Email: "maria@grupoheroica.com", Nombre: "María Pérez"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create usuario: %v", err)
	}

	updated, err := svc.SubmitVerification(db, "CCCI", rev.ID, VerificationInput{
		Verificacion: map[string]string{
			ids[0]: models.VerificacionVerificado,
			ids[1]: models.VerificacionVerificado,
		},
		AprobadoPorUID: "uid-77",
		NombreFallback: "auth-profile-name",
		Version:        0,
	})
	if err != nil {
		t.Fatalf("SubmitVerification failed: %v", err)
	}
	if updated.AprobadoPor != "María Pérez" {
		t.Errorf("Expected stored display name, got %q", updated.AprobadoPor)
	}
	if updated.AprobadoPorUID != "uid-77" {
		t.Errorf("Expected approver uid recorded, got %q", updated.AprobadoPorUID)
	}
}

func TestVerificationStaleVersionConflicts(t *testing.T) {
	db := setupDB(t)
	svc := NewService(notify.NewBus())
	rev, ids := createPending(t, db, svc)

	first := VerificationInput{
		Verificacion: map[string]string{
			ids[0]: models.VerificacionVerificado,
			ids[1]: models.VerificacionPendiente,
		},
		Version: 0,
	}
	if _, err := svc.SubmitVerification(db, "CCCI", rev.ID, first); err != nil {
		t.Fatalf("First verification failed: %v", err)
	}

	// Second writer still holds version 0
	stale := VerificationInput{
		Verificacion: map[string]string{
			ids[0]: models.VerificacionNoCumple,
			ids[1]: models.VerificacionPendiente,
		},
		Version: 0,
	}
	if _, err := svc.SubmitVerification(db, "CCCI", rev.ID, stale); !errors.Is(err, ErrConflict) {
		t.Fatalf("Expected conflict for stale version, got %v", err)
	}
}

func TestVerificationRejectsNonPending(t *testing.T) {
	db := setupDB(t)
	svc := NewService(notify.NewBus())
	rev, ids := createPending(t, db, svc)

	approve := VerificationInput{
		Verificacion: map[string]string{
			ids[0]: models.VerificacionVerificado,
			ids[1]: models.VerificacionVerificado,
		},
		Version: 0,
	}
	if _, err := svc.SubmitVerification(db, "CCCI", rev.ID, approve); err != nil {
		t.Fatalf("Approval failed: %v", err)
	}

	approve.Version = 1
	if _, err := svc.SubmitVerification(db, "CCCI", rev.ID, approve); !errors.Is(err, ErrNotPending) {
		t.Fatalf("Expected ErrNotPending on an approved revision, got %v", err)
	}
}

func TestDeleteRemovesRevision(t *testing.T) {
	db := setupDB(t)
	svc := NewService(notify.NewBus())
	rev, _ := createPending(t, db, svc)

	if err := svc.Delete(db, "CCCI", rev.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(db, rev.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(db, "CCCI", rev.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestRevisionApprovalFlow(t *testing.T) {
	db := setupDB(t)
	svc := NewService(notify.NewBus())

	evento := models.Evento{IDEvento: 1001, Nombre: "Congreso Nacional", Estado: models.EstadoActivo}
	if err := db.Create(&evento).Error; err != nil {
		t.Fatalf("Failed to create evento: %v", err)
	}
	area := models.Area{Nombre: "Baños"}
	if err := db.Create(&area).Error; err != nil {
		t.Fatalf("Failed to create area: %v", err)
	}
	parametro := models.Parametro{IDArea: area.ID, Nombre: "Limpieza", Estado: models.EstadoActivo}
	if err := db.Create(&parametro).Error; err != nil {
		t.Fatalf("Failed to create parametro: %v", err)
	}

	// Phase 1: the area inspector submits the checklist
	rev, err := svc.Create(db, "CCCI", CreateInput{
		IDEvento:   evento.ID,
		IDArea:     area.ID,
		IDUsuario:  "u-1",
		Resultados: map[string]string{parametro.ID: models.ResultadoCumple},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rev.Estado != models.RevisionPendiente {
		t.Fatalf("Expected estado pendiente after create, got %q", rev.Estado)
	}

	pendientes, err := svc.ListPendientes(db)
	if err != nil {
		t.Fatalf("ListPendientes failed: %v", err)
	}
	if len(pendientes) != 1 || pendientes[0].ID != rev.ID {
		t.Fatalf("Expected the new revision in the pending queue, got %d entries", len(pendientes))
	}

	// Phase 2: the quality team verifies every answer
	updated, err := svc.SubmitVerification(db, "CCCI", rev.ID, VerificationInput{
		Verificacion:   map[string]string{parametro.ID: models.VerificacionVerificado},
		NombreFallback: "Carla Ruiz",
		Version:        rev.Version,
	})
	if err != nil {
		t.Fatalf("SubmitVerification failed: %v", err)
	}
	if updated.Estado != models.RevisionAprobado {
		t.Errorf("Expected estado aprobado, got %q", updated.Estado)
	}
	if updated.FechaAprobacion == nil {
		t.Error("FechaAprobacion should be set on approval")
	}
	if updated.AprobadoPor != "Carla Ruiz" {
		t.Errorf("Expected approver recorded, got %q", updated.AprobadoPor)
	}

	pendientes, err = svc.ListPendientes(db)
	if err != nil {
		t.Fatalf("ListPendientes failed: %v", err)
	}
	if len(pendientes) != 0 {
		t.Errorf("Approved revision should leave the pending queue, got %d entries", len(pendientes))
	}

	porEvento, err := svc.ListByEvento(db, evento.ID)
	if err != nil {
		t.Fatalf("ListByEvento failed: %v", err)
	}
	if len(porEvento) != 1 || porEvento[0].Estado != models.RevisionAprobado {
		t.Fatalf("Expected one approved revision for the evento, got %+v", porEvento)
	}
}

func TestWritesAnnounceOnBus(t *testing.T) {
	db := setupDB(t)
	bus := notify.NewBus()
	svc := NewService(bus)
	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	createPending(t, db, svc)

	select {
	case evt := <-ch:
		if evt.Recinto != "CCCI" || evt.Coleccion != notify.ColeccionRevisiones {
			t.Errorf("Unexpected event %+v", evt)
		}
	default:
		t.Error("Expected a change event after create")
	}
}
