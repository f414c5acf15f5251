package usuarios

import (
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
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
	if err := db.AutoMigrate(&models.Usuario{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func TestDomainAllowed(t *testing.T) {
	domains := []string{"@grupoheroica.com", "@cccartagena.com"}

	if !DomainAllowed("ana@grupoheroica.com", domains) {
		t.Error("Corporate domain should be allowed")
	}
	if !DomainAllowed("ANA@GRUPOHEROICA.COM", domains) {
		t.Error("Domain check should be case-insensitive")
	}
	if DomainAllowed("ana@gmail.com", domains) {
		t.Error("Foreign domain should be rejected")
	}
	if !DomainAllowed("cualquiera@gmail.com", nil) {
		t.Error("Empty allow-list accepts everything")
	}
}

func TestEnsureOnSignInRejectsForeignDomain(t *testing.T) {
	db := setupDB(t)

	_, err := EnsureOnSignIn(db, Identity{
		UID:   "uid-1",
		Email: "ana@gmail.com",
	}, []string{"@grupoheroica.com"})
	if !errors.Is(err, ErrDomainNotAllowed) {
		t.Fatalf("Expected ErrDomainNotAllowed, got %v", err)
	}

	var count int64
	db.Model(&models.Usuario{}).Count(&count)
	if count != 0 {
		t.Errorf("Rejected identity must not be stored, found %d usuarios", count)
	}
}

func TestEnsureOnSignInCreatesOnFirstSignIn(t *testing.T) {
	db := setupDB(t)

	user, err := EnsureOnSignIn(db, Identity{
		UID:   "uid-1",
		Email: "ana@grupoheroica.com",
	}, []string{"@grupoheroica.com"})
	if err != nil {
		t.Fatalf("EnsureOnSignIn failed: %v", err)
	}
	if user.Rol != models.RolEstandar {
		t.Errorf("New accounts start estandar, got %q", user.Rol)
	}
	if user.Estado != models.EstadoActivo {
		t.Errorf("New accounts start activo, got %q", user.Estado)
	}
	if user.Nombre != "ana" {
		t.Errorf("Missing display name falls back to the mailbox, got %q", user.Nombre)
	}
	if user.UltimoAcceso == nil {
		t.Error("UltimoAcceso should be set on first sign-in")
	}
}

func TestEnsureOnSignInFallsBackToEmailLookup(t *testing.T) {
	db := setupDB(t)

	// Account created without a provider UID (e.g. bootstrap admin)
	seed := models.Usuario{Email: "admin@grupoheroica.com", Nombre: "Administrador", Rol: models.RolAdministrador, Estado: models.EstadoActivo}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("Failed to seed usuario: %v", err)
	}

	user, err := EnsureOnSignIn(db, Identity{
		UID:   "uid-9",
		Email: "admin@grupoheroica.com",
	}, nil)
	if err != nil {
		t.Fatalf("EnsureOnSignIn failed: %v", err)
	}
	if user.ID != seed.ID {
		t.Errorf("Expected the existing account, got %q", user.ID)
	}

	var stored models.Usuario
	if err := db.First(&stored, "id = ?", seed.ID).Error; err != nil {
		t.Fatalf("Failed to reload usuario: %v", err)
	}
	if stored.UID != "uid-9" {
		t.Errorf("Provider UID should be backfilled, got %q", stored.UID)
	}
	if stored.Rol != models.RolAdministrador {
		t.Errorf("Sign-in must not change the stored rol, got %q", stored.Rol)
	}
}

func TestEnsureOnSignInThrottlesUltimoAcceso(t *testing.T) {
	db := setupDB(t)

	recent := time.Now().UTC().Add(-time.Minute)
	seed := models.Usuario{UID: "uid-1", Email: "ana@grupoheroica.com", Nombre: "Ana", UltimoAcceso: &recent}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("Failed to seed usuario: %v", err)
	}

	if _, err := EnsureOnSignIn(db, Identity{UID: "uid-1", Email: "ana@grupoheroica.com"}, nil); err != nil {
		t.Fatalf("EnsureOnSignIn failed: %v", err)
	}

	var stored models.Usuario
	if err := db.First(&stored, "uid = ?", "uid-1").Error; err != nil {
		t.Fatalf("Failed to reload usuario: %v", err)
	}
	if !stored.UltimoAcceso.Equal(recent) {
		t.Errorf("UltimoAcceso within the window must not be rewritten")
	}

	// Past the window the timestamp moves
	old := time.Now().UTC().Add(-10 * time.Minute)
	if err := db.Model(&stored).Update("ultimo_acceso", old).Error; err != nil {
		t.Fatalf("Failed to age usuario: %v", err)
	}
	if _, err := EnsureOnSignIn(db, Identity{UID: "uid-1", Email: "ana@grupoheroica.com"}, nil); err != nil {
		t.Fatalf("EnsureOnSignIn failed: %v", err)
	}
	if err := db.First(&stored, "uid = ?", "uid-1").Error; err != nil {
		t.Fatalf("Failed to reload usuario: %v", err)
	}
	if !stored.UltimoAcceso.After(old) {
		t.Error("UltimoAcceso should advance past the throttle window")
	}
}
