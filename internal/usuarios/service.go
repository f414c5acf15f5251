package usuarios

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/grupoheroica/calidadrecintos/internal/models"
)

var (
	// ErrDomainNotAllowed is returned when the identity's e-mail domain is
	// not in the recinto's allow-list. The session must not proceed.
	ErrDomainNotAllowed = errors.New("account domain is not authorized for the selected recinto")
	// ErrNotFound is returned when the usuario does not exist
	ErrNotFound = errors.New("usuario not found")
)

// ultimoAccesoWindow rate-limits last-access writes per session
const ultimoAccesoWindow = 5 * time.Minute

// Identity is the verified profile handed over by the identity provider
type Identity struct {
	UID        string `json:"uid"`
	Email      string `json:"email"`
	Nombre     string `json:"nombre"`
	FotoPerfil string `json:"fotoPerfil"`
}

// DomainAllowed reports whether the e-mail matches one of the recinto's
// allowed domains. An empty allow-list accepts everything.
func DomainAllowed(email string, allowedDomains []string) bool {
	if len(allowedDomains) == 0 {
		return true
	}
	email = strings.ToLower(email)
	for _, domain := range allowedDomains {
		if strings.HasSuffix(email, strings.ToLower(domain)) {
			return true
		}
	}
	return false
}

// EnsureOnSignIn registers the identity on first sign-in and refreshes the
// stored profile afterwards. Lookup is by UID first, e-mail as fallback
// (the natural key when the UID was never stored). UltimoAcceso is written
// at most once per five minutes to keep write volume down.
func EnsureOnSignIn(db *gorm.DB, identity Identity, allowedDomains []string) (*models.Usuario, error) {
	if identity.Email == "" {
		return nil, fmt.Errorf("identity has no email")
	}
	if !DomainAllowed(identity.Email, allowedDomains) {
		return nil, ErrDomainNotAllowed
	}

	user, err := GetByUID(db, identity.UID)
	if errors.Is(err, ErrNotFound) {
		user, err = GetByEmail(db, identity.Email)
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()

	if user == nil {
		nombre := identity.Nombre
		if nombre == "" {
			nombre = strings.SplitN(identity.Email, "@", 2)[0]
		}
		created := models.Usuario{
			UID:           identity.UID,
			Email:         identity.Email,
			Nombre:        nombre,
			Rol:           models.RolEstandar,
			Estado:        models.EstadoActivo,
			FotoPerfil:    identity.FotoPerfil,
			FechaCreacion: now,
			UltimoAcceso:  &now,
		}
		if err := db.Create(&created).Error; err != nil {
			return nil, fmt.Errorf("creating usuario: %w", err)
		}
		return &created, nil
	}

	if user.UltimoAcceso != nil && now.Sub(*user.UltimoAcceso) <= ultimoAccesoWindow {
		return user, nil
	}

	updates := map[string]interface{}{
		"ultimo_acceso": now,
		"uid":           identity.UID,
	}
	// Resync the provider profile when it changed
	if identity.Nombre != "" {
		updates["nombre"] = identity.Nombre
	}
	if identity.FotoPerfil != "" {
		updates["foto_perfil"] = identity.FotoPerfil
	}
	if err := db.Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("updating usuario: %w", err)
	}
	return user, nil
}

// GetByUID looks a usuario up by the identity provider's UID
func GetByUID(db *gorm.DB, uid string) (*models.Usuario, error) {
	if uid == "" {
		return nil, ErrNotFound
	}
	var user models.Usuario
	if err := db.First(&user, "uid = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail looks a usuario up by e-mail
func GetByEmail(db *gorm.DB, email string) (*models.Usuario, error) {
	var user models.Usuario
	if err := db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns all usuarios sorted by display name
func List(db *gorm.DB) ([]models.Usuario, error) {
	var users []models.Usuario
	if err := db.Order("nombre ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
