package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles. Rol and Estado are admin-managed; everything else follows
// the identity provider.
const (
	RolAdministrador = "administrador"
	RolCalidad       = "calidad"
	RolEstandar      = "estandar"
)

// Usuario is created automatically on first successful sign-in
type Usuario struct {
	ID            string     `gorm:"primaryKey;type:uuid" json:"id"`
	UID           string     `gorm:"column:uid;index" json:"uid,omitempty"`
	Email         string     `gorm:"uniqueIndex;not null" json:"email"`
	Nombre        string     `gorm:"not null" json:"nombre"`
	Rol           string     `gorm:"default:'estandar'" json:"rol"`
	Estado        string     `gorm:"default:'activo'" json:"estado"`
	FechaCreacion time.Time  `json:"fechaCreacion"`
	UltimoAcceso  *time.Time `json:"ultimoAcceso,omitempty"`
	FotoPerfil    string     `json:"fotoPerfil,omitempty"`
}

// TableName specifies the table name for Usuario model
func (Usuario) TableName() string {
	return "usuarios"
}

func (u *Usuario) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.FechaCreacion.IsZero() {
		u.FechaCreacion = time.Now().UTC()
	}
	return nil
}
