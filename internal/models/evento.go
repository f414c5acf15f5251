package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shared lifecycle states for catalog entities
const (
	EstadoActivo   = "activo"
	EstadoInactivo = "inactivo"
)

// Evento represents a scheduled event inspections are performed for.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type Evento struct {
	ID            string     `gorm:"primaryKey;type:uuid" json:"id"`
	IDEvento      int        `gorm:"column:id_evento;uniqueIndex;not null" json:"idEvento"`
	Nombre        string     `gorm:"not null" json:"nombre"`
	Descripcion   string     `json:"descripcion,omitempty"`
	FechaCreacion time.Time  `json:"fechaCreacion"`
	FechaEvento   *time.Time `json:"fechaEvento,omitempty"`
	Estado        string     `gorm:"default:'activo'" json:"estado"`
}

// TableName specifies the table name for Evento model
func (Evento) TableName() string {
	return "eventos"
}

// BeforeCreate assigns a generated key so the model works on any driver
func (e *Evento) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.FechaCreacion.IsZero() {
		e.FechaCreacion = time.Now().UTC()
	}
	return nil
}
