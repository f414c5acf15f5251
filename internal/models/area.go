package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Area defines an inspectable zone of a recinto
type Area struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Nombre      string `gorm:"not null" json:"nombre"`
	Descripcion string `json:"descripcion,omitempty"`
	Estado      string `gorm:"default:'activo'" json:"estado"`
}

// TableName specifies the table name for Area model
func (Area) TableName() string {
	return "areas"
}

func (a *Area) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
