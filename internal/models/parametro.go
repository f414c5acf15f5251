package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Parametro is one checklist item belonging to an Area. An Area's active
// parameter set is the checklist used when a Revision is opened against it.
type Parametro struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	IDArea string `gorm:"column:id_area;index;not null" json:"idArea"`
	Nombre string `gorm:"not null" json:"nombre"`
	Estado string `gorm:"default:'activo'" json:"estado"`
}

// TableName specifies the table name for Parametro model
func (Parametro) TableName() string {
	return "parametros"
}

func (p *Parametro) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
