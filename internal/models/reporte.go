package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Report types
const (
	ReporteRevisionesEvento       = "revisiones_evento"
	ReporteVerificacionesCalidad  = "verificaciones_calidad"
	ReporteAprobacionesPendientes = "aprobaciones_pendientes"
	ReporteGeneral                = "general"
)

// Reporte is an append-only audit record of a generated export. It holds a
// denormalized snapshot of the data at generation time, so deleting the
// underlying revisiones never alters a historical report.
type Reporte struct {
	ID              string            `gorm:"primaryKey;type:uuid" json:"id"`
	Tipo            string            `gorm:"not null" json:"tipo"`
	Nombre          string            `gorm:"not null" json:"nombre"`
	FechaGeneracion time.Time         `json:"fechaGeneracion"`
	Filtros         datatypes.JSONMap `json:"filtros"`
	GeneradoPor     string            `json:"generadoPor"`
	DatosReporte    datatypes.JSON    `gorm:"column:datos_reporte" json:"datosReporte,omitempty"`
}

// TableName specifies the table name for Reporte model
func (Reporte) TableName() string {
	return "reportes"
}

func (r *Reporte) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.FechaGeneracion.IsZero() {
		r.FechaGeneracion = time.Now().UTC()
	}
	return nil
}
