package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Revision lifecycle states. RevisionRechazado is declared for data
// compatibility but no verification flow produces it.
const (
	RevisionPendiente = "pendiente"
	RevisionAprobado  = "aprobado"
	RevisionRechazado = "rechazado"
)

// Phase-1 answers, one per active Parametro at creation time
const (
	ResultadoCumple   = "cumple"
	ResultadoNoCumple = "no_cumple"
	ResultadoNoAplica = "no_aplica"
)

// Phase-2 quality verification answers
const (
	VerificacionVerificado = "verificado"
	VerificacionPendiente  = "pendiente"
	VerificacionNoCumple   = "no_cumple"
)

// Revision is a single area inspector's checklist submission for one
// Evento+Area pair, later audited by the quality team.
//
// Version is a monotonically increasing counter checked on every
// verification write; a stale writer loses with a conflict instead of
// silently overwriting the winner.
type Revision struct {
	ID                  string                      `gorm:"primaryKey;type:uuid" json:"id"`
	IDEvento            string                      `gorm:"column:id_evento;index;not null" json:"idEvento"`
	IDArea              string                      `gorm:"column:id_area;index;not null" json:"idArea"`
	IDUsuario           string                      `gorm:"column:id_usuario;not null" json:"idUsuario"`
	FechaRevision       time.Time                   `json:"fechaRevision"`
	Resultados          datatypes.JSONMap           `gorm:"not null" json:"resultados"`
	Estado              string                      `gorm:"default:'pendiente';index" json:"estado"`
	Comentarios         string                      `json:"comentarios,omitempty"`
	VerificacionCalidad datatypes.JSONMap           `gorm:"column:verificacion_calidad" json:"verificacionCalidad,omitempty"`
	ComentariosCalidad  string                      `gorm:"column:comentarios_calidad" json:"comentariosCalidad,omitempty"`
	Evidencias          datatypes.JSONSlice[string] `json:"evidencias,omitempty"`
	AprobadoPor         string                      `json:"aprobadoPor,omitempty"`
	AprobadoPorUID      string                      `gorm:"column:aprobado_por_uid" json:"aprobadoPorUid,omitempty"`
	FechaAprobacion     *time.Time                  `json:"fechaAprobacion,omitempty"`
	Version             int                         `gorm:"default:0" json:"version"`
}

// TableName specifies the table name for Revision model
func (Revision) TableName() string {
	return "revisiones"
}

func (r *Revision) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.FechaRevision.IsZero() {
		r.FechaRevision = time.Now().UTC()
	}
	return nil
}

// ResultadoDe returns the phase-1 answer recorded for a parametro
func (r *Revision) ResultadoDe(parametroID string) (string, bool) {
	v, ok := r.Resultados[parametroID]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
