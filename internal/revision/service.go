package revision

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/grupoheroica/calidadrecintos/internal/models"
	"github.com/grupoheroica/calidadrecintos/internal/notify"
)

var (
	// ErrNotFound is returned when the revision does not exist
	ErrNotFound = errors.New("revision not found")
	// ErrNotPending is returned when verifying a revision that already left 'pendiente'
	ErrNotPending = errors.New("revision is no longer pending")
	// ErrConflict is returned when a concurrent writer updated the revision first
	ErrConflict = errors.New("revision was modified by another user")
	// ErrValidation is returned for malformed or incomplete input
	ErrValidation = errors.New("invalid revision data")
)

// Service implements the revision lifecycle: creation by an area reviewer,
// quality-team verification, and the derived approval state. Every write
// announces itself on the shared bus so open sessions can refresh.
type Service struct {
	bus *notify.Bus
}

// NewService creates a revision service publishing on the given bus
func NewService(bus *notify.Bus) *Service {
	return &Service{bus: bus}
}

// CreateInput is the phase-1 payload submitted by an area reviewer
type CreateInput struct {
	IDEvento    string            `json:"idEvento"`
	IDArea      string            `json:"idArea"`
	IDUsuario   string            `json:"idUsuario"`
	Resultados  map[string]string `json:"resultados"`
	Comentarios string            `json:"comentarios"`
}

// VerificationInput is the phase-2 payload submitted by a quality reviewer.
// Evidencias must already be uploaded; only their locators travel here, so
// a failed upload aborts before any revision state is touched.
type VerificationInput struct {
	Verificacion       map[string]string `json:"verificacionCalidad"`
	ComentariosCalidad string            `json:"comentariosCalidad"`
	Evidencias         []string          `json:"evidencias"`
	AprobadoPorUID     string            `json:"-"`
	NombreFallback     string            `json:"-"`
	Version            int               `json:"version"`
}

// Create validates and persists a new revision in estado 'pendiente'.
// Resultados must contain exactly one valid answer per Parametro active in
// the Area right now; extra or missing keys are rejected.
func (s *Service) Create(db *gorm.DB, recinto string, in CreateInput) (*models.Revision, error) {
	if in.IDEvento == "" || in.IDArea == "" || in.IDUsuario == "" {
		return nil, fmt.Errorf("%w: idEvento, idArea and idUsuario are required", ErrValidation)
	}

	var parametros []models.Parametro
	if err := db.Where("id_area = ? AND estado = ?", in.IDArea, models.EstadoActivo).Find(&parametros).Error; err != nil {
		return nil, fmt.Errorf("loading parametros: %w", err)
	}
	if len(parametros) == 0 {
		return nil, fmt.Errorf("%w: area has no active parametros", ErrValidation)
	}

	if len(in.Resultados) != len(parametros) {
		return nil, fmt.Errorf("%w: expected %d resultados, got %d", ErrValidation, len(parametros), len(in.Resultados))
	}
	for _, p := range parametros {
		res, ok := in.Resultados[p.ID]
		if !ok {
			return nil, fmt.Errorf("%w: missing resultado for parametro %q", ErrValidation, p.Nombre)
		}
		if !validResultado(res) {
			return nil, fmt.Errorf("%w: invalid resultado %q for parametro %q", ErrValidation, res, p.Nombre)
		}
	}

	rev := models.Revision{
		IDEvento:      in.IDEvento,
		IDArea:        in.IDArea,
		IDUsuario:     in.IDUsuario,
		FechaRevision: time.Now().UTC(),
		Resultados:    toJSONMap(in.Resultados),
		Estado:        models.RevisionPendiente,
		Comentarios:   in.Comentarios,
	}
	if err := db.Create(&rev).Error; err != nil {
		return nil, fmt.Errorf("creating revision: %w", err)
	}

	s.publish(recinto)
	return &rev, nil
}

// SubmitVerification records the quality team's pass over a pending
// revision and derives the aggregate approval state: 'aprobado' when no
// answer is 'pendiente', otherwise the revision stays 'pendiente' and can
// be re-verified. The write is guarded by the version the caller saw.
func (s *Service) SubmitVerification(db *gorm.DB, recinto, id string, in VerificationInput) (*models.Revision, error) {
	rev, err := s.Get(db, id)
	if err != nil {
		return nil, err
	}
	if rev.Estado != models.RevisionPendiente {
		return nil, ErrNotPending
	}

	if len(in.Verificacion) != len(rev.Resultados) {
		return nil, fmt.Errorf("%w: expected %d verificaciones, got %d", ErrValidation, len(rev.Resultados), len(in.Verificacion))
	}
	for parametroID := range rev.Resultados {
		v, ok := in.Verificacion[parametroID]
		if !ok {
			return nil, fmt.Errorf("%w: missing verificacion for parametro %s", ErrValidation, parametroID)
		}
		if !validVerificacion(v) {
			return nil, fmt.Errorf("%w: invalid verificacion %q", ErrValidation, v)
		}
	}

	estado := models.RevisionAprobado
	for _, v := range in.Verificacion {
		if v == models.VerificacionPendiente {
			estado = models.RevisionPendiente
			break
		}
	}

	aprobadoPor := s.resolveNombre(db, in.AprobadoPorUID, in.NombreFallback)

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"verificacion_calidad": toJSONMap(in.Verificacion),
		"estado":               estado,
		"fecha_aprobacion":     now,
		"aprobado_por":         aprobadoPor,
		"aprobado_por_uid":     in.AprobadoPorUID,
		"version":              in.Version + 1,
	}
	// The store rejects undefined values; optional fields travel only when set
	if in.ComentariosCalidad != "" {
		updates["comentarios_calidad"] = in.ComentariosCalidad
	}
	if len(in.Evidencias) > 0 {
		updates["evidencias"] = datatypes.NewJSONSlice(in.Evidencias)
	}

	res := db.Model(&models.Revision{}).
		Where("id = ? AND version = ?", id, in.Version).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("updating revision: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrConflict
	}

	s.publish(recinto)
	return s.Get(db, id)
}

// UpdateEvidencias rewrites the evidence locator list on a revision
func (s *Service) UpdateEvidencias(db *gorm.DB, recinto, id string, evidencias []string) error {
	res := db.Model(&models.Revision{}).
		Where("id = ?", id).
		Update("evidencias", datatypes.NewJSONSlice(evidencias))
	if res.Error != nil {
		return fmt.Errorf("updating evidencias: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.publish(recinto)
	return nil
}

// Delete hard-deletes a revision from any state. Reports hold denormalized
// snapshots, so history survives the delete.
func (s *Service) Delete(db *gorm.DB, recinto, id string) error {
	res := db.Delete(&models.Revision{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting revision: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.publish(recinto)
	return nil
}

// Get returns a single revision
func (s *Service) Get(db *gorm.DB, id string) (*models.Revision, error) {
	var rev models.Revision
	if err := db.First(&rev, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rev, nil
}

// List returns the whole collection; callers filter. Acceptable at the
// volumes one recinto produces.
func (s *Service) List(db *gorm.DB) ([]models.Revision, error) {
	var revs []models.Revision
	if err := db.Order("fecha_revision DESC").Find(&revs).Error; err != nil {
		return nil, err
	}
	return revs, nil
}

// ListPendientes returns revisiones awaiting quality verification
func (s *Service) ListPendientes(db *gorm.DB) ([]models.Revision, error) {
	var revs []models.Revision
	if err := db.Where("estado = ?", models.RevisionPendiente).Order("fecha_revision DESC").Find(&revs).Error; err != nil {
		return nil, err
	}
	return revs, nil
}

// ListByEvento returns the revisiones recorded for one evento
func (s *Service) ListByEvento(db *gorm.DB, idEvento string) ([]models.Revision, error) {
	var revs []models.Revision
	if err := db.Where("id_evento = ?", idEvento).Order("fecha_revision DESC").Find(&revs).Error; err != nil {
		return nil, err
	}
	return revs, nil
}

// resolveNombre prefers the stored display name over the auth profile one
func (s *Service) resolveNombre(db *gorm.DB, uid, fallback string) string {
	if uid != "" {
		var user models.Usuario
		if err := db.First(&user, "uid = ?", uid).Error; err == nil && user.Nombre != "" {
			return user.Nombre
		}
	}
	if fallback != "" {
		return fallback
	}
	return "Usuario"
}

func (s *Service) publish(recinto string) {
	s.bus.Publish(notify.Event{Recinto: recinto, Coleccion: notify.ColeccionRevisiones})
}

func validResultado(v string) bool {
	switch v {
	case models.ResultadoCumple, models.ResultadoNoCumple, models.ResultadoNoAplica:
		return true
	}
	return false
}

func validVerificacion(v string) bool {
	switch v {
	case models.VerificacionVerificado, models.VerificacionPendiente, models.VerificacionNoCumple:
		return true
	}
	return false
}

func toJSONMap(m map[string]string) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
