package reports

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/grupoheroica/calidadrecintos/internal/models"
)

// ErrNotFound is returned when the reporte does not exist
var ErrNotFound = errors.New("reporte not found")

// Filtros narrows a report's source data. Estado 'todos' (or empty)
// disables the state filter.
type Filtros struct {
	IDEvento   string `json:"idEvento,omitempty"`
	FechaDesde string `json:"fechaDesde,omitempty"`
	FechaHasta string `json:"fechaHasta,omitempty"`
	Estado     string `json:"estado,omitempty"`
}

// RevisionConDatos is a revision joined with its catalog context for
// export. The join is denormalized into the stored report snapshot, so a
// later catalog or revision delete never changes a generated report.
type RevisionConDatos struct {
	models.Revision
	Evento     *models.Evento     `json:"evento,omitempty"`
	Area       *models.Area       `json:"area,omitempty"`
	Parametros []models.Parametro `json:"parametros,omitempty"`
}

// Datos is the snapshot stored on (and rendered from) a Reporte
type Datos struct {
	Evento     *models.Evento     `json:"evento,omitempty"`
	Revisiones []RevisionConDatos `json:"revisiones"`
}

// Service builds report projections and keeps the append-only Reporte log
type Service struct{}

// NewService creates a report service
func NewService() *Service {
	return &Service{}
}

// RevisionesPorEvento joins every revision of one evento with its area and
// the area's parameter catalog
func (s *Service) RevisionesPorEvento(db *gorm.DB, idEvento string) (*Datos, error) {
	var evento models.Evento
	if err := db.First(&evento, "id = ?", idEvento).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("evento %q not found", idEvento)
		}
		return nil, err
	}

	var revisiones []models.Revision
	if err := db.Where("id_evento = ?", idEvento).Order("fecha_revision ASC").Find(&revisiones).Error; err != nil {
		return nil, err
	}

	areas, parametros, err := s.loadCatalog(db)
	if err != nil {
		return nil, err
	}

	joined := make([]RevisionConDatos, 0, len(revisiones))
	for _, rev := range revisiones {
		joined = append(joined, RevisionConDatos{
			Revision:   rev,
			Evento:     &evento,
			Area:       areas[rev.IDArea],
			Parametros: parametros[rev.IDArea],
		})
	}

	return &Datos{Evento: &evento, Revisiones: joined}, nil
}

// VerificacionesCalidad joins every quality-verified revision matching the
// filters with its evento and area
func (s *Service) VerificacionesCalidad(db *gorm.DB, filtros Filtros) (*Datos, error) {
	var revisiones []models.Revision
	if err := db.Order("fecha_revision ASC").Find(&revisiones).Error; err != nil {
		return nil, err
	}

	var eventos []models.Evento
	if err := db.Find(&eventos).Error; err != nil {
		return nil, err
	}
	eventosByID := make(map[string]*models.Evento, len(eventos))
	for i := range eventos {
		eventosByID[eventos[i].ID] = &eventos[i]
	}

	areas, parametros, err := s.loadCatalog(db)
	if err != nil {
		return nil, err
	}

	desde, hasta, err := filtros.dateRange()
	if err != nil {
		return nil, err
	}

	joined := make([]RevisionConDatos, 0, len(revisiones))
	for _, rev := range revisiones {
		if len(rev.VerificacionCalidad) == 0 {
			continue
		}
		if desde != nil && rev.FechaRevision.Before(*desde) {
			continue
		}
		if hasta != nil && rev.FechaRevision.After(*hasta) {
			continue
		}
		if filtros.Estado != "" && filtros.Estado != "todos" && rev.Estado != filtros.Estado {
			continue
		}
		joined = append(joined, RevisionConDatos{
			Revision:   rev,
			Evento:     eventosByID[rev.IDEvento],
			Area:       areas[rev.IDArea],
			Parametros: parametros[rev.IDArea],
		})
	}

	return &Datos{Revisiones: joined}, nil
}

// AprobacionesPendientes lists revisiones still awaiting approval,
// rendered with the verification layout
func (s *Service) AprobacionesPendientes(db *gorm.DB, filtros Filtros) (*Datos, error) {
	var revisiones []models.Revision
	if err := db.Where("estado = ?", models.RevisionPendiente).Order("fecha_revision ASC").Find(&revisiones).Error; err != nil {
		return nil, err
	}

	var eventos []models.Evento
	if err := db.Find(&eventos).Error; err != nil {
		return nil, err
	}
	eventosByID := make(map[string]*models.Evento, len(eventos))
	for i := range eventos {
		eventosByID[eventos[i].ID] = &eventos[i]
	}

	areas, parametros, err := s.loadCatalog(db)
	if err != nil {
		return nil, err
	}

	joined := make([]RevisionConDatos, 0, len(revisiones))
	for _, rev := range revisiones {
		joined = append(joined, RevisionConDatos{
			Revision:   rev,
			Evento:     eventosByID[rev.IDEvento],
			Area:       areas[rev.IDArea],
			Parametros: parametros[rev.IDArea],
		})
	}

	return &Datos{Revisiones: joined}, nil
}

// Crear appends the audit record for a generated export. Reportes are
// write-once: no update or delete path exists anywhere in the API.
func (s *Service) Crear(db *gorm.DB, tipo, nombre, generadoPor string, filtros Filtros, datos *Datos) (*models.Reporte, error) {
	snapshot, err := json.Marshal(datos)
	if err != nil {
		return nil, fmt.Errorf("marshaling report snapshot: %w", err)
	}

	filtrosMap := datatypes.JSONMap{}
	if filtros.IDEvento != "" {
		filtrosMap["idEvento"] = filtros.IDEvento
	}
	if filtros.FechaDesde != "" {
		filtrosMap["fechaDesde"] = filtros.FechaDesde
	}
	if filtros.FechaHasta != "" {
		filtrosMap["fechaHasta"] = filtros.FechaHasta
	}
	if filtros.Estado != "" {
		filtrosMap["estado"] = filtros.Estado
	}

	reporte := models.Reporte{
		Tipo:            tipo,
		Nombre:          nombre,
		FechaGeneracion: time.Now().UTC(),
		Filtros:         filtrosMap,
		GeneradoPor:     generadoPor,
		DatosReporte:    datatypes.JSON(snapshot),
	}
	if err := db.Create(&reporte).Error; err != nil {
		return nil, fmt.Errorf("creating reporte: %w", err)
	}
	return &reporte, nil
}

// List returns all reportes, newest first
func (s *Service) List(db *gorm.DB) ([]models.Reporte, error) {
	var reportes []models.Reporte
	if err := db.Order("fecha_generacion DESC").Find(&reportes).Error; err != nil {
		return nil, err
	}
	return reportes, nil
}

// Get returns one reporte with its stored snapshot
func (s *Service) Get(db *gorm.DB, id string) (*models.Reporte, error) {
	var reporte models.Reporte
	if err := db.First(&reporte, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reporte, nil
}

// Snapshot decodes the data stored on a reporte at generation time
func Snapshot(reporte *models.Reporte) (*Datos, error) {
	var datos Datos
	if err := json.Unmarshal(reporte.DatosReporte, &datos); err != nil {
		return nil, fmt.Errorf("decoding report snapshot: %w", err)
	}
	return &datos, nil
}

func (s *Service) loadCatalog(db *gorm.DB) (map[string]*models.Area, map[string][]models.Parametro, error) {
	var areas []models.Area
	if err := db.Find(&areas).Error; err != nil {
		return nil, nil, err
	}
	areasByID := make(map[string]*models.Area, len(areas))
	for i := range areas {
		areasByID[areas[i].ID] = &areas[i]
	}

	var parametros []models.Parametro
	if err := db.Find(&parametros).Error; err != nil {
		return nil, nil, err
	}
	byArea := make(map[string][]models.Parametro)
	for _, p := range parametros {
		byArea[p.IDArea] = append(byArea[p.IDArea], p)
	}

	return areasByID, byArea, nil
}

func (f Filtros) dateRange() (*time.Time, *time.Time, error) {
	var desde, hasta *time.Time
	if f.FechaDesde != "" {
		t, err := parseFecha(f.FechaDesde)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid fechaDesde: %w", err)
		}
		desde = &t
	}
	if f.FechaHasta != "" {
		t, err := parseFecha(f.FechaHasta)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid fechaHasta: %w", err)
		}
		// Inclusive upper bound when only a date was given
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		hasta = &t
	}
	return desde, hasta, nil
}

func parseFecha(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
