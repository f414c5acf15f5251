package catalog

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/grupoheroica/calidadrecintos/internal/models"
)

// ErrNoColumns is returned when no identifiable header columns were found
var ErrNoColumns = errors.New("no identifiable columns found")

// EventoRow is one validated spreadsheet row
type EventoRow struct {
	IDEvento int
	Nombre   string
}

// ImportResult reports how the import went
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Header aliases accepted for each field, matched after normalization.
// A contains-match on the normalized header is the fallback.
var (
	idAliases     = []string{"idevento", "ideventoid", "id"}
	nombreAliases = []string{"nombre", "nombreevento", "evento", "name"}
)

// normalizeHeader lowercases, strips diacritics and drops anything that is
// not a letter or digit, so "ID Evento", "id_evento" and "IdEvénto" match.
func normalizeHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	clean, _, err := transform.String(t, s)
	if err != nil {
		clean = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(clean) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// findColumn resolves a header index by alias, exact normalized match
// first, contains-match as fallback
func findColumn(headers []string, aliases []string) int {
	normed := make([]string, len(headers))
	for i, h := range headers {
		normed[i] = normalizeHeader(h)
	}
	for _, alias := range aliases {
		for i, n := range normed {
			if n == alias {
				return i
			}
		}
	}
	for i, n := range normed {
		for _, alias := range aliases {
			if strings.Contains(n, alias) {
				return i
			}
		}
	}
	return -1
}

// ParseEventosXLSX reads the first sheet of a workbook into validated rows.
// Rows without an integer id or a non-empty name are ignored; duplicated
// ids within the file keep their first occurrence.
func ParseEventosXLSX(r io.Reader) ([]EventoRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %q has no data rows", sheets[0])
	}

	headers := rows[0]
	idCol := findColumn(headers, idAliases)
	nameCol := findColumn(headers, nombreAliases)
	if idCol < 0 || nameCol < 0 {
		return nil, fmt.Errorf("%w: detected headers %v", ErrNoColumns, headers)
	}

	seen := make(map[int]bool)
	parsed := make([]EventoRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		id, ok := cellInt(row, idCol)
		if !ok {
			continue
		}
		nombre := strings.TrimSpace(cell(row, nameCol))
		if nombre == "" {
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		parsed = append(parsed, EventoRow{IDEvento: id, Nombre: nombre})
	}

	if len(parsed) == 0 {
		return nil, fmt.Errorf("no valid rows found; expected columns 'ID Evento' and 'Nombre'")
	}
	return parsed, nil
}

// ImportEventos inserts rows whose external code is not stored yet and
// reports how many were skipped as already existing.
func ImportEventos(db *gorm.DB, rows []EventoRow) (ImportResult, error) {
	var existing []models.Evento
	if err := db.Select("id_evento").Find(&existing).Error; err != nil {
		return ImportResult{}, fmt.Errorf("loading existing eventos: %w", err)
	}
	known := make(map[int]bool, len(existing))
	for _, e := range existing {
		known[e.IDEvento] = true
	}

	var result ImportResult
	for _, row := range rows {
		if known[row.IDEvento] {
			result.Skipped++
			continue
		}
		evento := models.Evento{
			IDEvento: row.IDEvento,
			Nombre:   row.Nombre,
			Estado:   models.EstadoActivo,
		}
		if err := db.Create(&evento).Error; err != nil {
			return result, fmt.Errorf("creating evento %d: %w", row.IDEvento, err)
		}
		known[row.IDEvento] = true
		result.Imported++
	}
	return result, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func cellInt(row []string, i int) (int, bool) {
	raw := strings.TrimSpace(cell(row, i))
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, true
	}
	// Spreadsheets often render integers as floats ("1001.0")
	if fl, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(fl) {
		return int(math.Trunc(fl)), true
	}
	return 0, false
}
