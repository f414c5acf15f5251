package reports

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/grupoheroica/calidadrecintos/internal/models"
)

// RenderExcel renders a reporte snapshot as an xlsx workbook with a
// summary sheet, a per-parameter detail sheet and a statistics sheet.
func RenderExcel(reporte *models.Reporte) ([]byte, error) {
	datos, err := Snapshot(reporte)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9D9D9"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	if err := writeResumenSheet(f, headerStyle, reporte, datos); err != nil {
		return nil, err
	}
	if err := writeDetalleSheet(f, headerStyle, datos); err != nil {
		return nil, err
	}
	if err := writeEstadisticasSheet(f, headerStyle, datos); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeResumenSheet(f *excelize.File, headerStyle int, reporte *models.Reporte, datos *Datos) error {
	const sheet = "Resumen"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	f.SetCellValue(sheet, "A1", tituloReporte(reporte.Tipo))
	f.SetCellValue(sheet, "A2", "Generado: "+reporte.FechaGeneracion.Format(fechaLayout))
	f.SetCellValue(sheet, "A3", "Por: "+reporte.GeneradoPor)
	if datos.Evento != nil {
		f.SetCellValue(sheet, "A4", fmt.Sprintf("Evento: %s (ID: %d)", datos.Evento.Nombre, datos.Evento.IDEvento))
	}

	headers := []string{"Evento", "ID Evento", "Área", "Fecha", "Estado", "Aprobado por", "Comentarios"}
	row := 6
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for _, rev := range datos.Revisiones {
		row++
		idEvento := 0
		if rev.Evento != nil {
			idEvento = rev.Evento.IDEvento
		}
		values := []interface{}{
			nombreEvento(rev.Evento),
			idEvento,
			nombreArea(rev.Area),
			rev.FechaRevision.Format(fechaLayout),
			estadoLabel(rev.Estado),
			rev.AprobadoPor,
			rev.Comentarios,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	f.SetColWidth(sheet, "A", "A", 35)
	f.SetColWidth(sheet, "C", "C", 25)
	f.SetColWidth(sheet, "D", "D", 18)
	f.SetColWidth(sheet, "F", "G", 30)
	return nil
}

func writeDetalleSheet(f *excelize.File, headerStyle int, datos *Datos) error {
	const sheet = "Parámetros Detallados"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"Evento", "Área", "Fecha", "Parámetro", "Resultado", "Verificación"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	row := 1
	for _, rev := range datos.Revisiones {
		for _, p := range rev.Parametros {
			row++
			resultado, _ := rev.ResultadoDe(p.ID)
			verificacion := ""
			if v, ok := rev.VerificacionCalidad[p.ID]; ok {
				verificacion, _ = v.(string)
			}
			values := []interface{}{
				nombreEvento(rev.Evento),
				nombreArea(rev.Area),
				rev.FechaRevision.Format(fechaLayout),
				p.Nombre,
				resultadoLabel(resultado),
				verificacionLabel(verificacion),
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				f.SetCellValue(sheet, cell, v)
			}
		}
	}

	f.SetColWidth(sheet, "A", "B", 30)
	f.SetColWidth(sheet, "C", "C", 18)
	f.SetColWidth(sheet, "D", "D", 45)
	f.SetColWidth(sheet, "E", "F", 15)
	return nil
}

func writeEstadisticasSheet(f *excelize.File, headerStyle int, datos *Datos) error {
	const sheet = "Estadísticas"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	total := len(datos.Revisiones)
	aprobadas, pendientes := 0, 0
	cumple, noCumple, noAplica := 0, 0, 0
	for _, rev := range datos.Revisiones {
		switch rev.Estado {
		case models.RevisionAprobado:
			aprobadas++
		case models.RevisionPendiente:
			pendientes++
		}
		for _, p := range rev.Parametros {
			switch r, _ := rev.ResultadoDe(p.ID); r {
			case models.ResultadoCumple:
				cumple++
			case models.ResultadoNoCumple:
				noCumple++
			case models.ResultadoNoAplica:
				noAplica++
			}
		}
	}

	rows := [][]interface{}{
		{"Indicador", "Valor"},
		{"Total de revisiones", total},
		{"Revisadas", aprobadas},
		{"Pendientes", pendientes},
		{"Parámetros que cumplen", cumple},
		{"Parámetros que no cumplen", noCumple},
		{"Parámetros no aplicables", noAplica},
	}
	for r, cols := range rows {
		for c, v := range cols {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			f.SetCellValue(sheet, cell, v)
		}
	}
	f.SetCellStyle(sheet, "A1", "B1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 30)
	return nil
}
