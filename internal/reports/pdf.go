package reports

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/grupoheroica/calidadrecintos/internal/models"
)

const fechaLayout = "02/01/2006 15:04"

// RenderPDF renders a reporte from its stored snapshot. Historical reports
// stay renderable after the underlying revisiones are deleted.
func RenderPDF(reporte *models.Reporte) ([]byte, error) {
	datos, err := Snapshot(reporte)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Header with the report locator as a QR code, scannable back to the
	// stored audit record
	qrPng, err := qrcode.Encode("calidad://reportes/"+reporte.ID, qrcode.Low, 256)
	if err != nil {
		return nil, err
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("qr_reporte", opts, bytes.NewReader(qrPng))
	pdf.ImageOptions("qr_reporte", 180, 10, 20, 20, false, opts, 0, "")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(tituloReporte(reporte.Tipo)), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Generado: %s  |  Por: %s", reporte.FechaGeneracion.Format(fechaLayout), reporte.GeneradoPor)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if datos.Evento != nil {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 7, tr(fmt.Sprintf("Evento: %s (ID: %d)", datos.Evento.Nombre, datos.Evento.IDEvento)), "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}

	writeResumen(pdf, tr, datos)
	writeDetalle(pdf, tr, datos)
	writeEstadisticas(pdf, tr, datos)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeResumen(pdf *gofpdf.Fpdf, tr func(string) string, datos *Datos) {
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, tr("Resumen de Revisiones"), "", 1, "L", false, 0, "")

	headers := []string{"Evento", "Área", "Fecha", "Estado", "Aprobado por"}
	widths := []float64{45, 40, 35, 25, 45}

	pdf.SetFont("Arial", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 6, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, rev := range datos.Revisiones {
		cells := []string{
			nombreEvento(rev.Evento),
			nombreArea(rev.Area),
			rev.FechaRevision.Format(fechaLayout),
			estadoLabel(rev.Estado),
			rev.AprobadoPor,
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 6, tr(truncate(c, 30)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func writeDetalle(pdf *gofpdf.Fpdf, tr func(string) string, datos *Datos) {
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, tr("Parámetros Detallados"), "", 1, "L", false, 0, "")

	for _, rev := range datos.Revisiones {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s - %s", nombreArea(rev.Area), rev.FechaRevision.Format(fechaLayout))), "", 1, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 8)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(90, 5, tr("Parámetro"), "1", 0, "L", true, 0, "")
		pdf.CellFormat(45, 5, tr("Resultado"), "1", 0, "C", true, 0, "")
		pdf.CellFormat(45, 5, tr("Verificación"), "1", 0, "C", true, 0, "")
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 8)
		for _, p := range rev.Parametros {
			resultado, _ := rev.ResultadoDe(p.ID)
			verificacion := ""
			if v, ok := rev.VerificacionCalidad[p.ID]; ok {
				verificacion, _ = v.(string)
			}
			pdf.CellFormat(90, 5, tr(truncate(p.Nombre, 55)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(45, 5, tr(resultadoLabel(resultado)), "1", 0, "C", false, 0, "")
			pdf.CellFormat(45, 5, tr(verificacionLabel(verificacion)), "1", 0, "C", false, 0, "")
			pdf.Ln(-1)
		}

		if rev.Comentarios != "" {
			pdf.SetFont("Arial", "I", 8)
			pdf.MultiCell(180, 4, tr("Comentarios: "+rev.Comentarios), "", "L", false)
		}
		if rev.ComentariosCalidad != "" {
			pdf.SetFont("Arial", "I", 8)
			pdf.MultiCell(180, 4, tr("Calidad: "+rev.ComentariosCalidad), "", "L", false)
		}
		pdf.Ln(3)
	}
}

func writeEstadisticas(pdf *gofpdf.Fpdf, tr func(string) string, datos *Datos) {
	total := len(datos.Revisiones)
	aprobadas, pendientes := 0, 0
	for _, rev := range datos.Revisiones {
		switch rev.Estado {
		case models.RevisionAprobado:
			aprobadas++
		case models.RevisionPendiente:
			pendientes++
		}
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, tr("Estadísticas"), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Total de revisiones: %d", total)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Revisadas: %d  |  Pendientes: %d", aprobadas, pendientes)), "", 1, "L", false, 0, "")
}

func tituloReporte(tipo string) string {
	switch tipo {
	case models.ReporteRevisionesEvento:
		return "Reporte de Revisiones por Evento"
	case models.ReporteVerificacionesCalidad:
		return "Reporte de Verificaciones de Calidad"
	case models.ReporteAprobacionesPendientes:
		return "Reporte de Aprobaciones Pendientes"
	default:
		return "Reporte General"
	}
}

// estadoLabel maps the stored state to its display label; the UI shows
// 'aprobado' as REVISADO
func estadoLabel(estado string) string {
	switch estado {
	case models.RevisionAprobado:
		return "REVISADO"
	case models.RevisionPendiente:
		return "PENDIENTE"
	case models.RevisionRechazado:
		return "RECHAZADO"
	default:
		return estado
	}
}

func resultadoLabel(resultado string) string {
	switch resultado {
	case models.ResultadoCumple:
		return "Cumple"
	case models.ResultadoNoCumple:
		return "No Cumple"
	case models.ResultadoNoAplica:
		return "No Aplica"
	default:
		return "-"
	}
}

func verificacionLabel(v string) string {
	switch v {
	case models.VerificacionVerificado:
		return "Verificado"
	case models.VerificacionPendiente:
		return "Pendiente"
	case models.VerificacionNoCumple:
		return "No Cumple"
	default:
		return "-"
	}
}

func nombreEvento(e *models.Evento) string {
	if e == nil {
		return "-"
	}
	return e.Nombre
}

func nombreArea(a *models.Area) string {
	if a == nil {
		return "-"
	}
	return a.Nombre
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "..."
}
