// Package report renders printable driver documents
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/kidshuttle/shuttle-backend/internal/models"
)

// ManifestPDF renders manifests as an A4 checklist
type ManifestPDF struct {
	now      func() time.Time
	compress bool
}

func NewManifestPDF() *ManifestPDF {
	return &ManifestPDF{now: time.Now, compress: true}
}

// RenderManifest lays out one section per stop with a checkbox per student
func (r *ManifestPDF) RenderManifest(m *models.Manifest) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("manifest is nil")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetTitle("Pickup Manifest", false)
	// Core fonts are cp1252; names and addresses arrive as UTF-8
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "PICKUP MANIFEST")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	header := []string{
		"Route     : " + m.RouteName,
		"Date      : " + m.Date.String(),
		"Slot      : " + string(m.TimeSlot),
		"Schedule  : " + dayVariantLabel(m.DayVariant),
		fmt.Sprintf("Students  : %d of %d seats", m.TotalStudents, m.Capacity),
	}
	for _, line := range header {
		pdf.Cell(0, 7, tr(line))
		pdf.Ln(7)
	}
	pdf.Ln(4)

	for i, stop := range m.Stops {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("%d. %s  (%s)", i+1, stop.Stop.Name, stop.ScheduleTime)), "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "I", 9)
		pdf.Cell(0, 5, tr(stop.Stop.Address))
		pdf.Ln(6)

		pdf.SetFont("Helvetica", "", 11)
		if len(stop.Students) == 0 {
			pdf.Cell(0, 6, "No students booked")
			pdf.Ln(8)
			continue
		}
		for _, st := range stop.Students {
			box := "[  ]"
			if st.IsPickedUp {
				box = "[X]"
			}
			pdf.CellFormat(12, 6, box, "", 0, "L", false, 0, "")
			pdf.CellFormat(100, 6, tr(st.Name), "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 6, tr(st.Grade), "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.Cell(0, 6, "Generated "+r.now().Format("2006-01-02 15:04"))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render manifest pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func dayVariantLabel(v models.DayVariant) string {
	switch v {
	case models.DayVariantFriday:
		return "Friday"
	case models.DayVariantEarlyRelease:
		return "Early release"
	default:
		return "Regular"
	}
}
