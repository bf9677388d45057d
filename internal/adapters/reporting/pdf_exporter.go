package reporting

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/jung-kurt/gofpdf"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

// PDFExporter exports training reports to PDF format
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ExportTrainingReport renders the evaluation of a training run.
func (e *PDFExporter) ExportTrainingReport(report *domain.TrainingReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	e.addHeader(pdf, report)
	e.addAccuracy(pdf, report)
	e.addCorpus(pdf, report)
	e.addEvaluation(pdf, report)
	for _, t := range report.Evaluation.Targets {
		e.addClassCounts(pdf, t)
	}
	e.addFooter(pdf, report)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, report *domain.TrainingReport) {
	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 14, report.Metadata.Title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", report.Metadata.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Artifact: %s (v%d, %s)", report.Artifact.ID, report.Artifact.Version, report.Artifact.Classifier), "", 1, "L", false, 0, "")
	pdf.Ln(6)
}

// addAccuracy shows the hold-out accuracy of both targets side by side.
func (e *PDFExporter) addAccuracy(pdf *gofpdf.Fpdf, report *domain.TrainingReport) {
	y := pdf.GetY()
	boxes := []struct {
		label string
		value float64
		x     float64
	}{
		{"Attack type", report.Artifact.AttackAccuracy, 20},
		{"Severity band", report.Artifact.SeverityAccuracy, 105},
	}

	for _, b := range boxes {
		r, g, bl := e.getAccuracyColor(b.value)
		pdf.SetFillColor(r, g, bl)
		pdf.Rect(b.x, y, 85, 26, "F")

		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Arial", "B", 11)
		pdf.SetXY(b.x+4, y+3)
		pdf.CellFormat(77, 6, b.label, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 24)
		pdf.SetXY(b.x+4, y+10)
		pdf.CellFormat(77, 12, fmt.Sprintf("%.1f%%", b.value*100), "", 0, "L", false, 0, "")
	}

	pdf.SetY(y + 32)
}

func (e *PDFExporter) getAccuracyColor(acc float64) (r, g, b int) {
	switch {
	case acc >= 0.85:
		return 52, 199, 89 // Green
	case acc >= 0.7:
		return 255, 149, 0 // Orange
	default:
		return 220, 53, 69 // Red
	}
}

func (e *PDFExporter) addCorpus(pdf *gofpdf.Fpdf, report *domain.TrainingReport) {
	e.sectionTitle(pdf, "Training Corpus")

	s := report.Stats
	stats := []struct {
		label string
		value int
	}{
		{"Input records", s.Input},
		{"Withdrawn", s.Withdrawn},
		{"Weakly labelled", s.Labelled},
		{"Bands derived", s.BandsDerived},
		{"Dropped (no target)", s.Dropped},
		{"Fitted rows", s.Rows},
		{"Train rows", report.Evaluation.TrainRows},
		{"Test rows", report.Evaluation.TestRows},
	}

	for i, stat := range stats {
		x := 20.0
		if i%2 == 1 {
			x = 105.0
		}
		pdf.SetXY(x, pdf.GetY())

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(50, 7, stat.label+":", "", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(0, 102, 204)
		pdf.CellFormat(35, 7, fmt.Sprintf("%d", stat.value), "", 0, "R", false, 0, "")

		if i%2 == 1 {
			pdf.Ln(7)
		}
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addEvaluation(pdf *gofpdf.Fpdf, report *domain.TrainingReport) {
	e.sectionTitle(pdf, "Evaluation")

	if len(report.Evaluation.Targets) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 7, "No evaluation available", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(40, 8, "Target", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 8, "Train acc.", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 8, "Test acc.", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 8, fmt.Sprintf("CV mean (k=%d)", report.Evaluation.Folds), "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 8, "CV std", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, t := range report.Evaluation.Targets {
		pdf.CellFormat(40, 7, t.Target, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.3f", t.TrainAccuracy), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.3f", t.TestAccuracy), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.3f", t.CVMean), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.3f", t.CVStd), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addClassCounts(pdf *gofpdf.Fpdf, t domain.TargetEvaluation) {
	if pdf.GetY() > 230 {
		pdf.AddPage()
	}
	e.sectionTitle(pdf, "Class distribution: "+t.Target)

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(60, 60, 60)
	for _, class := range sortedKeys(t.ClassCounts) {
		if pdf.GetY() > 270 {
			pdf.AddPage()
		}
		pdf.CellFormat(60, 6, class, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", t.ClassCounts[class]), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)
}

func (e *PDFExporter) sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, report *domain.TrainingReport) {
	pdf.SetY(-20)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(3)

	id := report.Metadata.ID
	if len(id) > 8 {
		id = id[:8]
	}
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated by %s | Report ID: %s", report.Metadata.GeneratedBy, id), "", 1, "C", false, 0, "")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
