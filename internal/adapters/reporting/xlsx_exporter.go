package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

// Sheet names of the training workbook.
const (
	SheetEvaluation = "Evaluation"
	SheetClasses    = "Classes"
	SheetFeatures   = "Features"
)

// XLSXExporter exports training reports as Excel workbooks.
type XLSXExporter struct{}

// NewXLSXExporter creates a new XLSX exporter instance
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// ExportTrainingReport writes the evaluation, the class distribution and, when present,
// the engineered feature frame.
func (e *XLSXExporter) ExportTrainingReport(report *domain.TrainingReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetEvaluation); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := e.writeEvaluation(f, report, bold); err != nil {
		return nil, fmt.Errorf("evaluation sheet: %w", err)
	}
	if err := e.writeClasses(f, report, bold); err != nil {
		return nil, fmt.Errorf("classes sheet: %w", err)
	}
	if report.Features != nil {
		if err := e.writeFeatures(f, report.Features, bold); err != nil {
			return nil, fmt.Errorf("features sheet: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to generate XLSX: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *XLSXExporter) writeEvaluation(f *excelize.File, report *domain.TrainingReport, bold int) error {
	s := report.Stats
	summary := [][]interface{}{
		{"Artifact", report.Artifact.ID},
		{"Classifier", report.Artifact.Classifier},
		{"Generated", report.Metadata.GeneratedAt.Format("2006-01-02 15:04")},
		{"Input records", s.Input},
		{"Withdrawn", s.Withdrawn},
		{"Weakly labelled", s.Labelled},
		{"Bands derived", s.BandsDerived},
		{"Dropped", s.Dropped},
		{"Train rows", report.Evaluation.TrainRows},
		{"Test rows", report.Evaluation.TestRows},
		{"Folds", report.Evaluation.Folds},
	}
	row := 1
	for _, line := range summary {
		if err := setRow(f, SheetEvaluation, row, line); err != nil {
			return err
		}
		row++
	}

	row++
	header := []interface{}{"Target", "Train accuracy", "Test accuracy", "CV mean", "CV std"}
	if err := setRow(f, SheetEvaluation, row, header); err != nil {
		return err
	}
	if err := styleRow(f, SheetEvaluation, row, len(header), bold); err != nil {
		return err
	}
	for _, t := range report.Evaluation.Targets {
		row++
		line := []interface{}{t.Target, t.TrainAccuracy, t.TestAccuracy, t.CVMean, t.CVStd}
		if err := setRow(f, SheetEvaluation, row, line); err != nil {
			return err
		}
	}
	return nil
}

func (e *XLSXExporter) writeClasses(f *excelize.File, report *domain.TrainingReport, bold int) error {
	if _, err := f.NewSheet(SheetClasses); err != nil {
		return err
	}
	header := []interface{}{"Target", "Class", "Count"}
	if err := setRow(f, SheetClasses, 1, header); err != nil {
		return err
	}
	if err := styleRow(f, SheetClasses, 1, len(header), bold); err != nil {
		return err
	}

	row := 2
	for _, t := range report.Evaluation.Targets {
		for _, class := range sortedKeys(t.ClassCounts) {
			if err := setRow(f, SheetClasses, row, []interface{}{t.Target, class, t.ClassCounts[class]}); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

// writeFeatures dumps the frame with one column per feature; missing cells stay empty.
func (e *XLSXExporter) writeFeatures(f *excelize.File, frame *domain.Frame, bold int) error {
	if _, err := f.NewSheet(SheetFeatures); err != nil {
		return err
	}
	names := frame.Names()
	header := make([]interface{}, len(names))
	for i, n := range names {
		header[i] = n
	}
	if err := setRow(f, SheetFeatures, 1, header); err != nil {
		return err
	}
	if err := styleRow(f, SheetFeatures, 1, len(names), bold); err != nil {
		return err
	}

	cols := make([]*domain.Column, len(names))
	for i, n := range names {
		cols[i], _ = frame.Column(n)
	}
	for r := 0; r < frame.Len(); r++ {
		line := make([]interface{}, len(cols))
		for i, c := range cols {
			switch {
			case !c.Valid[r]:
				line[i] = nil
			case c.Kind == domain.KindNumeric:
				line[i] = c.Num[r]
			default:
				line[i] = c.Text[r]
			}
		}
		if err := setRow(f, SheetFeatures, r+2, line); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func styleRow(f *excelize.File, sheet string, row, width, style int) error {
	if width == 0 {
		return nil
	}
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(width, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}
