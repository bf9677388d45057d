package cve

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/services/textnorm"
)

// CSVHeader is the dataset layout shared with the harvesting scripts. The cvss_score
// column holds the severity band; type holds the attack type.
var CSVHeader = []string{"cve_id", "description", "cvss_score", "cwe", "vendor", "product", "publish_date", "type"}

// LoadCSV reads a dataset. Columns are located by header name and may appear in any
// order; only cve_id and description are required. A cvss_score cell may carry either a
// band name or a numeric score.
func LoadCSV(r io.Reader) ([]domain.CVERecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, required := range []string{"cve_id", "description"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("csv: missing required column %q", required)
		}
	}

	var records []domain.CVERecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		get := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		rec := domain.CVERecord{
			ID:          get("cve_id"),
			Description: get("description"),
			CWE:         get("cwe"),
			Vendor:      get("vendor"),
			Product:     get("product"),
			PublishDate: get("publish_date"),
			AttackType:  domain.AttackType(get("type")),
		}
		if !rec.AttackType.IsValid() {
			rec.AttackType = ""
		}
		applySeverity(&rec, get("cvss_score"))
		records = append(records, rec)
	}
	return records, nil
}

func applySeverity(rec *domain.CVERecord, raw string) {
	if raw == "" {
		return
	}
	if band := domain.SeverityBand(raw); band.IsValid() {
		rec.SeverityBand = band
		return
	}
	if v, ok := textnorm.ParseCVSS(raw); ok {
		if band, ok := domain.BandFromScore(v); ok {
			rec.CVSSScore = &v
			rec.SeverityBand = band
		}
	}
}

// WriteCSV writes records in the CSVHeader layout.
func WriteCSV(w io.Writer, records []domain.CVERecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		band := r.SeverityBand
		if band == "" && r.CVSSScore != nil {
			band, _ = domain.BandFromScore(*r.CVSSScore)
		}
		row := []string{
			r.ID, r.Description, string(band), r.CWE, r.Vendor, r.Product, r.PublishDate, string(r.AttackType),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
