package textnorm

import (
	"log/slog"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

// Mode selects training-only behaviour while cleaning.
type Mode int

const (
	// ModeInference keeps every record; a live request is never withdrawn.
	ModeInference Mode = iota
	// ModeTraining additionally drops withdrawn and duplicate records.
	ModeTraining
)

// CleanStats summarises one cleaning pass.
type CleanStats struct {
	Input            int
	Withdrawn        int
	DateFailures     int
	VendorBackfills  int
	ProductBackfills int
}

// CleanRecords normalizes every record and, in training mode, filters withdrawn ones.
// Vendor and product are back-filled from the description when either is empty.
// The input slice is not modified.
func CleanRecords(records []domain.CVERecord, mode Mode, logger *slog.Logger) ([]domain.CVERecord, CleanStats) {
	if logger == nil {
		logger = slog.Default()
	}
	stats := CleanStats{Input: len(records)}
	out := make([]domain.CVERecord, 0, len(records))

	for _, r := range records {
		r.Description = NormalizeDescription(r.Description)
		if mode == ModeTraining && IsWithdrawn(r.Description) {
			stats.Withdrawn++
			continue
		}

		if r.PublishDate != "" {
			if d, ok := NormalizeDate(r.PublishDate); ok {
				r.PublishDate = d
			} else {
				logger.Debug("Unparseable publish date", "cve_id", r.ID, "raw", r.PublishDate)
				stats.DateFailures++
				r.PublishDate = ""
			}
		}

		r.CWE = NormalizeCWE(r.CWE)

		if r.Vendor == "" || r.Product == "" {
			v, p := ExtractVendorProduct(r.Description)
			if v != "" && r.Vendor == "" {
				r.Vendor = v
				stats.VendorBackfills++
			}
			if p != "" && r.Product == "" {
				r.Product = p
				stats.ProductBackfills++
			}
		}

		out = append(out, r)
	}

	return out, stats
}
