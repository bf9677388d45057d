package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/ports"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// RecordHandler exposes the harvested corpus.
type RecordHandler struct {
	Repo ports.CVERepository
}

// NewRecordHandler creates a new RecordHandler
func NewRecordHandler(repo ports.CVERepository) *RecordHandler {
	return &RecordHandler{Repo: repo}
}

// HandleGet returns one record by CVE id.
func (h *RecordHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.Repo.GetByID(r.Context(), id)
	if errors.Is(err, domain.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "Record not found")
		return
	}
	if err != nil {
		slog.Error("Failed to fetch record", "cve_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch record")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleList filters records by attack_type, severity_band and vendor.
func (h *RecordHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.RecordFilter{
		AttackType:   domain.AttackType(q.Get("attack_type")),
		SeverityBand: domain.SeverityBand(q.Get("severity_band")),
		Vendor:       q.Get("vendor"),
		Limit:        defaultListLimit,
	}
	if filter.AttackType != "" && !filter.AttackType.IsValid() {
		writeError(w, http.StatusBadRequest, "Unknown attack_type")
		return
	}
	if filter.SeverityBand != "" && !filter.SeverityBand.IsValid() {
		writeError(w, http.StatusBadRequest, "Unknown severity_band")
		return
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		filter.Limit = n
	}

	records, err := h.Repo.List(r.Context(), filter)
	if err != nil {
		slog.Error("Failed to list records", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list records")
		return
	}
	if records == nil {
		records = []domain.CVERecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": records, "count": len(records)})
}

// HandleStats summarizes the corpus.
func (h *RecordHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.Repo.GetTotalCount(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	byType, err := h.Repo.CountByAttackType(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	sync, err := h.Repo.ListSyncStatus(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":          total,
		"by_attack_type": byType,
		"sync":           sync,
	})
}
