package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/lcalzada-xor/cvelens/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/ports"
)

// ArtifactHandler lists stored artifacts and swaps the served one.
type ArtifactHandler struct {
	Store   ports.ArtifactStore
	Service ports.PredictionService
	Audit   ports.AuditRepository
	// OnReload, when set, is called after a successful swap.
	OnReload func(domain.ArtifactInfo)
}

// NewArtifactHandler creates a new ArtifactHandler. audit may be nil.
func NewArtifactHandler(store ports.ArtifactStore, service ports.PredictionService, audit ports.AuditRepository) *ArtifactHandler {
	return &ArtifactHandler{Store: store, Service: service, Audit: audit}
}

// HandleList returns artifact metadata, newest first.
func (h *ArtifactHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	infos, err := h.Store.ListArtifacts(r.Context(), 50)
	if err != nil {
		slog.Error("Failed to list artifacts", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list artifacts")
		return
	}
	current, _ := h.Service.Info()
	if infos == nil {
		infos = []domain.ArtifactInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"artifacts": infos, "serving": current.ID})
}

type reloadRequest struct {
	ArtifactID string `json:"artifact_id"`
}

// HandleReload loads the requested artifact, or the newest one when the body is empty.
func (h *ArtifactHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req reloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, err := h.Service.Reload(r.Context(), req.ArtifactID)
	if errors.Is(err, domain.ErrArtifactNotFound) {
		writeError(w, http.StatusNotFound, "Artifact not found")
		return
	}
	if err != nil {
		slog.Error("Reload failed", "artifact_id", req.ArtifactID, "error", err)
		writeError(w, http.StatusInternalServerError, "Reload failed")
		return
	}

	h.audit(r, info)
	if h.OnReload != nil {
		h.OnReload(info)
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleAuditLogs returns recent audit entries.
func (h *ArtifactHandler) HandleAuditLogs(w http.ResponseWriter, r *http.Request) {
	if h.Audit == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"logs": []domain.AuditLog{}})
		return
	}
	logs, err := h.Audit.ListAuditLogs(r.Context(), 100)
	if err != nil {
		slog.Error("Failed to fetch audit logs", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

func (h *ArtifactHandler) audit(r *http.Request, info domain.ArtifactInfo) {
	if h.Audit == nil {
		return
	}
	entry, err := domain.NewAuditLog(middleware.Actor(r.Context()), domain.ActionArtifactReload, info.ID, "")
	if err != nil {
		slog.Warn("Invalid audit entry", "error", err)
		return
	}
	if err := h.Audit.SaveAuditLog(r.Context(), *entry); err != nil {
		slog.Warn("Failed to save audit entry", "error", err)
	}
}
