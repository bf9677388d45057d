package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/ports"
)

// MaxBatchSize bounds POST /predict/batch.
const MaxBatchSize = 1000

// PredictRequest is the inference input. Targets are never accepted.
type PredictRequest struct {
	CVEID       string `json:"cve_id"`
	Description string `json:"description"`
	CWE         string `json:"cwe"`
	Vendor      string `json:"vendor"`
	Product     string `json:"product"`
	PublishDate string `json:"publish_date"`
}

// Record converts the request to a target-free record.
func (p PredictRequest) Record() domain.CVERecord {
	return domain.CVERecord{
		ID:          p.CVEID,
		Description: p.Description,
		CWE:         p.CWE,
		Vendor:      p.Vendor,
		Product:     p.Product,
		PublishDate: p.PublishDate,
	}
}

// Validate checks the fields the service cannot degrade gracefully.
func (p PredictRequest) Validate() error {
	if p.CVEID == "" {
		return errors.New("cve_id is required")
	}
	return nil
}

// PredictHandler serves predictions and readiness.
type PredictHandler struct {
	Service ports.PredictionService
	Logger  *slog.Logger
}

// NewPredictHandler creates a new PredictHandler
func NewPredictHandler(service ports.PredictionService, logger *slog.Logger) *PredictHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PredictHandler{Service: service, Logger: logger}
}

// HandleRoot reports that the process is up.
func (h *PredictHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "running"})
}

// HandleHealth reports whether a model is loaded.
func (h *PredictHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	info, ok := h.Service.Info()
	resp := map[string]interface{}{"status": "ok", "model_loaded": ok}
	if ok {
		resp["artifact_id"] = info.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandlePredict classifies a single record.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	requestID := h.requestID(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	preds, ok := h.predict(w, r, requestID, []domain.CVERecord{req.Record()})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, preds[0])
}

// HandleBatch classifies a JSON array of records.
func (h *PredictHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	requestID := h.requestID(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, 16*maxBodyBytes)

	var reqs []PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(reqs) == 0 {
		writeJSON(w, http.StatusOK, []domain.Prediction{})
		return
	}
	if len(reqs) > MaxBatchSize {
		writeError(w, http.StatusRequestEntityTooLarge, "Batch too large")
		return
	}

	records := make([]domain.CVERecord, len(reqs))
	for i, req := range reqs {
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		records[i] = req.Record()
	}

	preds, ok := h.predict(w, r, requestID, records)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, preds)
}

func (h *PredictHandler) predict(w http.ResponseWriter, r *http.Request, requestID string, records []domain.CVERecord) ([]domain.Prediction, bool) {
	preds, err := h.Service.Predict(r.Context(), records)
	switch {
	case errors.Is(err, domain.ErrModelNotLoaded):
		writeError(w, http.StatusServiceUnavailable, "Model not loaded")
		return nil, false
	case err != nil:
		h.Logger.Error("Prediction failed", "request_id", requestID, "records", len(records), "error", err)
		writeError(w, http.StatusInternalServerError, "Prediction failed")
		return nil, false
	}
	h.Logger.Debug("Predicted", "request_id", requestID, "records", len(records))
	return preds, true
}

func (h *PredictHandler) requestID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", id)
	return id
}
