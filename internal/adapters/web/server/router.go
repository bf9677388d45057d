package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lcalzada-xor/cvelens/internal/adapters/web/middleware"
)

func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.PredictHandler.HandleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.PredictHandler.HandleHealth).Methods(http.MethodGet)

	limited := middleware.RateLimitMiddleware(s.predictLimiter)
	r.Handle("/predict", limited(http.HandlerFunc(s.PredictHandler.HandlePredict))).Methods(http.MethodPost)
	r.Handle("/predict/batch", limited(http.HandlerFunc(s.PredictHandler.HandleBatch))).Methods(http.MethodPost)
	r.HandleFunc("/ws/predict", s.WSManager.HandleWebSocket).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/records", s.RecordHandler.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/records/{id}", s.RecordHandler.HandleGet).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.RecordHandler.HandleStats).Methods(http.MethodGet)
	api.HandleFunc("/artifacts", s.ArtifactHandler.HandleList).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminTokenMiddleware(s.AdminTokenHash))
	admin.HandleFunc("/reload", s.ArtifactHandler.HandleReload).Methods(http.MethodPost)
	admin.HandleFunc("/audit", s.ArtifactHandler.HandleAuditLogs).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}
