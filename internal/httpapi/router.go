package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/safar/tradein-store/internal/logger"
	"go.uber.org/zap"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// NewRouter wires every route. Everything except /healthz requires a staff
// bearer token signed with secret.
func NewRouter(svc TradeInService, secret string, health HealthCheck, log *zap.Logger) http.Handler {
	h := NewHandler(svc, log)

	r := mux.NewRouter()
	r.Use(requestID)
	r.Use(logger.RequestLog(log))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := health(r.Context()); err != nil {
			log.Warn("health check failed", zap.Error(err))
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(Authenticate(secret))

	api.HandleFunc("/trade-ins", h.createTradeIn).Methods(http.MethodPost)
	api.HandleFunc("/trade-ins", h.listTradeIns).Methods(http.MethodGet)
	api.HandleFunc("/trade-ins/totals", h.calculateTotals).Methods(http.MethodPost)
	api.HandleFunc("/trade-ins/reference/{ref}", h.getTradeInByReference).Methods(http.MethodGet)
	api.HandleFunc("/trade-ins/{id:[0-9]+}", h.getTradeIn).Methods(http.MethodGet)
	api.HandleFunc("/trade-ins/{id:[0-9]+}", h.updateTradeIn).Methods(http.MethodPatch)
	api.HandleFunc("/trade-ins/{id:[0-9]+}", h.deleteTradeIn).Methods(http.MethodDelete)
	api.HandleFunc("/trade-ins/{id:[0-9]+}/status", h.updateStatus).Methods(http.MethodPost)
	api.HandleFunc("/trade-ins/{id:[0-9]+}/documents", h.uploadDocument).Methods(http.MethodPost)
	api.HandleFunc("/trade-ins/{id:[0-9]+}/documents", h.listDocuments).Methods(http.MethodGet)
	api.HandleFunc("/trade-ins/{id:[0-9]+}/audit", h.listAuditLog).Methods(http.MethodGet)
	api.HandleFunc("/inventory", h.createInventoryItem).Methods(http.MethodPost)
	api.HandleFunc("/inventory/{sku}", h.getInventoryItem).Methods(http.MethodGet)

	return r
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}
