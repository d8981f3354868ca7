package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shelfwatch/shelfwatch/internal/reconciler"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

// SyncHandler handles HTTP requests for inventory sync
type SyncHandler struct {
	rec *reconciler.Reconciler

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(rec *reconciler.Reconciler) *SyncHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_service_requests_total",
			Help: "Total number of requests to sync service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_service_request_duration_seconds",
			Help:    "Duration of sync service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)

	return &SyncHandler{
		rec:            rec,
		requestCounter: requestCounter,
		requestLatency: requestLatency,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *SyncHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()

		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

func (h *SyncHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/inventory/sync", h.metricsMiddleware("/api/inventory/sync", AuthMiddleware(h.Sync))).Methods("POST")
}

// Sync handles POST /api/inventory/sync
// The external access token arrives per request; the server never
// stores or refreshes it.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		AccessToken    string `json:"access_token"`
		OrganizationID string `json:"organization_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}
	if req.AccessToken == "" {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "access_token is required",
		})
		return
	}

	creds := reconciler.Credentials{
		AccessToken:    req.AccessToken,
		OrganizationID: req.OrganizationID,
	}

	summary, err := h.rec.Reconcile(r.Context(), creds, userID)
	if err != nil {
		if errors.Is(err, reconciler.ErrSyncInProgress) {
			respondJSON(w, http.StatusConflict, Response{
				Success: false,
				Error:   "Sync already in progress",
			})
			return
		}
		logger.Logger.Error().Err(err).Uint("user_id", userID).Msg("Inventory sync failed")
		respondJSON(w, http.StatusBadGateway, Response{
			Success: false,
			Error:   "Sync failed, no changes were applied",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Inventory synced successfully",
		Data:    summary,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
