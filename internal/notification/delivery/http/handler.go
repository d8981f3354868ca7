package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shelfwatch/shelfwatch/internal/notification/domain"
	"github.com/shelfwatch/shelfwatch/internal/notification/usecase/command"
	"github.com/shelfwatch/shelfwatch/internal/notification/usecase/query"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

// NotificationHandler handles HTTP requests for notifications using CQRS pattern
type NotificationHandler struct {
	// Command handlers
	markReadHandler *command.MarkReadHandler
	testSendHandler *command.SendTestNotificationHandler

	// Query handlers
	listHandler        *query.ListNotificationsHandler
	countUnreadHandler *query.CountUnreadHandler

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewNotificationHandlerWithDI creates a new notification handler using
// dependency injection. This is used by Wire for automatic dependency injection
func NewNotificationHandlerWithDI(
	markReadHandler *command.MarkReadHandler,
	testSendHandler *command.SendTestNotificationHandler,
	listHandler *query.ListNotificationsHandler,
	countUnreadHandler *query.CountUnreadHandler,
) *NotificationHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_service_requests_total",
			Help: "Total number of requests to notification service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_service_request_duration_seconds",
			Help:    "Duration of notification service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)

	return &NotificationHandler{
		markReadHandler:    markReadHandler,
		testSendHandler:    testSendHandler,
		listHandler:        listHandler,
		countUnreadHandler: countUnreadHandler,
		requestCounter:     requestCounter,
		requestLatency:     requestLatency,
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
func (h *NotificationHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()

		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

func (h *NotificationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/notifications", h.metricsMiddleware("/api/notifications", AuthMiddleware(h.ListNotifications))).Methods("GET")
	router.HandleFunc("/api/notifications/unread", h.metricsMiddleware("/api/notifications/unread", AuthMiddleware(h.CountUnread))).Methods("GET")
	router.HandleFunc("/api/notifications/{id}/read", h.metricsMiddleware("/api/notifications/{id}/read", AuthMiddleware(h.MarkRead))).Methods("POST")
	router.HandleFunc("/api/notifications/test", h.metricsMiddleware("/api/notifications/test", AuthMiddleware(h.SendTest))).Methods("POST")
}

// ListNotifications handles GET /api/notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	notifications, err := h.listHandler.Handle(query.ListNotificationsQuery{
		UserID: userID,
		Limit:  limit,
	})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to list notifications")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to list notifications",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    notifications,
	})
}

// CountUnread handles GET /api/notifications/unread
func (h *NotificationHandler) CountUnread(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	count, err := h.countUnreadHandler.Handle(query.CountUnreadQuery{UserID: userID})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to count unread notifications")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to count unread notifications",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]int64{"unread": count},
	})
}

// MarkRead handles POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid notification ID",
		})
		return
	}

	n, err := h.markReadHandler.Handle(command.MarkReadCommand{
		ID:     uint(id),
		UserID: userID,
	})
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Notification marked as read",
		Data:    n,
	})
}

// SendTest handles POST /api/notifications/test
func (h *NotificationHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		Channel string `json:"channel"`
		Message string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	n, err := h.testSendHandler.Handle(r.Context(), command.SendTestNotificationCommand{
		UserID:  userID,
		Channel: domain.Channel(req.Channel),
		Message: req.Message,
	})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to send test notification")
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Test notification sent",
		Data:    n,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
