package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shelfwatch/shelfwatch/internal/user/domain"
	"github.com/shelfwatch/shelfwatch/internal/user/usecase/command"
	"github.com/shelfwatch/shelfwatch/internal/user/usecase/query"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

// UserHandler handles HTTP requests for users using CQRS pattern
type UserHandler struct {
	// Command handlers
	registerHandler    *command.RegisterUserHandler
	loginHandler       *command.LoginUserHandler
	preferencesHandler *command.UpdatePreferencesHandler
	deleteHandler      *command.DeleteUserHandler

	// Query handlers
	getUserHandler *query.GetUserHandler
	statsHandler   *query.GetStatsHandler

	repo domain.UserRepository

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	totalUsers     prometheus.Gauge
}

// NewUserHandlerWithDI creates a new user handler using dependency injection
// This is used by Wire for automatic dependency injection
func NewUserHandlerWithDI(
	registerHandler *command.RegisterUserHandler,
	loginHandler *command.LoginUserHandler,
	preferencesHandler *command.UpdatePreferencesHandler,
	deleteHandler *command.DeleteUserHandler,
	getUserHandler *query.GetUserHandler,
	statsHandler *query.GetStatsHandler,
	repo domain.UserRepository,
) *UserHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_service_requests_total",
			Help: "Total number of requests to user service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "user_service_request_duration_seconds",
			Help:    "Duration of user service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	totalUsers := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "user_service_total_users",
			Help: "Total number of registered users",
		},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)
	prometheus.MustRegister(totalUsers)

	return &UserHandler{
		registerHandler:    registerHandler,
		loginHandler:       loginHandler,
		preferencesHandler: preferencesHandler,
		deleteHandler:      deleteHandler,
		getUserHandler:     getUserHandler,
		statsHandler:       statsHandler,
		repo:               repo,
		requestCounter:     requestCounter,
		requestLatency:     requestLatency,
		totalUsers:         totalUsers,
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
func (h *UserHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()

		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

func (h *UserHandler) RegisterRoutes(router *mux.Router) {
	// Public routes
	router.HandleFunc("/api/users/register", h.metricsMiddleware("/api/users/register", h.Register)).Methods("POST")
	router.HandleFunc("/api/users/login", h.metricsMiddleware("/api/users/login", h.Login)).Methods("POST")

	// Authenticated routes
	router.HandleFunc("/api/users/me", h.metricsMiddleware("/api/users/me", AuthMiddleware(h.Me))).Methods("GET")
	router.HandleFunc("/api/users/me/preferences", h.metricsMiddleware("/api/users/me/preferences", AuthMiddleware(h.UpdatePreferences))).Methods("PUT")
	router.HandleFunc("/api/users/me", h.metricsMiddleware("/api/users/me", AuthMiddleware(h.DeleteMe))).Methods("DELETE")

	// Admin routes
	router.HandleFunc("/api/users/stats", h.metricsMiddleware("/api/users/stats", AdminMiddleware(h.GetStats))).Methods("GET")
}

// Register handles POST /api/users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	cmd := command.RegisterUserCommand{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}

	user, err := h.registerHandler.Handle(cmd)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to register user")
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	h.updateUsersMetric()

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "User registered successfully",
		Data:    user,
	})
}

// Login handles POST /api/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	cmd := command.LoginUserCommand{
		Username: req.Username,
		Password: req.Password,
	}

	result, err := h.loginHandler.Handle(cmd)
	if err != nil {
		logger.Logger.Warn().Str("username", req.Username).Msg("Login failed")
		respondJSON(w, http.StatusUnauthorized, Response{
			Success: false,
			Error:   "Invalid credentials",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Login successful",
		Data:    result,
	})
}

// Me handles GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.getUserHandler.Handle(query.GetUserQuery{ID: userID})
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "User not found",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    user,
	})
}

// UpdatePreferences handles PUT /api/users/me/preferences
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		EmailNotifications *bool   `json:"email_notifications"`
		SMSNotifications   *bool   `json:"sms_notifications"`
		InAppNotifications *bool   `json:"in_app_notifications"`
		PhoneNumber        *string `json:"phone_number"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	cmd := command.UpdatePreferencesCommand{
		UserID:             userID,
		EmailNotifications: req.EmailNotifications,
		SMSNotifications:   req.SMSNotifications,
		InAppNotifications: req.InAppNotifications,
		PhoneNumber:        req.PhoneNumber,
	}

	user, err := h.preferencesHandler.Handle(cmd)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to update preferences")
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Preferences updated successfully",
		Data:    user,
	})
}

// DeleteMe handles DELETE /api/users/me
// Deletion is rejected while the user still owns items.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.deleteHandler.Handle(command.DeleteUserCommand{ID: userID}); err != nil {
		if errors.Is(err, command.ErrUserOwnsItems) {
			respondJSON(w, http.StatusConflict, Response{
				Success: false,
				Error:   "Account still owns items, delete or transfer them first",
			})
			return
		}
		logger.Logger.Error().Err(err).Msg("Failed to delete user")
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	h.updateUsersMetric()

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "User deleted successfully",
	})
}

// GetStats handles GET /api/users/stats
func (h *UserHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsHandler.Handle(query.GetStatsQuery{})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to get stats")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to get statistics",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    stats,
	})
}

func (h *UserHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Database unavailable",
			})
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "User service is healthy",
		})
	}).Methods("GET")
}

// updateUsersMetric updates the total users gauge
func (h *UserHandler) updateUsersMetric() {
	count, err := h.repo.Count()
	if err == nil {
		h.totalUsers.Set(float64(count))
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
