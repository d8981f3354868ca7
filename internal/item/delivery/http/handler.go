package http

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shelfwatch/shelfwatch/internal/item/domain"
	"github.com/shelfwatch/shelfwatch/internal/item/usecase/command"
	"github.com/shelfwatch/shelfwatch/internal/item/usecase/query"
	"github.com/shelfwatch/shelfwatch/internal/ocr"
	"github.com/shelfwatch/shelfwatch/pkg/clock"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

// maxScanBytes caps label photograph uploads at 5 MB
const maxScanBytes = 5 << 20

// ItemHandler handles HTTP requests for items using CQRS pattern
type ItemHandler struct {
	// Command handlers
	createHandler *command.CreateItemHandler
	updateHandler *command.UpdateItemHandler
	deleteHandler *command.DeleteItemHandler
	scanHandler   *command.ApplyScannedExpiryHandler

	// Query handlers
	getItemHandler *query.GetItemHandler
	listHandler    *query.ListItemsHandler
	statsHandler   *query.GetStatsHandler

	repo      domain.ItemRepository
	extractor ocr.Extractor
	clk       clock.Clock

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	totalItems     prometheus.Gauge
}

// NewItemHandler creates a new item handler with CQRS pattern (manual DI)
func NewItemHandler(repo domain.ItemRepository, extractor ocr.Extractor, clk clock.Clock, mirror command.ItemMirror) *ItemHandler {
	createHandler := command.NewCreateItemHandler(repo, clk, mirror)
	updateHandler := command.NewUpdateItemHandler(repo, clk, mirror)
	deleteHandler := command.NewDeleteItemHandler(repo, mirror)
	scanHandler := command.NewApplyScannedExpiryHandler(repo, clk, mirror)

	getItemHandler := query.NewGetItemHandler(repo, clk)
	listHandler := query.NewListItemsHandler(repo, clk)
	statsHandler := query.NewGetStatsHandler(repo)

	return newItemHandler(
		createHandler, updateHandler, deleteHandler, scanHandler,
		getItemHandler, listHandler, statsHandler,
		repo, extractor, clk,
	)
}

// NewItemHandlerWithDI creates a new item handler using dependency injection
// This is used by Wire for automatic dependency injection
func NewItemHandlerWithDI(
	createHandler *command.CreateItemHandler,
	updateHandler *command.UpdateItemHandler,
	deleteHandler *command.DeleteItemHandler,
	scanHandler *command.ApplyScannedExpiryHandler,
	getItemHandler *query.GetItemHandler,
	listHandler *query.ListItemsHandler,
	statsHandler *query.GetStatsHandler,
	repo domain.ItemRepository,
	extractor ocr.Extractor,
	clk clock.Clock,
) *ItemHandler {
	return newItemHandler(
		createHandler, updateHandler, deleteHandler, scanHandler,
		getItemHandler, listHandler, statsHandler,
		repo, extractor, clk,
	)
}

// newItemHandler is the internal constructor used by both manual and Wire DI
func newItemHandler(
	createHandler *command.CreateItemHandler,
	updateHandler *command.UpdateItemHandler,
	deleteHandler *command.DeleteItemHandler,
	scanHandler *command.ApplyScannedExpiryHandler,
	getItemHandler *query.GetItemHandler,
	listHandler *query.ListItemsHandler,
	statsHandler *query.GetStatsHandler,
	repo domain.ItemRepository,
	extractor ocr.Extractor,
	clk clock.Clock,
) *ItemHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "item_service_requests_total",
			Help: "Total number of requests to item service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "item_service_request_duration_seconds",
			Help:    "Duration of item service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	totalItems := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "item_service_total_items",
			Help: "Total number of tracked items in the system",
		},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)
	prometheus.MustRegister(totalItems)

	return &ItemHandler{
		createHandler:  createHandler,
		updateHandler:  updateHandler,
		deleteHandler:  deleteHandler,
		scanHandler:    scanHandler,
		getItemHandler: getItemHandler,
		listHandler:    listHandler,
		statsHandler:   statsHandler,
		repo:           repo,
		extractor:      extractor,
		clk:            clk,
		requestCounter: requestCounter,
		requestLatency: requestLatency,
		totalItems:     totalItems,
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
func (h *ItemHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()

		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

func (h *ItemHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/items", h.metricsMiddleware("/api/items", AuthMiddleware(h.ListItems))).Methods("GET")
	router.HandleFunc("/api/items/stats", h.metricsMiddleware("/api/items/stats", AuthMiddleware(h.GetStats))).Methods("GET")
	router.HandleFunc("/api/items/{id}", h.metricsMiddleware("/api/items/{id}", AuthMiddleware(h.GetItem))).Methods("GET")
	router.HandleFunc("/api/items", h.metricsMiddleware("/api/items", AuthMiddleware(h.CreateItem))).Methods("POST")
	router.HandleFunc("/api/items/{id}", h.metricsMiddleware("/api/items/{id}", AuthMiddleware(h.UpdateItem))).Methods("PUT")
	router.HandleFunc("/api/items/{id}", h.metricsMiddleware("/api/items/{id}", AuthMiddleware(h.DeleteItem))).Methods("DELETE")
	router.HandleFunc("/api/items/{id}/scan", h.metricsMiddleware("/api/items/{id}/scan", AuthMiddleware(h.ScanExpiryDate))).Methods("POST")
}

// CreateItem handles POST /api/items
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		Name            string     `json:"name"`
		Description     string     `json:"description"`
		Quantity        float64    `json:"quantity"`
		Unit            string     `json:"unit"`
		BatchNumber     string     `json:"batch_number"`
		PurchaseDate    *time.Time `json:"purchase_date"`
		ExpiryDate      *time.Time `json:"expiry_date"`
		PurchasePrice   *float64   `json:"purchase_price"`
		SellingPrice    *float64   `json:"selling_price"`
		CostPrice       *float64   `json:"cost_price"`
		DiscountedPrice *float64   `json:"discounted_price"`
		Location        string     `json:"location"`
		Notes           string     `json:"notes"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	cmd := command.CreateItemCommand{
		UserID:          userID,
		Name:            req.Name,
		Description:     req.Description,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		BatchNumber:     req.BatchNumber,
		PurchaseDate:    req.PurchaseDate,
		ExpiryDate:      req.ExpiryDate,
		PurchasePrice:   req.PurchasePrice,
		SellingPrice:    req.SellingPrice,
		CostPrice:       req.CostPrice,
		DiscountedPrice: req.DiscountedPrice,
		Location:        req.Location,
		Notes:           req.Notes,
	}

	item, err := h.createHandler.Handle(r.Context(), cmd)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to create item")
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	h.updateItemsMetric()

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Item created successfully",
		Data:    item,
	})
}

// ListItems handles GET /api/items
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	expiringOnly := r.URL.Query().Get("expiring") == "true"

	q := query.ListItemsQuery{
		UserID:       userID,
		Limit:        limit,
		Offset:       offset,
		ExpiringOnly: expiringOnly,
	}

	items, err := h.listHandler.Handle(q)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to list items")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to list items",
		})
		return
	}

	count, _ := h.repo.CountByUser(userID)

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"items":  items,
			"total":  count,
			"limit":  q.Limit,
			"offset": offset,
		},
	})
}

// GetItem handles GET /api/items/{id}
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
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
			Error:   "Invalid item ID",
		})
		return
	}

	q := query.GetItemQuery{ID: uint(id), UserID: userID}
	item, err := h.getItemHandler.Handle(q)
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Item not found",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    item,
	})
}

// UpdateItem handles PUT /api/items/{id}
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
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
			Error:   "Invalid item ID",
		})
		return
	}

	var req struct {
		Name         *string    `json:"name"`
		Description  *string    `json:"description"`
		Quantity     *float64   `json:"quantity"`
		Unit         *string    `json:"unit"`
		PurchaseDate *time.Time `json:"purchase_date"`
		ExpiryDate   *time.Time `json:"expiry_date"`
		SellingPrice *float64   `json:"selling_price"`
		CostPrice    *float64   `json:"cost_price"`
		Location     *string    `json:"location"`
		Notes        *string    `json:"notes"`
		DiscountPct  *float64   `json:"discount_pct"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	cmd := command.UpdateItemCommand{
		ID:           uint(id),
		UserID:       userID,
		Name:         req.Name,
		Description:  req.Description,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		PurchaseDate: req.PurchaseDate,
		ExpiryDate:   req.ExpiryDate,
		SellingPrice: req.SellingPrice,
		CostPrice:    req.CostPrice,
		Location:     req.Location,
		Notes:        req.Notes,
		DiscountPct:  req.DiscountPct,
	}

	item, err := h.updateHandler.Handle(r.Context(), cmd)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to update item")
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Item updated successfully",
		Data:    item,
	})
}

// DeleteItem handles DELETE /api/items/{id}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
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
			Error:   "Invalid item ID",
		})
		return
	}

	cmd := command.DeleteItemCommand{ID: uint(id), UserID: userID}
	if err := h.deleteHandler.Handle(r.Context(), cmd); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to delete item")
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	h.updateItemsMetric()

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Item deleted successfully",
	})
}

// ScanExpiryDate handles POST /api/items/{id}/scan
// Accepts a label photograph, extracts an expiry date via OCR and
// applies it to the item.
func (h *ItemHandler) ScanExpiryDate(w http.ResponseWriter, r *http.Request) {
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
			Error:   "Invalid item ID",
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxScanBytes)
	if err := r.ParseMultipartForm(maxScanBytes); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid upload, expected multipart form with an image field",
		})
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Missing image field",
		})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Failed to read image",
		})
		return
	}

	text, err := h.extractor.ExtractText(r.Context(), image)
	if err != nil {
		logger.Logger.Error().Err(err).Uint("item_id", uint(id)).Msg("OCR extraction failed")
		respondJSON(w, http.StatusBadGateway, Response{
			Success: false,
			Error:   "Failed to read text from image",
		})
		return
	}

	expiry, found := ocr.ParseExpiryDate(text, h.clk)
	if !found {
		respondJSON(w, http.StatusUnprocessableEntity, Response{
			Success: false,
			Error:   "No valid expiry date found in image",
		})
		return
	}

	cmd := command.ApplyScannedExpiryCommand{
		ID:         uint(id),
		UserID:     userID,
		ExpiryDate: *expiry,
	}

	item, err := h.scanHandler.Handle(r.Context(), cmd)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to apply scanned expiry date")
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Expiry date extracted successfully",
		Data:    item,
	})
}

// GetStats handles GET /api/items/stats
func (h *ItemHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	q := query.GetStatsQuery{UserID: userID}
	stats, err := h.statsHandler.Handle(q)
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

func (h *ItemHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
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
			Message: "Item service is healthy",
		})
	}).Methods("GET")
}

// updateItemsMetric updates the total items gauge
func (h *ItemHandler) updateItemsMetric() {
	count, err := h.repo.Count()
	if err == nil {
		h.totalItems.Set(float64(count))
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
