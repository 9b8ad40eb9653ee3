package restapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"charts_demo/internal/entity"
	"charts_demo/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TrendingChartsResponse определяет структуру ответа для эндпоинта трендовых графиков.
type TrendingChartsResponse struct {
	Success bool              `json:"success"`
	Charts  []entity.PairData `json:"charts"`
	Total   int               `json:"total"`
}

// RecordChoiceRequest is the body of POST /api/record-choice. The timestamp
// field is accepted for wire compatibility and ignored: the store always
// assigns its own.
type RecordChoiceRequest struct {
	SessionID  string          `json:"session_id" binding:"required"`
	ChartIndex int             `json:"chart_index"`
	ChartData  json.RawMessage `json:"chart_data"`
	Choice     string          `json:"choice" binding:"required"`
	Timestamp  string          `json:"timestamp"`
}

// StoreMetadataRequest is the body of POST /api/store-trending-metadata.
type StoreMetadataRequest struct {
	SessionID string            `json:"session_id"`
	Charts    []entity.PairData `json:"charts"`
}

// StatusResponse is the generic success/message envelope of the write endpoints.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ChartsHandler обрабатывает HTTP запросы Charts Demo API.
type ChartsHandler struct {
	trendingService service.TrendingService
	sessionService  service.SessionService
	metadataCache   service.MetadataCache
	logger          *zap.Logger
}

// NewChartsHandler создает новый экземпляр ChartsHandler.
func NewChartsHandler(ts service.TrendingService, ss service.SessionService, mc service.MetadataCache, logger *zap.Logger) *ChartsHandler {
	return &ChartsHandler{
		trendingService: ts,
		sessionService:  ss,
		metadataCache:   mc,
		logger:          logger.Named("ChartsHandler"),
	}
}

// RootHandler handles the liveness endpoint.
func (h *ChartsHandler) RootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Charts Demo API is running"})
}

// GetTrendingChartsHandler handles GET /api/trending-charts.
func (h *ChartsHandler) GetTrendingChartsHandler(c *gin.Context) {
	charts, err := h.trendingService.GetTrendingCharts(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to fetch trending charts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Failed to fetch trending charts: %s", err.Error())})
		return
	}

	c.JSON(http.StatusOK, TrendingChartsResponse{
		Success: true,
		Charts:  charts,
		Total:   len(charts),
	})
}

// RecordChoiceHandler handles POST /api/record-choice.
func (h *ChartsHandler) RecordChoiceHandler(c *gin.Context) {
	var req RecordChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("Invalid request body: %s", err.Error())})
		return
	}

	input := service.ChoiceInput{
		SessionID:  req.SessionID,
		ChartIndex: req.ChartIndex,
		ChartData:  req.ChartData,
		Choice:     req.Choice,
	}
	if err := h.sessionService.RecordChoice(c.Request.Context(), input); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Failed to record choice: %s", err.Error())})
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Success: true, Message: "Choice recorded"})
}

// GetSessionResultsHandler handles GET /api/session-results/:session_id.
func (h *ChartsHandler) GetSessionResultsHandler(c *gin.Context) {
	sessionID := c.Param("session_id")

	results, err := h.sessionService.GetSessionResults(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Failed to get session results: %s", err.Error())})
		return
	}

	c.JSON(http.StatusOK, results)
}

// GenerateSessionHandler handles GET /api/generate-session.
func (h *ChartsHandler) GenerateSessionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"session_id": h.sessionService.NewSessionID()})
}

// StoreTrendingMetadataHandler handles POST /api/store-trending-metadata.
func (h *ChartsHandler) StoreTrendingMetadataHandler(c *gin.Context) {
	var req StoreMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("Invalid request body: %s", err.Error())})
		return
	}

	if err := h.metadataCache.Store(req.SessionID, req.Charts); err != nil {
		if errors.Is(err, service.ErrInvalidMetadata) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Failed to store trending metadata: %s", err.Error())})
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Success: true, Message: "Trending metadata stored"})
}

// GetTrendingMetadataHandler handles GET /api/get-trending-metadata/:session_id.
func (h *ChartsHandler) GetTrendingMetadataHandler(c *gin.Context) {
	sessionID := c.Param("session_id")

	charts, err := h.metadataCache.Retrieve(sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Trending metadata not found for session"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Failed to get trending metadata: %s", err.Error())})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "charts": charts})
}
