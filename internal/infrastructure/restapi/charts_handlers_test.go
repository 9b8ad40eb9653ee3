package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"charts_demo/internal/config"
	"charts_demo/internal/entity"
	"charts_demo/internal/models"
	"charts_demo/internal/repository"
	"charts_demo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// stubTrendingService serves a fixed chart list or a fixed error.
type stubTrendingService struct {
	charts []entity.PairData
	err    error
}

func (s *stubTrendingService) GetTrendingCharts(ctx context.Context) ([]entity.PairData, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.charts, nil
}

func setupTestRouter(t *testing.T, trending service.TrendingService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "choices.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ChoiceRecord{}))

	logger := zap.NewNop()
	cfg := &config.Config{
		MetadataCache: config.MetadataCacheConfig{TTLMinutes: 0, CleanupIntervalMinutes: 10},
	}

	sessionService := service.NewSessionService(logger, repository.NewGormChoiceRepository(db))
	metadataCache := service.NewMetadataCache(logger, cfg)
	handler := NewChartsHandler(trending, sessionService, metadataCache, logger)
	return SetupRouter(handler, cfg, logger)
}

func doRequest(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRootEndpoint(t *testing.T) {
	router := setupTestRouter(t, &stubTrendingService{})

	w := doRequest(router, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Charts Demo API is running")
}

func TestTrendingChartsEndpoint(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		charts := []entity.PairData{
			{PairAddress: "0x1", Volume: entity.PairVolume{H24: 900}},
			{PairAddress: "0x2", Volume: entity.PairVolume{H24: 100}},
		}
		router := setupTestRouter(t, &stubTrendingService{charts: charts})

		w := doRequest(router, http.MethodGet, "/api/trending-charts", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp TrendingChartsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, len(resp.Charts), resp.Total)
		assert.Equal(t, "0x1", resp.Charts[0].PairAddress)
	})

	t.Run("AggregationFailure", func(t *testing.T) {
		router := setupTestRouter(t, &stubTrendingService{err: service.ErrNoTrendingPairs})

		w := doRequest(router, http.MethodGet, "/api/trending-charts", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Failed to fetch trending charts")
	})
}

func TestRecordChoiceEndpoint(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		router := setupTestRouter(t, &stubTrendingService{})

		w := doRequest(router, http.MethodPost, "/api/record-choice", gin.H{
			"session_id":  "session-1",
			"chart_index": 0,
			"chart_data":  gin.H{"pairAddress": "0x1"},
			"choice":      "green",
			"timestamp":   "2020-01-01T00:00:00Z",
		})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Choice recorded")
	})

	t.Run("MissingSessionID", func(t *testing.T) {
		router := setupTestRouter(t, &stubTrendingService{})

		w := doRequest(router, http.MethodPost, "/api/record-choice", gin.H{
			"chart_index": 0,
			"choice":      "green",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSessionResultsEndpoint(t *testing.T) {
	t.Run("UnknownSession", func(t *testing.T) {
		router := setupTestRouter(t, &stubTrendingService{})

		w := doRequest(router, http.MethodGet, "/api/session-results/no-such-session", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Session not found")
	})
}

func TestStoreTrendingMetadataEndpoint(t *testing.T) {
	t.Run("EmptySessionID", func(t *testing.T) {
		router := setupTestRouter(t, &stubTrendingService{})

		w := doRequest(router, http.MethodPost, "/api/store-trending-metadata", gin.H{
			"session_id": "",
			"charts":     []gin.H{{"pairAddress": "0x1"}},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("EmptyCharts", func(t *testing.T) {
		router := setupTestRouter(t, &stubTrendingService{})

		w := doRequest(router, http.MethodPost, "/api/store-trending-metadata", gin.H{
			"session_id": "session-1",
			"charts":     []gin.H{},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetTrendingMetadataEndpoint(t *testing.T) {
	t.Run("NeverStored", func(t *testing.T) {
		router := setupTestRouter(t, &stubTrendingService{})

		w := doRequest(router, http.MethodGet, "/api/get-trending-metadata/never-stored", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		router := setupTestRouter(t, &stubTrendingService{})

		charts := []gin.H{
			{"pairAddress": "0x1"},
			{"pairAddress": "0x2"},
			{"pairAddress": "0x3"},
		}
		w := doRequest(router, http.MethodPost, "/api/store-trending-metadata", gin.H{
			"session_id": "session-1",
			"charts":     charts,
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = doRequest(router, http.MethodGet, "/api/get-trending-metadata/session-1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool              `json:"success"`
			Charts  []entity.PairData `json:"charts"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		require.Len(t, resp.Charts, len(charts))
		for i, chart := range resp.Charts {
			assert.Equal(t, charts[i]["pairAddress"], chart.PairAddress)
		}
	})
}

// TestSwipeFlowScenario runs the full flow: generate a session, store the
// shown charts, record one green choice and fetch the results.
func TestSwipeFlowScenario(t *testing.T) {
	router := setupTestRouter(t, &stubTrendingService{})

	// generate session
	w := doRequest(router, http.MethodGet, "/api/generate-session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var genResp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &genResp))
	require.NotEmpty(t, genResp.SessionID)

	// store the three charts shown to this session
	charts := []gin.H{
		{"pairAddress": "0x1", "baseToken": gin.H{"symbol": "AAA"}},
		{"pairAddress": "0x2", "baseToken": gin.H{"symbol": "BBB"}},
		{"pairAddress": "0x3", "baseToken": gin.H{"symbol": "CCC"}},
	}
	w = doRequest(router, http.MethodPost, "/api/store-trending-metadata", gin.H{
		"session_id": genResp.SessionID,
		"charts":     charts,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// record one green choice at index 0 with the first snapshot
	w = doRequest(router, http.MethodPost, "/api/record-choice", gin.H{
		"session_id":  genResp.SessionID,
		"chart_index": 0,
		"chart_data":  charts[0],
		"choice":      "green",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// fetch the results
	w = doRequest(router, http.MethodGet, fmt.Sprintf("/api/session-results/%s", genResp.SessionID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var results service.SessionResults
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Equal(t, genResp.SessionID, results.SessionID)
	assert.Equal(t, 1, results.TotalCharts)
	assert.Equal(t, 1, results.GreenCount)
	assert.Equal(t, 0, results.RedCount)
	require.Len(t, results.Choices, 1)
	assert.Equal(t, 0, results.Choices[0].ChartIndex)
}
