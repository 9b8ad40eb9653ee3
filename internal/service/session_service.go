package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"charts_demo/internal/models"
	"charts_demo/internal/repository"
	"charts_demo/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned when no data exists for a session id.
var ErrSessionNotFound = errors.New("session not found")

const (
	choiceGreen = "green"
	choiceRed   = "red"
)

// ChoiceInput carries one swipe choice as submitted by the client. Any
// client-supplied timestamp is ignored; the store assigns its own.
type ChoiceInput struct {
	SessionID  string
	ChartIndex int
	ChartData  json.RawMessage
	Choice     string
}

// SessionChoice is one recorded choice as returned to the client.
type SessionChoice struct {
	ChartIndex int             `json:"chart_index"`
	Choice     string          `json:"choice"`
	Timestamp  time.Time       `json:"timestamp"`
	ChartData  json.RawMessage `json:"chart_data"`
}

// SessionResults aggregates all recorded choices of one session.
// TotalCharts counts every record; GreenCount and RedCount only count the
// two literal labels, so unrecognized labels contribute to the total alone.
type SessionResults struct {
	SessionID   string          `json:"session_id"`
	TotalCharts int             `json:"total_charts"`
	GreenCount  int             `json:"green_count"`
	RedCount    int             `json:"red_count"`
	Choices     []SessionChoice `json:"choices"`
}

// SessionService records swipe choices and aggregates per-session results.
type SessionService interface {
	NewSessionID() string
	RecordChoice(ctx context.Context, input ChoiceInput) error
	GetSessionResults(ctx context.Context, sessionID string) (*SessionResults, error)
}

type sessionServiceImpl struct {
	logger     *zap.Logger
	repository repository.ChoiceRepository
}

// NewSessionService creates a new instance of SessionService.
func NewSessionService(logger *zap.Logger, repo repository.ChoiceRepository) SessionService {
	return &sessionServiceImpl{
		logger:     logger.Named("SessionService"),
		repository: repo,
	}
}

// NewSessionID generates a random session identifier in UUID text form.
func (s *sessionServiceImpl) NewSessionID() string {
	return uuid.NewString()
}

// RecordChoice appends a new choice record with a server-assigned timestamp.
func (s *sessionServiceImpl) RecordChoice(ctx context.Context, input ChoiceInput) error {
	chartData := "{}"
	if len(input.ChartData) > 0 {
		chartData = string(input.ChartData)
	}

	record := &models.ChoiceRecord{
		SessionID:  input.SessionID,
		ChartIndex: input.ChartIndex,
		ChartData:  chartData,
		Choice:     input.Choice,
		Timestamp:  time.Now().UTC(),
	}

	if err := s.repository.Insert(ctx, record); err != nil {
		s.logger.Error("Failed to record choice",
			zap.String("sessionId", input.SessionID),
			zap.Int("chartIndex", input.ChartIndex),
			zap.Error(err))
		return fmt.Errorf("failed to record choice: %w", err)
	}

	metrics.CountChoiceRecorded(input.Choice)
	s.logger.Debug("Choice recorded",
		zap.String("sessionId", input.SessionID),
		zap.Int("chartIndex", input.ChartIndex),
		zap.String("choice", input.Choice))
	return nil
}

// GetSessionResults aggregates all records of a session into counts. Counts
// match the literal labels "green" and "red" only; every record counts
// toward the total regardless of its label.
func (s *sessionServiceImpl) GetSessionResults(ctx context.Context, sessionID string) (*SessionResults, error) {
	records, err := s.repository.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session results: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrSessionNotFound
	}

	results := &SessionResults{
		SessionID:   sessionID,
		TotalCharts: len(records),
		Choices:     make([]SessionChoice, 0, len(records)),
	}

	for _, record := range records {
		switch record.Choice {
		case choiceGreen:
			results.GreenCount++
		case choiceRed:
			results.RedCount++
		}

		chartData := json.RawMessage(record.ChartData)
		if len(chartData) == 0 {
			chartData = json.RawMessage("{}")
		}

		results.Choices = append(results.Choices, SessionChoice{
			ChartIndex: record.ChartIndex,
			Choice:     record.Choice,
			Timestamp:  record.Timestamp,
			ChartData:  chartData,
		})
	}

	return results, nil
}
