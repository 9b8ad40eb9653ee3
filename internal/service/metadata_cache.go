package service

import (
	"errors"
	"time"

	"charts_demo/internal/config"
	"charts_demo/internal/entity"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// ErrInvalidMetadata is returned when a store call is missing the session id
// or the chart list.
var ErrInvalidMetadata = errors.New("session_id and charts are required")

// MetadataCache hands off the exact chart set shown to a session between two
// separate calls. Entries are replaced wholesale on repeated stores.
type MetadataCache interface {
	Store(sessionID string, charts []entity.PairData) error
	Retrieve(sessionID string) ([]entity.PairData, error)
}

type metadataCacheImpl struct {
	logger *zap.Logger
	cache  *cache.Cache
}

// NewMetadataCache creates a MetadataCache backed by an in-process go-cache.
// A TTL of zero disables expiration, matching the reference behavior of
// keeping entries for the process lifetime.
func NewMetadataCache(logger *zap.Logger, cfg *config.Config) MetadataCache {
	ttl := cache.NoExpiration
	if cfg.MetadataCache.TTLMinutes > 0 {
		ttl = time.Duration(cfg.MetadataCache.TTLMinutes) * time.Minute
	}
	cleanup := time.Duration(cfg.MetadataCache.CleanupIntervalMinutes) * time.Minute

	return &metadataCacheImpl{
		logger: logger.Named("MetadataCache"),
		cache:  cache.New(ttl, cleanup),
	}
}

// Store replaces any prior entry for the session id.
func (m *metadataCacheImpl) Store(sessionID string, charts []entity.PairData) error {
	if sessionID == "" || len(charts) == 0 {
		return ErrInvalidMetadata
	}

	m.cache.Set(sessionID, charts, cache.DefaultExpiration)
	m.logger.Debug("Stored trending metadata",
		zap.String("sessionId", sessionID),
		zap.Int("chartCount", len(charts)))
	return nil
}

// Retrieve returns the chart set stored for the session id.
func (m *metadataCacheImpl) Retrieve(sessionID string) ([]entity.PairData, error) {
	value, found := m.cache.Get(sessionID)
	if !found {
		return nil, ErrSessionNotFound
	}

	charts, ok := value.([]entity.PairData)
	if !ok {
		m.logger.Error("Metadata cache entry has unexpected type", zap.String("sessionId", sessionID))
		return nil, ErrSessionNotFound
	}
	return charts, nil
}
