package services

import (
	"context"
	"time"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
	"go.uber.org/zap"
)

// LocationService resolves the default coordinate for the weather tool.
// A failed lookup falls back to the configured coordinate and is not cached.
type LocationService struct {
	locator  Locator
	fallback models.GeoCoordinate
	cache    *TTLCache[string, models.Location]
	logger   *zap.Logger
}

func NewLocationService(locator Locator, fallback models.GeoCoordinate, ttl time.Duration, logger *zap.Logger) *LocationService {
	return &LocationService{
		locator:  locator,
		fallback: fallback,
		cache:    NewTTLCache[string, models.Location]("location", ttl, 1, logger),
		logger:   logger,
	}
}

func (s *LocationService) Locate(ctx context.Context) models.Location {
	return s.cache.GetOrLoad("self", func() (models.Location, bool) {
		if s.locator == nil {
			return models.Location{Coordinate: s.fallback, Fallback: true}, false
		}
		r := s.locator.Locate(context.WithoutCancel(ctx))
		if !r.OK() {
			s.logger.Warn("Geolocation failed, using default coordinate",
				zap.String("provider", "ip-api"),
				zap.String("detail", r.Describe()))
			return models.Location{Coordinate: s.fallback, Fallback: true}, false
		}
		return r.Value, true
	})
}

func (s *LocationService) Stop() {
	s.cache.Stop()
}
