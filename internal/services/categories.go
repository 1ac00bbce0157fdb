package services

import (
	"context"
	"time"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
	"go.uber.org/zap"
)

const mainCategoryKey = ""

// CategoryService serves the category taxonomy from a long-lived cache.
// Only successful listings are cached; entries may be served stale for the TTL.
type CategoryService struct {
	source CategorySource
	cache  *TTLCache[string, models.Result[[]models.CategoryNode]]
	logger *zap.Logger
}

func NewCategoryService(source CategorySource, ttl time.Duration, logger *zap.Logger) *CategoryService {
	return &CategoryService{
		source: source,
		cache:  NewTTLCache[string, models.Result[[]models.CategoryNode]]("categories", ttl, 512, logger),
		logger: logger,
	}
}

// Main and Middle share one load between concurrent callers, so the load runs
// detached from the caller's cancellation and is bounded by the client timeout.
func (s *CategoryService) Main(ctx context.Context) models.Result[[]models.CategoryNode] {
	return s.cache.GetOrLoad(mainCategoryKey, func() (models.Result[[]models.CategoryNode], bool) {
		r := s.source.MainCategories(context.WithoutCancel(ctx))
		s.logOutcome("main", r)
		return r, r.OK()
	})
}

func (s *CategoryService) Middle(ctx context.Context, mainCode string) models.Result[[]models.CategoryNode] {
	if mainCode == "" {
		return models.Empty[[]models.CategoryNode]()
	}
	return s.cache.GetOrLoad("middle:"+mainCode, func() (models.Result[[]models.CategoryNode], bool) {
		r := s.source.MiddleCategories(context.WithoutCancel(ctx), mainCode)
		s.logOutcome("middle:"+mainCode, r)
		return r, r.OK()
	})
}

// Refresh reloads the main list and every cached middle list.
func (s *CategoryService) Refresh(ctx context.Context) error {
	r := s.source.MainCategories(ctx)
	s.logOutcome("main", r)
	if !r.OK() {
		if r.Failure != nil {
			return r.Failure
		}
		return nil
	}
	s.cache.Set(mainCategoryKey, r)

	for _, node := range r.Value {
		if !node.IsSelected() {
			continue
		}
		if _, ok := s.cache.Get("middle:" + node.Code); !ok {
			continue
		}
		if mr := s.source.MiddleCategories(ctx, node.Code); mr.OK() {
			s.cache.Set("middle:"+node.Code, mr)
		}
	}
	return nil
}

func (s *CategoryService) logOutcome(key string, r models.Result[[]models.CategoryNode]) {
	if r.Outcome == models.OutcomeFailure {
		s.logger.Warn("Category listing failed",
			zap.String("provider", "nongsaro"),
			zap.String("list", key),
			zap.Error(r.Failure))
	}
}

func (s *CategoryService) Stop() {
	s.cache.Stop()
}

func (s *CategoryService) GetStats() map[string]interface{} {
	return s.cache.GetStats()
}
