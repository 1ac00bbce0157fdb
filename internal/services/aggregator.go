package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	detailNoData        = "데이터 없음"
	detailNoCoordinates = "위치 정보 없음"
	detailNoImage       = "업로드된 이미지 없음"
	detailNoCategory    = "품목 카테고리 미선택"
	detailNoCropName    = "작물명 없음"
	detailNoTarget      = "스마트팜 Base URL/디바이스 ID 없음"
	detailNotConfigured = "제공자 미구성"
)

// Providers are the sources the aggregator can call. Any may be nil.
type Providers struct {
	WeatherNow      WeatherNowProvider
	WeatherForecast WeatherForecastProvider
	Diagnosis       DiagnosisProvider
	Variety         VarietyProvider
	Telemetry       TelemetryProvider
}

// ContextAggregator calls the enabled providers for a turn in parallel and
// builds the Context plus one status note per tool.
type ContextAggregator struct {
	providers Providers
	logger    *zap.Logger

	mu            sync.RWMutex
	lastFetchTime time.Time
	successCount  map[models.Tool]int
	failureCount  map[models.Tool]int
}

func NewContextAggregator(providers Providers, logger *zap.Logger) *ContextAggregator {
	return &ContextAggregator{
		providers:    providers,
		logger:       logger,
		successCount: make(map[models.Tool]int),
		failureCount: make(map[models.Tool]int),
	}
}

// Aggregate never fails: every provider outcome is folded into the status trail.
func (a *ContextAggregator) Aggregate(ctx context.Context, in models.TurnInput) (models.Context, []string) {
	startTime := time.Now()

	var (
		out   models.Context
		notes = make([]models.StatusNote, len(models.Tools))
		g     errgroup.Group
	)

	for i, tool := range models.Tools {
		i, tool := i, tool
		if !in.Tools.Enabled(tool) {
			notes[i] = models.StatusNote{Tool: tool, Kind: models.StatusDisabled}
			continue
		}

		g.Go(func() error {
			switch tool {
			case models.ToolWeather:
				out.Weather, notes[i] = a.weather(ctx, in)
			case models.ToolPlantDiagnosis:
				out.Diagnosis, notes[i] = a.diagnosis(ctx, in)
			case models.ToolVarietyReference:
				out.Variety, notes[i] = a.variety(ctx, in)
			case models.ToolTelemetry:
				out.Telemetry, notes[i] = a.telemetry(ctx, in)
			}
			return nil
		})
	}
	_ = g.Wait()

	out.Status = notes
	a.record(notes)

	a.logger.Info("Context aggregation completed",
		zap.Duration("duration", time.Since(startTime)),
		zap.Strings("status", out.StatusTrail()))

	return out, out.StatusTrail()
}

func unavailable(tool models.Tool, detail string) models.StatusNote {
	return models.StatusNote{Tool: tool, Kind: models.StatusUnavailable, Detail: detail}
}

func failed(tool models.Tool, detail string) models.StatusNote {
	return models.StatusNote{Tool: tool, Kind: models.StatusFailed, Detail: detail}
}

func ok(tool models.Tool) models.StatusNote {
	return models.StatusNote{Tool: tool, Kind: models.StatusOK}
}

// outcomeDetail renders a non-success result for the status trail.
func outcomeDetail[T any](r models.Result[T]) string {
	if r.Outcome == models.OutcomeEmpty {
		return detailNoData
	}
	return r.Describe()
}

func (a *ContextAggregator) logFailure(provider string, detail string) {
	a.logger.Warn("Provider call did not succeed",
		zap.String("provider", provider),
		zap.String("detail", detail))
}

func (a *ContextAggregator) weather(ctx context.Context, in models.TurnInput) (*models.WeatherSnapshot, models.StatusNote) {
	tool := models.ToolWeather
	if in.Tools.Coordinates == nil {
		return nil, unavailable(tool, detailNoCoordinates)
	}
	if a.providers.WeatherNow == nil && a.providers.WeatherForecast == nil {
		return nil, failed(tool, detailNotConfigured)
	}

	coord := *in.Tools.Coordinates
	now := models.Empty[models.CurrentObservation]()
	forecast := models.Empty[models.PrecipitationForecast]()

	var g errgroup.Group
	if p := a.providers.WeatherNow; p != nil {
		g.Go(func() error {
			now = p.Fetch(ctx, coord)
			return nil
		})
	}
	if p := a.providers.WeatherForecast; p != nil {
		g.Go(func() error {
			forecast = p.Fetch(ctx, coord)
			return nil
		})
	}
	_ = g.Wait()

	snapshot, merged := models.MergeWeather(now, forecast)
	if !merged {
		detail := "now: " + outcomeDetail(now) + "; forecast: " + outcomeDetail(forecast)
		a.logFailure("kma", detail)
		return nil, failed(tool, detail)
	}
	if !now.OK() {
		a.logFailure("kma-now", outcomeDetail(now))
	}
	if !forecast.OK() {
		a.logFailure("kma-forecast", outcomeDetail(forecast))
	}
	return &snapshot, ok(tool)
}

func (a *ContextAggregator) diagnosis(ctx context.Context, in models.TurnInput) (*models.PlantDiagnosis, models.StatusNote) {
	tool := models.ToolPlantDiagnosis
	if in.Image == nil || len(in.Image.Data) == 0 {
		return nil, unavailable(tool, detailNoImage)
	}
	p := a.providers.Diagnosis
	if p == nil {
		return nil, failed(tool, detailNotConfigured)
	}

	r := p.Fetch(ctx, *in.Image)
	if !r.OK() {
		a.logFailure(p.Name(), outcomeDetail(r))
		return nil, failed(tool, outcomeDetail(r))
	}
	return &r.Value, ok(tool)
}

func (a *ContextAggregator) variety(ctx context.Context, in models.TurnInput) (*models.VarietyRecord, models.StatusNote) {
	tool := models.ToolVarietyReference
	category := in.Tools.SelectedCategory
	if category == nil || !category.IsSelected() {
		return nil, unavailable(tool, detailNoCategory)
	}

	crop := strings.TrimSpace(in.CropName)
	if crop == "" {
		crop = strings.TrimSpace(category.Label)
	}
	if crop == "" || crop == models.UnselectedLabel {
		return nil, unavailable(tool, detailNoCropName)
	}

	p := a.providers.Variety
	if p == nil {
		return nil, failed(tool, detailNotConfigured)
	}

	r := p.Fetch(ctx, models.VarietyQuery{CropName: crop, CategoryCode: category.Code})
	if !r.OK() {
		a.logFailure(p.Name(), outcomeDetail(r))
		return nil, failed(tool, outcomeDetail(r))
	}
	return &r.Value, ok(tool)
}

func (a *ContextAggregator) telemetry(ctx context.Context, in models.TurnInput) (models.TelemetrySnapshot, models.StatusNote) {
	tool := models.ToolTelemetry
	target := in.Tools.TelemetryTarget
	if target == nil || strings.TrimSpace(target.BaseURL) == "" || strings.TrimSpace(target.DeviceID) == "" {
		return nil, unavailable(tool, detailNoTarget)
	}
	p := a.providers.Telemetry
	if p == nil {
		return nil, failed(tool, detailNotConfigured)
	}

	r := p.Fetch(ctx, *target)
	if !r.OK() {
		a.logFailure(p.Name(), outcomeDetail(r))
		return nil, failed(tool, outcomeDetail(r))
	}
	return r.Value, ok(tool)
}

func (a *ContextAggregator) record(notes []models.StatusNote) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.lastFetchTime = time.Now()
	for _, n := range notes {
		switch n.Kind {
		case models.StatusOK:
			a.successCount[n.Tool]++
		case models.StatusFailed:
			a.failureCount[n.Tool]++
		}
	}
}

func (a *ContextAggregator) GetLastFetchTime() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastFetchTime
}

func (a *ContextAggregator) GetStats() map[string]interface{} {
	a.mu.RLock()
	defer a.mu.RUnlock()

	success := make(map[string]int, len(a.successCount))
	for k, v := range a.successCount {
		success[string(k)] = v
	}
	failure := make(map[string]int, len(a.failureCount))
	for k, v := range a.failureCount {
		failure[string(k)] = v
	}

	return map[string]interface{}{
		"last_fetch_time": a.lastFetchTime,
		"success_count":   success,
		"failure_count":   failure,
	}
}
