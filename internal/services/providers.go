package services

import (
	"context"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
)

// Provider is one external data source normalized to a Result.
type Provider[P any, T any] interface {
	Name() string
	Fetch(ctx context.Context, params P) models.Result[T]
}

type (
	WeatherNowProvider      = Provider[models.GeoCoordinate, models.CurrentObservation]
	WeatherForecastProvider = Provider[models.GeoCoordinate, models.PrecipitationForecast]
	DiagnosisProvider       = Provider[models.Image, models.PlantDiagnosis]
	TelemetryProvider       = Provider[models.TelemetryTarget, models.TelemetrySnapshot]
	VarietyProvider         = Provider[models.VarietyQuery, models.VarietyRecord]
)

// CategorySource lists variety categories.
type CategorySource interface {
	MainCategories(ctx context.Context) models.Result[[]models.CategoryNode]
	MiddleCategories(ctx context.Context, mainCode string) models.Result[[]models.CategoryNode]
}

// VarietySearcher runs a single-candidate variety search.
type VarietySearcher interface {
	HasCredential() bool
	SearchVarieties(ctx context.Context, name, categoryCode string) models.Result[string]
}

type Translator interface {
	ToKorean(ctx context.Context, text string) (string, error)
}

type Locator interface {
	Locate(ctx context.Context) models.Result[models.Location]
}

// ReasoningBackend turns an assembled message set into an answer.
type ReasoningBackend interface {
	Complete(ctx context.Context, messages models.MessageSet) (string, error)
}
