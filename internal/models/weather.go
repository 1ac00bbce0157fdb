package models

import (
	"fmt"
)

type GeoCoordinate struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

func (c GeoCoordinate) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %f out of range [-90,90]", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %f out of range [-180,180]", c.Longitude)
	}
	return nil
}

// GridCell is a cell of the KMA forecast grid.
type GridCell struct {
	X int `json:"nx"`
	Y int `json:"ny"`
}

// ObservationWindow is the base_date/base_time pair a KMA query targets.
type ObservationWindow struct {
	Date string `json:"base_date"` // YYYYMMDD
	Time string `json:"base_time"` // HHmm
}

func (w ObservationWindow) String() string {
	return w.Date + " " + w.Time
}

// CurrentObservation is the weather-now provider payload.
type CurrentObservation struct {
	TemperatureC *float64          `json:"temperature_c,omitempty"`
	HumidityPct  *float64          `json:"humidity_pct,omitempty"`
	RainfallMm   *float64          `json:"rainfall_mm,omitempty"`
	Grid         GridCell          `json:"grid"`
	Window       ObservationWindow `json:"window"`
}

// PrecipitationForecast is the forecast entry selected by the weather-forecast provider.
type PrecipitationForecast struct {
	ProbabilityPct *float64          `json:"probability_pct,omitempty"`
	ForecastDate   string            `json:"fcst_date"`
	ForecastTime   string            `json:"fcst_time"`
	Grid           GridCell          `json:"grid"`
	Window         ObservationWindow `json:"window"`
}

type WeatherSnapshot struct {
	TemperatureC         *float64          `json:"temperature_c,omitempty"`
	HumidityPct          *float64          `json:"humidity_pct,omitempty"`
	RainfallMm           *float64          `json:"rainfall_mm,omitempty"`
	PrecipProbabilityPct *float64          `json:"precip_probability_pct,omitempty"`
	ObservedAt           ObservationWindow `json:"observed_at"`
	Grid                 GridCell          `json:"grid"`
}

// HasMeasurements reports whether any weather field is populated.
func (w WeatherSnapshot) HasMeasurements() bool {
	return w.TemperatureC != nil || w.HumidityPct != nil || w.RainfallMm != nil || w.PrecipProbabilityPct != nil
}

// MergeWeather combines the now and forecast results. ok is false when neither succeeded.
func MergeWeather(now Result[CurrentObservation], forecast Result[PrecipitationForecast]) (snapshot WeatherSnapshot, ok bool) {
	if !now.OK() && !forecast.OK() {
		return WeatherSnapshot{}, false
	}

	if now.OK() {
		snapshot.TemperatureC = now.Value.TemperatureC
		snapshot.HumidityPct = now.Value.HumidityPct
		snapshot.RainfallMm = now.Value.RainfallMm
		snapshot.ObservedAt = now.Value.Window
		snapshot.Grid = now.Value.Grid
	}
	if forecast.OK() {
		snapshot.PrecipProbabilityPct = forecast.Value.ProbabilityPct
		if !now.OK() {
			snapshot.ObservedAt = ObservationWindow{Date: forecast.Value.ForecastDate, Time: forecast.Value.ForecastTime}
			snapshot.Grid = forecast.Value.Grid
		}
	}
	return snapshot, true
}

// Location is an approximate position resolved from the caller's network address.
type Location struct {
	Coordinate GeoCoordinate `json:"coordinate"`
	City       string        `json:"city,omitempty"`
	Fallback   bool          `json:"fallback"`
}
