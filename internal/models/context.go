package models

import (
	"encoding/json"
)

// Tool identifies one optional context source.
type Tool string

const (
	ToolWeather          Tool = "weather"
	ToolPlantDiagnosis   Tool = "plant_diagnosis"
	ToolVarietyReference Tool = "variety_reference"
	ToolTelemetry        Tool = "telemetry"
)

// Tools lists every tool in status-trail order.
var Tools = []Tool{ToolWeather, ToolPlantDiagnosis, ToolVarietyReference, ToolTelemetry}

func (t Tool) DisplayName() string {
	switch t {
	case ToolWeather:
		return "날씨(KMA)"
	case ToolPlantDiagnosis:
		return "Plant.ID"
	case ToolVarietyReference:
		return "농사로"
	case ToolTelemetry:
		return "스마트팜"
	default:
		return string(t)
	}
}

type PlantDiagnosis struct {
	CommonName       *string `json:"common_name,omitempty"`
	SuspectedDisease *string `json:"suspected_disease,omitempty"`
}

// VarietyTextLimit bounds VarietyRecord.Text, in characters.
const VarietyTextLimit = 1500

type VarietyRecord struct {
	CropLabel string `json:"crop"`
	Text      string `json:"text"`
}

// NewVarietyRecord truncates text to VarietyTextLimit characters.
func NewVarietyRecord(crop, text string) VarietyRecord {
	runes := []rune(text)
	if len(runes) > VarietyTextLimit {
		text = string(runes[:VarietyTextLimit])
	}
	return VarietyRecord{CropLabel: crop, Text: text}
}

// VarietyQuery is the input of a variety record search.
type VarietyQuery struct {
	CropName     string
	CategoryCode string
}

// TelemetrySnapshot is the telemetry provider's JSON body, passed through untouched.
type TelemetrySnapshot = json.RawMessage

// TelemetryTarget addresses one farm device.
type TelemetryTarget struct {
	BaseURL  string `json:"base_url" validate:"required,url"`
	DeviceID string `json:"device_id" validate:"required"`
}

// ToolConfig enumerates the recognized turn options.
type ToolConfig struct {
	Weather          bool             `json:"weather"`
	PlantDiagnosis   bool             `json:"plant_diagnosis"`
	VarietyReference bool             `json:"variety_reference"`
	Telemetry        bool             `json:"telemetry"`
	Coordinates      *GeoCoordinate   `json:"coordinates,omitempty" validate:"omitempty"`
	SelectedCategory *CategoryNode    `json:"selected_category,omitempty"`
	TelemetryTarget  *TelemetryTarget `json:"telemetry_target,omitempty" validate:"omitempty"`
}

func (c ToolConfig) Enabled(t Tool) bool {
	switch t {
	case ToolWeather:
		return c.Weather
	case ToolPlantDiagnosis:
		return c.PlantDiagnosis
	case ToolVarietyReference:
		return c.VarietyReference
	case ToolTelemetry:
		return c.Telemetry
	default:
		return false
	}
}

// Image is an uploaded image with its detected MIME type.
type Image struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type"`
}

// TurnInput is everything the UI supplies for one user turn.
type TurnInput struct {
	Tools    ToolConfig
	Query    string
	CropName string
	Image    *Image
}

// StatusKind is the outcome of one tool for the status trail.
type StatusKind string

const (
	StatusOK          StatusKind = "ok"
	StatusFailed      StatusKind = "failed"
	StatusDisabled    StatusKind = "disabled"
	StatusUnavailable StatusKind = "unavailable"
)

type StatusNote struct {
	Tool   Tool       `json:"tool"`
	Kind   StatusKind `json:"kind"`
	Detail string     `json:"detail,omitempty"`
}

func (n StatusNote) String() string {
	name := n.Tool.DisplayName()
	switch n.Kind {
	case StatusOK:
		return name + " OK"
	case StatusDisabled:
		return name + " 비활성화"
	case StatusUnavailable:
		return name + " 불가 (" + n.Detail + ")"
	default:
		if n.Detail != "" {
			return name + " 불가 (" + n.Detail + ")"
		}
		return name + " 불가"
	}
}

// Context is the normalized bundle of retrieved data for one turn.
type Context struct {
	Weather   *WeatherSnapshot  `json:"weather,omitempty"`
	Diagnosis *PlantDiagnosis   `json:"diagnosis,omitempty"`
	Variety   *VarietyRecord    `json:"variety,omitempty"`
	Telemetry TelemetrySnapshot `json:"telemetry,omitempty"`
	Status    []StatusNote      `json:"status"`
}

// StatusTrail renders the per-tool notes in order.
func (c Context) StatusTrail() []string {
	trail := make([]string, 0, len(c.Status))
	for _, n := range c.Status {
		trail = append(trail, n.String())
	}
	return trail
}
