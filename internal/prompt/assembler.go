// Package prompt turns an aggregated Context and the user's question into the
// message set sent to the reasoning backend. Output is deterministic.
package prompt

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
)

const framing = "당신은 최고 수준의 한국 농업 전문가이자 농부의 코파일럿입니다.\n" +
	"사용자의 질문과 제공된 컨텍스트(날씨, 작물 진단, 농사로 정보, 스마트팜 센서 데이터)를 종합하여,\n" +
	"다음 원칙에 따라 실용적이고 명확하며 실행 가능한 조언을 제공하세요:\n" +
	"1. **문제 해결 및 예방**: 현재 문제(병해충, 이상 기후 등)를 해결하고, 발생 가능한 위험을 예방하는 데 초점을 맞춥니다.\n" +
	"2. **단계별 지침**: 농부가 즉시 따라 할 수 있는 구체적인 단계와 절차를 제시합니다.\n" +
	"3. **안전 우선**: 기상, 시설, 병해충 정보가 불완전하거나 불확실할 경우, 항상 안전을 최우선으로 하는 조언을 합니다.\n" +
	"4. **법규 준수**: 농약/약제 사용 시에는 반드시 제품 라벨 및 지역 농업 관련 법규/규정을 준수하도록 안내합니다.\n"

// NotAvailableSuffix ends every line that reports a missing context source.
const NotAvailableSuffix = "이 정보 없이 답변을 생성해야 합니다."

const (
	weatherMissing   = "- 날씨 정보를 가져오지 못했습니다. " + NotAvailableSuffix
	weatherNoDetail  = "- KMA 날씨 정보는 가져왔으나, 유효한 상세 데이터가 없습니다."
	diagnosisMissing = "- 이미지 진단 정보가 없습니다. " + NotAvailableSuffix
	varietyMissing   = "- 농사로 품종 정보가 없습니다. " + NotAvailableSuffix
	telemetryMissing = "- 스마트팜 센서 데이터가 없습니다. " + NotAvailableSuffix
)

// Assemble builds [system, user]. The system message is the framing followed by
// exactly one line each for weather, diagnosis, variety and telemetry.
func Assemble(c models.Context, query string, image *models.Image) models.MessageSet {
	var sb strings.Builder
	sb.WriteString(framing)
	for _, line := range ContextLines(c) {
		sb.WriteString("\n")
		sb.WriteString(line)
	}

	user := models.Message{
		Role:  models.RoleUser,
		Parts: []models.Part{{Type: models.PartText, Text: query}},
	}
	if image != nil && len(image.Data) > 0 {
		user.Parts = append(user.Parts, models.Part{Type: models.PartImage, Image: image})
	}

	return models.MessageSet{
		{Role: models.RoleSystem, Parts: []models.Part{{Type: models.PartText, Text: sb.String()}}},
		user,
	}
}

// ContextLines renders the four context lines in fixed order.
func ContextLines(c models.Context) []string {
	return []string{
		weatherLine(c.Weather),
		diagnosisLine(c.Diagnosis),
		varietyLine(c.Variety),
		telemetryLine(c.Telemetry),
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func weatherLine(w *models.WeatherSnapshot) string {
	if w == nil {
		return weatherMissing
	}
	if !w.HasMeasurements() {
		return weatherNoDetail
	}

	var parts []string
	if w.TemperatureC != nil {
		parts = append(parts, "기온: "+num(*w.TemperatureC)+"°C")
	}
	if w.HumidityPct != nil {
		parts = append(parts, "습도: "+num(*w.HumidityPct)+"%")
	}
	if w.RainfallMm != nil {
		parts = append(parts, "강수량: "+num(*w.RainfallMm)+"mm")
	}
	if w.PrecipProbabilityPct != nil {
		parts = append(parts, "강수 확률: "+num(*w.PrecipProbabilityPct)+"%")
	}

	line := "- KMA 날씨 정보: " + strings.Join(parts, ", ") + "."
	if w.ObservedAt.Date != "" {
		line += " (기준: " + w.ObservedAt.String() + ")"
	}
	return line
}

func diagnosisLine(d *models.PlantDiagnosis) string {
	if d == nil || (d.CommonName == nil && d.SuspectedDisease == nil) {
		return diagnosisMissing
	}

	name := "알 수 없음"
	if d.CommonName != nil {
		name = "'" + *d.CommonName + "'"
	}
	line := "- 이미지 진단 결과, 작물: " + name + "."
	if d.SuspectedDisease != nil {
		line += " 의심되는 질병: '" + *d.SuspectedDisease + "'. 이에 대한 방제 조언을 최우선으로 고려하세요."
	}
	return line
}

func varietyLine(v *models.VarietyRecord) string {
	if v == nil || strings.TrimSpace(v.Text) == "" {
		return varietyMissing
	}
	return "- 농사로에서 가져온 '" + v.CropLabel + "' 관련 정보: " + v.Text
}

func telemetryLine(t models.TelemetrySnapshot) string {
	if len(t) == 0 {
		return telemetryMissing
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, t); err != nil {
		return "- 스마트팜 센서 데이터: " + string(t)
	}
	return "- 스마트팜 센서 데이터: " + buf.String()
}
