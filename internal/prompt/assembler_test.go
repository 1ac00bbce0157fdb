package prompt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
)

func ptr[T any](v T) *T { return &v }

func systemText(t *testing.T, set models.MessageSet) string {
	t.Helper()
	sys, ok := set.System()
	require.True(t, ok)
	return sys.Text()
}

func TestAssemble_OnlyDiagnosis(t *testing.T) {
	ctx := models.Context{
		Diagnosis: &models.PlantDiagnosis{CommonName: ptr("고추"), SuspectedDisease: ptr("탄저병")},
	}

	set := Assemble(ctx, "잎에 반점이 생겼어요", nil)
	require.Len(t, set, 2)

	text := systemText(t, set)
	assert.True(t, strings.HasPrefix(text, framing))

	lines := strings.Split(strings.TrimPrefix(text, framing), "\n")[1:]
	want := []string{
		weatherMissing,
		"- 이미지 진단 결과, 작물: '고추'. 의심되는 질병: '탄저병'. 이에 대한 방제 조언을 최우선으로 고려하세요.",
		varietyMissing,
		telemetryMissing,
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("context lines mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, strings.Count(text, NotAvailableSuffix))
}

func TestAssemble_AllPopulated(t *testing.T) {
	ctx := models.Context{
		Weather: &models.WeatherSnapshot{
			TemperatureC:         ptr(21.4),
			HumidityPct:          ptr(65.0),
			RainfallMm:           ptr(0.0),
			PrecipProbabilityPct: ptr(30.0),
			ObservedAt:           models.ObservationWindow{Date: "20240510", Time: "1200"},
		},
		Diagnosis: &models.PlantDiagnosis{CommonName: ptr("corn")},
		Variety:   &models.VarietyRecord{CropLabel: "옥수수", Text: "[미백찰] 주요특성: 조숙성"},
		Telemetry: json.RawMessage("{\n  \"temp\": 24.1,\n  \"memo\": \"환기\"\n}"),
	}

	got := ContextLines(ctx)
	want := []string{
		"- KMA 날씨 정보: 기온: 21.4°C, 습도: 65%, 강수량: 0mm, 강수 확률: 30%. (기준: 20240510 1200)",
		"- 이미지 진단 결과, 작물: 'corn'.",
		"- 농사로에서 가져온 '옥수수' 관련 정보: [미백찰] 주요특성: 조숙성",
		`- 스마트팜 센서 데이터: {"temp":24.1,"memo":"환기"}`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("context lines mismatch (-want +got):\n%s", diff)
	}
	assert.NotContains(t, systemText(t, Assemble(ctx, "q", nil)), NotAvailableSuffix)
}

func TestAssemble_WeatherWithoutMeasurements(t *testing.T) {
	lines := ContextLines(models.Context{Weather: &models.WeatherSnapshot{}})
	assert.Equal(t, weatherNoDetail, lines[0])
}

func TestAssemble_UserMessageCarriesImage(t *testing.T) {
	img := &models.Image{Data: []byte{1, 2, 3}, MIMEType: "image/png"}
	set := Assemble(models.Context{}, "이 잎 좀 봐주세요", img)

	user, ok := set.User()
	require.True(t, ok)
	require.Len(t, user.Parts, 2)
	assert.Equal(t, models.PartText, user.Parts[0].Type)
	assert.Equal(t, "이 잎 좀 봐주세요", user.Parts[0].Text)
	assert.Equal(t, models.PartImage, user.Parts[1].Type)
	assert.Equal(t, "data:image/png;base64,AQID", user.Parts[1].DataURL())

	noImage, _ := Assemble(models.Context{}, "q", nil).User()
	assert.Len(t, noImage.Parts, 1)
}

func TestAssemble_Deterministic(t *testing.T) {
	ctx := models.Context{Variety: &models.VarietyRecord{CropLabel: "벼", Text: "x"}}
	assert.Equal(t, Assemble(ctx, "q", nil), Assemble(ctx, "q", nil))
}
