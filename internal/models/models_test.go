package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234년산 찰옥수수(강원)!!", "년산 찰옥수수"},
		{"  식량   작물 ", "식량 작물"},
		{"채소(엽채류)", "채소"},
		{"2024", ""},
		{"특용작물·약용", "특용작물약용"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLabel(tt.in))
		})
	}
}

func TestNewCategoryList(t *testing.T) {
	list := NewCategoryList([]CategoryNode{
		{Code: "FC", Label: "식량작물"},
		{Code: "", Label: "코드없음"},
		{Code: "VC", Label: "123"},
		{Code: " FT ", Label: "과수(1)"},
	})

	assert.Equal(t, []CategoryNode{
		Unselected(),
		{Code: "FC", Label: "식량작물"},
		{Code: "FT", Label: "과수"},
	}, list)
	assert.False(t, list[0].IsSelected())
	assert.True(t, list[1].IsSelected())
}

func TestMergeWeather(t *testing.T) {
	temp, pop := 21.0, 60.0
	now := Success(CurrentObservation{TemperatureC: &temp, Window: ObservationWindow{Date: "20240601", Time: "1300"}})
	forecast := Success(PrecipitationForecast{ProbabilityPct: &pop, ForecastDate: "20240601", ForecastTime: "1400"})
	failedNow := Fail[CurrentObservation](TransportFailure(errors.New("timeout")))
	emptyForecast := Empty[PrecipitationForecast]()

	snapshot, ok := MergeWeather(now, forecast)
	require.True(t, ok)
	assert.Equal(t, 21.0, *snapshot.TemperatureC)
	assert.Equal(t, 60.0, *snapshot.PrecipProbabilityPct)
	assert.Equal(t, "1300", snapshot.ObservedAt.Time)

	snapshot, ok = MergeWeather(failedNow, forecast)
	require.True(t, ok)
	assert.Nil(t, snapshot.TemperatureC)
	assert.Equal(t, "1400", snapshot.ObservedAt.Time)

	_, ok = MergeWeather(failedNow, emptyForecast)
	assert.False(t, ok)
}

func TestStatusNoteString(t *testing.T) {
	assert.Equal(t, "날씨(KMA) OK", StatusNote{Tool: ToolWeather, Kind: StatusOK}.String())
	assert.Equal(t, "스마트팜 비활성화", StatusNote{Tool: ToolTelemetry, Kind: StatusDisabled}.String())
	assert.Equal(t, "Plant.ID 불가 (업로드된 이미지 없음)", StatusNote{Tool: ToolPlantDiagnosis, Kind: StatusUnavailable, Detail: "업로드된 이미지 없음"}.String())
	assert.Equal(t, "농사로 불가", StatusNote{Tool: ToolVarietyReference, Kind: StatusFailed}.String())
}

func TestFailureError(t *testing.T) {
	assert.Equal(t, "provider_error: code=30 message=bad key", ProviderFailure("30", "bad key").Error())
	assert.Equal(t, "missing_credential: NONGSARO_API_KEY is not configured", MissingCredential("NONGSARO_API_KEY").Error())

	cause := errors.New("unexpected EOF")
	f := SchemaFailure("decoding body", cause)
	assert.Equal(t, "schema_mismatch: decoding body: unexpected EOF", f.Error())
	assert.ErrorIs(t, f, cause)

	r := Fail[string](f)
	assert.False(t, r.OK())
	assert.Equal(t, f.Error(), r.Describe())
	assert.Equal(t, "empty", Empty[string]().Describe())
}

func TestNewVarietyRecord_TruncatesByCharacter(t *testing.T) {
	text := strings.Repeat("가", VarietyTextLimit+10)
	rec := NewVarietyRecord("옥수수", text)
	assert.Equal(t, VarietyTextLimit, len([]rune(rec.Text)))
	assert.Equal(t, "옥수수", rec.CropLabel)
}

func TestSessionWithTurn_DoesNotAliasOriginal(t *testing.T) {
	at := time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC)
	s := Session{ID: "s1", Turns: make([]Turn, 0, 4)}

	next := s.WithTurn(Turn{Query: "q1", At: at})
	_ = s.WithTurn(Turn{Query: "q2", At: at})

	assert.Empty(t, s.Turns)
	require.Len(t, next.Turns, 1)
	assert.Equal(t, "q1", next.Turns[0].Query)
	assert.Equal(t, at, next.UpdatedAt)
}

func TestGeoCoordinateValidate(t *testing.T) {
	assert.NoError(t, GeoCoordinate{Latitude: 36.6, Longitude: 127.4}.Validate())
	assert.Error(t, GeoCoordinate{Latitude: -91}.Validate())
	assert.Error(t, GeoCoordinate{Longitude: 181}.Validate())
}
