package client

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
	"github.com/bobby-s-dev/agri-copilot/pkg/kma"
	"go.uber.org/zap"
)

const (
	DefaultKMABaseURL = "http://apis.data.go.kr/1360000/VilageFcstInfoService_2.0"

	kmaResultOK     = "00"
	kmaResultNoData = "03"

	categoryTemperature = "T1H"
	categoryHumidity    = "REH"
	categoryRainfall1h  = "RN1"
	categoryPOP         = "POP"
)

type kmaHeader struct {
	ResultCode string `json:"resultCode"`
	ResultMsg  string `json:"resultMsg"`
}

type kmaNowItem struct {
	Category  string `json:"category"`
	ObsrValue string `json:"obsrValue"`
}

type kmaForecastItem struct {
	Category  string `json:"category"`
	FcstDate  string `json:"fcstDate"`
	FcstTime  string `json:"fcstTime"`
	FcstValue string `json:"fcstValue"`
}

type kmaResponse[T any] struct {
	Response *struct {
		Header *kmaHeader `json:"header"`
		Body   *struct {
			TotalCount *int `json:"totalCount"`
			Items      *struct {
				Item []T `json:"item"`
			} `json:"items"`
		} `json:"body"`
	} `json:"response"`
}

// kmaServiceError is the XML envelope the data.go.kr gateway returns for
// key and quota errors even when JSON was requested.
type kmaServiceError struct {
	XMLName xml.Name `xml:"OpenAPI_ServiceResponse"`
	Header  struct {
		ErrMsg           string `xml:"errMsg"`
		ReturnAuthMsg    string `xml:"returnAuthMsg"`
		ReturnReasonCode string `xml:"returnReasonCode"`
	} `xml:"cmmMsgHeader"`
}

// KMAClient queries the KMA village forecast service.
type KMAClient struct {
	*BaseClient
	apiKey  string
	baseURL string
	now     func() time.Time
}

func NewKMAClient(apiKey, baseURL string, config ClientConfig, logger *zap.Logger) *KMAClient {
	return newKMAClient("kma", apiKey, baseURL, config, logger)
}

func newKMAClient(name, apiKey, baseURL string, config ClientConfig, logger *zap.Logger) *KMAClient {
	if baseURL == "" {
		baseURL = DefaultKMABaseURL
	}
	return &KMAClient{
		BaseClient: NewBaseClient(name, config, logger),
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        kma.Now,
	}
}

// WithClock replaces the local clock used to pick base times.
func (c *KMAClient) WithClock(now func() time.Time) *KMAClient {
	c.now = now
	return c
}

func (c *KMAClient) query(ctx context.Context, endpoint string, grid models.GridCell, window models.ObservationWindow, rows int) ([]byte, *models.Failure) {
	params := url.Values{}
	params.Set("serviceKey", c.apiKey)
	params.Set("dataType", "JSON")
	params.Set("numOfRows", strconv.Itoa(rows))
	params.Set("pageNo", "1")
	params.Set("base_date", window.Date)
	params.Set("base_time", window.Time)
	params.Set("nx", strconv.Itoa(grid.X))
	params.Set("ny", strconv.Itoa(grid.Y))

	return c.Get(ctx, c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
}

// FetchNow returns the latest ultra-short-term observation for the coordinate.
func (c *KMAClient) FetchNow(ctx context.Context, coord models.GeoCoordinate) models.Result[models.CurrentObservation] {
	if c.apiKey == "" {
		return models.Fail[models.CurrentObservation](models.MissingCredential("KMA_API_KEY"))
	}

	grid := kma.ProjectCoordinate(coord)
	window := kma.NowWindow(c.now())

	data, failure := c.query(ctx, "getUltraSrtNcst", grid, window, 200)
	if failure != nil {
		return models.Fail[models.CurrentObservation](failure)
	}

	items, outcome := decodeKMA[kmaNowItem](data)
	if outcome != nil {
		return resultFromOutcome[models.CurrentObservation](outcome)
	}

	values := make(map[string]string, len(items))
	for _, it := range items {
		values[it.Category] = it.ObsrValue
	}

	obs := models.CurrentObservation{
		TemperatureC: parseMeasurement(values[categoryTemperature]),
		HumidityPct:  parseMeasurement(values[categoryHumidity]),
		RainfallMm:   parseMeasurement(values[categoryRainfall1h]),
		Grid:         grid,
		Window:       window,
	}
	c.logger.Debug("KMA observation parsed",
		zap.Int("nx", grid.X), zap.Int("ny", grid.Y),
		zap.String("base", window.String()),
		zap.Int("items", len(items)))

	return models.Success(obs)
}

// FetchForecast returns the precipitation probability for the first forecast slot
// at or after the current time, or the last slot when all are in the past.
func (c *KMAClient) FetchForecast(ctx context.Context, coord models.GeoCoordinate) models.Result[models.PrecipitationForecast] {
	if c.apiKey == "" {
		return models.Fail[models.PrecipitationForecast](models.MissingCredential("KMA_API_KEY"))
	}

	clock := c.now()
	grid := kma.ProjectCoordinate(coord)
	window := kma.ForecastWindow(clock)

	data, failure := c.query(ctx, "getVilageFcst", grid, window, 900)
	if failure != nil {
		return models.Fail[models.PrecipitationForecast](failure)
	}

	items, outcome := decodeKMA[kmaForecastItem](data)
	if outcome != nil {
		return resultFromOutcome[models.PrecipitationForecast](outcome)
	}

	pick, ok := selectPOP(items, window.Date, clock.Format("1504"))
	if !ok {
		return models.Empty[models.PrecipitationForecast]()
	}

	return models.Success(models.PrecipitationForecast{
		ProbabilityPct: parseMeasurement(pick.FcstValue),
		ForecastDate:   pick.FcstDate,
		ForecastTime:   pick.FcstTime,
		Grid:           grid,
		Window:         window,
	})
}

// selectPOP filters POP entries, sorts them by (date, time) and returns the first
// one at or after baseDate/nowHHMM, falling back to the chronologically last.
func selectPOP(items []kmaForecastItem, baseDate, nowHHMM string) (kmaForecastItem, bool) {
	var pops []kmaForecastItem
	for _, it := range items {
		if it.Category == categoryPOP {
			pops = append(pops, it)
		}
	}
	if len(pops) == 0 {
		return kmaForecastItem{}, false
	}

	sort.SliceStable(pops, func(i, j int) bool {
		if pops[i].FcstDate != pops[j].FcstDate {
			return pops[i].FcstDate < pops[j].FcstDate
		}
		return pops[i].FcstTime < pops[j].FcstTime
	})

	for _, it := range pops {
		if it.FcstDate > baseDate || (it.FcstDate == baseDate && it.FcstTime >= nowHHMM) {
			return it, true
		}
	}
	return pops[len(pops)-1], true
}

// kmaOutcome carries a non-success decode result.
type kmaOutcome struct {
	empty   bool
	failure *models.Failure
}

func resultFromOutcome[T any](o *kmaOutcome) models.Result[T] {
	if o.empty {
		return models.Empty[T]()
	}
	return models.Fail[T](o.failure)
}

func decodeKMA[T any](data []byte) ([]T, *kmaOutcome) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '<' {
		var svcErr kmaServiceError
		if err := xml.Unmarshal(trimmed, &svcErr); err != nil {
			return nil, &kmaOutcome{failure: models.SchemaFailure("unexpected XML payload", err)}
		}
		msg := svcErr.Header.ReturnAuthMsg
		if msg == "" {
			msg = svcErr.Header.ErrMsg
		}
		return nil, &kmaOutcome{failure: models.ProviderFailure(svcErr.Header.ReturnReasonCode, msg)}
	}

	var payload kmaResponse[T]
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, &kmaOutcome{failure: models.SchemaFailure("decoding KMA response", err)}
	}
	if payload.Response == nil || payload.Response.Header == nil {
		return nil, &kmaOutcome{failure: models.SchemaFailure("missing response header", nil)}
	}

	header := payload.Response.Header
	switch header.ResultCode {
	case kmaResultOK:
	case kmaResultNoData:
		return nil, &kmaOutcome{empty: true}
	default:
		return nil, &kmaOutcome{failure: models.ProviderFailure(header.ResultCode, header.ResultMsg)}
	}

	body := payload.Response.Body
	if body == nil {
		return nil, &kmaOutcome{failure: models.SchemaFailure("missing response body", nil)}
	}
	if body.TotalCount != nil && *body.TotalCount == 0 {
		return nil, &kmaOutcome{empty: true}
	}
	if body.Items == nil {
		return nil, &kmaOutcome{failure: models.SchemaFailure("missing items", nil)}
	}
	if len(body.Items.Item) == 0 {
		return nil, &kmaOutcome{empty: true}
	}
	return body.Items.Item, nil
}

// parseMeasurement returns nil for blank or non-numeric values.
func parseMeasurement(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// KMANowProvider adapts FetchNow to the provider interface.
type KMANowProvider struct{ *KMAClient }

// NewKMANowProvider gives weather-now its own circuit breaker, so forecast
// outages do not block observations.
func NewKMANowProvider(apiKey, baseURL string, config ClientConfig, logger *zap.Logger) KMANowProvider {
	return KMANowProvider{newKMAClient("kma-now", apiKey, baseURL, config, logger)}
}

func (p KMANowProvider) Name() string { return "kma-now" }

func (p KMANowProvider) Fetch(ctx context.Context, coord models.GeoCoordinate) models.Result[models.CurrentObservation] {
	return p.FetchNow(ctx, coord)
}

// KMAForecastProvider adapts FetchForecast to the provider interface.
type KMAForecastProvider struct{ *KMAClient }

func NewKMAForecastProvider(apiKey, baseURL string, config ClientConfig, logger *zap.Logger) KMAForecastProvider {
	return KMAForecastProvider{newKMAClient("kma-forecast", apiKey, baseURL, config, logger)}
}

func (p KMAForecastProvider) Name() string { return "kma-forecast" }

func (p KMAForecastProvider) Fetch(ctx context.Context, coord models.GeoCoordinate) models.Result[models.PrecipitationForecast] {
	return p.FetchForecast(ctx, coord)
}
