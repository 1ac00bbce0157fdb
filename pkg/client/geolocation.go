package client

import (
	"context"
	"encoding/json"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
	"go.uber.org/zap"
)

const DefaultGeolocationURL = "http://ip-api.com/json/?fields=lat,lon,city,status,message"

type ipAPIResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	City    string   `json:"city"`
}

// GeolocationClient approximates the server's position from its public IP.
type GeolocationClient struct {
	*BaseClient
	endpoint string
}

func NewGeolocationClient(endpoint string, config ClientConfig, logger *zap.Logger) *GeolocationClient {
	if endpoint == "" {
		endpoint = DefaultGeolocationURL
	}
	return &GeolocationClient{
		BaseClient: NewBaseClient("ip-api", config, logger),
		endpoint:   endpoint,
	}
}

func (c *GeolocationClient) Locate(ctx context.Context) models.Result[models.Location] {
	data, failure := c.Get(ctx, c.endpoint, nil)
	if failure != nil {
		return models.Fail[models.Location](failure)
	}

	var resp ipAPIResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return models.Fail[models.Location](models.SchemaFailure("decoding ip-api response", err))
	}
	if resp.Status != "success" {
		return models.Fail[models.Location](models.ProviderFailure(resp.Status, resp.Message))
	}
	if resp.Lat == nil || resp.Lon == nil {
		return models.Fail[models.Location](models.SchemaFailure("ip-api response has no coordinates", nil))
	}

	loc := models.Location{
		Coordinate: models.GeoCoordinate{Latitude: *resp.Lat, Longitude: *resp.Lon},
		City:       resp.City,
	}
	if err := loc.Coordinate.Validate(); err != nil {
		return models.Fail[models.Location](models.SchemaFailure("ip-api coordinate out of range", err))
	}
	return models.Success(loc)
}
