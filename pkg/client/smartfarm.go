package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
	"go.uber.org/zap"
)

// TelemetryClient reads the latest sensor values of a farm device.
type TelemetryClient struct {
	*BaseClient
	apiKey string
}

func NewTelemetryClient(apiKey string, config ClientConfig, logger *zap.Logger) *TelemetryClient {
	return &TelemetryClient{
		BaseClient: NewBaseClient("smartfarm", config, logger),
		apiKey:     apiKey,
	}
}

func latestURL(target models.TelemetryTarget) string {
	return strings.TrimRight(target.BaseURL, "/") + "/devices/" + url.PathEscape(target.DeviceID) + "/latest"
}

// Fetch returns the device's latest reading as the provider sent it.
func (c *TelemetryClient) Fetch(ctx context.Context, target models.TelemetryTarget) models.Result[models.TelemetrySnapshot] {
	if c.apiKey == "" {
		return models.Fail[models.TelemetrySnapshot](models.MissingCredential("SMARTFARM_KOREA_API_KEY"))
	}
	if target.BaseURL == "" || target.DeviceID == "" {
		return models.Empty[models.TelemetrySnapshot]()
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)
	header.Set("Accept", "application/json")

	data, failure := c.Get(ctx, latestURL(target), header)
	if failure != nil {
		return models.Fail[models.TelemetrySnapshot](failure)
	}

	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return models.Fail[models.TelemetrySnapshot](models.SchemaFailure("telemetry body is not JSON", nil))
	}
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte("{}")) {
		return models.Empty[models.TelemetrySnapshot]()
	}
	return models.Success(models.TelemetrySnapshot(data))
}
