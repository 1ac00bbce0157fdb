package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
	"go.uber.org/zap"
)

const DefaultPlantIDURL = "https://api.plant.id/v2/identify"

type plantIDRequest struct {
	Images         []string `json:"images"`
	PlantDetails   []string `json:"plant_details"`
	DiseaseDetails []string `json:"disease_details"`
	Modifiers      []string `json:"modifiers"`
}

type plantIDResponse struct {
	Suggestions *[]struct {
		PlantName    string `json:"plant_name"`
		PlantDetails struct {
			CommonNames []string `json:"common_names"`
		} `json:"plant_details"`
		DiseaseSuggestions []struct {
			Name       string `json:"name"`
			CommonName string `json:"common_name"`
		} `json:"disease_suggestions"`
	} `json:"suggestions"`
}

// PlantIDClient identifies a plant and a suspected disease from an image.
type PlantIDClient struct {
	*BaseClient
	apiKey   string
	endpoint string
}

func NewPlantIDClient(apiKey, endpoint string, config ClientConfig, logger *zap.Logger) *PlantIDClient {
	if endpoint == "" {
		endpoint = DefaultPlantIDURL
	}
	return &PlantIDClient{
		BaseClient: NewBaseClient("plant.id", config, logger),
		apiKey:     apiKey,
		endpoint:   endpoint,
	}
}

func (c *PlantIDClient) Fetch(ctx context.Context, image models.Image) models.Result[models.PlantDiagnosis] {
	if c.apiKey == "" {
		return models.Fail[models.PlantDiagnosis](models.MissingCredential("PLANT_ID_API_KEY"))
	}
	if len(image.Data) == 0 {
		return models.Fail[models.PlantDiagnosis](models.SchemaFailure("image is empty", nil))
	}

	req := plantIDRequest{
		Images:         []string{base64.StdEncoding.EncodeToString(image.Data)},
		PlantDetails:   []string{"common_names", "description", "url", "watering"},
		DiseaseDetails: []string{"common_names", "description", "url", "treatment"},
		Modifiers:      []string{"similar_images"},
	}
	header := http.Header{}
	header.Set("Api-Key", c.apiKey)

	data, failure := c.PostJSON(ctx, c.endpoint, header, req)
	if failure != nil {
		return models.Fail[models.PlantDiagnosis](failure)
	}

	var resp plantIDResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return models.Fail[models.PlantDiagnosis](models.SchemaFailure("decoding Plant.ID response", err))
	}
	if resp.Suggestions == nil {
		return models.Fail[models.PlantDiagnosis](models.SchemaFailure("missing suggestions", nil))
	}
	if len(*resp.Suggestions) == 0 {
		return models.Empty[models.PlantDiagnosis]()
	}

	top := (*resp.Suggestions)[0]
	var diagnosis models.PlantDiagnosis

	name := top.PlantName
	if len(top.PlantDetails.CommonNames) > 0 && strings.TrimSpace(top.PlantDetails.CommonNames[0]) != "" {
		name = top.PlantDetails.CommonNames[0]
	}
	if name = strings.TrimSpace(name); name != "" {
		diagnosis.CommonName = &name
	}

	if len(top.DiseaseSuggestions) > 0 {
		disease := strings.TrimSpace(top.DiseaseSuggestions[0].CommonName)
		if disease == "" {
			disease = strings.TrimSpace(top.DiseaseSuggestions[0].Name)
		}
		if disease != "" {
			diagnosis.SuspectedDisease = &disease
		}
	}

	if diagnosis.CommonName == nil && diagnosis.SuspectedDisease == nil {
		return models.Empty[models.PlantDiagnosis]()
	}

	c.logger.Debug("Plant diagnosis parsed",
		zap.Stringp("plant", diagnosis.CommonName),
		zap.Stringp("disease", diagnosis.SuspectedDisease))
	return models.Success(diagnosis)
}
