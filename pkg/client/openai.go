package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-5-mini"
)

var ErrMissingReasoningKey = errors.New("reasoning backend API key is not configured")

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// OpenAIBackend sends the assembled messages to the chat completions API.
type OpenAIBackend struct {
	*BaseClient
	apiKey  string
	baseURL string
	model   string
}

func NewOpenAIBackend(apiKey, baseURL, model string, config ClientConfig, logger *zap.Logger) *OpenAIBackend {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIBackend{
		BaseClient: NewBaseClient("openai", config, logger),
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
	}
}

func (b *OpenAIBackend) Model() string { return b.model }

// toOpenAIMessages sends system content as plain text and user content as parts.
func toOpenAIMessages(set models.MessageSet) []openAIMessage {
	out := make([]openAIMessage, 0, len(set))
	for _, m := range set {
		if m.Role == models.RoleSystem {
			out = append(out, openAIMessage{Role: string(m.Role), Content: m.Text()})
			continue
		}
		parts := make([]openAIContentPart, 0, len(m.Parts))
		for _, p := range m.Parts {
			switch p.Type {
			case models.PartText:
				parts = append(parts, openAIContentPart{Type: "text", Text: p.Text})
			case models.PartImage:
				parts = append(parts, openAIContentPart{Type: "image_url", ImageURL: &openAIImageURL{URL: p.DataURL()}})
			}
		}
		out = append(out, openAIMessage{Role: string(m.Role), Content: parts})
	}
	return out
}

func (b *OpenAIBackend) Complete(ctx context.Context, messages models.MessageSet) (string, error) {
	if b.apiKey == "" {
		return "", ErrMissingReasoningKey
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+b.apiKey)

	data, failure := b.PostJSON(ctx, b.baseURL+"/chat/completions", header, openAIRequest{
		Model:    b.model,
		Messages: toOpenAIMessages(messages),
	})
	if failure != nil {
		return "", fmt.Errorf("openai request failed: %w", failure)
	}

	var resp openAIResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decoding openai response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("openai error (%s): %s", resp.Error.Type, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", errors.New("openai returned an empty answer")
	}
	return answer, nil
}
