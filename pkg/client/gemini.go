package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiBackend answers through the Gemini API.
type GeminiBackend struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewGeminiBackend builds a backend whose Complete calls are bounded by timeout
// (no bound when timeout is zero).
func NewGeminiBackend(ctx context.Context, apiKey, baseURL, model string, timeout time.Duration, logger *zap.Logger) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, ErrMissingReasoningKey
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiBackend{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger.With(zap.String("backend", "gemini")),
	}, nil
}

func (b *GeminiBackend) Model() string { return b.model }

func toGeminiParts(m models.Message) []*genai.Part {
	parts := make([]*genai.Part, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch p.Type {
		case models.PartText:
			parts = append(parts, genai.NewPartFromText(p.Text))
		case models.PartImage:
			if p.Image != nil {
				parts = append(parts, genai.NewPartFromBytes(p.Image.Data, p.Image.MIMEType))
			}
		}
	}
	return parts
}

func (b *GeminiBackend) Complete(ctx context.Context, messages models.MessageSet) (string, error) {
	config := &genai.GenerateContentConfig{}
	if sys, ok := messages.System(); ok {
		config.SystemInstruction = genai.NewContentFromText(sys.Text(), genai.RoleUser)
	}

	var contents []*genai.Content
	if user, ok := messages.User(); ok {
		contents = append(contents, genai.NewContentFromParts(toGeminiParts(user), genai.RoleUser))
	}
	if len(contents) == 0 {
		return "", fmt.Errorf("no user message to send")
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	result, err := b.client.Models.GenerateContent(ctx, b.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	answer := strings.TrimSpace(result.Text())
	if answer == "" {
		return "", fmt.Errorf("GenAI returned an empty answer")
	}
	return answer, nil
}
