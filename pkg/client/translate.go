package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const DefaultTranslateURL = "https://translate.googleapis.com/translate_a/single"

// Translator renders text into Korean through the public gtx endpoint.
type Translator struct {
	*BaseClient
	endpoint string
}

func NewTranslator(endpoint string, config ClientConfig, logger *zap.Logger) *Translator {
	if endpoint == "" {
		endpoint = DefaultTranslateURL
	}
	return &Translator{
		BaseClient: NewBaseClient("translate", config, logger),
		endpoint:   endpoint,
	}
}

// ToKorean translates text with source-language autodetection.
func (t *Translator) ToKorean(ctx context.Context, text string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", "auto")
	params.Set("tl", "ko")
	params.Set("dt", "t")
	params.Set("q", text)

	data, failure := t.Get(ctx, t.endpoint+"?"+params.Encode(), nil)
	if failure != nil {
		return "", failure
	}

	// [[["옥수수","corn",null,null,10]],null,"en",...]
	var payload []json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil || len(payload) == 0 {
		return "", errors.New("unexpected translation payload")
	}
	var segments [][]interface{}
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", errors.New("unexpected translation segments")
	}

	var sb strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			sb.WriteString(s)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", errors.New("empty translation")
	}
	return out, nil
}
