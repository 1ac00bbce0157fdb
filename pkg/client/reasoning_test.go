package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleMessages() models.MessageSet {
	return models.MessageSet{
		{Role: models.RoleSystem, Parts: []models.Part{{Type: models.PartText, Text: "system prompt"}}},
		{Role: models.RoleUser, Parts: []models.Part{
			{Type: models.PartText, Text: "잎이 노랗게 변해요"},
			{Type: models.PartImage, Image: &models.Image{Data: []byte{0xff, 0xd8}, MIMEType: "image/jpeg"}},
		}},
	}
}

func TestOpenAIBackend_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-5-mini", body["model"])

		messages := body["messages"].([]interface{})
		require.Len(t, messages, 2)
		system := messages[0].(map[string]interface{})
		assert.Equal(t, "system prompt", system["content"])

		user := messages[1].(map[string]interface{})
		parts := user["content"].([]interface{})
		require.Len(t, parts, 2)
		image := parts[1].(map[string]interface{})
		assert.Equal(t, "image_url", image["type"])
		assert.Equal(t, "data:image/jpeg;base64,/9g=", image["image_url"].(map[string]interface{})["url"])

		w.Write([]byte(`{"choices":[{"message":{"content":"  질소 결핍일 수 있습니다. "}}]}`))
	}))
	defer server.Close()

	backend := NewOpenAIBackend("sk-test", server.URL, "", testConfig(), zap.NewNop())
	answer, err := backend.Complete(context.Background(), sampleMessages())
	require.NoError(t, err)
	assert.Equal(t, "질소 결핍일 수 있습니다.", answer)
}

func TestOpenAIBackend_Complete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	backend := NewOpenAIBackend("sk-test", server.URL, "", testConfig(), zap.NewNop())
	_, err := backend.Complete(context.Background(), sampleMessages())
	assert.Error(t, err)
}

func TestOpenAIBackend_Complete_MissingKey(t *testing.T) {
	backend := NewOpenAIBackend("", "", "", testConfig(), zap.NewNop())
	_, err := backend.Complete(context.Background(), sampleMessages())
	assert.ErrorIs(t, err, ErrMissingReasoningKey)
}

func TestNewGeminiBackend_MissingKey(t *testing.T) {
	_, err := NewGeminiBackend(context.Background(), "", "", "", time.Second, zap.NewNop())
	assert.ErrorIs(t, err, ErrMissingReasoningKey)
}

func TestGeminiBackend_CompleteTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"late answer"}]}}]}`))
		}
	}))
	defer server.Close()

	backend, err := NewGeminiBackend(context.Background(), "gm-test", server.URL, "", 200*time.Millisecond, zap.NewNop())
	require.NoError(t, err)

	start := time.Now()
	answer, err := backend.Complete(context.Background(), sampleMessages())
	require.Error(t, err)
	assert.Empty(t, answer)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestTranslator_ToKorean(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "gtx", q.Get("client"))
		assert.Equal(t, "ko", q.Get("tl"))
		assert.Equal(t, "sweet corn", q.Get("q"))
		w.Write([]byte(`[[["단 옥수수","sweet corn",null,null,10]],null,"en"]`))
	}))
	defer server.Close()

	translator := NewTranslator(server.URL, testConfig(), zap.NewNop())
	out, err := translator.ToKorean(context.Background(), "sweet corn")
	require.NoError(t, err)
	assert.Equal(t, "단 옥수수", out)
}

func TestTranslator_ToKorean_BadPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"quota"}`))
	}))
	defer server.Close()

	translator := NewTranslator(server.URL, testConfig(), zap.NewNop())
	_, err := translator.ToKorean(context.Background(), "corn")
	assert.Error(t, err)
}

func TestGeolocationClient_Locate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","lat":37.5665,"lon":126.978,"city":"Seoul"}`))
	}))
	defer server.Close()

	client := NewGeolocationClient(server.URL, testConfig(), zap.NewNop())
	result := client.Locate(context.Background())
	require.True(t, result.OK(), result.Describe())
	assert.Equal(t, "Seoul", result.Value.City)
	assert.Equal(t, 37.5665, result.Value.Coordinate.Latitude)
}

func TestGeolocationClient_Locate_Fail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer server.Close()

	client := NewGeolocationClient(server.URL, testConfig(), zap.NewNop())
	result := client.Locate(context.Background())
	require.Equal(t, models.OutcomeFailure, result.Outcome)
	assert.Equal(t, models.FailureProvider, result.Failure.Kind)
	assert.Equal(t, "private range", result.Failure.Message)
}
