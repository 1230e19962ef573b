package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/luna-ai/luna/pkg/config"
	"github.com/luna-ai/luna/pkg/errkind"
)

func TestOpenRouterModelRouting(t *testing.T) {
	c, err := NewOpenRouterClient("", "sk-test")
	require.NoError(t, err)

	assert.Equal(t, "deepseek/deepseek-chat-v3.1:free", c.ModelFor(TaskClassification))
	assert.Equal(t, "moonshotai/kimi-k2-0905", c.ModelFor(TaskStrategy))
	assert.Equal(t, "microsoft/phi-4", c.ModelFor(TaskResearch))
	assert.Equal(t, c.ModelFor(TaskGeneral), c.ModelFor(TaskType("unknown")))
}

func TestOpenRouterComplete(t *testing.T) {
	var gotModel, gotAuth, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotReferer = r.Header.Get("HTTP-Referer")

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel, _ = req["model"].(string)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "micro-niche: prenatal fitness"}},
			},
		})
	}))
	defer srv.Close()

	c, err := NewOpenRouterClient(srv.URL, "sk-test")
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), TaskClassification, "classify this niche")

	require.NoError(t, err)
	assert.Equal(t, "micro-niche: prenatal fitness", out)
	assert.Equal(t, "deepseek/deepseek-chat-v3.1:free", gotModel)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.NotEmpty(t, gotReferer)
}

func TestOpenRouterErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   errkind.Kind
	}{
		{"unauthorized", http.StatusUnauthorized, errkind.Auth},
		{"rate limited", http.StatusTooManyRequests, errkind.Network},
		{"server error", http.StatusInternalServerError, errkind.Network},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "denied", tt.status)
			}))
			defer srv.Close()

			c, err := NewOpenRouterClient(srv.URL, "sk-test")
			require.NoError(t, err)

			_, err = c.Complete(context.Background(), TaskGeneral, "hello")

			require.Error(t, err)
			assert.Equal(t, tt.kind, errkind.KindOf(err))
		})
	}
}

func TestOpenRouterEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c, err := NewOpenRouterClient(srv.URL, "sk-test")
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), TaskGeneral, "hello")

	require.Error(t, err)
	assert.Equal(t, errkind.Format, errkind.KindOf(err))
}

func TestOllamaComplete(t *testing.T) {
	var gotModel string
	var gotStream any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel, _ = req["model"].(string)
		gotStream = req["stream"]
		json.NewEncoder(w).Encode(map[string]string{"response": "local answer"})
	}))
	defer srv.Close()

	c, err := NewOllamaClient(srv.URL, "qwen2.5")
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), TaskGeneral, "hello")

	require.NoError(t, err)
	assert.Equal(t, "local answer", out)
	assert.Equal(t, "qwen2.5", gotModel)
	assert.Equal(t, false, gotStream)
}

func TestOllamaDefaultsModel(t *testing.T) {
	c, err := NewOllamaClient("http://localhost:11434", "")
	require.NoError(t, err)
	assert.Equal(t, defaultOllamaModel, c.model)
}

func TestValidatePromptRejectsEmpty(t *testing.T) {
	c, err := NewOpenRouterClient("", "sk-test")
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), TaskGeneral, "")

	require.Error(t, err)
	assert.Equal(t, errkind.Validation, errkind.KindOf(err))
}

func TestNewFromConfig(t *testing.T) {
	logger := zap.NewNop()

	openrouter, err := NewFromConfig(&config.Config{OpenRouterAPIKey: "sk"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &OpenRouterClient{}, openrouter)

	ollama, err := NewFromConfig(&config.Config{OllamaBaseURL: "http://localhost:11434"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &OllamaClient{}, ollama)

	none, err := NewFromConfig(&config.Config{}, logger)
	require.NoError(t, err)
	assert.Nil(t, none)
}
