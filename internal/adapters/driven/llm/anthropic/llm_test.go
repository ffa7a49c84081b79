package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

func newService(t *testing.T, h http.HandlerFunc) *LLMService {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	svc, err := NewLLMService(Config{APIKey: "key", BaseURL: srv.URL, Model: "test-model"})
	require.NoError(t, err)
	return svc
}

func TestNewLLMServiceRequiresKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, 2000, req.MaxTokens)
		assert.InDelta(t, 0.8, req.Temperature, 0.001)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		fmt.Fprint(w, `{"content":[{"type":"text","text":"hello "},{"type":"text","text":"world"}],"stop_reason":"end_turn"}`)
	})

	got, err := svc.Generate(context.Background(), "say hi", driven.GenerateOptions{
		MaxTokens:   2000,
		Temperature: 0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestGenerateAPIError(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"type":"overloaded_error","message":"try later"}}`)
	})

	_, err := svc.Generate(context.Background(), "x", driven.GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "try later")
}

func TestGenerateEmptyContent(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"content":[]}`)
	})

	_, err := svc.Generate(context.Background(), "x", driven.GenerateOptions{})
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/models", r.URL.Path)
			fmt.Fprint(w, `{"data":[]}`)
		})
		assert.NoError(t, svc.Ping(context.Background()))
	})

	t.Run("bad key", func(t *testing.T) {
		svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		assert.Error(t, svc.Ping(context.Background()))
	})
}

func TestModelName(t *testing.T) {
	svc, err := NewLLMService(Config{APIKey: "key"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.NoError(t, svc.Close())
}
