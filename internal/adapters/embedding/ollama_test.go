package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaAdapter_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req ollamaEmbedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, []string{"椿まつり"}, req.Input)

		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{0.1, 0.2, 0.3}},
		})
	}))
	defer server.Close()

	adapter := NewOllamaAdapter(server.URL, "test-model", 0)
	emb, err := adapter.Embed(context.Background(), "椿まつり")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, emb)
}

func TestOllamaAdapter_EmbedBatch_SingleRequest(t *testing.T) {
	callCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		var req ollamaEmbedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		out := make([][]float32, len(req.Input))
		for i := range req.Input {
			out[i] = []float32{float32(i + 1)}
		}
		json.NewEncoder(w).Encode(map[string]any{"embeddings": out})
	}))
	defer server.Close()

	adapter := NewOllamaAdapter(server.URL, "test-model", 0)
	results, err := adapter.EmbedBatch(context.Background(), []string{"a", "b", "c"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}, {3}}, results)
	assert.Equal(t, 1, callCount)
}

func TestOllamaAdapter_EmbedBatch_Empty(t *testing.T) {
	results, err := NewOllamaAdapter("http://127.0.0.1:1", "m", 0).EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestOllamaAdapter_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewOllamaAdapter(server.URL, "test", 0).Embed(context.Background(), "test")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestOllamaAdapter_BadResponses(t *testing.T) {
	for name, body := range map[string]string{
		"empty vector":   `{"embeddings":[[]]}`,
		"count mismatch": `{"embeddings":[]}`,
		"not json":       `<html>`,
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer server.Close()

			_, err := NewOllamaAdapter(server.URL, "test", 0).Embed(context.Background(), "x")
			assert.Error(t, err)
		})
	}
}

func TestOllamaAdapter_DefaultValues(t *testing.T) {
	adapter := NewOllamaAdapter("", "", 0)
	assert.Equal(t, "http://localhost:11434", adapter.baseURL)
	assert.Equal(t, "nomic-embed-text", adapter.model)
	assert.Zero(t, adapter.client.Timeout)
}
