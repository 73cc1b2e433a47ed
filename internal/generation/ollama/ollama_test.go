package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecoach/internal/domain"
)

func TestGenerate_Success(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"model":"gemma:2b","response":"ACME reported steady revenue.","done":true}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	out, err := c.Generate(context.Background(), "summarize ACME")
	require.NoError(t, err)
	assert.Equal(t, "ACME reported steady revenue.", out)
	assert.Equal(t, generateRequest{Model: DefaultModel, Prompt: "summarize ACME", Stream: false}, got)
	assert.Equal(t, "ollama/gemma:2b", c.Name())
}

func TestGenerate_StreamFlagIsSent(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.Write([]byte(`{"response":""}`))
	}))
	defer srv.Close()

	out, err := NewClient(Config{BaseURL: srv.URL, Model: "llama3"}).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, false, raw["stream"])
	assert.Equal(t, "llama3", raw["model"])
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"model not found"}`},
		{name: "malformed json", status: http.StatusOK, body: `{"response":`},
		{name: "missing response", status: http.StatusOK, body: `{"done":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(Config{BaseURL: srv.URL}).Generate(context.Background(), "p")
			assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
		})
	}
}

func TestGenerate_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
