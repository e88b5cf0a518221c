package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybridrag/internal/embedding"
)

func newTestClient(t *testing.T, url string, retries int) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:    url,
		APIKey:     "test-key",
		Model:      "test-model",
		MaxRetries: retries,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresKey(t *testing.T) {
	t.Setenv("HYBRIDRAG_TEST_MISSING_KEY", "")

	_, err := NewClient(Config{APIKeyEnv: "HYBRIDRAG_TEST_MISSING_KEY"})

	assert.Error(t, err)
}

func TestNewClient_ReadsKeyFromEnv(t *testing.T) {
	t.Setenv("HYBRIDRAG_TEST_KEY", "secret")

	c, err := NewClient(Config{APIKeyEnv: "HYBRIDRAG_TEST_KEY"})

	require.NoError(t, err)
	assert.Equal(t, "secret", c.apiKey)
	assert.Equal(t, "openai:text-embedding-3-small", c.Name())
}

func TestEmbed_OpenAIShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["input"])
		assert.Equal(t, "test-model", body["model"])
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 0)

	v, err := c.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, v)
	assert.Equal(t, 3, c.Dimension())
}

func TestEmbed_OllamaShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[1,2]}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 0)

	v, err := c.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, v)
}

func TestEmbed_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"embedding":[1]}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 3)

	v, err := c.Embed(context.Background(), "x")

	require.NoError(t, err)
	assert.Equal(t, []float64{1}, v)
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmbed_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 3)

	_, err := c.Embed(context.Background(), "x")

	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmbed_EmptyResponseExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 1)

	_, err := c.Embed(context.Background(), "x")

	assert.ErrorIs(t, err, ErrNoEmbedding)
}

func TestEmbed_CancelledContextStopsRetrying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 5)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Embed(ctx, "x")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestEmbedBatch_PreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{float64(len(body["input"]))}})
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 0)

	out, err := c.EmbedBatch(context.Background(), []string{"a", "bbb", "cc", "dddd"})

	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}, {3}, {2}, {4}}, out)
}

func TestEmbedBatch_FailsWhenAnyTextFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["input"] == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"embedding":[1]}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 0)

	_, err := c.EmbedBatch(context.Background(), []string{"ok", "bad"})

	assert.Error(t, err)
}

// strictServer behaves like the OpenAI API: a request without an input field is a 400.
func strictServer(t *testing.T, seen *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		input, ok := body["input"].(string)
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		*seen = append(*seen, input)
		vec := []float64{0, 1}
		if input == "hello world" {
			vec = []float64{1, 0}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{{"embedding": vec}}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbed_EmptyTextStillSendsInput(t *testing.T) {
	var seen []string
	c := newTestClient(t, strictServer(t, &seen).URL, 0)

	v, err := c.Embed(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, v)
	assert.Equal(t, []string{""}, seen)
}

func TestDenseRebuild_BlankDocumentKeepsSemanticScores(t *testing.T) {
	var seen []string
	c := newTestClient(t, strictServer(t, &seen).URL, 0)
	idx := embedding.NewDense(c)

	out := idx.Rebuild(context.Background(), []string{"", "hello world"})
	scores, q := idx.Similarities(context.Background(), "hello world")

	require.False(t, out.Fallback, "rebuild error: %v", out.Err)
	require.False(t, q.Fallback)
	assert.Equal(t, []string{"hello world", "hello world"}, seen)
	assert.Equal(t, 0.0, scores[0])
	assert.InDelta(t, 1.0, scores[1], 1e-12)
}
