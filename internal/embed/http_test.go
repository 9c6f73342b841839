package embed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/castindex/indexer/internal/breaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProviderEmbedReturnsVectorsInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req httpEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := httpEmbedResponse{Embeddings: make([][]float32, len(req.Texts))}
		for i := range req.Texts {
			resp.Embeddings[i] = []float32{float32(i)}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "test-model", 1)
	vecs, err := p.Embed(t.Context(), []string{"a", "b"}, ModePassage)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0}, {1}}, vecs)
}

func TestHTTPProviderEmbedReturnsHTTPStatusErrorOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "test-model", 1)
	_, err := p.Embed(t.Context(), []string{"a"}, ModePassage)
	require.Error(t, err)
	var statusErr *breaker.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
}
