package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestGoogleSearcher_JoinsSnippets(t *testing.T) {
	server := searchServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "test-engine", r.URL.Query().Get("cx"))
		assert.Equal(t, "refund policy", r.URL.Query().Get("q"))

		w.Write([]byte(`{"items": [
			{"snippet": "First snippet."},
			{"snippet": "Second snippet."},
			{"snippet": ""},
			{"snippet": "Third snippet."}
		]}`))
	})

	s := NewGoogleSearcher("test-key", "test-engine", WithSearchBaseURL(server.URL))

	out, err := s.Search(context.Background(), "refund policy")
	require.NoError(t, err)
	assert.Equal(t, "First snippet.\nSecond snippet.\nThird snippet.", out)
}

func TestGoogleSearcher_NoItemsReturnsSentinel(t *testing.T) {
	server := searchServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	s := NewGoogleSearcher("test-key", "test-engine", WithSearchBaseURL(server.URL))

	out, err := s.Search(context.Background(), "no such thing")
	require.NoError(t, err)
	assert.Equal(t, NoWebResults, out)
}

func TestGoogleSearcher_EmptySnippetsReturnsSentinel(t *testing.T) {
	server := searchServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [{"snippet": ""}]}`))
	})

	s := NewGoogleSearcher("test-key", "test-engine", WithSearchBaseURL(server.URL))

	out, err := s.Search(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, NoWebResults, out)
}

func TestGoogleSearcher_APIErrorIsSearchUnavailable(t *testing.T) {
	server := searchServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	s := NewGoogleSearcher("test-key", "test-engine", WithSearchBaseURL(server.URL))

	_, err := s.Search(context.Background(), "query")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
}

func TestGoogleSearcher_MalformedResponse(t *testing.T) {
	server := searchServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	s := NewGoogleSearcher("test-key", "test-engine", WithSearchBaseURL(server.URL))

	_, err := s.Search(context.Background(), "query")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
}
