package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	customSearchBaseURL = "https://customsearch.googleapis.com/customsearch/v1"
	searchTimeout       = 10 * time.Second
)

// NoWebResults is the fixed sentinel used when the live search returns no
// snippets or is unavailable. It is normal output, not an error.
const NoWebResults = "No relevant information found on the web."

// ErrSearchUnavailable marks a failed web-search call. Callers degrade the
// search context to the sentinel instead of surfacing it to the user.
var ErrSearchUnavailable = errors.New("web search unavailable")

// WebSearcher performs a live web search and returns flattened snippet text.
type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// GoogleSearcher queries the Google Custom Search JSON API.
type GoogleSearcher struct {
	apiKey   string
	engineID string
	baseURL  string
	client   *http.Client
}

// GoogleSearcherOption is a functional option for GoogleSearcher.
type GoogleSearcherOption func(*GoogleSearcher)

// WithSearchBaseURL overrides the API base URL (used in tests).
func WithSearchBaseURL(baseURL string) GoogleSearcherOption {
	return func(s *GoogleSearcher) {
		s.baseURL = baseURL
	}
}

// NewGoogleSearcher creates a searcher for the given API key and search
// engine identifier.
func NewGoogleSearcher(apiKey, engineID string, opts ...GoogleSearcherOption) *GoogleSearcher {
	s := &GoogleSearcher{
		apiKey:   apiKey,
		engineID: engineID,
		baseURL:  customSearchBaseURL,
		client:   &http.Client{Timeout: searchTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type searchResponse struct {
	Items []struct {
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Search runs the query and returns snippets joined by newlines, or the
// NoWebResults sentinel when the engine finds nothing.
func (s *GoogleSearcher) Search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("cx", s.engineID)
	params.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: API error %d - %s", ErrSearchUnavailable, resp.StatusCode, string(body))
	}

	var apiResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", ErrSearchUnavailable, err)
	}

	snippets := make([]string, 0, len(apiResp.Items))
	for _, item := range apiResp.Items {
		if item.Snippet != "" {
			snippets = append(snippets, item.Snippet)
		}
	}
	if len(snippets) == 0 {
		return NoWebResults, nil
	}
	return strings.Join(snippets, "\n"), nil
}
