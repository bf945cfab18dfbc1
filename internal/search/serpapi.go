package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/factchecker/factlens/internal/httputil"
	"github.com/factchecker/factlens/internal/models"
)

// SerpAPIClient queries Google web search and Google Lens through SerpAPI.
type SerpAPIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewSerpAPIClient creates a new SerpAPI client.
func NewSerpAPIClient(apiKey, baseURL string, timeout time.Duration) *SerpAPIClient {
	if baseURL == "" {
		baseURL = "https://serpapi.com/search.json"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SerpAPIClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name returns the source name.
func (c *SerpAPIClient) Name() string {
	return "SerpAPI"
}

// Available returns whether an API key is configured.
func (c *SerpAPIClient) Available() bool {
	return c.apiKey != ""
}

type serpOrganicResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
	Error string `json:"error"`
}

type serpLensResponse struct {
	VisualMatches []struct {
		Title      string `json:"title"`
		Link       string `json:"link"`
		SourceIcon string `json:"source_icon"`
	} `json:"visual_matches"`
	Error string `json:"error"`
}

// Snippets returns the snippets of the top organic Google results.
func (c *SerpAPIClient) Snippets(ctx context.Context, query string, limit int) ([]string, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", strconv.Itoa(limit))

	var data serpOrganicResponse
	if err := c.get(ctx, params, &data); err != nil {
		return nil, err
	}
	if err := serpError(data.Error); err != nil {
		return nil, err
	}

	snippets := make([]string, 0, len(data.OrganicResults))
	for _, r := range data.OrganicResults {
		if len(snippets) >= limit {
			break
		}
		if r.Snippet != "" {
			snippets = append(snippets, r.Snippet)
		}
	}
	return snippets, nil
}

// VisualMatches returns pages on which Google Lens found the image at imageURL.
func (c *SerpAPIClient) VisualMatches(ctx context.Context, imageURL string, limit int) ([]models.VisualMatch, error) {
	params := url.Values{}
	params.Set("engine", "google_lens")
	params.Set("url", imageURL)

	var data serpLensResponse
	if err := c.get(ctx, params, &data); err != nil {
		return nil, err
	}
	if err := serpError(data.Error); err != nil {
		return nil, err
	}

	matches := make([]models.VisualMatch, 0, len(data.VisualMatches))
	for _, m := range data.VisualMatches {
		if len(matches) >= limit {
			break
		}
		matches = append(matches, models.VisualMatch{
			Title:      m.Title,
			Link:       m.Link,
			SourceIcon: m.SourceIcon,
		})
	}
	return matches, nil
}

func (c *SerpAPIClient) get(ctx context.Context, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 2)
	if err != nil {
		return fmt.Errorf("SerpAPI request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httputil.ReadError("SerpAPI", resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode SerpAPI response: %w", err)
	}
	return nil
}

// serpError maps the error field of a 200 response. An empty result set is
// reported through that field too and is not a failure.
func serpError(msg string) error {
	if msg == "" || strings.Contains(msg, "hasn't returned any results") {
		return nil
	}
	return fmt.Errorf("SerpAPI error: %s", msg)
}
