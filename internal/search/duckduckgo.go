package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/factchecker/factlens/internal/httputil"
)

// duckDuckGoHTMLURL is a variable so tests can point it at a local server.
var duckDuckGoHTMLURL = "https://html.duckduckgo.com/html/"

// DuckDuckGoClient scrapes result snippets from the DuckDuckGo HTML endpoint.
// It needs no API key and serves as the fallback searcher.
type DuckDuckGoClient struct {
	httpClient *http.Client
}

// NewDuckDuckGoClient creates a new DuckDuckGo client.
func NewDuckDuckGoClient(timeout time.Duration) *DuckDuckGoClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &DuckDuckGoClient{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name returns the source name.
func (c *DuckDuckGoClient) Name() string {
	return "DuckDuckGo"
}

// Available returns true as DuckDuckGo requires no API key.
func (c *DuckDuckGoClient) Available() bool {
	return true
}

// Snippets returns the text of the first result snippets for query.
func (c *DuckDuckGoClient) Snippets(ctx context.Context, query string, limit int) ([]string, error) {
	u := duckDuckGoHTMLURL + "?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 1)
	if err != nil {
		return nil, fmt.Errorf("DuckDuckGo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httputil.ReadError("DuckDuckGo", resp)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DuckDuckGo results: %w", err)
	}

	snippets := parseResultSnippets(doc, limit)
	log.Debug().Str("query", query).Int("count", len(snippets)).Msg("DuckDuckGo: Search completed")
	return snippets, nil
}

// parseResultSnippets collects the text of elements carrying the
// result__snippet class, in document order.
func parseResultSnippets(doc *html.Node, limit int) []string {
	var snippets []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(snippets) >= limit {
			return
		}
		if n.Type == html.ElementNode && hasClass(n, "result__snippet") {
			if text := nodeText(n); text != "" {
				snippets = append(snippets, text)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return snippets
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
