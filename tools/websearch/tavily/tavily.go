// Package tavily provides the web search client for the Tavily Search API.
package tavily

import (
	"context"
	"net/http"
	"os"

	"github.com/cockroachdb/errors"
	tavilygo "github.com/diverged/tavily-go"
	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/effective-security/x/values"
)

// ProviderName is the name of the provider
const ProviderName = "tavily"

// Option configures the client
type Option func(*Provider)

// WithBaseURL overrides the API endpoint
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// WithSearchDepth sets the search depth: basic or advanced
func WithSearchDepth(depth string) Option {
	return func(p *Provider) {
		p.searchDepth = depth
	}
}

// Provider searches the web with Tavily
type Provider struct {
	apiKey      string
	baseURL     string
	searchDepth string
	httpClient  *http.Client
}

// New returns the client,
// if apiKey is empty, TAVILY_API_KEY environment variable is used.
func New(apiKey string, opts ...Option) (*Provider, error) {
	apiKey = values.StringsCoalesce(apiKey, os.Getenv("TAVILY_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("TAVILY_API_KEY is not set")
	}

	p := &Provider{
		apiKey:      apiKey,
		searchDepth: "basic",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the name of the provider
func (p *Provider) Name() string {
	return ProviderName
}

// Search returns the results as items with title, link, snippet and score.
func (p *Provider) Search(_ context.Context, query string) ([]map[string]any, error) {
	client := tavilygo.NewClient(p.apiKey)
	if p.baseURL != "" {
		client.BaseURL = p.baseURL
	}
	if p.httpClient != nil {
		client.HTTPClient = p.httpClient
	}

	resp, err := tavilygo.Search(client, tavilyModels.SearchRequest{
		Query:       query,
		SearchDepth: p.searchDepth,
	})
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(resp.Results))
	for _, r := range resp.Results {
		items = append(items, map[string]any{
			"title":   r.Title,
			"link":    r.URL,
			"snippet": r.Content,
			"score":   r.Score,
		})
	}
	return items, nil
}
