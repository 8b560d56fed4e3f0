// Package google provides the web search client for the
// Google Custom Search JSON API.
package google

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// ProviderName is the name of the provider
const ProviderName = "google"

// Option configures the client
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL overrides the API endpoint
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client.
// The client is used as is, it must authorize the requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// Provider searches the web with Google Custom Search
type Provider struct {
	svc            *customsearch.Service
	searchEngineID string
}

// New returns the client for the API key and the search engine ID (cx).
func New(ctx context.Context, apiKey, searchEngineID string, opts ...Option) (*Provider, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	clientOpts := []option.ClientOption{
		option.WithAPIKey(apiKey),
	}
	if o.baseURL != "" {
		endpoint := o.baseURL
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		clientOpts = append(clientOpts, option.WithEndpoint(endpoint))
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(o.httpClient))
	}

	svc, err := customsearch.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}

	return &Provider{
		svc:            svc,
		searchEngineID: searchEngineID,
	}, nil
}

// Name returns the name of the provider
func (p *Provider) Name() string {
	return ProviderName
}

// Search returns the `items` of the search response,
// or empty list if the response has no items.
func (p *Provider) Search(ctx context.Context, query string) ([]map[string]any, error) {
	res, err := p.svc.Cse.List().
		Q(query).
		Cx(p.searchEngineID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	items := []map[string]any{}
	if len(res.Items) == 0 {
		return items, nil
	}

	js, err := json.Marshal(res.Items)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode search items")
	}
	if err = json.Unmarshal(js, &items); err != nil {
		return nil, errors.Wrap(err, "failed to decode search items")
	}
	return items, nil
}
