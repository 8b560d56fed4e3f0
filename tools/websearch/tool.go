package websearch

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/searchagent/chatmodel"
	"github.com/effective-security/searchagent/pkg/llmutils"
	"github.com/effective-security/searchagent/pkg/schema"
	"github.com/effective-security/searchagent/tools"
	"github.com/effective-security/xlog"
)

// Option configures the search tool
type Option func(*Tool)

// WithProviderFactory sets the search provider,
// by default Google Custom Search is used.
func WithProviderFactory(factory ProviderFactory) Option {
	return func(t *Tool) {
		t.factory = factory
	}
}

// Tool is the search_web function bound to the credentials
type Tool struct {
	schema  *schema.FunctionSchema
	creds   Credentials
	factory ProviderFactory
}

// ensure Tool implements the tools.Tool interface
var _ tools.Tool[Request, Result] = (*Tool)(nil)

// New returns the search_web tool bound to the credentials
func New(creds Credentials, opts ...Option) *Tool {
	t := &Tool{
		schema:  DescribeTool(),
		creds:   creds,
		factory: GoogleProvider(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// BuildFunctionMap returns the function map with one entry, `search_web`,
// bound to the provided API key and search engine ID.
func BuildFunctionMap(apiKey, searchEngineID string, opts ...Option) tools.FunctionMap {
	return tools.NewFunctionMap(New(Credentials{
		APIKey:         apiKey,
		SearchEngineID: searchEngineID,
	}, opts...))
}

// Credentials returns the credentials the tool is bound to
func (t *Tool) Credentials() Credentials {
	return t.creds
}

func (t *Tool) Name() string {
	return t.schema.Name
}

func (t *Tool) Description() string {
	return t.schema.Description
}

func (t *Tool) Schema() *schema.FunctionSchema {
	return t.schema
}

// Run executes the search, the result is never nil.
// The query is sent as is, the provider rejects the queries it can't serve.
func (t *Tool) Run(ctx context.Context, req *Request) (Result, error) {
	if req == nil {
		return nil, chatmodel.ErrFailedUnmarshalInput
	}
	return Search(ctx, t.factory, t.creds, req.Query)
}

// Call executes the search with the JSON arguments sent by the model,
// and returns JSON array of the items.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	args := llmutils.CleanJSON([]byte(input))
	if err := schema.ValidateArguments(t.schema.Parameters, args); err != nil {
		logger.ContextKV(ctx, xlog.DEBUG,
			"reason", "invalid_arguments",
			"tool", t.Name(),
			"err", err.Error(),
		)
		return "", chatmodel.ErrFailedUnmarshalInput
	}

	var req Request
	if err := json.Unmarshal(args, &req); err != nil {
		return "", chatmodel.ErrFailedUnmarshalInput
	}

	res, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}

	bs, err := json.Marshal(res)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal output")
	}
	return string(bs), nil
}
