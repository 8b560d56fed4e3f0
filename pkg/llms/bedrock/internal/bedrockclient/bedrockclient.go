package bedrockclient

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/searchagent/pkg/llms"
)

// InvokeModelAPI is implemented by *bedrockruntime.Client.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client sends completions to the model vendors hosted on Bedrock.
type Client struct {
	api InvokeModelAPI
}

// NewClient returns a Client calling the API.
func NewClient(api InvokeModelAPI) *Client {
	return &Client{api: api}
}

// Message is a flattened message part,
// the vendor request is built from a list of them.
type Message struct {
	Role llms.Role
	// Type is one of "text", "image", "tool_use" or "tool_result".
	Type     string
	Content  string
	MimeType string

	ToolCallID string
	ToolName   string
	// ToolInput is the JSON encoded input of tool_use.
	ToolInput string
}

// CreateCompletion sends the messages to the vendor of the model.
func (c *Client) CreateCompletion(ctx context.Context,
	modelID string,
	messages []Message,
	options *llms.CallOptions,
) (*llms.ContentResponse, error) {
	switch vendor := modelVendor(modelID); vendor {
	case "anthropic":
		return createAnthropicCompletion(ctx, c.api, modelID, messages, options)
	default:
		return nil, errors.Errorf("bedrock: unsupported provider %q", vendor)
	}
}

// modelVendor returns the vendor of a model ID, like "anthropic.claude-3-haiku-20240307-v1:0",
// or of an inference profile ID with a region prefix, like "us.anthropic.claude-3-5-sonnet-20241022-v2:0".
func modelVendor(modelID string) string {
	first, rest, found := strings.Cut(modelID, ".")
	if !found {
		return modelID
	}
	if len(first) == 2 && strings.ToLower(first) == first {
		vendor, _, _ := strings.Cut(rest, ".")
		return vendor
	}
	return first
}
