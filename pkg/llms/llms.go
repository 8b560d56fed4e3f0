package llms

import (
	"context"
)

//go:generate mockgen -source=llms.go -destination=../../mocks/mockllms/llms_mock.gen.go  -package mockllms

// ProviderType identifies the API a Model talks to.
type ProviderType string

// Supported providers
const (
	ProviderOpenAI    ProviderType = "OPENAI"
	ProviderAzure     ProviderType = "AZURE"
	ProviderAnthropic ProviderType = "ANTHROPIC"
	ProviderGoogleAI  ProviderType = "GOOGLEAI"
	// ProviderBedrock is AWS Bedrock, only Anthropic models are supported.
	ProviderBedrock ProviderType = "BEDROCK"
)

// Model is a chat model backend used by agents.
type Model interface {
	// GetName returns the default model name of the backend.
	GetName() string
	// GetProviderType returns the provider of the backend.
	GetProviderType() ProviderType
	// GenerateContent sends the conversation to the model and returns its choices.
	// A choice may contain text, tool calls, or both.
	GenerateContent(ctx context.Context, messages []Message, options ...CallOption) (*ContentResponse, error)
}
