package llms

import (
	"github.com/invopop/jsonschema"
)

// Tool choices understood by the OpenAI compatible backends.
const (
	ToolChoiceAuto     = "auto"
	ToolChoiceNone     = "none"
	ToolChoiceRequired = "required"
)

// CallOption configures a single GenerateContent call.
type CallOption func(*CallOptions)

// CallOptions are the per-call settings. A zero value means
// the backend default, and backends ignore the settings they can't express.
type CallOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
	Seed        int
	StopWords   []string

	// Tools are the functions the model may call.
	Tools []Tool
	// ToolChoice is one of ToolChoice* values, or a provider specific object.
	// It is sent only when Tools are set.
	ToolChoice any
}

// Tool is a function exposed to the model.
type Tool struct {
	Type     string              `json:"type"`
	Function *FunctionDefinition `json:"function,omitempty"`
}

// FunctionDefinition describes a callable function,
// Parameters is the JSON schema of its arguments.
type FunctionDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// NewCallOptions applies the options in order.
func NewCallOptions(options ...CallOption) *CallOptions {
	opts := new(CallOptions)
	for _, apply := range options {
		apply(opts)
	}
	return opts
}

// WithModel overrides the backend's default model.
func WithModel(model string) CallOption {
	return func(o *CallOptions) { o.Model = model }
}

// WithMaxTokens limits the number of generated tokens.
func WithMaxTokens(maxTokens int) CallOption {
	return func(o *CallOptions) { o.MaxTokens = maxTokens }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) CallOption {
	return func(o *CallOptions) { o.Temperature = temperature }
}

// WithTopP sets nucleus sampling.
func WithTopP(topP float64) CallOption {
	return func(o *CallOptions) { o.TopP = topP }
}

// WithSeed requests deterministic sampling where supported.
func WithSeed(seed int) CallOption {
	return func(o *CallOptions) { o.Seed = seed }
}

// WithStopWords stops generation on any of the words.
func WithStopWords(stopWords []string) CallOption {
	return func(o *CallOptions) { o.StopWords = stopWords }
}

// WithTools exposes the tools to the model.
func WithTools(tools []Tool) CallOption {
	return func(o *CallOptions) { o.Tools = tools }
}

// WithToolChoice controls whether the model must, may or must not call tools.
func WithToolChoice(choice any) CallOption {
	return func(o *CallOptions) { o.ToolChoice = choice }
}
