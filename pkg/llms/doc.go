// Package llms provides the provider-agnostic contract between the search agent
// and the language model backends that drive its replies.
//
// The subpackages implement the Model interface for the supported backends:
// OpenAI (and Azure OpenAI), Anthropic, Google Gemini and AWS Bedrock.
//
// The `llms.go` file contains the Model interface and provider types.
//
// The `message.go` file contains the message and content part types,
// and `marshaling.go` their JSON form used by the conversation stores.
//
// The `options.go` file provides the per-call options, including the tool
// declarations the model may invoke and the tool choice.
package llms
