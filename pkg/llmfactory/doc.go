// Package llmfactory loads backend config lists (OAI_CONFIG_LIST style, from an
// environment variable or a JSON, YAML or TOML file) and creates the LLM model
// for a backend config: OpenAI, Azure, Anthropic, Google or Bedrock.
package llmfactory
