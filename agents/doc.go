// Package agents provides the conversation participants.
//
// ConversableAgent is the base participant: it keeps the chat history,
// replies with a model from the backend configs, and executes the tools
// the model asks for.
// SearchAgent is a ConversableAgent bound to the `search_web` tool.
package agents
