// Package websearch implements the `search_web` tool:
// the function declaration sent to the model, and the invocation
// bound to the search provider credentials.
//
// The result of a search is the list of items returned by the provider,
// passed to the model as is. A response without items is an empty result,
// and the errors of the provider are returned to the caller unmodified.
package websearch
