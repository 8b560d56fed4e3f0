package googleai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/effective-security/searchagent/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestNew(t *testing.T) {
	t.Setenv(APIKeyEnvVarName, "")

	_, err := New(context.Background())
	assert.EqualError(t, err, "googleai: missing API key, set it in the GEMINI_API_KEY environment variable")

	t.Setenv(APIKeyEnvVarName, "env-key")
	g, err := New(context.Background(), WithDefaultModel("gemini-test"))
	require.NoError(t, err)
	assert.Equal(t, "gemini-test", g.GetName())
	assert.Equal(t, llms.ProviderGoogleAI, g.GetProviderType())
	assert.Equal(t, "env-key", g.opts.APIKey)
	assert.False(t, g.opts.UseVertex())
}

func TestGenerateContent(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent"), r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {
					"role": "model",
					"parts": [
						{"text": "Searching."},
						{"functionCall": {"name": "search_web", "args": {"query": "golang"}}}
					]
				},
				"finishReason": "STOP"
			}],
			"usageMetadata": {"promptTokenCount": 9, "candidatesTokenCount": 4, "totalTokenCount": 13}
		}`))
	}))
	defer srv.Close()

	g, err := New(context.Background(),
		WithAPIKey("test-key"),
		WithBaseURL(srv.URL),
		WithDefaultModel("gemini-test"),
	)
	require.NoError(t, err)

	resp, err := g.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, "be brief"),
		llms.MessageFromTextParts(llms.RoleHuman, "find golang"),
	}, llms.WithTools([]llms.Tool{{
		Type:     "function",
		Function: &llms.FunctionDefinition{Name: "search_web", Description: "search the web"},
	}}))
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)

	c := resp.Choices[0]
	assert.Equal(t, "Searching.", c.Content)
	assert.Equal(t, "STOP", c.StopReason)
	require.Len(t, c.ToolCalls, 1)
	assert.Equal(t, "search_web", c.ToolCalls[0].FunctionCall.Name)
	assert.JSONEq(t, `{"query":"golang"}`, c.ToolCalls[0].FunctionCall.Arguments)
	assert.Equal(t, int64(9), c.GenerationInfo["InputTokens"])
	assert.Equal(t, int64(13), c.GenerationInfo["TotalTokens"])

	assert.NotNil(t, got["systemInstruction"])
	assert.NotNil(t, got["tools"])
	contents, ok := got["contents"].([]any)
	require.True(t, ok)
	assert.Len(t, contents, 1)
}

func TestConvertMessages(t *testing.T) {
	history, system, err := convertMessages([]llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, "one"),
		llms.MessageFromTextParts(llms.RoleSystem, "two"),
		llms.MessageFromTextParts(llms.RoleHuman, "find golang"),
		llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{
			ID:           "c1",
			FunctionCall: &llms.FunctionCall{Name: "search_web", Arguments: `{"query":"golang"}`},
		}),
		llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{ToolCallID: "c1", Name: "search_web", Content: "[]"}),
	})
	require.NoError(t, err)
	require.NotNil(t, system)
	assert.Len(t, system.Parts, 2)
	require.Len(t, history, 3)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, RoleModel, history[1].Role)
	assert.Equal(t, "golang", history[1].Parts[0].FunctionCall.Args["query"])
	assert.Equal(t, RoleUser, history[2].Role)
	assert.Equal(t, "search_web", history[2].Parts[0].FunctionResponse.Name)

	_, _, err = convertMessages([]llms.Message{llms.MessageFromTextParts("generic", "x")})
	assert.ErrorIs(t, err, llms.ErrUnexpectedRole)

	_, _, err = convertMessages([]llms.Message{llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{
		ID:           "c1",
		FunctionCall: &llms.FunctionCall{Name: "search_web", Arguments: `{bad`},
	})})
	assert.Error(t, err)
}

func TestConvertCandidates_UnknownPart(t *testing.T) {
	_, err := convertCandidates([]*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{{}}},
	}}, nil)
	assert.ErrorIs(t, err, ErrUnknownPartInResponse)
}
