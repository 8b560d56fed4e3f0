package bedrockclient

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/searchagent/pkg/llms"
	"github.com/effective-security/x/values"
)

// Ref: https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-anthropic-claude-messages.html

// AnthropicVersion is the Messages API version Bedrock expects in the body.
const AnthropicVersion = "bedrock-2023-05-31"

const (
	anthropicStopEndTurn      = "end_turn"
	anthropicStopSequence     = "stop_sequence"
	anthropicStopToolUse      = "tool_use"
	anthropicDefaultMaxTokens = 2048
)

const (
	anthropicRoleSystem    = "system"
	anthropicRoleUser      = "user"
	anthropicRoleAssistant = "assistant"
)

const (
	anthropicTypeText       = "text"
	anthropicTypeImage      = "image"
	anthropicTypeToolUse    = "tool_use"
	anthropicTypeToolResult = "tool_result"
)

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// anthropicContent is a content block of the request, one of
// text, image, tool_use or tool_result.
type anthropicContent struct {
	Type   string                `json:"type"`
	Source *anthropicImageSource `json:"source,omitempty"`
	Text   string                `json:"text,omitempty"`

	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Input any    `json:"input,omitempty"`

	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicTool struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	InputSchema anthropicInputSchema `json:"input_schema"`
}

type anthropicInputSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required,omitempty"`
}

type anthropicRequest struct {
	AnthropicVersion string              `json:"anthropic_version"`
	MaxTokens        int                 `json:"max_tokens"`
	System           string              `json:"system,omitempty"`
	Messages         []*anthropicMessage `json:"messages"`
	Temperature      float64             `json:"temperature,omitempty"`
	TopP             float64             `json:"top_p,omitempty"`
	StopSequences    []string            `json:"stop_sequences,omitempty"`
	Tools            []anthropicTool     `json:"tools,omitempty"`
}

type anthropicOutputContent struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Input any    `json:"input,omitempty"`
}

type anthropicResponse struct {
	Type       string                   `json:"type"`
	Role       string                   `json:"role"`
	Content    []anthropicOutputContent `json:"content"`
	StopReason string                   `json:"stop_reason"`
	Usage      struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

func createAnthropicCompletion(ctx context.Context,
	client InvokeModelAPI,
	modelID string,
	messages []Message,
	options *llms.CallOptions,
) (*llms.ContentResponse, error) {
	inputContents, systemPrompt, err := processInputMessagesAnthropic(messages)
	if err != nil {
		return nil, err
	}

	input := anthropicRequest{
		AnthropicVersion: AnthropicVersion,
		MaxTokens:        values.NumbersCoalesce(options.MaxTokens, anthropicDefaultMaxTokens),
		System:           systemPrompt,
		Messages:         inputContents,
		Temperature:      options.Temperature,
		TopP:             options.TopP,
		StopSequences:    options.StopWords,
		Tools:            toAnthropicTools(options.Tools),
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	resp, err := client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Accept:      aws.String("*/*"),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "bedrock: failed to invoke model")
	}

	var output anthropicResponse
	if err = json.Unmarshal(resp.Body, &output); err != nil {
		return nil, errors.Wrap(err, "failed to decode response")
	}

	if len(output.Content) == 0 {
		return nil, errors.New("no results")
	}
	switch output.StopReason {
	case anthropicStopEndTurn, anthropicStopSequence, anthropicStopToolUse:
	default:
		return nil, errors.Errorf("completed due to %s. Maybe try increasing max tokens", output.StopReason)
	}

	var textContent string
	var toolCalls []llms.ToolCall
	for _, c := range output.Content {
		switch c.Type {
		case anthropicTypeText:
			textContent += c.Text
		case anthropicTypeToolUse:
			argumentsJSON, err := json.Marshal(c.Input)
			if err != nil {
				return nil, errors.Wrap(err, "failed to marshal tool arguments")
			}
			toolCalls = append(toolCalls, llms.ToolCall{
				ID:   c.ID,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      c.Name,
					Arguments: string(argumentsJSON),
				},
			})
		}
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:    textContent,
				StopReason: output.StopReason,
				ToolCalls:  toolCalls,
				GenerationInfo: map[string]any{
					"InputTokens":  output.Usage.InputTokens,
					"OutputTokens": output.Usage.OutputTokens,
					"TotalTokens":  output.Usage.InputTokens + output.Usage.OutputTokens,
				},
			},
		},
	}, nil
}

func toAnthropicTools(tools []llms.Tool) []anthropicTool {
	var res []anthropicTool
	for _, tool := range tools {
		if tool.Function == nil {
			continue
		}
		t := anthropicTool{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			InputSchema: anthropicInputSchema{Type: "object"},
		}
		if params := tool.Function.Parameters; params != nil {
			if params.Properties != nil {
				t.InputSchema.Properties = make(map[string]any)
				for pair := params.Properties.Oldest(); pair != nil; pair = pair.Next() {
					t.InputSchema.Properties[pair.Key] = pair.Value
				}
			}
			t.InputSchema.Required = params.Required
		}
		res = append(res, t)
	}
	return res
}

// processInputMessagesAnthropic groups consecutive messages with the same
// Anthropic role into one turn, and returns the turns and the system prompt.
func processInputMessagesAnthropic(messages []Message) ([]*anthropicMessage, string, error) {
	var inputContents []*anthropicMessage
	var systemPrompt string
	var current *anthropicMessage

	for _, message := range messages {
		role, err := getAnthropicRole(message.Role)
		if err != nil {
			return nil, "", err
		}
		c := getAnthropicInputContent(message)

		if role == anthropicRoleSystem {
			if c.Type != anthropicTypeText {
				return nil, "", errors.New("system prompt must be text")
			}
			if systemPrompt != "" {
				systemPrompt += "\n"
			}
			systemPrompt += c.Text
			continue
		}

		if current == nil || current.Role != role {
			current = &anthropicMessage{Role: role}
			inputContents = append(inputContents, current)
		}
		current.Content = append(current.Content, c)
	}
	return inputContents, systemPrompt, nil
}

func getAnthropicRole(role llms.Role) (string, error) {
	switch role {
	case llms.RoleSystem:
		return anthropicRoleSystem, nil
	case llms.RoleAI:
		return anthropicRoleAssistant, nil
	case llms.RoleHuman, llms.RoleTool:
		return anthropicRoleUser, nil
	default:
		return "", errors.WithMessagef(llms.ErrUnexpectedRole, "bedrock: %q", role)
	}
}

func getAnthropicInputContent(message Message) anthropicContent {
	switch message.Type {
	case anthropicTypeImage:
		return anthropicContent{
			Type: message.Type,
			Source: &anthropicImageSource{
				Type:      "base64",
				MediaType: message.MimeType,
				Data:      base64.StdEncoding.EncodeToString([]byte(message.Content)),
			},
		}
	case anthropicTypeToolUse:
		var input any = map[string]any{}
		if message.ToolInput != "" {
			_ = json.Unmarshal([]byte(message.ToolInput), &input)
		}
		return anthropicContent{
			Type:  message.Type,
			ID:    message.ToolCallID,
			Name:  message.ToolName,
			Input: input,
		}
	case anthropicTypeToolResult:
		return anthropicContent{
			Type:      message.Type,
			ToolUseID: message.ToolCallID,
			Content:   message.Content,
		}
	default:
		return anthropicContent{
			Type: anthropicTypeText,
			Text: message.Content,
		}
	}
}
