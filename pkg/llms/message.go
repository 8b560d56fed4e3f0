package llms

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrUnexpectedRole is returned by backends for a role they can't map.
var ErrUnexpectedRole = errors.New("unexpected role")

// Role of a message author.
type Role string

// Message roles
const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
	// RoleTool carries the result of a tool call back to the model.
	RoleTool Role = "tool"
)

// Message is one turn of a conversation.
// An AI message may hold both text and tool call parts.
type Message struct {
	Role  Role          `json:"role"`
	Parts []ContentPart `json:"parts"`
}

// ContentPart is implemented by TextContent, BinaryContent,
// ToolCall and ToolCallResponse.
type ContentPart interface {
	isPart()
}

// TextContent is a text part.
type TextContent struct {
	Text string `json:"text"`
}

// BinaryContent is an inline document or image.
type BinaryContent struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// FunctionCall holds the function name and its JSON encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is a request from the model to run a tool.
type ToolCall struct {
	ID string `json:"id"`
	// Type is always "function" for the supported backends.
	Type         string        `json:"type"`
	FunctionCall *FunctionCall `json:"function,omitempty"`
}

// ToolCallResponse is the output of a tool, matched to the call by ToolCallID.
type ToolCallResponse struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
}

func (TextContent) isPart()      {}
func (BinaryContent) isPart()    {}
func (ToolCall) isPart()         {}
func (ToolCallResponse) isPart() {}

func (tc TextContent) String() string {
	return tc.Text
}

func (bc BinaryContent) String() string {
	return fmt.Sprintf("data:%s;base64,%s", bc.MIMEType, base64.StdEncoding.EncodeToString(bc.Data))
}

func (tc ToolCall) String() string {
	if tc.FunctionCall == nil {
		return "ToolCall: " + tc.ID
	}
	return fmt.Sprintf("ToolCall: %s (%s), input: %s", tc.ID, tc.FunctionCall.Name, tc.FunctionCall.Arguments)
}

func (tc ToolCallResponse) String() string {
	return fmt.Sprintf("ToolCallResponse: %s (%s), response size: %d", tc.ToolCallID, tc.Name, len(tc.Content))
}

// TextPart returns a text part.
func TextPart(s string) TextContent {
	return TextContent{Text: s}
}

// BinaryPart returns a binary part with the MIME type, like "image/png".
func BinaryPart(mime string, data []byte) BinaryContent {
	return BinaryContent{MIMEType: mime, Data: data}
}

// ContentResponse holds the choices of a GenerateContent call.
// Backends like Anthropic return a choice per content block.
type ContentResponse struct {
	Choices []*ContentChoice
}

// ContentChoice is a single generated choice.
type ContentChoice struct {
	Content    string `json:"content"`
	StopReason string `json:"stop_reason"`
	// GenerationInfo has backend specific details,
	// the token usage is reported as InputTokens, OutputTokens and TotalTokens.
	GenerationInfo map[string]any `json:"generation_info"`
	ToolCalls      []ToolCall     `json:"tool_calls"`
}

// MessageFromParts returns a message with the parts.
func MessageFromParts(role Role, parts ...ContentPart) Message {
	return Message{Role: role, Parts: parts}
}

// MessageFromTextParts returns a message with a text part for each string.
func MessageFromTextParts(role Role, texts ...string) Message {
	parts := make([]ContentPart, len(texts))
	for i, text := range texts {
		parts[i] = TextPart(text)
	}
	return Message{Role: role, Parts: parts}
}

// MessageFromToolCalls returns a message with the tool calls.
// Each call gets its own FunctionCall copy, never nil.
func MessageFromToolCalls(role Role, calls ...ToolCall) Message {
	parts := make([]ContentPart, len(calls))
	for i, call := range calls {
		fc := new(FunctionCall)
		if call.FunctionCall != nil {
			*fc = *call.FunctionCall
		}
		parts[i] = ToolCall{ID: call.ID, Type: call.Type, FunctionCall: fc}
	}
	return Message{Role: role, Parts: parts}
}

// MessageFromToolResponse returns a message with the tool response.
func MessageFromToolResponse(role Role, resp ToolCallResponse) Message {
	return MessageFromParts(role, resp)
}

// GetContent returns the printable content of the message,
// each part is terminated with a new line.
func (m Message) GetContent() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		var s string
		switch part := p.(type) {
		case TextContent:
			s = part.Text
		case BinaryContent:
			s = "Binary: " + part.MIMEType
		case ToolCall:
			s = part.String()
		case ToolCallResponse:
			s = part.Content
		default:
			continue
		}
		sb.WriteString(s)
		if !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// ToolCalls returns the tool call parts of the message.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, p := range m.Parts {
		if tc, ok := p.(ToolCall); ok {
			calls = append(calls, tc)
		}
	}
	return calls
}
