package agents

import (
	"context"

	"github.com/effective-security/searchagent/pkg/llms"
)

// HumanInputMode defines when the agent asks a human for the reply
type HumanInputMode string

const (
	// HumanInputAlways asks for human input on every received message
	HumanInputAlways HumanInputMode = "ALWAYS"
	// HumanInputTerminate asks for human input only when the conversation
	// is about to stop
	HumanInputTerminate HumanInputMode = "TERMINATE"
	// HumanInputNever never asks for human input
	HumanInputNever HumanInputMode = "NEVER"
)

// Participant is a member of a conversation
type Participant interface {
	// Name returns the name of the participant
	Name() string
	// SystemMessage returns the system message sent to the model
	SystemMessage() string
	// Receive handles a message sent by the sender,
	// and replies to the sender if a reply is required.
	Receive(ctx context.Context, msg llms.Message, sender Participant) error
	// GenerateReply returns the reply for the messages
	GenerateReply(ctx context.Context, messages []llms.Message, sender Participant) (string, error)
	// IsTerminationMessage returns true if the message ends the conversation
	IsTerminationMessage(msg llms.Message) bool
}

// HumanInputFunc returns the reply typed by a human,
// an empty reply lets the agent reply automatically
// and `exit` ends the conversation.
type HumanInputFunc func(ctx context.Context, prompt string) (string, error)
