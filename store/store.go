package store

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/searchagent/pkg/llms"
)

// MaxHistory is the number of the last messages kept per chat
const MaxHistory = 50

// ErrInvalidChatID is returned when the chat ID is empty
var ErrInvalidChatID = errors.New("invalid chat ID")

// MessageStore keeps the conversation history of the chats
type MessageStore interface {
	// Add appends the messages to the chat history
	Add(ctx context.Context, chatID string, msgs ...llms.Message) error
	// Messages returns the chat history, oldest first
	Messages(ctx context.Context, chatID string) ([]llms.Message, error)
	// Reset removes the chat history
	Reset(ctx context.Context, chatID string) error
	// ListChats returns the IDs of the chats with history
	ListChats(ctx context.Context) ([]string, error)
}
