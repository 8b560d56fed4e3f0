package chatmodel

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/effective-security/x/values"
	"github.com/effective-security/xdb/pkg/flake"
)

// ChatContext identifies a conversation and keeps its counters,
// it's shared by all the participants of the chat.
type ChatContext interface {
	GetChatID() string
	// StartedAt returns the time the chat was started.
	StartedAt() time.Time
	// ToolCalls returns the number of tools called in the chat.
	ToolCalls() int
	// AddToolCalls increments the number of tool calls and returns the total.
	AddToolCalls(n int) int
}

type chatContext struct {
	chatID    string
	startedAt time.Time
	toolCalls atomic.Int64
}

// NewChatContext returns ChatContext for the chat,
// a new ID is generated when chatID is empty.
func NewChatContext(chatID string) ChatContext {
	return &chatContext{
		chatID:    values.StringsCoalesce(chatID, NewChatID()),
		startedAt: time.Now(),
	}
}

func (c *chatContext) GetChatID() string      { return c.chatID }
func (c *chatContext) StartedAt() time.Time   { return c.startedAt }
func (c *chatContext) ToolCalls() int         { return int(c.toolCalls.Load()) }
func (c *chatContext) AddToolCalls(n int) int { return int(c.toolCalls.Add(int64(n))) }

type ctxKey struct{}

// WithChatContext returns a copy of ctx carrying the chat context.
func WithChatContext(ctx context.Context, chatCtx ChatContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, chatCtx)
}

// GetChatContext returns the chat context, or nil.
func GetChatContext(ctx context.Context) ChatContext {
	cc, _ := ctx.Value(ctxKey{}).(ChatContext)
	return cc
}

// GetChatID returns the chat ID, or empty string if ctx has no chat context.
func GetChatID(ctx context.Context) string {
	if cc := GetChatContext(ctx); cc != nil {
		return cc.GetChatID()
	}
	return ""
}

// EnsureChatContext starts a new chat, unless ctx already has one.
func EnsureChatContext(ctx context.Context) (context.Context, ChatContext) {
	if cc := GetChatContext(ctx); cc != nil {
		return ctx, cc
	}
	cc := NewChatContext("")
	return WithChatContext(ctx, cc), cc
}

// NewChatID returns a unique chat ID from the flake generator.
func NewChatID() string {
	return strconv.FormatUint(flake.DefaultIDGenerator.NextID(), 10)
}
