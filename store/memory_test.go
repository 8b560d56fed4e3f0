package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/effective-security/searchagent/pkg/llms"
	"github.com/effective-security/searchagent/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MemoryStore(t *testing.T) {
	testMessageStore(t, store.NewMemoryStore())
}

func testMessageStore(t *testing.T, st store.MessageStore) {
	ctx := context.Background()

	msg1 := llms.MessageFromTextParts(llms.RoleHuman, "Hello")
	msg2 := llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{
		ID:   "call_1",
		Type: "function",
		FunctionCall: &llms.FunctionCall{
			Name:      "search_web",
			Arguments: `{"query":"golang"}`,
		},
	})
	msg3 := llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{
		ToolCallID: "call_1",
		Name:       "search_web",
		Content:    `[]`,
	})
	msg4 := llms.MessageFromTextParts(llms.RoleAI, "Hi there!")

	assert.ErrorIs(t, st.Add(ctx, "", msg1), store.ErrInvalidChatID)
	assert.ErrorIs(t, st.Reset(ctx, ""), store.ErrInvalidChatID)
	_, err := st.Messages(ctx, "")
	assert.ErrorIs(t, err, store.ErrInvalidChatID)

	list, err := st.Messages(ctx, "chat1")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, st.Add(ctx, "chat1"))
	require.NoError(t, st.Add(ctx, "chat1", msg1))
	require.NoError(t, st.Add(ctx, "chat1", msg2, msg3, msg4))
	require.NoError(t, st.Add(ctx, "chat2", msg1))

	list, err = st.Messages(ctx, "chat1")
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, msg1, list[0])
	assert.Equal(t, msg2, list[1])
	assert.Equal(t, msg3, list[2])
	assert.Equal(t, "Hi there!\n", list[3].GetContent())

	chats, err := st.ListChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"chat1", "chat2"}, chats)

	require.NoError(t, st.Reset(ctx, "chat1"))
	list, err = st.Messages(ctx, "chat1")
	require.NoError(t, err)
	assert.Empty(t, list)

	chats, err = st.ListChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"chat2"}, chats)

	// the history is trimmed to the last messages
	for i := 0; i < store.MaxHistory+5; i++ {
		require.NoError(t, st.Add(ctx, "chat3", llms.MessageFromTextParts(llms.RoleHuman, fmt.Sprintf("msg %d", i))))
	}
	list, err = st.Messages(ctx, "chat3")
	require.NoError(t, err)
	require.Len(t, list, store.MaxHistory)
	assert.Equal(t, "msg 5\n", list[0].GetContent())
	assert.Equal(t, fmt.Sprintf("msg %d\n", store.MaxHistory+4), list[store.MaxHistory-1].GetContent())
}
