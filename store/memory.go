package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/effective-security/searchagent/pkg/llms"
)

type inMemory struct {
	mu      sync.RWMutex
	storage map[string][]llms.Message
}

// NewMemoryStore returns MessageStore that keeps the history in memory
func NewMemoryStore() MessageStore {
	return &inMemory{
		storage: make(map[string][]llms.Message),
	}
}

func (m *inMemory) Messages(_ context.Context, chatID string) ([]llms.Message, error) {
	if chatID == "" {
		return nil, ErrInvalidChatID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.storage[chatID]), nil
}

func (m *inMemory) Add(_ context.Context, chatID string, msgs ...llms.Message) error {
	if chatID == "" {
		return ErrInvalidChatID
	}
	if len(msgs) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	list := append(m.storage[chatID], msgs...)
	if len(list) > MaxHistory {
		list = slices.Clone(list[len(list)-MaxHistory:])
	}
	m.storage[chatID] = list
	return nil
}

func (m *inMemory) Reset(_ context.Context, chatID string) error {
	if chatID == "" {
		return ErrInvalidChatID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.storage, chatID)
	return nil
}

func (m *inMemory) ListChats(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]string, 0, len(m.storage))
	for id := range m.storage {
		list = append(list, id)
	}
	sort.Strings(list)
	return list, nil
}
