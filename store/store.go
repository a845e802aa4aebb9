// Package store provides the message-history collaborator consumed by the
// session layer.
package store

import (
	"errors"
	"sync"

	"github.com/unichat-app/unichat/types"
)

var (
	ErrNoConversation = errors.New("store: conversation not found")
	ErrNoMessage      = errors.New("store: message not found")
)

// MessageStore is the history collaborator. Histories are ordered oldest
// to newest.
type MessageStore interface {
	GetHistory(conversationID string) ([]types.Message, error)
	AppendMessage(conversationID string, msg types.Message) error
	UpdateMessageContent(conversationID, messageID, newContent string) error
	DeleteMessage(conversationID, messageID string) error
}

// Memory is an in-memory MessageStore keyed by conversation id.
type Memory struct {
	mu       sync.RWMutex
	messages map[string][]types.Message
}

func New() *Memory {
	return &Memory{messages: make(map[string][]types.Message)}
}

// GetHistory returns a copy of the conversation history. An unknown
// conversation yields an empty history, not an error.
func (m *Memory) GetHistory(conversationID string) ([]types.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.messages[conversationID]
	out := make([]types.Message, len(msgs))
	copy(out, msgs)

	return out, nil
}

// AppendMessage adds a message to the conversation, creating the
// conversation on first use.
func (m *Memory) AppendMessage(conversationID string, msg types.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages[conversationID] = append(m.messages[conversationID], msg)

	return nil
}

func (m *Memory) UpdateMessageContent(conversationID, messageID, newContent string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs, ok := m.messages[conversationID]
	if !ok {
		return ErrNoConversation
	}
	for i := range msgs {
		if msgs[i].ID == messageID {
			msgs[i].Content = newContent
			return nil
		}
	}

	return ErrNoMessage
}

func (m *Memory) DeleteMessage(conversationID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs, ok := m.messages[conversationID]
	if !ok {
		return ErrNoConversation
	}
	for i := range msgs {
		if msgs[i].ID == messageID {
			m.messages[conversationID] = append(msgs[:i], msgs[i+1:]...)
			return nil
		}
	}

	return ErrNoMessage
}
