// Package types holds the value objects shared across the chat core.
package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation. For user turns Content may be a
// composite carrying an embedded context block; assistant turns hold the
// raw provider reply. IDs are opaque and unique within a conversation;
// they may be client-generated until the storage collaborator confirms a
// persisted id.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Model     string    `json:"model,omitempty"` // assistant turns only
}

// ContextSettings controls how much history is replayed into each request.
type ContextSettings struct {
	Enabled bool `json:"enabled"`

	// Level is the number of conversation rounds (a user+assistant pair)
	// to replay. Only meaningful when Enabled.
	Level int `json:"level"`
}

// Value serializes the settings to JSON so a storage collaborator can
// keep them in a single text column.
func (s ContextSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan restores settings from the column written by Value. A NULL column
// resets to the zero value, context disabled.
func (s *ContextSettings) Scan(value interface{}) error {
	if value == nil {
		*s = ContextSettings{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("type assertion to []byte failed")
	}

	return json.Unmarshal(b, s)
}
