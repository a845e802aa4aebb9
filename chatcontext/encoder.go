// Package chatcontext assembles the conversation window injected into
// outgoing model requests and reconstructs the original text of stored
// messages that carry an embedded context block.
package chatcontext

import (
	"strings"

	"github.com/unichat-app/unichat/types"
)

// Sentinels of the stored-content protocol. They round-trip through
// persisted storage and must stay byte-for-byte stable.
const (
	StartMarker = "=== CTX START ==="
	EndMarker   = "=== CTX END ==="

	// UserPrefix doubles as the render label for user turns and as the
	// split anchor during extraction. AssistantPrefix is render-only.
	UserPrefix      = "用户: "
	AssistantPrefix = "助手: "
)

// Encoded is the result of wrapping a user turn for sending.
type Encoded struct {
	// Outbound is the payload for the model provider: recent history
	// between the markers, then the new input.
	Outbound string

	// Original is the input exactly as typed, for local storage and
	// immediate display.
	Original string
}

// Encode builds the outbound payload for a fresh user input. History must
// be ordered oldest to newest and reflect all edits and deletes already
// applied; input must be the literal typed text, never an already-encoded
// composite. The originals table may be nil.
func Encode(input string, history []types.Message, settings types.ContextSettings, originals *OriginalStore) Encoded {
	enc := Encoded{Outbound: input, Original: input}
	if !settings.Enabled || len(history) == 0 {
		return enc
	}

	n := settings.Level * 2 // one round is a user+assistant pair
	if n <= 0 {
		return enc
	}
	if n > len(history) {
		n = len(history)
	}

	window := history[len(history)-n:]
	lines := make([]string, 0, len(window))
	for _, m := range window {
		// resolve the clean display text, never the raw stored content,
		// so prior wrappers are not compounded
		lines = append(lines, roleLabel(m.Role)+Extract(m.Content, m.ID, originals))
	}

	enc.Outbound = StartMarker + "\n" + strings.Join(lines, "\n") + "\n" + EndMarker + "\n" + UserPrefix + input

	return enc
}

func roleLabel(r types.Role) string {
	if r == types.RoleAssistant {
		return AssistantPrefix
	}

	// unexpected roles render as user lines, matching how stored roles
	// are normalized upstream
	return UserPrefix
}
