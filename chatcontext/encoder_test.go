package chatcontext

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unichat-app/unichat/types"
)

// makeRounds builds n full conversation rounds, oldest first.
func makeRounds(n int) []types.Message {
	history := make([]types.Message, 0, n*2)
	for i := 0; i < n; i++ {
		history = append(history,
			types.Message{ID: fmt.Sprintf("u%d", i), Role: types.RoleUser, Content: fmt.Sprintf("question %d", i)},
			types.Message{ID: fmt.Sprintf("a%d", i), Role: types.RoleAssistant, Content: fmt.Sprintf("answer %d", i)},
		)
	}

	return history
}

func TestEncodeDisabledIsNoOp(t *testing.T) {
	enc := Encode("hello", makeRounds(2), types.ContextSettings{Enabled: false, Level: 3}, nil)

	assert.Equal(t, "hello", enc.Outbound)
	assert.Equal(t, "hello", enc.Original)
}

func TestEncodeEmptyHistoryIsNoOp(t *testing.T) {
	enc := Encode("hello", nil, types.ContextSettings{Enabled: true, Level: 3}, nil)

	assert.Equal(t, "hello", enc.Outbound)
	assert.Equal(t, "hello", enc.Original)
}

func TestEncodeNonPositiveLevelIsNoOp(t *testing.T) {
	for _, level := range []int{0, -1} {
		enc := Encode("hello", makeRounds(2), types.ContextSettings{Enabled: true, Level: level}, nil)
		assert.Equal(t, "hello", enc.Outbound, "level %d", level)
	}
}

func TestEncodeScenario(t *testing.T) {
	history := []types.Message{
		{ID: "1", Role: types.RoleUser, Content: "hi"},
		{ID: "2", Role: types.RoleAssistant, Content: "hello!"},
	}

	enc := Encode("how are you?", history, types.ContextSettings{Enabled: true, Level: 1}, nil)

	assert.Equal(t, "=== CTX START ===\n用户: hi\n助手: hello!\n=== CTX END ===\n用户: how are you?", enc.Outbound)
	assert.Equal(t, "how are you?", enc.Original)
}

func TestEncodeDepthBound(t *testing.T) {
	enc := Encode("next", makeRounds(10), types.ContextSettings{Enabled: true, Level: 3}, nil)

	block := contextBlock(t, enc.Outbound)
	lines := strings.Split(block, "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "用户: question 7", lines[0])
	assert.Equal(t, "助手: answer 9", lines[5])
}

func TestEncodeShortHistoryNeverPads(t *testing.T) {
	enc := Encode("next", makeRounds(1), types.ContextSettings{Enabled: true, Level: 5}, nil)

	lines := strings.Split(contextBlock(t, enc.Outbound), "\n")
	assert.Len(t, lines, 2)
}

func TestEncodeOddHistoryRun(t *testing.T) {
	// a lone trailing user turn must not crash or skew the slice
	history := append(makeRounds(1), types.Message{ID: "u9", Role: types.RoleUser, Content: "dangling"})

	enc := Encode("next", history, types.ContextSettings{Enabled: true, Level: 2}, nil)

	lines := strings.Split(contextBlock(t, enc.Outbound), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "用户: dangling", lines[2])
}

func TestEncodeResolvesHistoryThroughSideTable(t *testing.T) {
	originals := NewOriginalStore(10)
	originals.Set("u1", "what I really typed")

	history := []types.Message{
		{ID: "u1", Role: types.RoleUser, Content: StartMarker + "\nnoise\n" + EndMarker + "\n" + UserPrefix + "stale"},
		{ID: "a1", Role: types.RoleAssistant, Content: "sure"},
	}

	enc := Encode("next", history, types.ContextSettings{Enabled: true, Level: 1}, originals)

	lines := strings.Split(contextBlock(t, enc.Outbound), "\n")
	assert.Equal(t, "用户: what I really typed", lines[0])
}

func TestEncodeCleansCompositeHistoryWithoutSideTable(t *testing.T) {
	composite := Encode("first question", nil, types.ContextSettings{}, nil).Outbound
	composite = StartMarker + "\nold line\n" + EndMarker + "\n" + UserPrefix + composite

	history := []types.Message{
		{ID: "u1", Role: types.RoleUser, Content: composite},
		{ID: "a1", Role: types.RoleAssistant, Content: "reply"},
	}

	enc := Encode("next", history, types.ContextSettings{Enabled: true, Level: 1}, nil)

	lines := strings.Split(contextBlock(t, enc.Outbound), "\n")
	assert.Equal(t, "用户: first question", lines[0])
}

// contextBlock returns the text between the markers of an encoded payload.
func contextBlock(t *testing.T, outbound string) string {
	t.Helper()

	start := strings.Index(outbound, StartMarker+"\n")
	end := strings.Index(outbound, "\n"+EndMarker)
	require.True(t, start >= 0 && end > start, "no context block in %q", outbound)

	return outbound[start+len(StartMarker)+1 : end]
}
