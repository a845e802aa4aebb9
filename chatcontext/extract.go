package chatcontext

import "strings"

// Extract recovers the human-typed text from a stored message content.
//
// A side-table hit for messageID wins outright and bypasses parsing.
// Otherwise the last well-formed marker pair is stripped (edits can nest
// wrappers when no fresh side-table entry exists), then everything after
// the last user prefix is taken. Absence of structure falls through to the
// trimmed input: this is a best-effort decoder, not a strict parser, and
// it never fails.
func Extract(stored string, messageID string, originals *OriginalStore) string {
	if messageID != "" && originals != nil {
		if v := originals.Get(messageID); v.IsSome() {
			return v.Unwrap()
		}
	}

	remainder := stored
	if start := strings.LastIndex(stored, StartMarker); start >= 0 {
		// only a pair whose end follows its start is trusted; anything
		// else is treated as ordinary text
		if end := strings.LastIndex(stored, EndMarker); end > start {
			remainder = stored[end+len(EndMarker):]
		}
	}

	if at := strings.LastIndex(remainder, UserPrefix); at >= 0 {
		return strings.TrimSpace(remainder[at+len(UserPrefix):])
	}

	return strings.TrimSpace(remainder)
}
