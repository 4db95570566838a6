package panel

import "time"

// Message is one persona reply in the transcript. Immutable once appended;
// owned exclusively by the transcript that holds it.
type Message struct {
	Role      Role
	Position  int // 1-indexed append position
	Content   string
	Timestamp time.Time
}

// Transcript is the append-only ordered record of persona replies for one
// generation request. The opening task prompt is carried separately by the
// orchestration loop so that positions map cleanly onto rounds. Entries are
// never removed or reordered.
type Transcript struct {
	messages []Message
}

// Append adds a persona reply and returns the stored message.
func (t *Transcript) Append(role Role, content string) Message {
	m := Message{
		Role:      role,
		Position:  len(t.messages) + 1,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	t.messages = append(t.messages, m)
	return m
}

// Len returns the number of messages appended so far.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Messages returns the messages in append order. Callers must not mutate
// the returned slice.
func (t *Transcript) Messages() []Message {
	return t.messages
}

// LastByRole returns the most recent message authored by role.
func (t *Transcript) LastByRole(role Role) (Message, bool) {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Role == role {
			return t.messages[i], true
		}
	}
	return Message{}, false
}

// LastRound returns the trailing groupSize messages (the most recently
// completed round), or nil when no full round exists yet.
func (t *Transcript) LastRound(groupSize int) []Message {
	if groupSize <= 0 || !RoundComplete(len(t.messages), groupSize) {
		return nil
	}
	return t.messages[len(t.messages)-groupSize:]
}

// RoundOf maps a transcript length (or 1-indexed position) to its 1-indexed
// round number: ((length-1)/groupSize)+1. A length of zero means no round
// has started.
func RoundOf(length, groupSize int) int {
	if length <= 0 || groupSize <= 0 {
		return 0
	}
	return (length-1)/groupSize + 1
}

// RoundComplete reports whether length is a positive multiple of groupSize,
// i.e. the transcript ends exactly on a round boundary.
func RoundComplete(length, groupSize int) bool {
	return length > 0 && groupSize > 0 && length%groupSize == 0
}
