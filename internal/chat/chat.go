// Package chat maintains the ordered message history for the mentor
// conversation. The log is append-only: messages are never edited or
// removed once in.
package chat

import (
	"strings"
	"time"
)

// Sender is the closed set of message origins. Anything else coming off the
// wire is normalized, never rendered unchecked.
type Sender string

const (
	// SenderAgent is the mentor ("the Archmage").
	SenderAgent Sender = "agent"

	// SenderUser is the learner.
	SenderUser Sender = "user"

	// SenderSystem carries lifecycle notices (lab started, answer scored).
	SenderSystem Sender = "system"
)

// NormalizeSender maps wire tags onto the closed sender set. The legacy
// backend used "wizard" and "bot" for the agent; unknown tags degrade to
// system so they render as notices rather than impersonating anyone.
func NormalizeSender(tag string) Sender {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "agent", "wizard", "bot":
		return SenderAgent
	case "user":
		return SenderUser
	default:
		return SenderSystem
	}
}

// Message is one entry in the conversation.
type Message struct {
	ID     int64
	Sender Sender
	Text   string
	SentAt time.Time
}

// Log is the append-only conversation history.
type Log struct {
	messages []Message
	nextID   int64
	now      func() time.Time
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{nextID: 1, now: time.Now}
}

// Append adds a message and returns it. IDs are monotonic within a session.
func (l *Log) Append(sender Sender, text string) Message {
	msg := Message{
		ID:     l.nextID,
		Sender: sender,
		Text:   text,
		SentAt: l.now(),
	}
	l.nextID++
	l.messages = append(l.messages, msg)
	return msg
}

// Messages returns a copy of the history in append order.
func (l *Log) Messages() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages.
func (l *Log) Len() int { return len(l.messages) }

// Last returns the most recent message, if any.
func (l *Log) Last() (Message, bool) {
	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}
