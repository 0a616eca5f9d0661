package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageKind string

const (
	KindUser   MessageKind = "user"
	KindSystem MessageKind = "system"
	KindAI     MessageKind = "ai"
)

// Synthetic authors for server-made messages.
const (
	SystemAuthor = "System"
	AIAuthor     = "AI Assistant"
	RadioAuthor  = "Radio"
)

// Message is immutable once built.
type Message struct {
	ID        string      `json:"id"`
	Author    string      `json:"author"`
	Text      string      `json:"text"`
	Timestamp time.Time   `json:"timestamp"`
	Kind      MessageKind `json:"kind"`
}

// NewMessage stamps the current time.
func NewMessage(author, text string, kind MessageKind) Message {
	return NewMessageAt(author, text, kind, time.Now())
}

func NewMessageAt(author, text string, kind MessageKind, at time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Author:    author,
		Text:      text,
		Timestamp: at,
		Kind:      kind,
	}
}

// SystemMessage is a shortcut for the System author.
func SystemMessage(text string) Message {
	return NewMessage(SystemAuthor, text, KindSystem)
}
