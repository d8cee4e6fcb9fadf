package chat

import (
	"time"
	"unicode/utf8"
)

// DefaultPreview is shown for conversations that have not exchanged a message yet.
const DefaultPreview = "Start a new conversation..."

const previewLimit = 50

// Conversation is a named, ordered thread of messages.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Preview      string    `json:"preview"`
	Timestamp    time.Time `json:"timestamp"`
	MessageCount int       `json:"messageCount"`
}

// PreviewOf derives the conversation preview from the latest user message.
func PreviewOf(message string) string {
	if utf8.RuneCountInString(message) <= previewLimit {
		return message
	}
	runes := []rune(message)
	return string(runes[:previewLimit]) + "..."
}
