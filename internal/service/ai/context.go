package ai

import (
	"strings"

	"github.com/zhouzirui/creator-surge/backend/internal/model/chat"
)

// ContextStyle controls how much history is replayed and how the new message is introduced.
type ContextStyle struct {
	Limit  int
	Marker string
}

var (
	// ChatContext is used for general conversations.
	ChatContext = ContextStyle{Limit: 10, Marker: "Current message:"}
	// CodeContext is used for project code generation.
	CodeContext = ContextStyle{Limit: 5, Marker: "Current request:"}
)

// WithLimit returns a copy of the style with a different history bound.
func (s ContextStyle) WithLimit(limit int) ContextStyle {
	if limit > 0 {
		s.Limit = limit
	}
	return s
}

// AssembleContext renders bounded history plus the new message into one prompt.
//
// Only the last Limit entries are kept; older turns are dropped without
// summarisation and no token budget is applied. With no history the message
// is returned unchanged.
func AssembleContext(style ContextStyle, message string, history []chat.Message) string {
	if len(history) == 0 {
		return message
	}

	start := 0
	if style.Limit > 0 && len(history) > style.Limit {
		start = len(history) - style.Limit
	}

	parts := make([]string, 0, len(history)-start+2)
	parts = append(parts, "Previous conversation:\n")
	for _, msg := range history[start:] {
		role := "Assistant"
		if msg.Role == chat.RoleUser {
			role = "User"
		}
		parts = append(parts, role+": "+msg.Content)
	}
	parts = append(parts, "\n"+style.Marker+"\nUser: "+message)

	return strings.Join(parts, "\n")
}
