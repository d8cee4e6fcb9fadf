package project

import (
	"time"

	"github.com/zhouzirui/creator-surge/backend/internal/model/chat"
)

// CodeFile is a single generated source file.
type CodeFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// CodeBundle groups files produced by one assistant reply.
type CodeBundle struct {
	Files []CodeFile `json:"files"`
}

// Chat is one entry of a project's code-generation dialogue.
type Chat struct {
	ID            string      `json:"id"`
	ProjectID     string      `json:"projectId"`
	Role          chat.Role   `json:"role"`
	Content       string      `json:"content"`
	Timestamp     time.Time   `json:"timestamp"`
	CodeGenerated *CodeBundle `json:"codeGenerated"`
	Degraded      bool        `json:"degraded,omitempty"`
}

// History converts project chats into the generic message shape used for context replay.
func History(chats []Chat) []chat.Message {
	out := make([]chat.Message, 0, len(chats))
	for _, c := range chats {
		out = append(out, chat.Message{
			ID:             c.ID,
			ConversationID: c.ProjectID,
			Role:           c.Role,
			Content:        c.Content,
			Timestamp:      c.Timestamp,
		})
	}
	return out
}
