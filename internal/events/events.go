package events

import "time"

// Subjects are relative; the publisher prepends its configured prefix.
const (
	SubjectTurnCompleted        = "chat.turn.completed"
	SubjectConversationDeleted  = "chat.conversation.deleted"
	SubjectProjectTurnCompleted = "devforge.chat.completed"
	SubjectDeploymentCompleted  = "devforge.deployment.completed"
)

// Publisher emits domain events. Publishing is best effort: callers log
// failures and carry on.
type Publisher interface {
	Publish(subject string, data any) error
	Close()
}

// TurnCompleted is emitted after a chat turn is stored.
type TurnCompleted struct {
	ConversationID string    `json:"conversation_id"`
	UserMessageID  string    `json:"user_message_id"`
	AIMessageID    string    `json:"ai_message_id"`
	AgentType      string    `json:"agent_type"`
	Degraded       bool      `json:"degraded"`
	At             time.Time `json:"at"`
}

// ConversationDeleted is emitted after a conversation and its messages are removed.
type ConversationDeleted struct {
	ConversationID string    `json:"conversation_id"`
	At             time.Time `json:"at"`
}

// ProjectTurnCompleted is emitted after a code-generation exchange is stored.
type ProjectTurnCompleted struct {
	ProjectID string    `json:"project_id"`
	ChatID    string    `json:"chat_id"`
	Files     int       `json:"files"`
	Degraded  bool      `json:"degraded"`
	At        time.Time `json:"at"`
}

// DeploymentCompleted is emitted when a deploy reaches a terminal state.
type DeploymentCompleted struct {
	ProjectID    string    `json:"project_id"`
	DeploymentID string    `json:"deployment_id"`
	Status       string    `json:"status"`
	URL          string    `json:"url,omitempty"`
	At           time.Time `json:"at"`
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(string, any) error { return nil }

func (Noop) Close() {}
