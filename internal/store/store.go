package store

import (
	"context"
	"errors"
	"time"

	"github.com/zhouzirui/creator-surge/backend/internal/model/chat"
	"github.com/zhouzirui/creator-surge/backend/internal/model/project"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// MaxConversations caps a single conversation listing.
const MaxConversations = 1000

// Turn is one completed exchange: the user's message, the reply and the
// summary fields of the owning conversation.
type Turn struct {
	User      chat.Message
	Assistant chat.Message
	Preview   string
	At        time.Time
}

// ConversationStore persists conversations and their messages.
type ConversationStore interface {
	CreateConversation(ctx context.Context, c chat.Conversation) error
	// ListConversations returns conversations newest first, at most MaxConversations.
	ListConversations(ctx context.Context) ([]chat.Conversation, error)
	GetConversation(ctx context.Context, id string) (chat.Conversation, error)
	// DeleteConversation removes the conversation and all of its messages.
	DeleteConversation(ctx context.Context, id string) error
	// ListMessages returns the full transcript in timestamp order.
	ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error)
	// RecentMessages returns the last limit messages, still in timestamp order.
	RecentMessages(ctx context.Context, conversationID string, limit int) ([]chat.Message, error)
	// RecordTurn stores both messages and bumps the conversation summary in one step.
	RecordTurn(ctx context.Context, turn Turn) error
}

// ProjectTurn is one code-generation exchange within a project.
type ProjectTurn struct {
	User      project.Chat
	Assistant project.Chat
	Activity  project.Activity
}

// ProjectStore persists DevForge projects and everything hanging off them.
type ProjectStore interface {
	CreateProject(ctx context.Context, p project.Project, activity project.Activity) error
	// ListProjects returns the user's projects, most recently updated first.
	ListProjects(ctx context.Context, userID string) ([]project.Project, error)
	GetProject(ctx context.Context, id string) (project.Project, error)
	UpdateProject(ctx context.Context, p project.Project, activity project.Activity) error
	// DeleteProject cascades to chats, deployments, collaborators, activities and comments.
	DeleteProject(ctx context.Context, id string) error

	ListProjectChats(ctx context.Context, projectID string) ([]project.Chat, error)
	RecentProjectChats(ctx context.Context, projectID string, limit int) ([]project.Chat, error)
	RecordProjectTurn(ctx context.Context, turn ProjectTurn) error

	SaveDeployment(ctx context.Context, d project.Deployment) error
	// CompleteDeployment stores the final deployment state, and when p is
	// non-nil the deployed project, together with the activity entry.
	CompleteDeployment(ctx context.Context, d project.Deployment, p *project.Project, activity project.Activity) error
	ListDeployments(ctx context.Context, projectID string) ([]project.Deployment, error)

	// AddCollaborator fails with ErrConflict when the email is already on the project.
	AddCollaborator(ctx context.Context, c project.Collaborator, activity project.Activity) error
	ListCollaborators(ctx context.Context, projectID string) ([]project.Collaborator, error)

	AddComment(ctx context.Context, c project.Comment, activity project.Activity) error
	ListComments(ctx context.Context, projectID string) ([]project.Comment, error)

	// ListActivities returns the feed newest first.
	ListActivities(ctx context.Context, projectID string, limit int) ([]project.Activity, error)
}

// Store is the full persistence boundary used by the server.
type Store interface {
	ConversationStore
	ProjectStore
	Ping(ctx context.Context) error
	Close()
}
