package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/zhouzirui/creator-surge/backend/internal/model/chat"
	"github.com/zhouzirui/creator-surge/backend/internal/model/project"
)

// MemoryStore keeps everything in process memory. State is lost on restart.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]chat.Conversation
	messages      map[string][]chat.Message

	projects      map[string]project.Project
	chats         map[string][]project.Chat
	deployments   map[string][]project.Deployment
	collaborators map[string][]project.Collaborator
	activities    map[string][]project.Activity
	comments      map[string][]project.Comment
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]chat.Conversation),
		messages:      make(map[string][]chat.Message),
		projects:      make(map[string]project.Project),
		chats:         make(map[string][]project.Chat),
		deployments:   make(map[string][]project.Deployment),
		collaborators: make(map[string][]project.Collaborator),
		activities:    make(map[string][]project.Activity),
		comments:      make(map[string][]project.Comment),
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() {}

func (s *MemoryStore) CreateConversation(_ context.Context, c chat.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[c.ID]; ok {
		return ErrConflict
	}
	s.conversations[c.ID] = c
	s.messages[c.ID] = make([]chat.Message, 0, 16)
	return nil
}

func (s *MemoryStore) ListConversations(context.Context) ([]chat.Conversation, error) {
	s.mu.RLock()
	out := make([]chat.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, c)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b chat.Conversation) int {
		if n := b.Timestamp.Compare(a.Timestamp); n != 0 {
			return n
		}
		return strings.Compare(a.ID, b.ID)
	})
	if len(out) > MaxConversations {
		out = out[:MaxConversations]
	}
	return out, nil
}

func (s *MemoryStore) GetConversation(_ context.Context, id string) (chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return chat.Conversation{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) DeleteConversation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return ErrNotFound
	}
	delete(s.conversations, id)
	delete(s.messages, id)
	return nil
}

func (s *MemoryStore) ListMessages(_ context.Context, conversationID string) ([]chat.Message, error) {
	s.mu.RLock()
	out := slices.Clone(s.messages[conversationID])
	s.mu.RUnlock()

	sortMessages(out)
	if out == nil {
		out = []chat.Message{}
	}
	return out, nil
}

func (s *MemoryStore) RecentMessages(ctx context.Context, conversationID string, limit int) ([]chat.Message, error) {
	all, err := s.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return tail(all, limit), nil
}

func (s *MemoryStore) RecordTurn(_ context.Context, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := turn.User.ConversationID
	c, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}

	s.messages[id] = append(s.messages[id], turn.User, turn.Assistant)
	c.Preview = turn.Preview
	c.Timestamp = turn.At
	c.MessageCount += 2
	s.conversations[id] = c
	return nil
}

func (s *MemoryStore) CreateProject(_ context.Context, p project.Project, activity project.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[p.ID]; ok {
		return ErrConflict
	}
	s.projects[p.ID] = cloneProject(p)
	s.activities[p.ID] = append(s.activities[p.ID], activity)
	return nil
}

func (s *MemoryStore) ListProjects(_ context.Context, userID string) ([]project.Project, error) {
	s.mu.RLock()
	out := make([]project.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if p.UserID == userID {
			out = append(out, cloneProject(p))
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b project.Project) int {
		if n := b.UpdatedAt.Compare(a.UpdatedAt); n != 0 {
			return n
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *MemoryStore) GetProject(_ context.Context, id string) (project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return project.Project{}, ErrNotFound
	}
	return cloneProject(p), nil
}

func (s *MemoryStore) UpdateProject(_ context.Context, p project.Project, activity project.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[p.ID]; !ok {
		return ErrNotFound
	}
	s.projects[p.ID] = cloneProject(p)
	s.activities[p.ID] = append(s.activities[p.ID], activity)
	return nil
}

func (s *MemoryStore) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return ErrNotFound
	}
	delete(s.projects, id)
	delete(s.chats, id)
	delete(s.deployments, id)
	delete(s.collaborators, id)
	delete(s.activities, id)
	delete(s.comments, id)
	return nil
}

func (s *MemoryStore) ListProjectChats(_ context.Context, projectID string) ([]project.Chat, error) {
	s.mu.RLock()
	out := make([]project.Chat, 0, len(s.chats[projectID]))
	for _, c := range s.chats[projectID] {
		out = append(out, cloneChat(c))
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b project.Chat) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out, nil
}

func (s *MemoryStore) RecentProjectChats(ctx context.Context, projectID string, limit int) ([]project.Chat, error) {
	all, err := s.ListProjectChats(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return tail(all, limit), nil
}

func (s *MemoryStore) RecordProjectTurn(_ context.Context, turn ProjectTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := turn.User.ProjectID
	p, ok := s.projects[id]
	if !ok {
		return ErrNotFound
	}

	s.chats[id] = append(s.chats[id], cloneChat(turn.User), cloneChat(turn.Assistant))
	s.activities[id] = append(s.activities[id], turn.Activity)
	p.UpdatedAt = turn.Assistant.Timestamp
	s.projects[id] = p
	return nil
}

func (s *MemoryStore) SaveDeployment(_ context.Context, d project.Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveDeploymentLocked(d)
}

func (s *MemoryStore) saveDeploymentLocked(d project.Deployment) error {
	if _, ok := s.projects[d.ProjectID]; !ok {
		return ErrNotFound
	}
	d.BuildLogs = slices.Clone(d.BuildLogs)

	list := s.deployments[d.ProjectID]
	for i := range list {
		if list[i].ID == d.ID {
			list[i] = d
			return nil
		}
	}
	s.deployments[d.ProjectID] = append(list, d)
	return nil
}

func (s *MemoryStore) CompleteDeployment(_ context.Context, d project.Deployment, p *project.Project, activity project.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveDeploymentLocked(d); err != nil {
		return err
	}
	if p != nil {
		s.projects[p.ID] = cloneProject(*p)
	}
	s.activities[d.ProjectID] = append(s.activities[d.ProjectID], activity)
	return nil
}

func (s *MemoryStore) ListDeployments(_ context.Context, projectID string) ([]project.Deployment, error) {
	s.mu.RLock()
	out := make([]project.Deployment, 0, len(s.deployments[projectID]))
	for _, d := range s.deployments[projectID] {
		d.BuildLogs = slices.Clone(d.BuildLogs)
		out = append(out, d)
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b project.Deployment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) AddCollaborator(_ context.Context, c project.Collaborator, activity project.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[c.ProjectID]; !ok {
		return ErrNotFound
	}
	for _, existing := range s.collaborators[c.ProjectID] {
		if strings.EqualFold(existing.Email, c.Email) {
			return ErrConflict
		}
	}
	s.collaborators[c.ProjectID] = append(s.collaborators[c.ProjectID], c)
	s.activities[c.ProjectID] = append(s.activities[c.ProjectID], activity)
	return nil
}

func (s *MemoryStore) ListCollaborators(_ context.Context, projectID string) ([]project.Collaborator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]project.Collaborator{}, s.collaborators[projectID]...), nil
}

func (s *MemoryStore) AddComment(_ context.Context, c project.Comment, activity project.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[c.ProjectID]; !ok {
		return ErrNotFound
	}
	s.comments[c.ProjectID] = append(s.comments[c.ProjectID], c)
	s.activities[c.ProjectID] = append(s.activities[c.ProjectID], activity)
	return nil
}

func (s *MemoryStore) ListComments(_ context.Context, projectID string) ([]project.Comment, error) {
	s.mu.RLock()
	out := append([]project.Comment{}, s.comments[projectID]...)
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b project.Comment) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out, nil
}

func (s *MemoryStore) ListActivities(_ context.Context, projectID string, limit int) ([]project.Activity, error) {
	s.mu.RLock()
	out := append([]project.Activity{}, s.activities[projectID]...)
	s.mu.RUnlock()

	// Reverse first so equal timestamps keep newest-appended first.
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b project.Activity) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortMessages(msgs []chat.Message) {
	slices.SortStableFunc(msgs, func(a, b chat.Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

func tail[T any](items []T, limit int) []T {
	if limit <= 0 || len(items) <= limit {
		return items
	}
	return items[len(items)-limit:]
}

func cloneProject(p project.Project) project.Project {
	p.TechStack = slices.Clone(p.TechStack)
	if p.DeploymentURL != nil {
		url := *p.DeploymentURL
		p.DeploymentURL = &url
	}
	return p
}

func cloneChat(c project.Chat) project.Chat {
	if c.CodeGenerated != nil {
		bundle := project.CodeBundle{Files: slices.Clone(c.CodeGenerated.Files)}
		c.CodeGenerated = &bundle
	}
	return c
}

